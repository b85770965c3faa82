package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/tutor/internal/emotion"
	"github.com/mohammad-safakhou/tutor/internal/index"
	"github.com/mohammad-safakhou/tutor/internal/llm"
	"github.com/mohammad-safakhou/tutor/internal/session"
)

const apologyText = "I apologize, but I encountered an error processing your question. Please try rephrasing it."

const queryPrompt = `You are a helpful AI tutor. Use the following pieces of context to answer the question at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.
Always be encouraging and supportive in your responses.

Context: %s

Question: %s

Helpful Answer:`

const chatSystemPrompt = `You are a friendly and helpful AI tutor having a conversation with a student.
Use the provided context to answer the question.
If you don't know the answer, just say so politely. Always be encouraging and supportive.
Remember previous questions and build upon them when relevant.

Context: %s`

// Result is the outcome of one processed question.
type Result struct {
	Text     string
	Emotion  emotion.Emotion
	Sources  []string
	Degraded bool
}

// Retriever answers nearest-neighbour queries over the corpus.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) (hits []index.Hit, degraded bool, err error)
}

// Processor orchestrates retrieval, prompting and emotion tagging. It holds
// no conversation state of its own: chat history is injected per call, keyed
// by the caller's session.
type Processor struct {
	llm       llm.Provider
	retriever Retriever
	topK      int
	logger    *log.Logger
}

func New(provider llm.Provider, retriever Retriever, topK int, logger *log.Logger) *Processor {
	return &Processor{llm: provider, retriever: retriever, topK: topK, logger: logger}
}

// Process answers a stateless question. Internal failures never propagate:
// the caller gets an apology with a confused tone and the root cause is
// logged.
func (p *Processor) Process(ctx context.Context, question string) Result {
	start := time.Now()
	hits, degraded, err := p.retriever.Retrieve(ctx, question, p.topK)
	if err != nil {
		return p.apologize("retrieval failed", err)
	}

	prompt := fmt.Sprintf(queryPrompt, contextBlock(hits), question)
	answer, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		return p.apologize("llm generate failed", err)
	}

	res := Result{
		Text:     answer,
		Emotion:  emotion.Classify(answer),
		Sources:  sources(hits, p.topK),
		Degraded: degraded,
	}
	p.logger.Printf("query %q answered in %s (emotion=%s, sources=%d)",
		truncate(question, 50), time.Since(start).Round(time.Millisecond), res.Emotion, len(res.Sources))
	return res
}

// ProcessChat answers a conversational question with the session's prior
// turns in context.
func (p *Processor) ProcessChat(ctx context.Context, question string, history []session.Exchange) Result {
	start := time.Now()
	hits, degraded, err := p.retriever.Retrieve(ctx, question, p.topK)
	if err != nil {
		return p.apologize("retrieval failed", err)
	}

	messages := []llm.Message{{Role: "system", Content: fmt.Sprintf(chatSystemPrompt, contextBlock(hits))}}
	for _, turn := range history {
		messages = append(messages,
			llm.Message{Role: "user", Content: turn.Question},
			llm.Message{Role: "assistant", Content: turn.Answer},
		)
	}
	messages = append(messages, llm.Message{Role: "user", Content: question})

	answer, err := p.llm.Chat(ctx, messages)
	if err != nil {
		return p.apologize("llm chat failed", err)
	}

	res := Result{
		Text:     answer,
		Emotion:  emotion.Classify(answer),
		Sources:  sources(hits, p.topK),
		Degraded: degraded,
	}
	p.logger.Printf("chat %q answered in %s (emotion=%s, history=%d)",
		truncate(question, 50), time.Since(start).Round(time.Millisecond), res.Emotion, len(history))
	return res
}

func (p *Processor) apologize(stage string, err error) Result {
	p.logger.Printf("%s: %v", stage, err)
	return Result{Text: apologyText, Emotion: emotion.Confused, Sources: []string{}}
}

func contextBlock(hits []index.Hit) string {
	if len(hits) == 0 {
		return "(no relevant context found)"
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Text)
	}
	return strings.Join(parts, "\n\n")
}

// sources keeps retrieval order and up to limit entries. Duplicates from the
// same origin are possible when multiple chunks share a source.
func sources(hits []index.Hit, limit int) []string {
	out := make([]string, 0, limit)
	for _, h := range hits {
		if len(out) == limit {
			break
		}
		out = append(out, h.Source)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
