package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mohammad-safakhou/tutor/internal/emotion"
)

// OpenAITranscriber uses the Whisper API.
type OpenAITranscriber struct {
	client *openai.Client
}

func NewOpenAITranscriber(apiKey string) *OpenAITranscriber {
	return &OpenAITranscriber{client: openai.NewClient(apiKey)}
}

func (t *OpenAITranscriber) Name() string { return "openai" }

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "audio." + format,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcription: %w", err)
	}
	return resp.Text, nil
}

// openaiVoices maps emotions onto TTS voices.
var openaiVoices = map[emotion.Emotion]openai.SpeechVoice{
	emotion.Happy:       openai.VoiceAlloy,
	emotion.Explaining:  openai.VoiceNova,
	emotion.Thinking:    openai.VoiceOnyx,
	emotion.Confused:    openai.VoiceEcho,
	emotion.Encouraging: openai.VoiceShimmer,
	emotion.Neutral:     openai.VoiceNova,
}

// OpenAISynthesizer uses the OpenAI speech API.
type OpenAISynthesizer struct {
	client *openai.Client
}

func NewOpenAISynthesizer(apiKey string) *OpenAISynthesizer {
	return &OpenAISynthesizer{client: openai.NewClient(apiKey)}
}

func (s *OpenAISynthesizer) Name() string { return "openai" }

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string, opts SynthesisOptions) ([]byte, error) {
	voice, ok := openaiVoices[opts.Emotion]
	if !ok {
		voice = openai.VoiceNova
	}
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1,
		Input: text,
		Voice: voice,
		Speed: opts.Speed,
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer resp.Close()
	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	return audio, nil
}
