package ingest

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is one loaded source file.
type Document struct {
	Source string
	Text   string
}

// Chunk is the retrieval unit: a bounded span of a source document.
type Chunk struct {
	Source string
	Seq    int
	Text   string
}

const sampleDocument = `Welcome to the AI Tutor System!

This is a sample knowledge base document. You can add your own documents here.

Topics covered:
- Python Programming
- Machine Learning
- Data Science
- Natural Language Processing

Python is a high-level programming language known for its simplicity and readability.
Machine Learning is a subset of AI that enables systems to learn from data.
Data Science combines statistics, programming, and domain expertise to extract insights from data.
Natural Language Processing helps computers understand and generate human language.
`

// Load reads every .txt and, best effort, every .pdf file under dir.
// A missing directory is created and seeded with a sample document so the
// pipeline never starts against an empty corpus.
func Load(dir string, logger *log.Logger) ([]Document, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create knowledge dir: %w", err)
		}
		samplePath := filepath.Join(dir, "sample.txt")
		if err := os.WriteFile(samplePath, []byte(sampleDocument), 0o644); err != nil {
			return nil, fmt.Errorf("seed sample document: %w", err)
		}
		logger.Printf("created %s with sample document", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read knowledge dir: %w", err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt":
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			docs = append(docs, Document{Source: path, Text: string(data)})
		case ".pdf":
			text, err := readPDF(path)
			if err != nil {
				// PDF loading is best effort.
				logger.Printf("could not load %s: %v", path, err)
				continue
			}
			docs = append(docs, Document{Source: path, Text: text})
		}
	}

	if len(docs) == 0 {
		logger.Printf("no documents found in %s, using placeholder", dir)
		docs = append(docs, Document{
			Source: "placeholder",
			Text:   "This is an AI tutor system. Add documents to the knowledge base folder.",
		})
	}
	return docs, nil
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Splitter cuts documents into overlapping chunks, preferring to break on
// paragraph, then line, then word boundaries before falling back to raw
// character offsets.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// NewSplitter returns a splitter with the pipeline defaults.
func NewSplitter() Splitter {
	return Splitter{ChunkSize: 1000, Overlap: 200}
}

var separators = []string{"\n\n", "\n", " ", ""}

// SplitAll splits every document and numbers the chunks per source.
func (s Splitter) SplitAll(docs []Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		for i, text := range s.Split(doc.Text) {
			chunks = append(chunks, Chunk{Source: doc.Source, Seq: i, Text: text})
		}
	}
	return chunks
}

// Split returns the chunk texts for a single document.
func (s Splitter) Split(text string) []string {
	parts := s.split(text, separators)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 && strings.TrimSpace(text) != "" {
		out = append(out, strings.TrimSpace(text))
	}
	return out
}

func (s Splitter) split(text string, seps []string) []string {
	if len(text) <= s.ChunkSize {
		return []string{text}
	}

	// Pick the first separator actually present; the empty separator always
	// matches and splits into single characters.
	sep := seps[len(seps)-1]
	var rest []string
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	var splits []string
	if sep == "" {
		for _, r := range text {
			splits = append(splits, string(r))
		}
	} else {
		splits = strings.Split(text, sep)
	}

	// Pieces still over the limit descend to the next separator.
	var pieces []string
	for _, piece := range splits {
		if len(piece) > s.ChunkSize && len(rest) > 0 {
			pieces = append(pieces, s.split(piece, rest)...)
		} else {
			pieces = append(pieces, piece)
		}
	}
	return s.merge(pieces, sep)
}

// merge greedily joins pieces into chunks up to ChunkSize, carrying
// Overlap-worth of trailing pieces into the next chunk.
func (s Splitter) merge(pieces []string, sep string) []string {
	var chunks []string
	var current []string
	total := 0
	sepLen := len(sep)

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunk := strings.Join(current, sep)
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		pieceLen := len(piece)
		if total+pieceLen+sepLen*min(len(current), 1) > s.ChunkSize && len(current) > 0 {
			flush()
			// Drop leading pieces until the carried tail fits in the overlap.
			for total > s.Overlap && len(current) > 0 {
				total -= len(current[0]) + sepLen
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += pieceLen + sepLen
	}
	flush()
	return chunks
}
