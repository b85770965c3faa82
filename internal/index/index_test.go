package index

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/mohammad-safakhou/tutor/internal/ingest"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	logger := log.New(os.Stderr, "[TEST] ", log.LstdFlags)
	ix, err := New(t.TempDir(), nil, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ix
}

var corpus = []ingest.Chunk{
	{Source: "python.txt", Seq: 0, Text: "Python is a high-level programming language."},
	{Source: "ml.txt", Seq: 0, Text: "Machine Learning is a subset of AI that enables systems to learn from data."},
	{Source: "nlp.txt", Seq: 0, Text: "Natural Language Processing helps computers understand human language."},
}

func TestRetrieveLexicalFallback(t *testing.T) {
	ix := newTestIndex(t)
	if err := ix.Rebuild(context.Background(), corpus); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	hits, degraded, err := ix.Retrieve(context.Background(), "What is Python?", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !degraded {
		t.Error("expected degraded retrieval without embedding function")
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].Source != "python.txt" {
		t.Errorf("expected python.txt first, got %s", hits[0].Source)
	}
}

func TestRetrieveHonorsK(t *testing.T) {
	ix := newTestIndex(t)
	if err := ix.Rebuild(context.Background(), corpus); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	hits, _, err := ix.Retrieve(context.Background(), "language", 1)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) > 1 {
		t.Errorf("expected at most 1 hit, got %d", len(hits))
	}
}

func TestRetrieveBeforeBuildFails(t *testing.T) {
	ix := newTestIndex(t)
	if _, _, err := ix.Retrieve(context.Background(), "anything", 3); err == nil {
		t.Error("expected error before Rebuild")
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	ix := newTestIndex(t)
	for i := 0; i < 2; i++ {
		if err := ix.Rebuild(context.Background(), corpus); err != nil {
			t.Fatalf("Rebuild #%d: %v", i+1, err)
		}
	}
	hits, _, err := ix.Retrieve(context.Background(), "machine learning", 10)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) > len(corpus) {
		t.Errorf("duplicate entries after rebuild: %d hits", len(hits))
	}
}
