package index

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/blevesearch/bleve"
	chromem "github.com/philippgille/chromem-go"

	"github.com/mohammad-safakhou/tutor/internal/ingest"
)

const collection = "knowledge"

// Hit is a single retrieval result, closest first.
type Hit struct {
	Source string
	Text   string
	Score  float32
}

// Index persists chunk embeddings on disk and answers nearest-neighbour
// queries. When no embedding function is available (or the vector query
// fails) it degrades to an in-memory BM25 index over the same chunks.
type Index struct {
	db      *chromem.DB
	embedFn chromem.EmbeddingFunc
	lexical bleve.Index
	texts   map[string]ingest.Chunk
	logger  *log.Logger
}

// New opens (or creates) the persistent vector store at persistDir. embedFn
// may be nil, in which case only the lexical index serves queries.
func New(persistDir string, embedFn chromem.EmbeddingFunc, logger *log.Logger) (*Index, error) {
	if err := os.MkdirAll(persistDir, 0o750); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(persistDir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	return &Index{
		db:      db,
		embedFn: embedFn,
		texts:   make(map[string]ingest.Chunk),
		logger:  logger,
	}, nil
}

// Ready reports whether a previous build is already persisted.
func (ix *Index) Ready() bool {
	col := ix.db.GetCollection(collection, ix.embedFn)
	return col != nil && col.Count() > 0
}

// Rebuild replaces the index contents with the given chunks. It is
// idempotent: an existing collection is dropped first.
func (ix *Index) Rebuild(ctx context.Context, chunks []ingest.Chunk) error {
	if err := ix.buildLexical(chunks); err != nil {
		return err
	}

	if ix.embedFn == nil {
		ix.logger.Printf("no embedding function configured, lexical index only")
		return nil
	}

	_ = ix.db.DeleteCollection(collection)
	col, err := ix.db.CreateCollection(collection, nil, ix.embedFn)
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:      chunkID(c),
			Content: c.Text,
			Metadata: map[string]string{
				"source": c.Source,
				"seq":    strconv.Itoa(c.Seq),
			},
		})
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}
	ix.logger.Printf("indexed %d chunks", len(chunks))
	return nil
}

// LoadLexical rebuilds only the in-memory BM25 side from chunks, for use when
// the persisted vector index is already current.
func (ix *Index) LoadLexical(chunks []ingest.Chunk) error {
	return ix.buildLexical(chunks)
}

func (ix *Index) buildLexical(chunks []ingest.Chunk) error {
	lex, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("create lexical index: %w", err)
	}
	for _, c := range chunks {
		id := chunkID(c)
		ix.texts[id] = c
		if err := lex.Index(id, map[string]string{"text": c.Text}); err != nil {
			return fmt.Errorf("index chunk %s: %w", id, err)
		}
	}
	ix.lexical = lex
	return nil
}

// Retrieve returns up to k chunks most relevant to query, closest first.
// degraded is true when the result came from the BM25 fallback rather than
// the vector store.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) (hits []Hit, degraded bool, err error) {
	if ix.embedFn != nil {
		col := ix.db.GetCollection(collection, ix.embedFn)
		if col != nil && col.Count() > 0 {
			n := k
			if c := col.Count(); n > c {
				n = c
			}
			results, qerr := col.Query(ctx, query, n, nil, nil)
			if qerr == nil {
				for _, r := range results {
					hits = append(hits, Hit{Source: r.Metadata["source"], Text: r.Content, Score: r.Similarity})
				}
				return hits, false, nil
			}
			ix.logger.Printf("vector query failed, falling back to lexical: %v", qerr)
		}
	}

	if ix.lexical == nil {
		return nil, true, fmt.Errorf("index not built")
	}
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = k
	res, serr := ix.lexical.Search(req)
	if serr != nil {
		return nil, true, fmt.Errorf("lexical search: %w", serr)
	}
	for _, h := range res.Hits {
		c, ok := ix.texts[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, Hit{Source: c.Source, Text: c.Text, Score: float32(h.Score)})
	}
	return hits, true, nil
}

func chunkID(c ingest.Chunk) string {
	return fmt.Sprintf("%s#%d", c.Source, c.Seq)
}
