package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/tutor/config"
	"github.com/mohammad-safakhou/tutor/internal/emotion"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("session not found")

// Exchange is one question/answer turn.
type Exchange struct {
	Question  string          `json:"question"`
	Answer    string          `json:"answer"`
	Emotion   emotion.Emotion `json:"emotion"`
	Timestamp time.Time       `json:"timestamp"`
}

// Record is the full state of one session.
type Record struct {
	ID           string     `json:"id"`
	Created      time.Time  `json:"created"`
	MessageCount int        `json:"message_count"`
	History      []Exchange `json:"history"`
}

// Summary lists a session without its history.
type Summary struct {
	ID           string    `json:"id"`
	Created      time.Time `json:"created"`
	MessageCount int       `json:"message_count"`
}

// Store tracks conversation sessions. Implementations must be safe for
// concurrent use.
type Store interface {
	// GetOrCreate returns id when it names an existing session, otherwise
	// mints a fresh one and returns its new id.
	GetOrCreate(id string) (string, error)
	// AppendExchange records one turn, evicting the oldest entries beyond
	// the history cap.
	AppendExchange(id, question, answer string, emo emotion.Emotion) error
	// Reset clears history and message count but keeps the record.
	Reset(id string) error
	// List returns summaries of all sessions.
	List() ([]Summary, error)
	// Get returns the full record, or ErrNotFound.
	Get(id string) (Record, error)
}

// NewStore builds the configured store backend.
func NewStore(cfg config.SessionConfig) (Store, error) {
	switch cfg.Store {
	case "inmemory":
		return NewInMemoryStore(cfg.MaxHistory), nil
	case "redis":
		return NewRedisStore(cfg)
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.Store)
	}
}
