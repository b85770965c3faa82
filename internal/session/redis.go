package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/tutor/config"
	"github.com/mohammad-safakhou/tutor/internal/emotion"
)

// RedisStore keeps session records as JSON values under session:<id>,
// surviving process restarts. A TTL of zero means no expiry.
type RedisStore struct {
	client     *redis.Client
	maxHistory int
	ttl        time.Duration
}

func NewRedisStore(cfg config.SessionConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Redis.Host, cfg.Redis.Port, err)
	}
	return &RedisStore{client: rdb, maxHistory: cfg.MaxHistory, ttl: cfg.TTL}, nil
}

func key(id string) string { return "session:" + id }

func (s *RedisStore) GetOrCreate(id string) (string, error) {
	ctx := context.Background()
	if id != "" {
		exists, err := s.client.Exists(ctx, key(id)).Result()
		if err != nil {
			return "", fmt.Errorf("redis exists: %w", err)
		}
		if exists == 1 {
			return id, nil
		}
	}
	rec := Record{ID: uuid.NewString(), Created: time.Now().UTC()}
	if err := s.save(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *RedisStore) AppendExchange(id, question, answer string, emo emotion.Emotion) error {
	ctx := context.Background()
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	rec.History = append(rec.History, Exchange{
		Question:  question,
		Answer:    answer,
		Emotion:   emo,
		Timestamp: time.Now().UTC(),
	})
	if len(rec.History) > s.maxHistory {
		rec.History = rec.History[len(rec.History)-s.maxHistory:]
	}
	rec.MessageCount++
	return s.save(ctx, rec)
}

func (s *RedisStore) Reset(id string) error {
	ctx := context.Background()
	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	rec.History = nil
	rec.MessageCount = 0
	return s.save(ctx, rec)
}

func (s *RedisStore) List() ([]Summary, error) {
	ctx := context.Background()
	var out []Summary
	iter := s.client.Scan(ctx, 0, "session:*", 0).Iterator()
	for iter.Next(ctx) {
		val, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			continue
		}
		out = append(out, Summary{ID: rec.ID, Created: rec.Created, MessageCount: rec.MessageCount})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	if out == nil {
		out = []Summary{}
	}
	return out, nil
}

func (s *RedisStore) Get(id string) (Record, error) {
	return s.load(context.Background(), id)
}

func (s *RedisStore) load(ctx context.Context, id string) (Record, error) {
	val, err := s.client.Get(ctx, key(id)).Result()
	if err == redis.Nil {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("redis get: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return Record{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return rec, nil
}

func (s *RedisStore) save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", rec.ID, err)
	}
	if err := s.client.Set(ctx, key(rec.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
