package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one record as written to redis.
type Entry struct {
	RunID    string
	At       time.Time
	Channels map[string]float64
}

// Store publishes channel records to a redis stream and keeps the latest values per run.
type Store struct {
	client *redis.Client
	stream string
	maxLen int64
	ttl    time.Duration
}

// NewStore returns redis-backed store. maxLen <= 0 leaves the stream uncapped.
func NewStore(client *redis.Client, stream string, maxLen int64, ttl time.Duration) *Store {
	if stream == "" {
		stream = "meter:channels"
	}
	return &Store{client: client, stream: stream, maxLen: maxLen, ttl: ttl}
}

func (s *Store) latestKey(runID string) string {
	return fmt.Sprintf("%s:latest:%s", s.stream, runID)
}

// Append adds the record to the stream and refreshes the latest-values hash in one pipeline.
func (s *Store) Append(ctx context.Context, e Entry) error {
	values := make(map[string]interface{}, len(e.Channels)+2)
	values["run_id"] = e.RunID
	values["ts"] = e.At.UTC().Format(time.RFC3339)
	latest := make(map[string]interface{}, len(e.Channels)+1)
	latest["ts"] = values["ts"]
	for name, v := range e.Channels {
		formatted := strconv.FormatFloat(v, 'f', -1, 64)
		values[name] = formatted
		latest[name] = formatted
	}

	args := &redis.XAddArgs{Stream: s.stream, Values: values}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XAdd(ctx, args)
		pipe.HSet(ctx, s.latestKey(e.RunID), latest)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.latestKey(e.RunID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: append record: %w", err)
	}
	return nil
}
