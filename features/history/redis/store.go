// Package redis provides a Redis-backed history store. Each thread keeps a
// hash of canonical JSON payloads keyed by message ID plus a sorted set
// ordering IDs by createdAt, so upserts are idempotent and loads come back
// in order without client-side sorting.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

const defaultKeyPrefix = "history"

type (
	// Options configures the Store.
	Options struct {
		// Redis is the Redis connection backing the store. Required.
		Redis redis.Cmdable
		// KeyPrefix namespaces the per-thread keys. Defaults to "history".
		KeyPrefix string
		// OperationTimeout bounds individual Load and Save operations. Zero
		// means no timeout.
		OperationTimeout time.Duration
	}

	// Store implements messagelist.History on Redis.
	Store struct {
		redis   redis.Cmdable
		prefix  string
		timeout time.Duration
	}
)

// New constructs a Redis-backed history store. The Redis field in opts is
// required; other fields are optional.
func New(opts Options) (*Store, error) {
	if opts.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Store{
		redis:   opts.Redis,
		prefix:  prefix,
		timeout: opts.OperationTimeout,
	}, nil
}

// Load returns the stored messages of a thread in ascending createdAt order.
func (s *Store) Load(ctx context.Context, threadID string) ([]*messages.MessageV2, error) {
	if threadID == "" {
		return nil, errors.New("thread id is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ids, err := s.redis.ZRange(ctx, s.orderKey(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", threadID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	payloads, err := s.redis.HMGet(ctx, s.payloadKey(threadID), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", threadID, err)
	}
	out := make([]*messages.MessageV2, 0, len(payloads))
	for i, raw := range payloads {
		payload, ok := raw.(string)
		if !ok {
			// Orphaned order entry; the payload was removed out of band.
			continue
		}
		var msg messages.MessageV2
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return nil, fmt.Errorf("decode message %s: %w", ids[i], err)
		}
		out = append(out, &msg)
	}
	return out, nil
}

// Save upserts a batch of messages keyed by message ID.
func (s *Store) Save(ctx context.Context, msgs []*messages.MessageV2) error {
	if len(msgs) == 0 {
		return nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	for _, msg := range msgs {
		if msg.ThreadID == "" {
			return fmt.Errorf("message %s has no thread id", msg.ID)
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encode message %s: %w", msg.ID, err)
		}
		if err := s.redis.HSet(ctx, s.payloadKey(msg.ThreadID), msg.ID, string(payload)).Err(); err != nil {
			return fmt.Errorf("save message %s: %w", msg.ID, err)
		}
		score := float64(msg.CreatedAt.UTC().UnixMilli())
		if err := s.redis.ZAdd(ctx, s.orderKey(msg.ThreadID), redis.Z{Score: score, Member: msg.ID}).Err(); err != nil {
			return fmt.Errorf("save message %s: %w", msg.ID, err)
		}
	}
	return nil
}

// DeleteThread removes a thread's entire history.
func (s *Store) DeleteThread(ctx context.Context, threadID string) error {
	if threadID == "" {
		return errors.New("thread id is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.redis.Del(ctx, s.payloadKey(threadID), s.orderKey(threadID)).Err()
}

func (s *Store) payloadKey(threadID string) string {
	return s.prefix + ":" + threadID + ":msgs"
}

func (s *Store) orderKey(threadID string) string {
	return s.prefix + ":" + threadID + ":order"
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
