// Package mongo wires the messagelist.History interface to the MongoDB
// client.
package mongo

import (
	"context"
	"errors"

	clientsmongo "github.com/vivek100/mastra-subAgentStreaming-sub000/features/history/mongo/clients/mongo"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// Options configures the Store wrapper.
type Options struct {
	Client clientsmongo.Client
}

// Store implements messagelist.History by delegating to the Mongo client.
type Store struct {
	client clientsmongo.Client
}

// NewStore builds a Mongo-backed history store using the provided client.
func NewStore(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("client is required")
	}
	return &Store{client: opts.Client}, nil
}

// NewStoreFromMongo is a helper that instantiates the underlying client using the given options.
func NewStoreFromMongo(opts clientsmongo.Options) (*Store, error) {
	client, err := clientsmongo.New(opts)
	if err != nil {
		return nil, err
	}
	return NewStore(Options{Client: client})
}

// Load returns the stored messages of a thread in ascending createdAt order.
func (s *Store) Load(ctx context.Context, threadID string) ([]*messages.MessageV2, error) {
	return s.client.LoadThread(ctx, threadID)
}

// Save upserts a batch of messages keyed by message ID.
func (s *Store) Save(ctx context.Context, msgs []*messages.MessageV2) error {
	if len(msgs) == 0 {
		return nil
	}
	return s.client.UpsertMessages(ctx, msgs)
}
