// Package model defines the contract shared by the provider adapters. Each
// adapter renders canonical conversation history into its provider's request
// shape and translates the reply back into a canonical assistant message.
package model

import (
	"context"
	"errors"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// ErrRateLimited signals that the provider rejected a request due to rate
// limiting. Adapters wrap provider-specific throttling errors with this
// sentinel so callers can test for it with errors.Is.
var ErrRateLimited = errors.New("model: rate limited")

// Completer is implemented by provider adapters. Complete issues a single
// chat completion for the given conversation and returns the assistant reply.
type Completer interface {
	Complete(ctx context.Context, msgs []*messages.MessageV2) (*messages.MessageV2, error)
}
