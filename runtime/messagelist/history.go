package messagelist

import (
	"context"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// History is the durable storage seam. Implementations persist canonical V2
// batches keyed by thread; the engine itself never talks to storage except
// through this interface.
type History interface {
	// Load returns the stored messages of a thread in ascending createdAt
	// order. A thread with no history returns an empty slice, not an error.
	Load(ctx context.Context, threadID string) ([]*messages.MessageV2, error)
	// Save appends or upserts a batch of messages. Implementations must be
	// idempotent on message ID so a retried flush cannot duplicate.
	Save(ctx context.Context, msgs []*messages.MessageV2) error
}

// Hydrate replays a thread's stored history into the list. Replayed messages
// are tagged as memory, so re-hydrating an already populated list is
// idempotent.
func (l *List) Hydrate(ctx context.Context, h History) error {
	stored, err := h.Load(ctx, l.threadID)
	if err != nil {
		return err
	}
	_, err = l.Add(ctx, stored, SourceMemory)
	return err
}

// Flush drains the unsaved messages and persists them. On storage failure
// the drained messages are re-tagged pending so a later Flush retries them.
func (l *List) Flush(ctx context.Context, h History) error {
	batch := l.DrainUnsaved()
	if len(batch) == 0 {
		return nil
	}
	if err := h.Save(ctx, batch); err != nil {
		for _, m := range batch {
			src := l.persisted[m.ID]
			delete(l.persisted, m.ID)
			l.pending[m.ID] = src
			l.tags[m.ID] = src
		}
		return err
	}
	return nil
}
