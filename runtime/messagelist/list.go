// Package messagelist implements the multi-format chat-message normalization
// and merge engine. A List ingests messages in any of six wire dialects,
// maintains a single canonical ordered sequence, and regenerates any input
// dialect on demand.
//
// The List is synchronous and holds no locks: all mutations execute to
// completion on in-memory structures, and callers are expected to serialize
// Add calls for a given instance (typically by awaiting each streamed delta
// before processing the next). Projections are read-only and side-effect
// free.
package messagelist

import (
	"context"
	"sort"
	"time"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

type (
	// Source tags how a message was introduced to the list. It determines the
	// provenance set the message lands in and whether memory-replay
	// deduplication applies.
	Source string

	// Options configures a List.
	Options struct {
		// ThreadID binds the list to a thread; ingested messages carrying a
		// different threadId are rejected.
		ThreadID string
		// ResourceID binds the list to an owning resource.
		ResourceID string
		// PreserveTagsOnMerge keeps the merge target in its original provenance
		// set instead of reassigning it to the incoming message's set. Used by
		// one legacy multi-agent composition flow where first-arrival ownership
		// must be preserved.
		PreserveTagsOnMerge bool
	}

	// List is the canonical message store: an ordered V2 sequence plus
	// provenance tag sets, system message collections, and the monotonic
	// timestamp state used to synthesize createdAt values.
	List struct {
		threadID   string
		resourceID string

		msgs []*messages.MessageV2

		// tags maps message ID to its provenance set. Membership is mutually
		// exclusive by construction; a merge reassigns the target's tag.
		tags map[string]Source
		// pending maps message ID to its provenance for messages not yet
		// drained to durable storage. Draining moves entries to persisted.
		pending map[string]Source
		// persisted shadows the tags of messages already flushed.
		persisted map[string]Source

		system       []*messages.MessageV2
		taggedSystem map[string][]*messages.MessageV2

		// lastTimestamp is the synthesizer state: the highest createdAt this
		// list has issued or observed. Owned per instance so independent lists
		// never interfere.
		lastTimestamp time.Time

		preserveTagsOnMerge bool
	}
)

// Ingestion sources.
const (
	// SourceMemory marks messages replayed from durable storage.
	SourceMemory Source = "memory"
	// SourceInput marks new user input.
	SourceInput Source = "input"
	// SourceResponse marks new assistant output.
	SourceResponse Source = "response"
	// SourceSystem marks system prompt injection.
	SourceSystem Source = "system"
	// SourceContext marks contextual messages injected by the caller.
	SourceContext Source = "context"
	// SourceUser is a deprecated alias of SourceInput.
	SourceUser Source = "user"
)

// New constructs an empty List.
func New(opts Options) *List {
	return &List{
		threadID:            opts.ThreadID,
		resourceID:          opts.ResourceID,
		tags:                make(map[string]Source),
		pending:             make(map[string]Source),
		persisted:           make(map[string]Source),
		taggedSystem:        make(map[string][]*messages.MessageV2),
		preserveTagsOnMerge: opts.PreserveTagsOnMerge,
	}
}

// ThreadID returns the thread the list is bound to, if any.
func (l *List) ThreadID() string { return l.threadID }

// ResourceID returns the resource the list is bound to, if any.
func (l *List) ResourceID() string { return l.resourceID }

// Len returns the number of canonical messages in the list.
func (l *List) Len() int { return len(l.msgs) }

// Add ingests one message or a batch of messages. input may be a typed
// dialect message (canonical V1/V2/V3, either UI shape, either model shape),
// a plain string (shorthand for a user text message), a decoded JSON object,
// raw JSON bytes, or a slice of any of these. source tags the provenance.
//
// Add returns the list so calls chain. Caller-input shape errors (empty
// content, thread/resource mismatch, unclassifiable input) are returned
// immediately; format quirks inside an otherwise valid message are handled
// best-effort and never abort ingestion.
func (l *List) Add(ctx context.Context, input any, source Source) (*List, error) {
	if source == SourceUser {
		source = SourceInput
	}
	for _, one := range flatten(input) {
		if err := l.addOne(ctx, one, source); err != nil {
			return l, err
		}
	}
	return l, nil
}

// AddSystem injects one or more system messages, optionally under a named
// tag for independent retrieval and clearing. Duplicate system text (per
// tag) is dropped.
func (l *List) AddSystem(ctx context.Context, input any, tag string) (*List, error) {
	for _, one := range flatten(input) {
		msg, err := l.normalize(ctx, one, SourceSystem)
		if err != nil {
			return l, err
		}
		l.addSystemMessage(msg, tag)
	}
	return l, nil
}

// SystemMessages returns the top-level system messages when tag is empty, or
// the tagged group otherwise.
func (l *List) SystemMessages(tag string) []*messages.MessageV2 {
	if tag == "" {
		return cloneSlice(l.system)
	}
	return cloneSlice(l.taggedSystem[tag])
}

// ClearSystemMessages removes the top-level system messages when tag is
// empty, or the tagged group otherwise.
func (l *List) ClearSystemMessages(tag string) {
	if tag == "" {
		l.system = nil
		return
	}
	delete(l.taggedSystem, tag)
}

// DrainUnsaved returns the messages tagged input or response that have not
// yet been flushed to durable storage, clears those tags (the drained
// messages are retagged as memory, which is what they now are), and records
// them in the persisted shadow set. Memory-tagged messages are untouched.
// The returned slice is ordered by createdAt.
func (l *List) DrainUnsaved() []*messages.MessageV2 {
	var out []*messages.MessageV2
	for _, m := range l.msgs {
		src, ok := l.pending[m.ID]
		if !ok || (src != SourceInput && src != SourceResponse) {
			continue
		}
		out = append(out, m)
		l.persisted[m.ID] = src
		delete(l.pending, m.ID)
		l.tags[m.ID] = SourceMemory
	}
	return out
}

// EarliestUnsaved returns the createdAt of the oldest message pending a
// flush, or the zero time when nothing is pending. Supports upstream
// staleness checks.
func (l *List) EarliestUnsaved() time.Time {
	var earliest time.Time
	for _, m := range l.msgs {
		src, ok := l.pending[m.ID]
		if !ok || (src != SourceInput && src != SourceResponse) {
			continue
		}
		if earliest.IsZero() || m.CreatedAt.Before(earliest) {
			earliest = m.CreatedAt
		}
	}
	return earliest
}

// addOne runs the per-message ingestion state machine: validate, redirect
// system messages, convert to canonical V2, deduplicate memory replays, and
// merge into the trailing assistant turn or append.
func (l *List) addOne(ctx context.Context, input any, source Source) error {
	msg, err := l.normalize(ctx, input, source)
	if err != nil {
		return err
	}
	if msg.Role == messages.RoleSystem {
		// System messages never enter the canonical array. They were also
		// historically mis-persisted, so a memory replay of one must not
		// resurrect it into the system collections.
		if source != SourceMemory {
			l.addSystemMessage(msg, "")
		}
		return nil
	}
	return l.ingest(msg, source)
}

func (l *List) ingest(msg *messages.MessageV2, source Source) error {
	fp := messages.Fingerprint(msg)

	// A message offered with the same id but different content replaces the
	// stored one in place.
	existingIdx := l.indexOf(msg.ID)
	shouldReplace := existingIdx >= 0 && messages.Fingerprint(l.msgs[existingIdx]) != fp

	// Memory replays of already-present content are a no-op: re-ingestion
	// from a persistence layer must be idempotent.
	if source == SourceMemory {
		for _, m := range l.msgs {
			if messages.Fingerprint(m) == fp {
				if msg.CreatedAt.After(m.CreatedAt) {
					m.CreatedAt = msg.CreatedAt
					l.observeTimestamp(m.CreatedAt)
					l.resort()
				}
				return nil
			}
		}
	}

	l.ensureTimestamp(msg, source)

	// Streaming assistant output coalesces into the trailing assistant turn.
	// Deltas that reuse the trailing turn's id merge like any other delta;
	// only an id collision with an earlier message falls through to the
	// replace-in-place path.
	if source != SourceMemory && len(l.msgs) > 0 &&
		(existingIdx < 0 || existingIdx == len(l.msgs)-1) {
		last := l.msgs[len(l.msgs)-1]
		if last.Role == messages.RoleAssistant && msg.Role == messages.RoleAssistant &&
			sameThread(last, msg) {
			l.mergeAssistant(last, msg, source)
			l.resort()
			return nil
		}
	}

	switch {
	case shouldReplace:
		msg.CreatedAt = maxTime(msg.CreatedAt, l.msgs[existingIdx].CreatedAt)
		l.msgs[existingIdx] = msg
	case existingIdx >= 0:
		// Identical message already present; refresh nothing.
		return nil
	default:
		l.msgs = append(l.msgs, msg)
	}
	l.resort()
	l.tag(msg.ID, source)
	return nil
}

// resort restores ascending createdAt order. The primary ordering mechanism
// is the timestamp synthesizer; the stable sort is a correctness backstop.
func (l *List) resort() {
	sort.SliceStable(l.msgs, func(i, j int) bool {
		return l.msgs[i].CreatedAt.Before(l.msgs[j].CreatedAt)
	})
}

// tag records provenance for a message, enforcing mutual exclusivity across
// the four sets, and marks the message pending a flush.
func (l *List) tag(id string, source Source) {
	if source == SourceUser {
		source = SourceInput
	}
	l.tags[id] = source
	if _, done := l.persisted[id]; !done {
		l.pending[id] = source
	}
}

func (l *List) indexOf(id string) int {
	for i, m := range l.msgs {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (l *List) addSystemMessage(msg *messages.MessageV2, tag string) {
	text := msg.TextContent()
	if text == "" {
		return
	}
	group := l.system
	if tag != "" {
		group = l.taggedSystem[tag]
	}
	for _, existing := range group {
		if existing.TextContent() == text {
			return
		}
	}
	if tag == "" {
		l.system = append(l.system, msg)
		return
	}
	l.taggedSystem[tag] = append(l.taggedSystem[tag], msg)
}

func sameThread(a, b *messages.MessageV2) bool {
	return a.ThreadID == b.ThreadID || a.ThreadID == "" || b.ThreadID == ""
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func cloneSlice(in []*messages.MessageV2) []*messages.MessageV2 {
	if len(in) == 0 {
		return nil
	}
	out := make([]*messages.MessageV2, len(in))
	copy(out, in)
	return out
}

// flatten expands slice inputs into individual entries.
func flatten(input any) []any {
	switch v := input.(type) {
	case []any:
		return v
	case []*messages.MessageV2:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	case []messages.MessageV2:
		out := make([]any, len(v))
		for i := range v {
			out[i] = &v[i]
		}
		return out
	case []*messages.MessageV1:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	case []*messages.MessageV3:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	default:
		return []any{input}
	}
}
