package messagelist

import (
	"time"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// ensureTimestamp assigns a synthesized createdAt to messages lacking one and
// feeds explicit timestamps into the synthesizer state. Synthesized values
// are strictly increasing within the list, so two un-timestamped messages
// added in sequence never tie. Explicit timestamps, in particular those of
// memory-sourced historical messages, are never altered.
func (l *List) ensureTimestamp(msg *messages.MessageV2, _ Source) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = l.nextTimestamp()
		return
	}
	l.observeTimestamp(msg.CreatedAt)
}

// nextTimestamp issues a timestamp strictly after every timestamp this list
// has issued or observed. When wall time has not advanced past the last known
// value, the clock steps forward by a millisecond instead.
func (l *List) nextTimestamp() time.Time {
	now := time.Now().UTC()
	if !now.After(l.lastTimestamp) {
		now = l.lastTimestamp.Add(time.Millisecond)
	}
	l.lastTimestamp = now
	return now
}

// observeTimestamp advances the synthesizer state past an explicit timestamp
// so later synthesized values sort after it.
func (l *List) observeTimestamp(t time.Time) {
	if t.After(l.lastTimestamp) {
		l.lastTimestamp = t
	}
}
