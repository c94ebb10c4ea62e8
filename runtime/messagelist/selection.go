package messagelist

import (
	"fmt"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/aiv4"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/aiv5"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// Selection is a read-only view over a subset of the list's canonical
// messages. It carries the projection methods; obtaining or projecting a
// Selection never mutates the list.
type Selection struct {
	list *List
	msgs []*messages.MessageV2
}

// All selects every canonical message in order.
func (l *List) All() Selection {
	return Selection{list: l, msgs: cloneSlice(l.msgs)}
}

// Remembered selects the messages replayed from durable storage.
func (l *List) Remembered() Selection { return l.bySource(SourceMemory) }

// Input selects the new user-input messages of this run.
func (l *List) Input() Selection { return l.bySource(SourceInput) }

// Response selects the new assistant-output messages of this run.
func (l *List) Response() Selection { return l.bySource(SourceResponse) }

// Context selects the caller-injected contextual messages.
func (l *List) Context() Selection { return l.bySource(SourceContext) }

func (l *List) bySource(src Source) Selection {
	var out []*messages.MessageV2
	for _, m := range l.msgs {
		if l.tags[m.ID] == src {
			out = append(out, m)
		}
	}
	return Selection{list: l, msgs: out}
}

// Len returns the number of messages in the selection.
func (s Selection) Len() int { return len(s.msgs) }

// V2 returns the selection in the durable canonical shape.
func (s Selection) V2() []*messages.MessageV2 { return cloneSlice(s.msgs) }

// V3 returns the selection in the richer canonical shape.
func (s Selection) V3() []*messages.MessageV3 {
	out := make([]*messages.MessageV3, len(s.msgs))
	for i, m := range s.msgs {
		out[i] = m.ToV3()
	}
	return out
}

// V1 returns the selection in the flat legacy shape.
func (s Selection) V1() []*messages.MessageV1 {
	out := make([]*messages.MessageV1, len(s.msgs))
	for i, m := range s.msgs {
		out[i] = projectV1(m)
	}
	return out
}

// UIV4 returns the selection in the older UI dialect.
func (s Selection) UIV4() []aiv4.UIMessage {
	out := make([]aiv4.UIMessage, len(s.msgs))
	for i, m := range s.msgs {
		out[i] = projectUIV4(m)
	}
	return out
}

// UIV5 returns the selection in the newer UI dialect.
func (s Selection) UIV5() []aiv5.UIMessage {
	out := make([]aiv5.UIMessage, len(s.msgs))
	for i, m := range s.msgs {
		out[i] = projectUIV5(m)
	}
	return out
}

// CoreV4 returns the selection in the older model dialect, sanitized for
// invocation: unresolved tool calls and empty reasoning are dropped, and
// each resolved tool call emits an assistant tool-call entry followed by a
// tool entry carrying the result.
func (s Selection) CoreV4() []aiv4.CoreMessage {
	var out []aiv4.CoreMessage
	for _, m := range s.msgs {
		out = append(out, projectCoreV4(m)...)
	}
	return out
}

// ModelV5 returns the selection in the newer model dialect, sanitized the
// same way as CoreV4.
func (s Selection) ModelV5() []aiv5.ModelMessage {
	var out []aiv5.ModelMessage
	for _, m := range s.msgs {
		out = append(out, projectModelV5(m)...)
	}
	return out
}

// Project returns the selection in the named dialect. The result is one of
// the typed slices the direct projection methods return; an unknown name is
// an error naming the valid targets.
func (s Selection) Project(dialect Dialect) (any, error) {
	switch dialect {
	case DialectV1:
		return s.V1(), nil
	case DialectV2:
		return s.V2(), nil
	case DialectV3:
		return s.V3(), nil
	case DialectUIV4:
		return s.UIV4(), nil
	case DialectUIV5:
		return s.UIV5(), nil
	case DialectCoreV4:
		return s.CoreV4(), nil
	case DialectModelV5:
		return s.ModelV5(), nil
	default:
		return nil, fmt.Errorf("unknown projection target %q (valid: %s, %s, %s, %s, %s, %s, %s)",
			dialect, DialectV1, DialectV2, DialectV3, DialectUIV4, DialectUIV5, DialectCoreV4, DialectModelV5)
	}
}
