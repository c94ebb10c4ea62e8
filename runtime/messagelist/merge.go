package messagelist

import (
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// mergeAssistant coalesces an incoming assistant message into the trailing
// assistant turn. Phase one matches tool invocations by toolCallId and
// upgrades them in place so a streamed result lands on its call, recording
// each match as an anchor. Phase two inserts the remaining parts at positions
// interpolated between the nearest anchors, with identical parts skipped so
// the merge is idempotent.
func (l *List) mergeAssistant(target, incoming *messages.MessageV2, source Source) {
	// An anchor maps an incoming part index to the target index of the tool
	// part it aligned with.
	type anchor struct{ in, at int }
	var (
		anchors []anchor
		toAdd   []int
	)

	for i, part := range incoming.Content.Parts {
		if tp, ok := part.(messages.ToolInvocationPart); ok {
			if j := lastToolPartIndex(target.Content.Parts, tp.ToolInvocation.ToolCallID); j >= 0 {
				existing := target.Content.Parts[j].(messages.ToolInvocationPart)
				upgraded := upgradeInvocation(existing.ToolInvocation, tp.ToolInvocation)
				target.Content.Parts[j] = messages.ToolInvocationPart{ToolInvocation: upgraded}
				target.Content.UpsertToolInvocation(upgraded)
				anchors = append(anchors, anchor{in: i, at: j})
				continue
			}
		}
		toAdd = append(toAdd, i)
	}

	for _, in := range toAdd {
		part := incoming.Content.Parts[in]
		if indexOfFingerprint(target.Content.Parts, messages.PartFingerprint(part)) >= 0 {
			continue
		}

		// Interpolate the insertion point: offset from the nearest left
		// anchor, capped at the nearest right anchor. With no anchor on
		// either side the part appends at the end.
		pos := len(target.Content.Parts)
		for _, a := range anchors {
			if a.in < in {
				pos = a.at + (in - a.in)
			}
		}
		for _, a := range anchors {
			if a.in > in && a.at < pos {
				pos = a.at
			}
		}
		if pos > len(target.Content.Parts) {
			pos = len(target.Content.Parts)
		}

		target.Content.Parts = insertPart(target.Content.Parts, pos, part)
		if tp, ok := part.(messages.ToolInvocationPart); ok {
			target.Content.UpsertToolInvocation(tp.ToolInvocation)
		}
		for i := range anchors {
			if anchors[i].at >= pos {
				anchors[i].at++
			}
		}
	}

	if text := incoming.LatestText(); text != "" {
		target.Content.Content = text
	}
	for _, att := range incoming.Content.Attachments {
		if !hasAttachment(target.Content.Attachments, att) {
			target.Content.Attachments = append(target.Content.Attachments, att)
		}
	}
	if len(incoming.Content.Metadata) > 0 {
		if target.Content.Metadata == nil {
			target.Content.Metadata = make(map[string]any, len(incoming.Content.Metadata))
		}
		for k, v := range incoming.Content.Metadata {
			target.Content.Metadata[k] = v
		}
	}

	target.CreatedAt = maxTime(target.CreatedAt, incoming.CreatedAt)
	l.observeTimestamp(target.CreatedAt)

	if !l.preserveTagsOnMerge {
		l.tag(target.ID, source)
	}
}

// upgradeInvocation applies a newer snapshot of a tool invocation on top of
// the stored one. State only moves forward (a call never regresses to
// partial-call), arguments merge shallowly with newer keys winning, and the
// result is taken from whichever snapshot carries one.
func upgradeInvocation(existing, incoming messages.ToolInvocation) messages.ToolInvocation {
	out := existing
	if stateRank(incoming.State) >= stateRank(existing.State) {
		out.State = incoming.State
	}
	if incoming.ToolName != "" {
		out.ToolName = incoming.ToolName
	}
	if len(incoming.Args) > 0 {
		merged := make(map[string]any, len(existing.Args)+len(incoming.Args))
		for k, v := range existing.Args {
			merged[k] = v
		}
		for k, v := range incoming.Args {
			merged[k] = v
		}
		out.Args = merged
	}
	if incoming.State == messages.ToolStateResult || incoming.Result != nil {
		out.Result = incoming.Result
	}
	return out
}

func stateRank(s messages.ToolState) int {
	switch s {
	case messages.ToolStatePartial:
		return 0
	case messages.ToolStateCall:
		return 1
	case messages.ToolStateResult:
		return 2
	default:
		return 0
	}
}

func lastToolPartIndex(parts []messages.Part, toolCallID string) int {
	for i := len(parts) - 1; i >= 0; i-- {
		if tp, ok := parts[i].(messages.ToolInvocationPart); ok && tp.ToolInvocation.ToolCallID == toolCallID {
			return i
		}
	}
	return -1
}

func indexOfFingerprint(parts []messages.Part, fp string) int {
	for i, p := range parts {
		if messages.PartFingerprint(p) == fp {
			return i
		}
	}
	return -1
}

func insertPart(parts []messages.Part, at int, p messages.Part) []messages.Part {
	if at < 0 {
		at = 0
	}
	if at >= len(parts) {
		return append(parts, p)
	}
	parts = append(parts, nil)
	copy(parts[at+1:], parts[at:])
	parts[at] = p
	return parts
}

func hasAttachment(list []messages.Attachment, att messages.Attachment) bool {
	for _, a := range list {
		if a.URL == att.URL && a.Name == att.Name && a.ContentType == att.ContentType {
			return true
		}
	}
	return false
}
