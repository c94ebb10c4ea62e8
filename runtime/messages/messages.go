// Package messages defines the canonical chat message shapes shared by the
// normalization engine: the durable V2 format, the richer V3 intermediate
// used when bridging newer wire dialects, and the flat legacy V1 format kept
// for backward-compatible reads. The package also provides the JSON codecs
// for the discriminated part unions and the content fingerprint used for
// deduplication and merge idempotence.
package messages

import (
	"time"

	"github.com/google/uuid"
)

type (
	// Role identifies the author of a message. The canonical store only holds
	// user, assistant, and system roles; the wire-level tool role is collapsed
	// to assistant at ingestion because tool results live inside assistant
	// parts.
	Role string

	// MessageV2 is the durable canonical message. Within one store the sequence
	// of MessageV2 values is sorted ascending by CreatedAt.
	MessageV2 struct {
		// ID is an opaque identifier, unique within a store.
		ID string `json:"id"`
		// Role is one of user, assistant, or system.
		Role Role `json:"role"`
		// CreatedAt orders the message within its store.
		CreatedAt time.Time `json:"createdAt"`
		// ThreadID correlates the message to a conversation thread.
		ThreadID string `json:"threadId,omitempty"`
		// ResourceID correlates the message to an owning resource (user, agent).
		ResourceID string `json:"resourceId,omitempty"`
		// Content carries the ordered parts and compatibility views.
		Content ContentV2 `json:"content"`
	}

	// ContentV2 is the tagged content container of a V2 message.
	ContentV2 struct {
		// Format discriminates canonical versions on the wire. Always 2.
		Format int `json:"format"`
		// Parts is the ordered sequence of typed content parts.
		Parts []Part `json:"parts"`
		// Content is the legacy scalar string kept for round-trip fidelity with
		// dialects that conflate "last text" with full content.
		Content string `json:"content,omitempty"`
		// ToolInvocations is a flattened duplicate view of tool-invocation parts
		// kept for dialects that store them separately from parts.
		ToolInvocations []ToolInvocation `json:"toolInvocations,omitempty"`
		// Attachments are user-uploaded files (URL + MIME pairs).
		Attachments []Attachment `json:"experimental_attachments,omitempty"`
		// Metadata is a free-form map. Reserved keys (see v3.go) round-trip
		// information the V2 part vocabulary cannot express natively.
		Metadata map[string]any `json:"metadata,omitempty"`
	}

	// Part is a typed content fragment of a V2 message. Implementations are
	// TextPart, ToolInvocationPart, ReasoningPart, FilePart, SourcePart, and
	// StepStartPart.
	Part interface {
		isPart()
	}

	// TextPart carries visible text.
	TextPart struct {
		Text string `json:"text"`
	}

	// ToolInvocationPart wraps a tool invocation and its lifecycle state.
	ToolInvocationPart struct {
		ToolInvocation ToolInvocation `json:"toolInvocation"`
	}

	// ToolInvocation is the three-state tool call sub-machine:
	// call → partial-call → result.
	ToolInvocation struct {
		// State is one of ToolStateCall, ToolStatePartial, ToolStateResult.
		State ToolState `json:"state"`
		// ToolCallID correlates the call with its eventual result.
		ToolCallID string `json:"toolCallId"`
		// ToolName identifies the invoked tool.
		ToolName string `json:"toolName"`
		// Args are the JSON arguments of the call. Empty when the originating
		// call was never observed (best-effort reconciliation).
		Args map[string]any `json:"args"`
		// Result is the tool output once State is ToolStateResult.
		Result any `json:"result,omitempty"`
	}

	// ToolState is the lifecycle state of a tool invocation.
	ToolState string

	// ReasoningPart carries chain-of-thought text plus structured detail
	// fragments, one of which may be an opaque redacted placeholder.
	ReasoningPart struct {
		Reasoning string            `json:"reasoning"`
		Details   []ReasoningDetail `json:"details,omitempty"`
	}

	// ReasoningDetail is a fragment of a reasoning trace. Type is "text" for
	// plaintext (with optional signature) or "redacted" for opaque data.
	ReasoningDetail struct {
		Type      string `json:"type"`
		Text      string `json:"text,omitempty"`
		Signature string `json:"signature,omitempty"`
		Data      string `json:"data,omitempty"`
	}

	// FilePart references file content by URL or inline base64 data.
	FilePart struct {
		Data     string `json:"data"`
		MimeType string `json:"mimeType"`
	}

	// SourcePart is a citation/reference.
	SourcePart struct {
		Source Source `json:"source"`
	}

	// Source describes a cited document.
	Source struct {
		SourceType string `json:"sourceType"`
		ID         string `json:"id"`
		URL        string `json:"url"`
		Title      string `json:"title,omitempty"`
	}

	// StepStartPart marks a step boundary. It has no payload.
	StepStartPart struct{}

	// Attachment is a user-uploaded file reference.
	Attachment struct {
		Name        string `json:"name,omitempty"`
		URL         string `json:"url"`
		ContentType string `json:"contentType,omitempty"`
	}
)

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	// RoleTool appears only on the wire; ingestion collapses it to assistant.
	RoleTool Role = "tool"
)

// Tool invocation lifecycle states.
const (
	ToolStateCall    ToolState = "call"
	ToolStatePartial ToolState = "partial-call"
	ToolStateResult  ToolState = "result"
)

// FormatV2 and FormatV3 are the wire discriminants of the canonical formats.
const (
	FormatV2 = 2
	FormatV3 = 3
)

func (TextPart) isPart()           {}
func (ToolInvocationPart) isPart() {}
func (ReasoningPart) isPart()      {}
func (FilePart) isPart()           {}
func (SourcePart) isPart()         {}
func (StepStartPart) isPart()      {}

// NewID mints a fresh message identifier.
func NewID() string { return uuid.NewString() }

// NormalizeRole collapses the wire-level tool role to assistant and leaves
// the canonical roles untouched. Unknown roles are returned as-is so callers
// can fail loudly on them.
func NormalizeRole(r Role) Role {
	if r == RoleTool {
		return RoleAssistant
	}
	return r
}

// TextContent returns the concatenation of all text parts, the closest V2
// equivalent of a scalar content string. Falls back to the legacy scalar when
// no text parts exist.
func (m *MessageV2) TextContent() string {
	var out string
	for _, p := range m.Content.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	if out == "" {
		return m.Content.Content
	}
	return out
}

// LatestText returns the text of the last text part, matching how UI dialects
// surface the "current" assistant text.
func (m *MessageV2) LatestText() string {
	for i := len(m.Content.Parts) - 1; i >= 0; i-- {
		if tp, ok := m.Content.Parts[i].(TextPart); ok {
			return tp.Text
		}
	}
	return m.Content.Content
}

// UpsertToolInvocation updates the flattened ToolInvocations view so it stays
// consistent with the tool-invocation parts. Entries are matched by tool call
// ID; a missing entry is appended.
func (c *ContentV2) UpsertToolInvocation(inv ToolInvocation) {
	for i := range c.ToolInvocations {
		if c.ToolInvocations[i].ToolCallID == inv.ToolCallID {
			c.ToolInvocations[i] = inv
			return
		}
	}
	c.ToolInvocations = append(c.ToolInvocations, inv)
}
