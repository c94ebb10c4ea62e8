package messages

import (
	"encoding/json"
	"fmt"
	"time"
)

type (
	// MessageV1 is the flat legacy canonical message: no parts, a content
	// union (string or a small typed array), and parallel tool arrays. It is
	// only read for backward compatibility and always upgraded to V2 on
	// ingestion; the engine never produces V1 fresh except as a projection.
	MessageV1 struct {
		ID         string    `json:"id"`
		ThreadID   string    `json:"threadId,omitempty"`
		ResourceID string    `json:"resourceId,omitempty"`
		Role       Role      `json:"role"`
		CreatedAt  time.Time `json:"createdAt"`
		// Type tags the dominant content kind: "text", "tool-call", or
		// "tool-result".
		Type    string    `json:"type,omitempty"`
		Content ContentV1 `json:"content"`
		// ToolCallIDs, ToolNames, and ToolCallArgs are parallel arrays
		// describing tool activity separate from the content union.
		ToolCallIDs  []string         `json:"toolCallIds,omitempty"`
		ToolNames    []string         `json:"toolNames,omitempty"`
		ToolCallArgs []map[string]any `json:"toolCallArgs,omitempty"`
	}

	// ContentV1 is the V1 content union: either a plain string or an array of
	// typed items.
	ContentV1 struct {
		// Text holds the scalar form when IsString is true.
		Text string
		// Items holds the array form otherwise.
		Items []V1Item
		// IsString records which form the wire carried.
		IsString bool
	}

	// V1Item is one entry of the array form of V1 content.
	V1Item struct {
		Type       string         `json:"type"`
		Text       string         `json:"text,omitempty"`
		Image      string         `json:"image,omitempty"`
		MimeType   string         `json:"mimeType,omitempty"`
		ToolCallID string         `json:"toolCallId,omitempty"`
		ToolName   string         `json:"toolName,omitempty"`
		Args       map[string]any `json:"args,omitempty"`
		Result     any            `json:"result,omitempty"`
	}
)

// MarshalJSON emits the content union in the form it was read in.
func (c ContentV1) MarshalJSON() ([]byte, error) {
	if c.IsString {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Items)
}

// UnmarshalJSON accepts either a plain string or an item array.
func (c *ContentV1) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.Text = text
		c.IsString = true
		c.Items = nil
		return nil
	}
	var items []V1Item
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decode v1 content: %w", err)
	}
	c.Items = items
	c.IsString = false
	return nil
}

// ToV2 upgrades a legacy message to the durable V2 shape. The wire-level tool
// role collapses to assistant with the tool results held as resolved
// tool-invocation parts.
func (m *MessageV1) ToV2() *MessageV2 {
	out := &MessageV2{
		ID:         m.ID,
		Role:       NormalizeRole(m.Role),
		CreatedAt:  m.CreatedAt,
		ThreadID:   m.ThreadID,
		ResourceID: m.ResourceID,
		Content:    ContentV2{Format: FormatV2},
	}
	if out.ID == "" {
		out.ID = NewID()
	}
	if m.Content.IsString {
		if m.Content.Text != "" {
			out.Content.Parts = append(out.Content.Parts, TextPart{Text: m.Content.Text})
			out.Content.Content = m.Content.Text
		}
		return out
	}
	for _, item := range m.Content.Items {
		switch item.Type {
		case "text":
			out.Content.Parts = append(out.Content.Parts, TextPart{Text: item.Text})
			out.Content.Content = item.Text
		case "image":
			out.Content.Parts = append(out.Content.Parts, FilePart{
				Data:     item.Image,
				MimeType: item.MimeType,
			})
		case "tool-call":
			out.Content.Parts = append(out.Content.Parts, ToolInvocationPart{ToolInvocation: ToolInvocation{
				State:      ToolStateCall,
				ToolCallID: item.ToolCallID,
				ToolName:   item.ToolName,
				Args:       item.Args,
			}})
		case "tool-result":
			inv := ToolInvocation{
				State:      ToolStateResult,
				ToolCallID: item.ToolCallID,
				ToolName:   item.ToolName,
				Args:       m.argsForCall(item.ToolCallID),
				Result:     item.Result,
			}
			out.Content.Parts = append(out.Content.Parts, ToolInvocationPart{ToolInvocation: inv})
			out.Content.UpsertToolInvocation(inv)
		}
	}
	return out
}

// argsForCall looks up the recorded arguments for a tool call ID in the
// parallel tool arrays. Returns an empty map when the call was never
// recorded, matching the engine's best-effort reconciliation.
func (m *MessageV1) argsForCall(toolCallID string) map[string]any {
	for i, id := range m.ToolCallIDs {
		if id == toolCallID && i < len(m.ToolCallArgs) {
			return m.ToolCallArgs[i]
		}
	}
	return map[string]any{}
}
