// JSON codecs for the older dialect unions: the string-or-array core content
// and the typed core parts, discriminated by a lowercase "type" field.
package aiv4

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// UnmarshalJSON decodes a UIMessage while materializing the concrete V2 part
// implementations stored in Parts.
func (m *UIMessage) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID              string                    `json:"id"`
		Role            messages.Role             `json:"role"`
		Content         string                    `json:"content"`
		CreatedAt       jsonTime                  `json:"createdAt"`
		Parts           []json.RawMessage         `json:"parts"`
		ToolInvocations []messages.ToolInvocation `json:"toolInvocations"`
		Attachments     []messages.Attachment     `json:"experimental_attachments"`
		Annotations     []any                     `json:"annotations"`
		Data            any                       `json:"data"`
	}
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	m.ID = tmp.ID
	m.Role = tmp.Role
	m.Content = tmp.Content
	m.CreatedAt = tmp.CreatedAt.Time
	m.ToolInvocations = tmp.ToolInvocations
	m.Attachments = tmp.Attachments
	m.Annotations = tmp.Annotations
	m.Data = tmp.Data
	m.Parts = nil
	for i, raw := range tmp.Parts {
		part, err := messages.DecodePartV2(raw)
		if err != nil {
			return fmt.Errorf("decode parts[%d]: %w", i, err)
		}
		m.Parts = append(m.Parts, part)
	}
	return nil
}

// MarshalJSON emits the core content union in the form it was read in.
func (c CoreContent) MarshalJSON() ([]byte, error) {
	if c.IsString {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON accepts either a plain string or a typed part array.
func (c *CoreContent) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.Text = text
		c.IsString = true
		c.Parts = nil
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("decode core content: %w", err)
	}
	c.IsString = false
	c.Parts = make([]CorePart, 0, len(raws))
	for i, raw := range raws {
		part, err := DecodeCorePart(raw)
		if err != nil {
			return fmt.Errorf("decode content[%d]: %w", i, err)
		}
		c.Parts = append(c.Parts, part)
	}
	return nil
}

// DecodeCorePart decodes a single core part from raw JSON.
func DecodeCorePart(raw json.RawMessage) (CorePart, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode part object: %w", err)
	}
	switch head.Type {
	case "text":
		var p TextPart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode TextPart: %w", err)
		}
		return p, nil
	case "image":
		var p ImagePart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode ImagePart: %w", err)
		}
		return p, nil
	case "file":
		var p FilePart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode FilePart: %w", err)
		}
		return p, nil
	case "reasoning":
		var p ReasoningPart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode ReasoningPart: %w", err)
		}
		return p, nil
	case "redacted-reasoning":
		var p RedactedReasoningPart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode RedactedReasoningPart: %w", err)
		}
		return p, nil
	case "tool-call":
		var p ToolCallPart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode ToolCallPart: %w", err)
		}
		if p.ToolCallID == "" {
			return nil, errors.New("ToolCallPart requires toolCallId")
		}
		return p, nil
	case "tool-result":
		var p ToolResultPart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode ToolResultPart: %w", err)
		}
		if p.ToolCallID == "" {
			return nil, errors.New("ToolResultPart requires toolCallId")
		}
		return p, nil
	case "":
		return nil, errors.New("part missing type")
	default:
		return nil, fmt.Errorf("unknown part type %q", head.Type)
	}
}

// MarshalJSON encodes TextPart with its type discriminator.
func (p TextPart) MarshalJSON() ([]byte, error) {
	type alias TextPart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "text", alias: alias(p)})
}

// MarshalJSON encodes ImagePart with its type discriminator.
func (p ImagePart) MarshalJSON() ([]byte, error) {
	type alias ImagePart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "image", alias: alias(p)})
}

// MarshalJSON encodes FilePart with its type discriminator.
func (p FilePart) MarshalJSON() ([]byte, error) {
	type alias FilePart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "file", alias: alias(p)})
}

// MarshalJSON encodes ReasoningPart with its type discriminator.
func (p ReasoningPart) MarshalJSON() ([]byte, error) {
	type alias ReasoningPart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "reasoning", alias: alias(p)})
}

// MarshalJSON encodes RedactedReasoningPart with its type discriminator.
func (p RedactedReasoningPart) MarshalJSON() ([]byte, error) {
	type alias RedactedReasoningPart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "redacted-reasoning", alias: alias(p)})
}

// MarshalJSON encodes ToolCallPart with its type discriminator.
func (p ToolCallPart) MarshalJSON() ([]byte, error) {
	type alias ToolCallPart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "tool-call", alias: alias(p)})
}

// MarshalJSON encodes ToolResultPart with its type discriminator.
func (p ToolResultPart) MarshalJSON() ([]byte, error) {
	type alias ToolResultPart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "tool-result", alias: alias(p)})
}

// jsonTime tolerates absent, null, RFC 3339 string, and epoch-millisecond
// timestamp encodings, all of which occur across dialect writers.
type jsonTime struct {
	Time time.Time
}

// UnmarshalJSON accepts null, an RFC 3339 string, or epoch milliseconds.
func (t *jsonTime) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parse createdAt: %w", err)
		}
		t.Time = parsed
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	return errors.New("unsupported createdAt encoding")
}
