// JSON codecs for the newer dialect unions.
package aiv5

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// UnmarshalJSON decodes a UIMessage while materializing the concrete V3 part
// implementations stored in Parts.
func (m *UIMessage) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID        string            `json:"id"`
		Role      messages.Role     `json:"role"`
		CreatedAt *time.Time        `json:"createdAt"`
		Metadata  map[string]any    `json:"metadata"`
		Parts     []json.RawMessage `json:"parts"`
	}
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	m.ID = tmp.ID
	m.Role = tmp.Role
	m.Metadata = tmp.Metadata
	if tmp.CreatedAt != nil {
		m.CreatedAt = *tmp.CreatedAt
	} else {
		m.CreatedAt = time.Time{}
	}
	m.Parts = nil
	for i, raw := range tmp.Parts {
		part, err := messages.DecodePartV3(raw)
		if err != nil {
			return fmt.Errorf("decode parts[%d]: %w", i, err)
		}
		m.Parts = append(m.Parts, part)
	}
	return nil
}

// MarshalJSON emits the model content union in the form it was read in.
func (c ModelContent) MarshalJSON() ([]byte, error) {
	if c.IsString {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON accepts either a plain string or a typed part array.
func (c *ModelContent) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.Text = text
		c.IsString = true
		c.Parts = nil
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("decode model content: %w", err)
	}
	c.IsString = false
	c.Parts = make([]ModelPart, 0, len(raws))
	for i, raw := range raws {
		part, err := DecodeModelPart(raw)
		if err != nil {
			return fmt.Errorf("decode content[%d]: %w", i, err)
		}
		c.Parts = append(c.Parts, part)
	}
	return nil
}

// DecodeModelPart decodes a single model part from raw JSON.
func DecodeModelPart(raw json.RawMessage) (ModelPart, error) {
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
	case "file", "image":
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
