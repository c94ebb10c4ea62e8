// JSON codecs for the V2 part union. Parts are emitted with a lowercase
// "type" discriminator matching the wire dialects; decoding prefers the
// discriminator and falls back to duck-typed field presence so that payloads
// produced by older writers still decode.
package messages

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MarshalJSON encodes TextPart with its type discriminator.
func (p TextPart) MarshalJSON() ([]byte, error) {
	type alias TextPart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "text", alias: alias(p)})
}

// MarshalJSON encodes ToolInvocationPart with its type discriminator.
func (p ToolInvocationPart) MarshalJSON() ([]byte, error) {
	type alias ToolInvocationPart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "tool-invocation", alias: alias(p)})
}

// MarshalJSON encodes ReasoningPart with its type discriminator.
func (p ReasoningPart) MarshalJSON() ([]byte, error) {
	type alias ReasoningPart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "reasoning", alias: alias(p)})
}

// MarshalJSON encodes FilePart with its type discriminator.
func (p FilePart) MarshalJSON() ([]byte, error) {
	type alias FilePart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "file", alias: alias(p)})
}

// MarshalJSON encodes SourcePart with its type discriminator.
func (p SourcePart) MarshalJSON() ([]byte, error) {
	type alias SourcePart
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "source", alias: alias(p)})
}

// MarshalJSON encodes StepStartPart with its type discriminator.
func (p StepStartPart) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{Type: "step-start"})
}

// UnmarshalJSON decodes ContentV2 while materializing concrete Part
// implementations stored in the Parts slice.
func (c *ContentV2) UnmarshalJSON(data []byte) error {
	type alias struct {
		Format          int               `json:"format"`
		Parts           []json.RawMessage `json:"parts"`
		Content         string            `json:"content"`
		ToolInvocations []ToolInvocation  `json:"toolInvocations"`
		Attachments     []Attachment      `json:"experimental_attachments"`
		Metadata        map[string]any    `json:"metadata"`
	}
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	c.Format = tmp.Format
	c.Content = tmp.Content
	c.ToolInvocations = tmp.ToolInvocations
	c.Attachments = tmp.Attachments
	c.Metadata = tmp.Metadata
	if len(tmp.Parts) == 0 {
		c.Parts = nil
		return nil
	}
	c.Parts = make([]Part, 0, len(tmp.Parts))
	for i, raw := range tmp.Parts {
		part, err := DecodePartV2(raw)
		if err != nil {
			return fmt.Errorf("decode parts[%d]: %w", i, err)
		}
		c.Parts = append(c.Parts, part)
	}
	return nil
}

// DecodePartV2 decodes a single V2 part from raw JSON. A bare string decodes
// as a text part for compatibility with writers that stored plain strings.
func DecodePartV2(raw json.RawMessage) (Part, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		var text string
		if errText := json.Unmarshal(raw, &text); errText == nil {
			return TextPart{Text: text}, nil
		}
		return nil, fmt.Errorf("decode part object: %w", err)
	}
	if len(obj) == 0 {
		return nil, errors.New("empty part payload")
	}

	if typeRaw, ok := obj["type"]; ok {
		var typ string
		if err := json.Unmarshal(typeRaw, &typ); err != nil {
			return nil, fmt.Errorf("decode type: %w", err)
		}
		switch typ {
		case "text":
			var p TextPart
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode TextPart: %w", err)
			}
			return p, nil
		case "tool-invocation":
			var p ToolInvocationPart
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode ToolInvocationPart: %w", err)
			}
			if p.ToolInvocation.ToolCallID == "" {
				return nil, errors.New("ToolInvocationPart requires toolCallId")
			}
			return p, nil
		case "reasoning":
			var p ReasoningPart
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode ReasoningPart: %w", err)
			}
			return p, nil
		case "file":
			var p FilePart
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode FilePart: %w", err)
			}
			return p, nil
		case "source":
			var p SourcePart
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode SourcePart: %w", err)
			}
			return p, nil
		case "step-start":
			return StepStartPart{}, nil
		default:
			return nil, fmt.Errorf("unknown part type %q", typ)
		}
	}

	// Duck-typed fallbacks for payloads missing the discriminator.
	if hasAnyKey(obj, "toolInvocation") {
		var p ToolInvocationPart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode ToolInvocationPart: %w", err)
		}
		return p, nil
	}
	if hasAnyKey(obj, "reasoning", "details") {
		var p ReasoningPart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode ReasoningPart: %w", err)
		}
		return p, nil
	}
	if hasAnyKey(obj, "mimeType", "data") {
		var p FilePart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode FilePart: %w", err)
		}
		return p, nil
	}
	if hasAnyKey(obj, "source") {
		var p SourcePart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode SourcePart: %w", err)
		}
		return p, nil
	}
	if hasAnyKey(obj, "text") {
		var p TextPart
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode TextPart: %w", err)
		}
		return p, nil
	}
	return nil, errors.New("unknown part shape")
}

func hasAnyKey(obj map[string]json.RawMessage, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}
