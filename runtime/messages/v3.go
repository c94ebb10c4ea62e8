package messages

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type (
	// MessageV3 is the richer canonical shape used as an intermediate when
	// bridging the newer wire dialects. V2 and V3 are losslessly
	// inter-convertible; information V2 cannot express natively round-trips
	// through reserved metadata keys.
	MessageV3 struct {
		ID         string    `json:"id"`
		Role       Role      `json:"role"`
		CreatedAt  time.Time `json:"createdAt"`
		ThreadID   string    `json:"threadId,omitempty"`
		ResourceID string    `json:"resourceId,omitempty"`
		Content    ContentV3 `json:"content"`
	}

	// ContentV3 is the content container of a V3 message.
	ContentV3 struct {
		// Format discriminates canonical versions on the wire. Always 3.
		Format int `json:"format"`
		// Parts uses the newer part vocabulary.
		Parts []PartV3 `json:"parts"`
		// Metadata is a free-form map.
		Metadata map[string]any `json:"metadata,omitempty"`
	}

	// PartV3 is a typed content fragment of a V3 message.
	PartV3 interface {
		isPartV3()
	}

	// TextPartV3 carries visible text with optional per-part provider metadata.
	TextPartV3 struct {
		Text             string         `json:"text"`
		ProviderMetadata map[string]any `json:"providerMetadata,omitempty"`
	}

	// ReasoningPartV3 carries reasoning text with an explicit lifecycle state
	// ("streaming" or "done").
	ReasoningPartV3 struct {
		Text             string         `json:"text"`
		State            string         `json:"state,omitempty"`
		ProviderMetadata map[string]any `json:"providerMetadata,omitempty"`
	}

	// ToolPartV3 is a per-tool typed invocation part. On the wire its type is
	// "tool-<name>"; the name is carried separately in memory.
	ToolPartV3 struct {
		ToolName         string         `json:"-"`
		ToolCallID       string         `json:"toolCallId"`
		State            string         `json:"state"`
		Input            map[string]any `json:"input,omitempty"`
		Output           any            `json:"output,omitempty"`
		ErrorText        string         `json:"errorText,omitempty"`
		ProviderMetadata map[string]any `json:"callProviderMetadata,omitempty"`
	}

	// SourceURLPartV3 is a URL citation.
	SourceURLPartV3 struct {
		SourceID         string         `json:"sourceId"`
		URL              string         `json:"url"`
		Title            string         `json:"title,omitempty"`
		ProviderMetadata map[string]any `json:"providerMetadata,omitempty"`
	}

	// FilePartV3 references file content by URL (or data URL) and media type.
	FilePartV3 struct {
		URL              string         `json:"url"`
		MediaType        string         `json:"mediaType"`
		Filename         string         `json:"filename,omitempty"`
		ProviderMetadata map[string]any `json:"providerMetadata,omitempty"`
	}

	// StepStartPartV3 marks a step boundary.
	StepStartPartV3 struct{}
)

// Tool part lifecycle states (V3 vocabulary).
const (
	ToolStateV3InputStreaming  = "input-streaming"
	ToolStateV3InputAvailable  = "input-available"
	ToolStateV3OutputAvailable = "output-available"
	ToolStateV3OutputError     = "output-error"
)

// Reserved metadata keys used to round-trip V3-only information through V2
// and vice versa. Converting V3→V2→V3 (or V2→V3→V2) reproduces the original
// message exactly because the information V2 (resp. V3) cannot express is
// stashed under these keys and stripped on the way back.
const (
	// MetaKeyV3Extras holds, keyed by part index, the per-part V3 fields that
	// have no V2 slot (provider metadata, reasoning state, tool error text,
	// file name).
	MetaKeyV3Extras = "__v3Extras"
	// MetaKeyV2Content holds the V2 legacy scalar content while in V3 form.
	MetaKeyV2Content = "__v2Content"
	// MetaKeyV2Attachments holds V2 attachments while in V3 form.
	MetaKeyV2Attachments = "__v2Attachments"
	// MetaKeyV2Details holds original V2 reasoning details inside a V3
	// reasoning part's provider metadata.
	MetaKeyV2Details = "__v2Details"
	// MetaKeyProviderMetadata holds message-level provider metadata from
	// dialects whose canonical slot does not exist (the older model dialect's
	// experimental_providerMetadata, the newer one's providerOptions). It is
	// restored verbatim when projecting back.
	MetaKeyProviderMetadata = "__providerMetadata"
)

func (TextPartV3) isPartV3()      {}
func (ReasoningPartV3) isPartV3() {}
func (ToolPartV3) isPartV3()      {}
func (SourceURLPartV3) isPartV3() {}
func (FilePartV3) isPartV3()      {}
func (StepStartPartV3) isPartV3() {}

// MarshalJSON encodes TextPartV3 with its type discriminator.
func (p TextPartV3) MarshalJSON() ([]byte, error) {
	type alias TextPartV3
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "text", alias: alias(p)})
}

// MarshalJSON encodes ReasoningPartV3 with its type discriminator.
func (p ReasoningPartV3) MarshalJSON() ([]byte, error) {
	type alias ReasoningPartV3
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "reasoning", alias: alias(p)})
}

// MarshalJSON encodes ToolPartV3 with its per-tool type tag "tool-<name>".
func (p ToolPartV3) MarshalJSON() ([]byte, error) {
	type alias ToolPartV3
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "tool-" + p.ToolName, alias: alias(p)})
}

// MarshalJSON encodes SourceURLPartV3 with its type discriminator.
func (p SourceURLPartV3) MarshalJSON() ([]byte, error) {
	type alias SourceURLPartV3
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "source-url", alias: alias(p)})
}

// MarshalJSON encodes FilePartV3 with its type discriminator.
func (p FilePartV3) MarshalJSON() ([]byte, error) {
	type alias FilePartV3
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: "file", alias: alias(p)})
}

// MarshalJSON encodes StepStartPartV3 with its type discriminator.
func (p StepStartPartV3) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
	}{Type: "step-start"})
}

// UnmarshalJSON decodes ContentV3 while materializing concrete PartV3
// implementations.
func (c *ContentV3) UnmarshalJSON(data []byte) error {
	type alias struct {
		Format   int               `json:"format"`
		Parts    []json.RawMessage `json:"parts"`
		Metadata map[string]any    `json:"metadata"`
	}
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	c.Format = tmp.Format
	c.Metadata = tmp.Metadata
	if len(tmp.Parts) == 0 {
		c.Parts = nil
		return nil
	}
	c.Parts = make([]PartV3, 0, len(tmp.Parts))
	for i, raw := range tmp.Parts {
		part, err := DecodePartV3(raw)
		if err != nil {
			return fmt.Errorf("decode parts[%d]: %w", i, err)
		}
		c.Parts = append(c.Parts, part)
	}
	return nil
}

// DecodePartV3 decodes a single V3 part from raw JSON. Tool parts are
// recognized by their "tool-" type prefix.
func DecodePartV3(raw json.RawMessage) (PartV3, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode part object: %w", err)
	}
	switch {
	case head.Type == "text":
		var p TextPartV3
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode TextPartV3: %w", err)
		}
		return p, nil
	case head.Type == "reasoning":
		var p ReasoningPartV3
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode ReasoningPartV3: %w", err)
		}
		return p, nil
	case head.Type == "source-url":
		var p SourceURLPartV3
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode SourceURLPartV3: %w", err)
		}
		return p, nil
	case head.Type == "file":
		var p FilePartV3
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode FilePartV3: %w", err)
		}
		return p, nil
	case head.Type == "step-start":
		return StepStartPartV3{}, nil
	case strings.HasPrefix(head.Type, "tool-"), head.Type == "dynamic-tool":
		var p ToolPartV3
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode ToolPartV3: %w", err)
		}
		if head.Type == "dynamic-tool" {
			var named struct {
				ToolName string `json:"toolName"`
			}
			if err := json.Unmarshal(raw, &named); err == nil {
				p.ToolName = named.ToolName
			}
		} else {
			p.ToolName = strings.TrimPrefix(head.Type, "tool-")
		}
		if p.ToolCallID == "" {
			return nil, errors.New("ToolPartV3 requires toolCallId")
		}
		return p, nil
	case head.Type == "":
		return nil, errors.New("part missing type")
	default:
		return nil, fmt.Errorf("unknown part type %q", head.Type)
	}
}

// ToV3 converts a canonical V2 message into the V3 shape. The conversion is
// lossless: V2 fields without a V3 slot (legacy scalar content, attachments,
// reasoning detail fragments) are stashed under reserved metadata keys and
// restored by ToV2.
func (m *MessageV2) ToV3() *MessageV3 {
	out := &MessageV3{
		ID:         m.ID,
		Role:       m.Role,
		CreatedAt:  m.CreatedAt,
		ThreadID:   m.ThreadID,
		ResourceID: m.ResourceID,
		Content:    ContentV3{Format: FormatV3},
	}
	extras := extractV3Extras(m.Content.Metadata)
	for i, part := range m.Content.Parts {
		ex := extras[strconv.Itoa(i)]
		out.Content.Parts = append(out.Content.Parts, partV2ToV3(part, ex))
	}
	meta := cloneMeta(m.Content.Metadata)
	delete(meta, MetaKeyV3Extras)
	if m.Content.Content != "" {
		if meta == nil {
			meta = make(map[string]any)
		}
		meta[MetaKeyV2Content] = m.Content.Content
	}
	if len(m.Content.Attachments) > 0 {
		if meta == nil {
			meta = make(map[string]any)
		}
		meta[MetaKeyV2Attachments] = m.Content.Attachments
	}
	if len(meta) > 0 {
		out.Content.Metadata = meta
	}
	return out
}

// ToV2 converts a V3 message into the durable V2 shape. V3-only per-part
// information is recorded under MetaKeyV3Extras so that ToV3 reproduces the
// original exactly.
func (m *MessageV3) ToV2() *MessageV2 {
	out := &MessageV2{
		ID:         m.ID,
		Role:       m.Role,
		CreatedAt:  m.CreatedAt,
		ThreadID:   m.ThreadID,
		ResourceID: m.ResourceID,
		Content:    ContentV2{Format: FormatV2},
	}
	extras := make(map[string]any)
	for i, part := range m.Content.Parts {
		v2, ex := partV3ToV2(part)
		out.Content.Parts = append(out.Content.Parts, v2)
		if len(ex) > 0 {
			extras[strconv.Itoa(i)] = ex
		}
		if tp, ok := v2.(ToolInvocationPart); ok && tp.ToolInvocation.State == ToolStateResult {
			out.Content.UpsertToolInvocation(tp.ToolInvocation)
		}
	}
	meta := cloneMeta(m.Content.Metadata)
	if s, ok := meta[MetaKeyV2Content].(string); ok {
		out.Content.Content = s
		delete(meta, MetaKeyV2Content)
	}
	if v, ok := meta[MetaKeyV2Attachments]; ok {
		out.Content.Attachments = coerceAttachments(v)
		delete(meta, MetaKeyV2Attachments)
	}
	if len(extras) > 0 {
		if meta == nil {
			meta = make(map[string]any)
		}
		meta[MetaKeyV3Extras] = extras
	}
	if len(meta) > 0 {
		out.Content.Metadata = meta
	}
	return out
}

func partV2ToV3(part Part, ex map[string]any) PartV3 {
	switch p := part.(type) {
	case TextPart:
		return TextPartV3{Text: p.Text, ProviderMetadata: extraMeta(ex, "providerMetadata")}
	case ReasoningPart:
		v3 := ReasoningPartV3{
			Text:             p.Reasoning,
			State:            extraString(ex, "state"),
			ProviderMetadata: extraMeta(ex, "providerMetadata"),
		}
		if v3.State == "" {
			v3.State = "done"
		}
		if needsDetailStash(p) {
			if v3.ProviderMetadata == nil {
				v3.ProviderMetadata = make(map[string]any)
			}
			v3.ProviderMetadata[MetaKeyV2Details] = p.Details
		}
		return v3
	case ToolInvocationPart:
		inv := p.ToolInvocation
		v3 := ToolPartV3{
			ToolName:         inv.ToolName,
			ToolCallID:       inv.ToolCallID,
			Input:            inv.Args,
			ProviderMetadata: extraMeta(ex, "providerMetadata"),
		}
		switch inv.State {
		case ToolStatePartial:
			v3.State = ToolStateV3InputStreaming
		case ToolStateCall:
			v3.State = ToolStateV3InputAvailable
		case ToolStateResult:
			v3.State = ToolStateV3OutputAvailable
			v3.Output = inv.Result
			if errText := extraString(ex, "errorText"); errText != "" {
				v3.State = ToolStateV3OutputError
				v3.ErrorText = errText
			}
		}
		return v3
	case SourcePart:
		return SourceURLPartV3{
			SourceID:         p.Source.ID,
			URL:              p.Source.URL,
			Title:            p.Source.Title,
			ProviderMetadata: extraMeta(ex, "providerMetadata"),
		}
	case FilePart:
		return FilePartV3{
			URL:              p.Data,
			MediaType:        p.MimeType,
			Filename:         extraString(ex, "filename"),
			ProviderMetadata: extraMeta(ex, "providerMetadata"),
		}
	case StepStartPart:
		return StepStartPartV3{}
	default:
		// Unknown parts cannot occur: the Part union is closed.
		panic(fmt.Sprintf("messages: unknown V2 part %T", part))
	}
}

func partV3ToV2(part PartV3) (Part, map[string]any) {
	switch p := part.(type) {
	case TextPartV3:
		return TextPart{Text: p.Text}, extrasFor(p.ProviderMetadata, nil)
	case ReasoningPartV3:
		pm := cloneMeta(p.ProviderMetadata)
		v2 := ReasoningPart{Reasoning: p.Text}
		if stash, ok := pm[MetaKeyV2Details]; ok {
			v2.Details = coerceDetails(stash)
			delete(pm, MetaKeyV2Details)
			if len(pm) == 0 {
				pm = nil
			}
		} else if p.Text != "" {
			v2.Details = []ReasoningDetail{{Type: "text", Text: p.Text}}
		}
		ex := extrasFor(pm, nil)
		if p.State != "" && p.State != "done" {
			if ex == nil {
				ex = make(map[string]any)
			}
			ex["state"] = p.State
		}
		return v2, ex
	case ToolPartV3:
		inv := ToolInvocation{
			ToolCallID: p.ToolCallID,
			ToolName:   p.ToolName,
			Args:       p.Input,
		}
		var ex map[string]any
		switch p.State {
		case ToolStateV3InputStreaming:
			inv.State = ToolStatePartial
		case ToolStateV3InputAvailable:
			inv.State = ToolStateCall
		case ToolStateV3OutputAvailable:
			inv.State = ToolStateResult
			inv.Result = p.Output
		case ToolStateV3OutputError:
			inv.State = ToolStateResult
			inv.Result = p.Output
			ex = map[string]any{"errorText": p.ErrorText}
		default:
			inv.State = ToolStateCall
		}
		ex = extrasFor(p.ProviderMetadata, ex)
		return ToolInvocationPart{ToolInvocation: inv}, ex
	case SourceURLPartV3:
		return SourcePart{Source: Source{
			SourceType: "url",
			ID:         p.SourceID,
			URL:        p.URL,
			Title:      p.Title,
		}}, extrasFor(p.ProviderMetadata, nil)
	case FilePartV3:
		ex := extrasFor(p.ProviderMetadata, nil)
		if p.Filename != "" {
			if ex == nil {
				ex = make(map[string]any)
			}
			ex["filename"] = p.Filename
		}
		return FilePart{Data: p.URL, MimeType: p.MediaType}, ex
	case StepStartPartV3:
		return StepStartPart{}, nil
	default:
		panic(fmt.Sprintf("messages: unknown V3 part %T", part))
	}
}

// needsDetailStash reports whether reasoning details carry more information
// than the trivial single text fragment derived from the reasoning string.
func needsDetailStash(p ReasoningPart) bool {
	if len(p.Details) == 0 {
		return false
	}
	if len(p.Details) == 1 {
		d := p.Details[0]
		if d.Type == "text" && d.Text == p.Reasoning && d.Signature == "" && d.Data == "" {
			return false
		}
	}
	return true
}

func extractV3Extras(meta map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any)
	raw, ok := meta[MetaKeyV3Extras]
	if !ok {
		return out
	}
	switch v := raw.(type) {
	case map[string]any:
		for k, e := range v {
			if em, ok := e.(map[string]any); ok {
				out[k] = em
			}
		}
	case map[string]map[string]any:
		for k, e := range v {
			out[k] = e
		}
	}
	return out
}

func extrasFor(providerMetadata map[string]any, base map[string]any) map[string]any {
	if len(providerMetadata) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]any)
	}
	base["providerMetadata"] = providerMetadata
	return base
}

func extraMeta(ex map[string]any, key string) map[string]any {
	if ex == nil {
		return nil
	}
	if m, ok := ex[key].(map[string]any); ok {
		return m
	}
	return nil
}

func extraString(ex map[string]any, key string) string {
	if ex == nil {
		return ""
	}
	if s, ok := ex[key].(string); ok {
		return s
	}
	return ""
}

func cloneMeta(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

// coerceAttachments recovers a typed attachment slice from either the
// in-memory representation or the generic shape produced by a JSON round trip.
func coerceAttachments(v any) []Attachment {
	if atts, ok := v.([]Attachment); ok {
		return atts
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var atts []Attachment
	if err := json.Unmarshal(data, &atts); err != nil {
		return nil
	}
	return atts
}

// coerceDetails recovers typed reasoning details, tolerating a JSON round
// trip of the stashed value.
func coerceDetails(v any) []ReasoningDetail {
	if det, ok := v.([]ReasoningDetail); ok {
		return det
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var det []ReasoningDetail
	if err := json.Unmarshal(data, &det); err != nil {
		return nil
	}
	return det
}
