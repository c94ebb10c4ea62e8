// Projections from the canonical store back to the wire dialects. UI and
// canonical projections are faithful; model projections sanitize first so
// invocation payloads never carry unresolved tool calls or empty reasoning.
package messagelist

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/aiv4"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/aiv5"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// projectV1 flattens a canonical message into the legacy shape: scalar
// content when the message is pure text, an item array plus parallel tool
// arrays otherwise.
func projectV1(m *messages.MessageV2) *messages.MessageV1 {
	out := &messages.MessageV1{
		ID:         m.ID,
		ThreadID:   m.ThreadID,
		ResourceID: m.ResourceID,
		Role:       m.Role,
		CreatedAt:  m.CreatedAt,
		Type:       "text",
	}
	var items []messages.V1Item
	onlyText := true
	for _, part := range m.Content.Parts {
		switch p := part.(type) {
		case messages.TextPart:
			items = append(items, messages.V1Item{Type: "text", Text: p.Text})
		case messages.FilePart:
			items = append(items, messages.V1Item{Type: "image", Image: p.Data, MimeType: p.MimeType})
			onlyText = false
		case messages.ToolInvocationPart:
			inv := p.ToolInvocation
			out.ToolCallIDs = append(out.ToolCallIDs, inv.ToolCallID)
			out.ToolNames = append(out.ToolNames, inv.ToolName)
			out.ToolCallArgs = append(out.ToolCallArgs, inv.Args)
			if inv.State == messages.ToolStateResult {
				items = append(items, messages.V1Item{
					Type:       "tool-result",
					ToolCallID: inv.ToolCallID,
					ToolName:   inv.ToolName,
					Result:     inv.Result,
				})
				out.Type = "tool-result"
			} else {
				items = append(items, messages.V1Item{
					Type:       "tool-call",
					ToolCallID: inv.ToolCallID,
					ToolName:   inv.ToolName,
					Args:       inv.Args,
				})
				out.Type = "tool-call"
			}
			onlyText = false
		}
		// Reasoning, sources, and step boundaries have no legacy slot.
	}
	if onlyText {
		out.Content = messages.ContentV1{Text: m.TextContent(), IsString: true}
		return out
	}
	out.Content = messages.ContentV1{Items: items}
	return out
}

// projectUIV4 regenerates the older UI dialect shape.
func projectUIV4(m *messages.MessageV2) aiv4.UIMessage {
	out := aiv4.UIMessage{
		ID:              m.ID,
		Role:            m.Role,
		Content:         m.LatestText(),
		CreatedAt:       m.CreatedAt,
		Parts:           append([]messages.Part(nil), m.Content.Parts...),
		ToolInvocations: append([]messages.ToolInvocation(nil), m.Content.ToolInvocations...),
		Attachments:     append([]messages.Attachment(nil), m.Content.Attachments...),
	}
	if anns, ok := m.Content.Metadata["__annotations"].([]any); ok {
		out.Annotations = anns
	}
	if data, ok := m.Content.Metadata["__data"]; ok {
		out.Data = data
	}
	return out
}

// projectUIV5 regenerates the newer UI dialect shape. Reserved metadata keys
// are internal bookkeeping and never surface.
func projectUIV5(m *messages.MessageV2) aiv5.UIMessage {
	v3 := m.ToV3()
	return aiv5.UIMessage{
		ID:        v3.ID,
		Role:      v3.Role,
		CreatedAt: v3.CreatedAt,
		Metadata:  stripReserved(v3.Content.Metadata),
		Parts:     v3.Content.Parts,
	}
}

// projectCoreV4 sanitizes and regenerates the older model dialect. A
// resolved tool invocation splits into an assistant tool-call entry and a
// tool entry carrying the result; unresolved invocations and empty
// reasoning are dropped, and a message left with nothing is skipped.
func projectCoreV4(m *messages.MessageV2) []aiv4.CoreMessage {
	var (
		parts   []aiv4.CorePart
		results []aiv4.CorePart
	)
	for i, part := range m.Content.Parts {
		ex := partExtras(m, i)
		switch p := part.(type) {
		case messages.TextPart:
			if p.Text == "" {
				continue
			}
			parts = append(parts, aiv4.TextPart{Text: p.Text, ProviderMetadata: extraMetaValue(ex, "providerMetadata")})
		case messages.ReasoningPart:
			parts = append(parts, coreV4Reasoning(p)...)
		case messages.FilePart:
			if strings.HasPrefix(p.MimeType, "image/") {
				parts = append(parts, aiv4.ImagePart{Image: p.Data, MimeType: p.MimeType})
			} else {
				parts = append(parts, aiv4.FilePart{Data: p.Data, MimeType: p.MimeType})
			}
		case messages.ToolInvocationPart:
			inv := p.ToolInvocation
			if inv.State != messages.ToolStateResult {
				continue
			}
			args := inv.Args
			if args == nil {
				args = map[string]any{}
			}
			parts = append(parts, aiv4.ToolCallPart{
				ToolCallID: inv.ToolCallID,
				ToolName:   inv.ToolName,
				Args:       args,
			})
			result := inv.Result
			if result == nil {
				result = ""
			}
			results = append(results, aiv4.ToolResultPart{
				ToolCallID: inv.ToolCallID,
				ToolName:   inv.ToolName,
				Result:     result,
				IsError:    extraStringValue(ex, "errorText") != "",
			})
		}
		// Sources and step boundaries are UI-only.
	}
	if len(parts) == 0 && len(results) == 0 {
		return nil
	}
	var out []aiv4.CoreMessage
	if len(parts) > 0 {
		msg := aiv4.CoreMessage{Role: m.Role, Content: coreContent(parts)}
		if pm, ok := m.Content.Metadata[messages.MetaKeyProviderMetadata].(map[string]any); ok {
			msg.ProviderMetadata = pm
		}
		out = append(out, msg)
	}
	if len(results) > 0 {
		out = append(out, aiv4.CoreMessage{
			Role:    messages.RoleTool,
			Content: aiv4.CoreContent{Parts: results},
		})
	}
	return out
}

// coreContent collapses a lone text part to the scalar content form.
func coreContent(parts []aiv4.CorePart) aiv4.CoreContent {
	if len(parts) == 1 {
		if tp, ok := parts[0].(aiv4.TextPart); ok && len(tp.ProviderMetadata) == 0 {
			return aiv4.CoreContent{Text: tp.Text, IsString: true}
		}
	}
	return aiv4.CoreContent{Parts: parts}
}

func coreV4Reasoning(p messages.ReasoningPart) []aiv4.CorePart {
	var out []aiv4.CorePart
	for _, d := range p.Details {
		switch d.Type {
		case "text":
			if d.Text != "" {
				out = append(out, aiv4.ReasoningPart{Text: d.Text, Signature: d.Signature})
			}
		case "redacted":
			out = append(out, aiv4.RedactedReasoningPart{Data: d.Data})
		}
	}
	if len(out) == 0 && p.Reasoning != "" {
		out = append(out, aiv4.ReasoningPart{Text: p.Reasoning})
	}
	return out
}

// projectModelV5 sanitizes and regenerates the newer model dialect, going
// through the V3 vocabulary so per-part provider metadata and error state
// are already resolved.
func projectModelV5(m *messages.MessageV2) []aiv5.ModelMessage {
	v3 := m.ToV3()
	var (
		parts   []aiv5.ModelPart
		results []aiv5.ModelPart
	)
	for _, part := range v3.Content.Parts {
		switch p := part.(type) {
		case messages.TextPartV3:
			if p.Text == "" {
				continue
			}
			parts = append(parts, aiv5.TextPart{Text: p.Text, ProviderOptions: p.ProviderMetadata})
		case messages.ReasoningPartV3:
			if p.Text == "" {
				continue
			}
			parts = append(parts, aiv5.ReasoningPart{Text: p.Text, ProviderOptions: p.ProviderMetadata})
		case messages.FilePartV3:
			parts = append(parts, aiv5.FilePart{Data: p.URL, MediaType: p.MediaType, Filename: p.Filename})
		case messages.ToolPartV3:
			if p.State != messages.ToolStateV3OutputAvailable && p.State != messages.ToolStateV3OutputError {
				continue
			}
			input := p.Input
			if input == nil {
				input = map[string]any{}
			}
			parts = append(parts, aiv5.ToolCallPart{
				ToolCallID: p.ToolCallID,
				ToolName:   p.ToolName,
				Input:      input,
			})
			isError := p.State == messages.ToolStateV3OutputError
			output := p.Output
			if isError && output == nil && p.ErrorText != "" {
				output = p.ErrorText
			}
			results = append(results, aiv5.ToolResultPart{
				ToolCallID: p.ToolCallID,
				ToolName:   p.ToolName,
				Output:     aiv5.NewToolOutput(output, isError),
			})
		}
	}
	if len(parts) == 0 && len(results) == 0 {
		return nil
	}
	var out []aiv5.ModelMessage
	if len(parts) > 0 {
		msg := aiv5.ModelMessage{Role: m.Role, Content: modelContent(parts)}
		if pm, ok := m.Content.Metadata[messages.MetaKeyProviderMetadata].(map[string]any); ok {
			msg.ProviderOptions = pm
		}
		out = append(out, msg)
	}
	if len(results) > 0 {
		out = append(out, aiv5.ModelMessage{
			Role:    messages.RoleTool,
			Content: aiv5.ModelContent{Parts: results},
		})
	}
	return out
}

func modelContent(parts []aiv5.ModelPart) aiv5.ModelContent {
	if len(parts) == 1 {
		if tp, ok := parts[0].(aiv5.TextPart); ok && len(tp.ProviderOptions) == 0 {
			return aiv5.ModelContent{Text: tp.Text, IsString: true}
		}
	}
	return aiv5.ModelContent{Parts: parts}
}

// Prompt assembles the invocation payload in the older model dialect: system
// messages first, then the sanitized conversation. A payload that would
// start with an assistant turn (or be empty) is prefixed with a single-space
// user message because providers reject prompts that open with the model's
// own voice.
func (l *List) Prompt() []aiv4.CoreMessage {
	var out []aiv4.CoreMessage
	for _, sys := range l.allSystem() {
		out = append(out, aiv4.CoreMessage{
			Role:    messages.RoleSystem,
			Content: aiv4.CoreContent{Text: sys.TextContent(), IsString: true},
		})
	}
	conv := l.All().CoreV4()
	if len(conv) == 0 || conv[0].Role != messages.RoleUser {
		out = append(out, aiv4.CoreMessage{
			Role:    messages.RoleUser,
			Content: aiv4.CoreContent{Text: " ", IsString: true},
		})
	}
	return append(out, conv...)
}

// PromptModel assembles the invocation payload in the newer model dialect.
func (l *List) PromptModel() []aiv5.ModelMessage {
	var out []aiv5.ModelMessage
	for _, sys := range l.allSystem() {
		out = append(out, aiv5.ModelMessage{
			Role:    messages.RoleSystem,
			Content: aiv5.ModelContent{Text: sys.TextContent(), IsString: true},
		})
	}
	conv := l.All().ModelV5()
	if len(conv) == 0 || conv[0].Role != messages.RoleUser {
		out = append(out, aiv5.ModelMessage{
			Role:    messages.RoleUser,
			Content: aiv5.ModelContent{Text: " ", IsString: true},
		})
	}
	return append(out, conv...)
}

// PromptMessages is the dialect-neutral invocation view consumed by provider
// encoders: system messages (as system-role canonical entries) followed by
// the canonical conversation. Sanitization is left to the encoder.
func (l *List) PromptMessages() []*messages.MessageV2 {
	var out []*messages.MessageV2
	out = append(out, l.allSystem()...)
	if len(l.msgs) == 0 || l.msgs[0].Role != messages.RoleUser {
		out = append(out, &messages.MessageV2{
			ID:   messages.NewID(),
			Role: messages.RoleUser,
			Content: messages.ContentV2{
				Format:  messages.FormatV2,
				Parts:   []messages.Part{messages.TextPart{Text: " "}},
				Content: " ",
			},
		})
	}
	return append(out, cloneSlice(l.msgs)...)
}

func (l *List) allSystem() []*messages.MessageV2 {
	out := cloneSlice(l.system)
	tags := make([]string, 0, len(l.taggedSystem))
	for tag := range l.taggedSystem {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		out = append(out, l.taggedSystem[tag]...)
	}
	return out
}

// partExtras returns the stashed per-part extras for part index i.
func partExtras(m *messages.MessageV2, i int) map[string]any {
	raw, ok := m.Content.Metadata[messages.MetaKeyV3Extras]
	if !ok {
		return nil
	}
	byIndex, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	ex, _ := byIndex[strconv.Itoa(i)].(map[string]any)
	return ex
}

func extraMetaValue(ex map[string]any, key string) map[string]any {
	if ex == nil {
		return nil
	}
	m, _ := ex[key].(map[string]any)
	return m
}

func extraStringValue(ex map[string]any, key string) string {
	if ex == nil {
		return ""
	}
	s, _ := ex[key].(string)
	return s
}

func stripReserved(meta map[string]any) map[string]any {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if strings.HasPrefix(k, "__") {
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
