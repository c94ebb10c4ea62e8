// Converters from each input dialect to the canonical V2 shape. Conversion
// is best-effort for format quirks (orphaned tool results, unserializable
// part payloads) and strict for caller bugs (empty messages, thread and
// resource mismatches).
package messagelist

import (
	"context"
	"encoding/json"
	"strconv"

	"goa.design/clue/log"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/aiv4"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/aiv5"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// normalize converts an arbitrary input value into a canonical V2 message
// and validates it against the list's thread/resource binding.
func (l *List) normalize(ctx context.Context, input any, source Source) (*messages.MessageV2, error) {
	msg, err := l.toV2(ctx, input, source)
	if err != nil {
		return nil, err
	}
	if msg.ID == "" {
		msg.ID = messages.NewID()
	}
	if len(msg.Content.Parts) == 0 && msg.Content.Content == "" && len(msg.Content.Attachments) == 0 {
		return nil, newValidationError(KindEmptyContent, msg.Role, source,
			"message has neither non-empty content nor non-empty parts")
	}
	if l.threadID != "" && msg.ThreadID != "" && msg.ThreadID != l.threadID {
		return nil, newValidationError(KindThreadMismatch, msg.Role, source,
			"message threadId %q conflicts with list thread %q", msg.ThreadID, l.threadID)
	}
	if l.resourceID != "" && msg.ResourceID != "" && msg.ResourceID != l.resourceID {
		return nil, newValidationError(KindResourceMismatch, msg.Role, source,
			"message resourceId %q conflicts with list resource %q", msg.ResourceID, l.resourceID)
	}
	if msg.ThreadID == "" {
		msg.ThreadID = l.threadID
	}
	if msg.ResourceID == "" {
		msg.ResourceID = l.resourceID
	}
	if msg.Content.Format == 0 {
		msg.Content.Format = messages.FormatV2
	}
	return msg, nil
}

func (l *List) toV2(ctx context.Context, input any, source Source) (*messages.MessageV2, error) {
	switch v := input.(type) {
	case nil:
		return nil, newValidationError(KindUnsupportedInput, "", source, "nil message")
	case *messages.MessageV2:
		return v, nil
	case messages.MessageV2:
		return &v, nil
	case *messages.MessageV3:
		return v.ToV2(), nil
	case messages.MessageV3:
		return v.ToV2(), nil
	case *messages.MessageV1:
		return v.ToV2(), nil
	case messages.MessageV1:
		return v.ToV2(), nil
	case aiv4.UIMessage:
		return l.fromUIV4(v), nil
	case *aiv4.UIMessage:
		return l.fromUIV4(*v), nil
	case aiv5.UIMessage:
		return l.fromUIV5(v), nil
	case *aiv5.UIMessage:
		return l.fromUIV5(*v), nil
	case aiv4.CoreMessage:
		return l.fromCoreV4(ctx, v), nil
	case *aiv4.CoreMessage:
		return l.fromCoreV4(ctx, *v), nil
	case aiv5.ModelMessage:
		return l.fromModelV5(ctx, v), nil
	case *aiv5.ModelMessage:
		return l.fromModelV5(ctx, *v), nil
	case string:
		return &messages.MessageV2{
			Role: messages.RoleUser,
			Content: messages.ContentV2{
				Format:  messages.FormatV2,
				Parts:   []messages.Part{messages.TextPart{Text: v}},
				Content: v,
			},
		}, nil
	case json.RawMessage:
		return l.fromRaw(ctx, v, source)
	case []byte:
		return l.fromRaw(ctx, v, source)
	case map[string]any:
		data, err := marshalLoose(ctx, v)
		if err != nil {
			return nil, newValidationError(KindUnsupportedInput, "", source,
				"unencodable message object: %v", err)
		}
		return l.fromRaw(ctx, data, source)
	default:
		return nil, newValidationError(KindUnsupportedInput, "", source,
			"unsupported input type %T", input)
	}
}

// fromRaw classifies raw JSON via the dialect decision table and decodes it
// into the matching typed shape before converting.
func (l *List) fromRaw(ctx context.Context, data []byte, source Source) (*messages.MessageV2, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, newValidationError(KindUnsupportedInput, "", source, "decode message: %v", err)
	}
	switch Detect(obj) {
	case DialectV2:
		var m messages.MessageV2
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, newValidationError(KindUnsupportedInput, "", source, "decode v2 message: %v", err)
		}
		return &m, nil
	case DialectV3:
		var m messages.MessageV3
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, newValidationError(KindUnsupportedInput, "", source, "decode v3 message: %v", err)
		}
		return m.ToV2(), nil
	case DialectV1:
		var m messages.MessageV1
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, newValidationError(KindUnsupportedInput, "", source, "decode v1 message: %v", err)
		}
		return m.ToV2(), nil
	case DialectUIV4:
		var m aiv4.UIMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, newValidationError(KindUnsupportedInput, "", source, "decode ui message: %v", err)
		}
		return l.fromUIV4(m), nil
	case DialectUIV5:
		var m aiv5.UIMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, newValidationError(KindUnsupportedInput, "", source, "decode ui message: %v", err)
		}
		return l.fromUIV5(m), nil
	case DialectCoreV4:
		var m aiv4.CoreMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, newValidationError(KindUnsupportedInput, "", source, "decode core message: %v", err)
		}
		return l.fromCoreV4(ctx, m), nil
	default:
		var m aiv5.ModelMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, newValidationError(KindUnsupportedInput, "", source, "decode model message: %v", err)
		}
		return l.fromModelV5(ctx, m), nil
	}
}

// fromUIV4 converts an older-dialect UI message. Its parts already use the
// canonical vocabulary; tool invocations stored only in the flattened
// toolInvocations view are materialized as parts so nothing is dropped.
func (l *List) fromUIV4(m aiv4.UIMessage) *messages.MessageV2 {
	out := &messages.MessageV2{
		ID:        m.ID,
		Role:      messages.NormalizeRole(m.Role),
		CreatedAt: m.CreatedAt,
		Content: messages.ContentV2{
			Format:          messages.FormatV2,
			Parts:           append([]messages.Part(nil), m.Parts...),
			Content:         m.Content,
			ToolInvocations: append([]messages.ToolInvocation(nil), m.ToolInvocations...),
			Attachments:     append([]messages.Attachment(nil), m.Attachments...),
		},
	}
	for _, inv := range m.ToolInvocations {
		if !hasToolPart(out.Content.Parts, inv.ToolCallID) {
			out.Content.Parts = append(out.Content.Parts, messages.ToolInvocationPart{ToolInvocation: inv})
		}
	}
	meta := make(map[string]any)
	if len(m.Annotations) > 0 {
		meta["__annotations"] = m.Annotations
	}
	if m.Data != nil {
		meta["__data"] = m.Data
	}
	if len(meta) > 0 {
		out.Content.Metadata = meta
	}
	if len(out.Content.Parts) == 0 && m.Content != "" {
		out.Content.Parts = []messages.Part{messages.TextPart{Text: m.Content}}
	}
	return out
}

// fromUIV5 converts a newer-dialect UI message through the V3 intermediate.
func (l *List) fromUIV5(m aiv5.UIMessage) *messages.MessageV2 {
	v3 := &messages.MessageV3{
		ID:        m.ID,
		Role:      messages.NormalizeRole(m.Role),
		CreatedAt: m.CreatedAt,
		Content: messages.ContentV3{
			Format:   messages.FormatV3,
			Parts:    append([]messages.PartV3(nil), m.Parts...),
			Metadata: m.Metadata,
		},
	}
	return v3.ToV2()
}

// fromCoreV4 converts an older model-dialect message. Tool results search for
// their originating call's arguments in the same message first, then backward
// through stored assistant turns; a result whose call was never observed is
// kept with empty arguments.
func (l *List) fromCoreV4(ctx context.Context, m aiv4.CoreMessage) *messages.MessageV2 {
	out := &messages.MessageV2{
		Role:    messages.NormalizeRole(m.Role),
		Content: messages.ContentV2{Format: messages.FormatV2},
	}
	if m.Content.IsString {
		if m.Content.Text != "" {
			out.Content.Parts = append(out.Content.Parts, messages.TextPart{Text: m.Content.Text})
			out.Content.Content = m.Content.Text
		}
	} else {
		extras := make(map[string]any)
		for i, part := range m.Content.Parts {
			converted, ex := l.coreV4Part(ctx, m, part)
			if converted == nil {
				continue
			}
			out.Content.Parts = append(out.Content.Parts, converted)
			if len(ex) > 0 {
				extras[strconv.Itoa(i)] = ex
			}
			if tp, ok := converted.(messages.ToolInvocationPart); ok && tp.ToolInvocation.State == messages.ToolStateResult {
				out.Content.UpsertToolInvocation(tp.ToolInvocation)
			}
			if tp, ok := converted.(messages.TextPart); ok {
				out.Content.Content = tp.Text
			}
		}
		if len(extras) > 0 {
			out.Content.Metadata = map[string]any{messages.MetaKeyV3Extras: extras}
		}
	}
	if len(m.ProviderMetadata) > 0 {
		if out.Content.Metadata == nil {
			out.Content.Metadata = make(map[string]any)
		}
		out.Content.Metadata[messages.MetaKeyProviderMetadata] = m.ProviderMetadata
	}
	return out
}

func (l *List) coreV4Part(ctx context.Context, m aiv4.CoreMessage, part aiv4.CorePart) (messages.Part, map[string]any) {
	switch p := part.(type) {
	case aiv4.TextPart:
		var ex map[string]any
		if len(p.ProviderMetadata) > 0 {
			ex = map[string]any{"providerMetadata": p.ProviderMetadata}
		}
		return messages.TextPart{Text: p.Text}, ex
	case aiv4.ImagePart:
		return messages.FilePart{Data: p.Image, MimeType: p.MimeType}, nil
	case aiv4.FilePart:
		return messages.FilePart{Data: p.Data, MimeType: p.MimeType}, nil
	case aiv4.ReasoningPart:
		return messages.ReasoningPart{
			Reasoning: p.Text,
			Details:   []messages.ReasoningDetail{{Type: "text", Text: p.Text, Signature: p.Signature}},
		}, nil
	case aiv4.RedactedReasoningPart:
		// No text is recoverable from redacted reasoning; keep the opaque
		// payload as a redacted detail entry.
		return messages.ReasoningPart{
			Details: []messages.ReasoningDetail{{Type: "redacted", Data: p.Data}},
		}, nil
	case aiv4.ToolCallPart:
		return messages.ToolInvocationPart{ToolInvocation: messages.ToolInvocation{
			State:      messages.ToolStateCall,
			ToolCallID: p.ToolCallID,
			ToolName:   p.ToolName,
			Args:       p.Args,
		}}, nil
	case aiv4.ToolResultPart:
		args := argsFromCoreContent(m.Content.Parts, p.ToolCallID)
		if args == nil {
			args = l.argsFromHistory(p.ToolCallID)
		}
		if args == nil {
			// Best effort: results for calls never observed (for example,
			// client-side tools) are kept with empty arguments.
			log.Debug(ctx, log.KV{K: "msg", V: "tool result without matching call"},
				log.KV{K: "tool_call_id", V: p.ToolCallID},
				log.KV{K: "tool_name", V: p.ToolName})
			args = map[string]any{}
		}
		inv := messages.ToolInvocation{
			State:      messages.ToolStateResult,
			ToolCallID: p.ToolCallID,
			ToolName:   p.ToolName,
			Args:       args,
			Result:     p.Result,
		}
		var ex map[string]any
		if p.IsError {
			ex = map[string]any{"errorText": "tool execution failed"}
		}
		return messages.ToolInvocationPart{ToolInvocation: inv}, ex
	default:
		return nil, nil
	}
}

// fromModelV5 converts a newer model-dialect message.
func (l *List) fromModelV5(ctx context.Context, m aiv5.ModelMessage) *messages.MessageV2 {
	out := &messages.MessageV2{
		Role:    messages.NormalizeRole(m.Role),
		Content: messages.ContentV2{Format: messages.FormatV2},
	}
	if m.Content.IsString {
		if m.Content.Text != "" {
			out.Content.Parts = append(out.Content.Parts, messages.TextPart{Text: m.Content.Text})
			out.Content.Content = m.Content.Text
		}
	} else {
		extras := make(map[string]any)
		for i, part := range m.Content.Parts {
			converted, ex := l.modelV5Part(ctx, m, part)
			if converted == nil {
				continue
			}
			out.Content.Parts = append(out.Content.Parts, converted)
			if len(ex) > 0 {
				extras[strconv.Itoa(i)] = ex
			}
			if tp, ok := converted.(messages.ToolInvocationPart); ok && tp.ToolInvocation.State == messages.ToolStateResult {
				out.Content.UpsertToolInvocation(tp.ToolInvocation)
			}
			if tp, ok := converted.(messages.TextPart); ok {
				out.Content.Content = tp.Text
			}
		}
		if len(extras) > 0 {
			out.Content.Metadata = map[string]any{messages.MetaKeyV3Extras: extras}
		}
	}
	if len(m.ProviderOptions) > 0 {
		if out.Content.Metadata == nil {
			out.Content.Metadata = make(map[string]any)
		}
		out.Content.Metadata[messages.MetaKeyProviderMetadata] = m.ProviderOptions
	}
	return out
}

func (l *List) modelV5Part(ctx context.Context, m aiv5.ModelMessage, part aiv5.ModelPart) (messages.Part, map[string]any) {
	switch p := part.(type) {
	case aiv5.TextPart:
		var ex map[string]any
		if len(p.ProviderOptions) > 0 {
			ex = map[string]any{"providerMetadata": p.ProviderOptions}
		}
		return messages.TextPart{Text: p.Text}, ex
	case aiv5.FilePart:
		var ex map[string]any
		if p.Filename != "" {
			ex = map[string]any{"filename": p.Filename}
		}
		return messages.FilePart{Data: p.Data, MimeType: p.MediaType}, ex
	case aiv5.ReasoningPart:
		return messages.ReasoningPart{
			Reasoning: p.Text,
			Details:   []messages.ReasoningDetail{{Type: "text", Text: p.Text}},
		}, nil
	case aiv5.ToolCallPart:
		return messages.ToolInvocationPart{ToolInvocation: messages.ToolInvocation{
			State:      messages.ToolStateCall,
			ToolCallID: p.ToolCallID,
			ToolName:   p.ToolName,
			Args:       p.Input,
		}}, nil
	case aiv5.ToolResultPart:
		args := argsFromModelContent(m.Content.Parts, p.ToolCallID)
		if args == nil {
			args = l.argsFromHistory(p.ToolCallID)
		}
		if args == nil {
			log.Debug(ctx, log.KV{K: "msg", V: "tool result without matching call"},
				log.KV{K: "tool_call_id", V: p.ToolCallID},
				log.KV{K: "tool_name", V: p.ToolName})
			args = map[string]any{}
		}
		inv := messages.ToolInvocation{
			State:      messages.ToolStateResult,
			ToolCallID: p.ToolCallID,
			ToolName:   p.ToolName,
			Args:       args,
			Result:     p.Output.Value,
		}
		var ex map[string]any
		switch p.Output.Type {
		case "error-text", "error-json":
			errText, _ := p.Output.Value.(string)
			if errText == "" {
				errText = "tool execution failed"
			}
			ex = map[string]any{"errorText": errText, "outputType": p.Output.Type}
		case "":
		default:
			ex = map[string]any{"outputType": p.Output.Type}
		}
		return messages.ToolInvocationPart{ToolInvocation: inv}, ex
	default:
		return nil, nil
	}
}

// argsFromHistory searches backward through stored assistant messages for a
// pending tool invocation matching the call ID and returns its arguments.
func (l *List) argsFromHistory(toolCallID string) map[string]any {
	for i := len(l.msgs) - 1; i >= 0; i-- {
		m := l.msgs[i]
		if m.Role != messages.RoleAssistant {
			continue
		}
		for j := len(m.Content.Parts) - 1; j >= 0; j-- {
			tp, ok := m.Content.Parts[j].(messages.ToolInvocationPart)
			if !ok {
				continue
			}
			inv := tp.ToolInvocation
			if inv.ToolCallID == toolCallID && inv.State != messages.ToolStateResult {
				return inv.Args
			}
		}
	}
	return nil
}

func argsFromCoreContent(parts []aiv4.CorePart, toolCallID string) map[string]any {
	for _, part := range parts {
		if tc, ok := part.(aiv4.ToolCallPart); ok && tc.ToolCallID == toolCallID {
			return tc.Args
		}
	}
	return nil
}

func argsFromModelContent(parts []aiv5.ModelPart, toolCallID string) map[string]any {
	for _, part := range parts {
		if tc, ok := part.(aiv5.ToolCallPart); ok && tc.ToolCallID == toolCallID {
			return tc.Input
		}
	}
	return nil
}

func hasToolPart(parts []messages.Part, toolCallID string) bool {
	for _, part := range parts {
		if tp, ok := part.(messages.ToolInvocationPart); ok && tp.ToolInvocation.ToolCallID == toolCallID {
			return true
		}
	}
	return false
}

// marshalLoose encodes a decoded JSON object, salvaging the message when an
// individual part payload is not serializable: the offending part is dropped
// and logged, the rest of the message survives.
func marshalLoose(ctx context.Context, obj map[string]any) ([]byte, error) {
	data, err := json.Marshal(obj)
	if err == nil {
		return data, nil
	}
	parts, ok := obj["parts"].([]any)
	if !ok {
		return nil, err
	}
	kept := make([]any, 0, len(parts))
	for i, part := range parts {
		if _, perr := json.Marshal(part); perr != nil {
			log.Warn(ctx, log.KV{K: "msg", V: "dropping unserializable message part"},
				log.KV{K: "index", V: i}, log.KV{K: "err", V: perr.Error()})
			continue
		}
		kept = append(kept, part)
	}
	salvaged := make(map[string]any, len(obj))
	for k, v := range obj {
		salvaged[k] = v
	}
	salvaged["parts"] = kept
	return json.Marshal(salvaged)
}
