// Package bedrock invokes the AWS Bedrock Converse API with canonical
// conversation history. It splits system from conversational messages,
// encodes text, reasoning, and tool blocks into Converse content, and
// translates responses back into canonical messages.
package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithy "github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/features/model"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// RuntimeClient mirrors the subset of the AWS Bedrock runtime client required
// by the adapter. It matches *bedrockruntime.Client so callers can pass either
// the real client or a mock in tests.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// ToolDefinition describes a tool the model may call. Bedrock requires tool
// definitions whenever the conversation contains tool_use or tool_result
// blocks.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Options configures the Bedrock adapter.
type Options struct {
	// Runtime provides access to the Bedrock runtime. Required.
	Runtime RuntimeClient

	// DefaultModel is the model identifier used for completions. Required.
	DefaultModel string

	// MaxTokens caps the completion length. When zero or negative, the client
	// omits MaxTokens so Bedrock uses its own default.
	MaxTokens int

	// Temperature is forwarded when positive.
	Temperature float32

	// Tools declares the tools referenced by tool blocks in the conversation.
	Tools []ToolDefinition
}

// Client invokes the Bedrock Converse API with canonical conversation
// history.
type Client struct {
	runtime      RuntimeClient
	defaultModel string
	maxTok       int
	temp         float32
	tools        []ToolDefinition
}

// New builds a Bedrock-backed client from the provided options.
func New(opts Options) (*Client, error) {
	if opts.Runtime == nil {
		return nil, errors.New("bedrock runtime client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model identifier is required")
	}
	return &Client{
		runtime:      opts.Runtime,
		defaultModel: opts.DefaultModel,
		maxTok:       opts.MaxTokens,
		temp:         opts.Temperature,
		tools:        opts.Tools,
	}, nil
}

// Complete issues a Converse request for the given conversation and returns
// the assistant reply as a canonical message.
func (c *Client) Complete(ctx context.Context, msgs []*messages.MessageV2) (*messages.MessageV2, error) {
	conversation, system, err := EncodeMessages(msgs)
	if err != nil {
		return nil, err
	}
	toolConfig, err := encodeTools(c.tools)
	if err != nil {
		return nil, err
	}
	// Bedrock rejects tool_use/tool_result blocks when the request carries no
	// tool configuration. Fail fast with a clear error rather than letting
	// Bedrock reject the request with a generic validation error.
	if toolConfig == nil && messagesHaveToolBlocks(msgs) {
		return nil, errors.New("bedrock: conversation contains tool blocks but no tools were configured")
	}
	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.defaultModel),
		Messages: conversation,
	}
	if len(system) > 0 {
		input.System = system
	}
	if toolConfig != nil {
		input.ToolConfig = toolConfig
	}
	if cfg := c.inferenceConfig(); cfg != nil {
		input.InferenceConfig = cfg
	}
	output, err := c.runtime.Converse(ctx, input)
	if err != nil {
		if isRateLimited(err) {
			return nil, fmt.Errorf("%w: %w", model.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("bedrock converse: %w", err)
	}
	return translateResponse(output)
}

func (c *Client) inferenceConfig() *brtypes.InferenceConfiguration {
	var cfg brtypes.InferenceConfiguration
	if c.maxTok > 0 {
		cfg.MaxTokens = aws.Int32(int32(c.maxTok)) //nolint:gosec // AWS SDK requires int32
	}
	if c.temp > 0 {
		cfg.Temperature = aws.Float32(c.temp)
	}
	if cfg.MaxTokens == nil && cfg.Temperature == nil {
		return nil
	}
	return &cfg
}

// EncodeMessages translates canonical conversation history into Converse
// messages and system blocks. Reasoning parts become reasoningContent blocks,
// resolved tool invocations split into an assistant tool_use block and a
// tool_result block in a following user message, and file parts with image
// media types become image blocks.
func EncodeMessages(msgs []*messages.MessageV2) ([]brtypes.Message, []brtypes.SystemContentBlock, error) {
	var (
		conversation []brtypes.Message
		system       []brtypes.SystemContentBlock
	)
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if m.Role == messages.RoleSystem {
			if text := m.TextContent(); text != "" {
				system = append(system, &brtypes.SystemContentBlockMemberText{Value: text})
			}
			continue
		}
		var blocks []brtypes.ContentBlock
		var results []brtypes.ContentBlock
		for _, part := range m.Content.Parts {
			switch v := part.(type) {
			case messages.TextPart:
				if v.Text != "" {
					blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: v.Text})
				}
			case messages.ReasoningPart:
				blocks = append(blocks, encodeReasoning(v)...)
			case messages.FilePart:
				block, err := encodeFile(m.Role, v)
				if err != nil {
					return nil, nil, err
				}
				if block != nil {
					blocks = append(blocks, block)
				}
			case messages.ToolInvocationPart:
				inv := v.ToolInvocation
				if inv.State != messages.ToolStateResult {
					continue
				}
				if !isProviderSafeToolUseID(inv.ToolCallID) {
					return nil, nil, fmt.Errorf("bedrock: tool call ID %q is not provider safe", inv.ToolCallID)
				}
				blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{
					Value: brtypes.ToolUseBlock{
						ToolUseId: aws.String(inv.ToolCallID),
						Name:      aws.String(inv.ToolName),
						Input:     lazyDocument(inv.Args),
					},
				})
				results = append(results, encodeToolResult(inv))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		role := brtypes.ConversationRoleAssistant
		if m.Role == messages.RoleUser {
			role = brtypes.ConversationRoleUser
		}
		conversation = append(conversation, brtypes.Message{Role: role, Content: blocks})
		if len(results) > 0 {
			// Bedrock expects tool_result blocks in user messages, correlated
			// to the prior tool_use.
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: results,
			})
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("bedrock: at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func encodeReasoning(part messages.ReasoningPart) []brtypes.ContentBlock {
	var blocks []brtypes.ContentBlock
	for _, d := range part.Details {
		switch d.Type {
		case "text":
			if d.Text == "" || d.Signature == "" {
				continue
			}
			blocks = append(blocks, &brtypes.ContentBlockMemberReasoningContent{
				Value: &brtypes.ReasoningContentBlockMemberReasoningText{
					Value: brtypes.ReasoningTextBlock{
						Text:      aws.String(d.Text),
						Signature: aws.String(d.Signature),
					},
				},
			})
		case "redacted":
			if d.Data == "" {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(d.Data)
			if err != nil {
				continue
			}
			blocks = append(blocks, &brtypes.ContentBlockMemberReasoningContent{
				Value: &brtypes.ReasoningContentBlockMemberRedactedContent{Value: raw},
			})
		}
	}
	return blocks
}

func encodeFile(role messages.Role, part messages.FilePart) (brtypes.ContentBlock, error) {
	format, ok := imageFormat(part.MimeType)
	if !ok {
		// Non-image files have no Converse equivalent in this adapter.
		return nil, nil
	}
	if role != messages.RoleUser {
		return nil, fmt.Errorf("bedrock: image parts are only supported in user messages (role=%s)", role)
	}
	raw, err := base64.StdEncoding.DecodeString(part.Data)
	if err != nil {
		return nil, fmt.Errorf("bedrock: decode image data: %w", err)
	}
	return &brtypes.ContentBlockMemberImage{
		Value: brtypes.ImageBlock{
			Format: format,
			Source: &brtypes.ImageSourceMemberBytes{Value: raw},
		},
	}, nil
}

func imageFormat(mimeType string) (brtypes.ImageFormat, bool) {
	switch mimeType {
	case "image/png":
		return brtypes.ImageFormatPng, true
	case "image/jpeg":
		return brtypes.ImageFormatJpeg, true
	case "image/gif":
		return brtypes.ImageFormatGif, true
	case "image/webp":
		return brtypes.ImageFormatWebp, true
	default:
		return "", false
	}
}

func encodeToolResult(inv messages.ToolInvocation) brtypes.ContentBlock {
	tr := brtypes.ToolResultBlock{
		ToolUseId: aws.String(inv.ToolCallID),
	}
	if s, ok := inv.Result.(string); ok {
		tr.Content = []brtypes.ToolResultContentBlock{
			&brtypes.ToolResultContentBlockMemberText{Value: s},
		}
	} else {
		tr.Content = []brtypes.ToolResultContentBlock{
			&brtypes.ToolResultContentBlockMemberJson{Value: lazyDocument(inv.Result)},
		}
	}
	return &brtypes.ContentBlockMemberToolResult{Value: tr}
}

func encodeTools(defs []ToolDefinition) (*brtypes.ToolConfiguration, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	toolList := make([]brtypes.Tool, 0, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, errors.New("bedrock: tool definition requires a name")
		}
		if def.Description == "" {
			return nil, fmt.Errorf("bedrock: tool %q is missing description", def.Name)
		}
		schema := def.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		toolList = append(toolList, &brtypes.ToolMemberToolSpec{
			Value: brtypes.ToolSpecification{
				Name:        aws.String(def.Name),
				Description: aws.String(def.Description),
				InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: lazyDocument(schema)},
			},
		})
	}
	return &brtypes.ToolConfiguration{Tools: toolList}, nil
}

// isRateLimited reports whether err represents a provider rate limiting
// condition. It treats both HTTP 429 responses and provider error codes like
// ThrottlingException as rate-limited signals and is idempotent when
// ErrRateLimited is already present in the error chain.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, model.ErrRateLimited) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return true
		}
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 429 {
		return true
	}

	return false
}

// isProviderSafeToolUseID reports whether id conforms to Bedrock's documented
// toolUseId constraints: pattern [a-zA-Z0-9_-]+ and length <= 64.
func isProviderSafeToolUseID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

// translateResponse maps a Converse output into a canonical assistant
// message: text blocks become text parts, tool_use blocks become call-state
// tool invocations awaiting their results.
func translateResponse(output *bedrockruntime.ConverseOutput) (*messages.MessageV2, error) {
	if output == nil {
		return nil, errors.New("bedrock: response is nil")
	}
	out := &messages.MessageV2{
		ID:      messages.NewID(),
		Role:    messages.RoleAssistant,
		Content: messages.ContentV2{Format: messages.FormatV2},
	}
	var text strings.Builder
	if msg, ok := output.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			switch v := block.(type) {
			case *brtypes.ContentBlockMemberText:
				if v.Value == "" {
					continue
				}
				out.Content.Parts = append(out.Content.Parts, messages.TextPart{Text: v.Value})
				text.WriteString(v.Value)
			case *brtypes.ContentBlockMemberToolUse:
				inv := messages.ToolInvocation{
					State: messages.ToolStateCall,
					Args:  decodeDocument(v.Value.Input),
				}
				if v.Value.ToolUseId != nil {
					inv.ToolCallID = *v.Value.ToolUseId
				}
				if v.Value.Name != nil {
					inv.ToolName = *v.Value.Name
				}
				out.Content.Parts = append(out.Content.Parts, messages.ToolInvocationPart{ToolInvocation: inv})
			}
		}
	}
	if len(out.Content.Parts) == 0 {
		return nil, errors.New("bedrock: response carried no usable content")
	}
	out.Content.Content = text.String()
	return out, nil
}

func decodeDocument(doc document.Interface) map[string]any {
	if doc == nil {
		return map[string]any{}
	}
	data, err := doc.MarshalSmithyDocument()
	if err != nil || len(data) == 0 {
		return map[string]any{}
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return map[string]any{"raw": string(data)}
	}
	return payload
}

func messagesHaveToolBlocks(msgs []*messages.MessageV2) bool {
	for _, m := range msgs {
		if m == nil {
			continue
		}
		for _, p := range m.Content.Parts {
			if v, ok := p.(messages.ToolInvocationPart); ok && v.ToolInvocation.State == messages.ToolStateResult {
				return true
			}
		}
	}
	return false
}

func lazyDocument(v any) document.Interface {
	if v == nil {
		v = map[string]any{}
	}
	return document.NewLazyDocument(&v)
}
