// Package anthropic invokes the Anthropic Claude Messages API with canonical
// conversation history. It encodes the dialect-neutral prompt view into
// anthropic.Message calls using github.com/anthropics/anthropic-sdk-go and
// maps responses (text, tool use) back into canonical messages that feed
// straight back into a List.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/features/model"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

type (
	// MessagesClient captures the subset of the Anthropic SDK client used by
	// the adapter. It is satisfied by *sdk.MessageService so callers can pass
	// either a real client or a mock in tests.
	MessagesClient interface {
		New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
	}

	// Options configures the Anthropic adapter.
	Options struct {
		// DefaultModel is the Claude model identifier. Use the typed model
		// constants from github.com/anthropics/anthropic-sdk-go.
		DefaultModel string

		// MaxTokens sets the completion cap. Required by the Messages API.
		MaxTokens int64
	}

	// Client invokes Claude Messages with canonical conversation history.
	Client struct {
		msg          MessagesClient
		defaultModel string
		maxTok       int64
	}
)

// New builds an Anthropic-backed client from the provided Messages client
// and configuration options.
func New(msg MessagesClient, opts Options) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model identifier is required")
	}
	if opts.MaxTokens <= 0 {
		return nil, errors.New("max tokens is required")
	}
	return &Client{
		msg:          msg,
		defaultModel: opts.DefaultModel,
		maxTok:       opts.MaxTokens,
	}, nil
}

// NewFromAPIKey constructs a client using the default Anthropic HTTP client.
func NewFromAPIKey(apiKey, defaultModel string, maxTokens int64) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, Options{DefaultModel: defaultModel, MaxTokens: maxTokens})
}

// Complete issues a Messages.New request with the given conversation and
// returns the assistant reply as a canonical message.
func (c *Client) Complete(ctx context.Context, msgs []*messages.MessageV2) (*messages.MessageV2, error) {
	conversation, system, err := EncodeMessages(msgs)
	if err != nil {
		return nil, err
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.defaultModel),
		MaxTokens: c.maxTok,
		Messages:  conversation,
	}
	if len(system) > 0 {
		params.System = system
	}
	resp, err := c.msg.New(ctx, params)
	if err != nil {
		if isRateLimited(err) {
			return nil, fmt.Errorf("%w: %w", model.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("anthropic messages.new: %w", err)
	}
	return translateResponse(resp)
}

// EncodeMessages translates the canonical prompt view into Anthropic message
// params. System-role entries become system text blocks; resolved tool
// invocations split into an assistant tool_use block and a user tool_result
// block the way the Messages API expects.
func EncodeMessages(msgs []*messages.MessageV2) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	conversation := make([]sdk.MessageParam, 0, len(msgs))
	system := make([]sdk.TextBlockParam, 0, len(msgs))

	for _, m := range msgs {
		if m == nil {
			continue
		}
		if m.Role == messages.RoleSystem {
			if text := m.TextContent(); text != "" {
				system = append(system, sdk.TextBlockParam{Text: text})
			}
			continue
		}

		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Content.Parts))
		results := make([]sdk.ContentBlockParamUnion, 0)
		for _, part := range m.Content.Parts {
			switch v := part.(type) {
			case messages.TextPart:
				if v.Text != "" {
					blocks = append(blocks, sdk.NewTextBlock(v.Text))
				}
			case messages.ToolInvocationPart:
				inv := v.ToolInvocation
				if inv.State != messages.ToolStateResult {
					continue
				}
				if inv.ToolName == "" {
					return nil, nil, errors.New("anthropic: tool invocation missing name")
				}
				blocks = append(blocks, sdk.NewToolUseBlock(inv.ToolCallID, inv.Args, inv.ToolName))
				results = append(results, encodeToolResult(inv))
			}
			// Reasoning, file, and source parts are not re-encoded for
			// Anthropic here.
		}
		if len(blocks) > 0 {
			switch m.Role {
			case messages.RoleUser:
				conversation = append(conversation, sdk.NewUserMessage(blocks...))
			case messages.RoleAssistant:
				conversation = append(conversation, sdk.NewAssistantMessage(blocks...))
			default:
				return nil, nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
			}
		}
		if len(results) > 0 {
			// Tool results travel in a user message per the Messages API.
			conversation = append(conversation, sdk.NewUserMessage(results...))
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("anthropic: at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func encodeToolResult(inv messages.ToolInvocation) sdk.ContentBlockParamUnion {
	var content string
	switch c := inv.Result.(type) {
	case nil:
		content = ""
	case string:
		content = c
	case []byte:
		content = string(c)
	default:
		data, err := json.Marshal(c)
		if err != nil {
			content = fmt.Sprintf("%v", c)
		} else {
			content = string(data)
		}
	}
	return sdk.NewToolResultBlock(inv.ToolCallID, content, false)
}

// translateResponse maps an Anthropic response into a canonical assistant
// message: text blocks become text parts, tool_use blocks become call-state
// tool invocations awaiting their results.
func translateResponse(msg *sdk.Message) (*messages.MessageV2, error) {
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}
	out := &messages.MessageV2{
		ID:      messages.NewID(),
		Role:    messages.RoleAssistant,
		Content: messages.ContentV2{Format: messages.FormatV2},
	}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text == "" {
				continue
			}
			out.Content.Parts = append(out.Content.Parts, messages.TextPart{Text: block.Text})
			out.Content.Content = block.Text
		case "tool_use":
			var args map[string]any
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					args = map[string]any{"raw": string(block.Input)}
				}
			}
			out.Content.Parts = append(out.Content.Parts, messages.ToolInvocationPart{
				ToolInvocation: messages.ToolInvocation{
					State:      messages.ToolStateCall,
					ToolCallID: block.ID,
					ToolName:   block.Name,
					Args:       args,
				},
			})
		}
	}
	if len(out.Content.Parts) == 0 {
		return nil, errors.New("anthropic: response carried no usable content")
	}
	return out, nil
}

// isRateLimited reports whether err represents an Anthropic rate limiting
// response. It is idempotent when ErrRateLimited is already present in the
// error chain.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, model.ErrRateLimited) {
		return true
	}
	var apierr *sdk.Error
	return errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests
}
