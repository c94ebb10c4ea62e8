// Package openai invokes the OpenAI Chat Completions API with canonical
// conversation history. It encodes the dialect-neutral prompt view into
// ChatCompletion calls using github.com/sashabaranov/go-openai and maps
// responses back into canonical messages.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/features/model"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

// ChatClient captures the subset of the go-openai client used by the adapter.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (
		openai.ChatCompletionResponse, error)
}

// Options configures the OpenAI adapter.
type Options struct {
	Client       ChatClient
	DefaultModel string
}

// Client invokes Chat Completions with canonical conversation history.
type Client struct {
	chat  ChatClient
	model string
}

// New builds an OpenAI-backed client from the provided options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("openai client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("default model is required")
	}
	return &Client{chat: opts.Client, model: opts.DefaultModel}, nil
}

// NewFromAPIKey constructs a client using the default go-openai HTTP client.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	return New(Options{Client: openai.NewClient(apiKey), DefaultModel: defaultModel})
}

// Complete renders a chat completion for the given conversation and returns
// the assistant reply as a canonical message.
func (c *Client) Complete(ctx context.Context, msgs []*messages.MessageV2) (*messages.MessageV2, error) {
	encoded, err := EncodeMessages(msgs)
	if err != nil {
		return nil, err
	}
	request := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: encoded,
	}
	response, err := c.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		if isRateLimited(err) {
			return nil, fmt.Errorf("%w: %w", model.ErrRateLimited, err)
		}
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	return translateResponse(response)
}

// EncodeMessages translates the canonical prompt view into chat completion
// messages. A resolved tool invocation splits into an assistant message
// carrying the tool call and a tool-role message carrying the result, the
// shape the Chat Completions API expects.
func EncodeMessages(msgs []*messages.MessageV2) ([]openai.ChatCompletionMessage, error) {
	if len(msgs) == 0 {
		return nil, errors.New("messages are required")
	}
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		var (
			text      string
			toolCalls []openai.ToolCall
			results   []openai.ChatCompletionMessage
		)
		for _, p := range m.Content.Parts {
			switch v := p.(type) {
			case messages.TextPart:
				text += v.Text
			case messages.ToolInvocationPart:
				inv := v.ToolInvocation
				if inv.State != messages.ToolStateResult {
					continue
				}
				args, err := json.Marshal(inv.Args)
				if err != nil {
					return nil, fmt.Errorf("marshal tool %s args: %w", inv.ToolName, err)
				}
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:   inv.ToolCallID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      inv.ToolName,
						Arguments: string(args),
					},
				})
				results = append(results, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					ToolCallID: inv.ToolCallID,
					Content:    encodeResult(inv.Result),
				})
			}
		}
		if text != "" || len(toolCalls) > 0 {
			out = append(out, openai.ChatCompletionMessage{
				Role:      string(m.Role),
				Content:   text,
				ToolCalls: toolCalls,
			})
		}
		out = append(out, results...)
	}
	if len(out) == 0 {
		return nil, errors.New("openai: at least one non-empty message is required")
	}
	return out, nil
}

func encodeResult(result any) string {
	switch r := result.(type) {
	case nil:
		return ""
	case string:
		return r
	case []byte:
		return string(r)
	default:
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Sprintf("%v", r)
		}
		return string(data)
	}
}

// translateResponse maps a chat completion into a canonical assistant
// message: content becomes a text part, tool calls become call-state tool
// invocations awaiting their results.
func translateResponse(resp openai.ChatCompletionResponse) (*messages.MessageV2, error) {
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response carried no choices")
	}
	msg := resp.Choices[0].Message
	out := &messages.MessageV2{
		ID:      messages.NewID(),
		Role:    messages.RoleAssistant,
		Content: messages.ContentV2{Format: messages.FormatV2},
	}
	if msg.Content != "" {
		out.Content.Parts = append(out.Content.Parts, messages.TextPart{Text: msg.Content})
		out.Content.Content = msg.Content
	}
	for _, call := range msg.ToolCalls {
		out.Content.Parts = append(out.Content.Parts, messages.ToolInvocationPart{
			ToolInvocation: messages.ToolInvocation{
				State:      messages.ToolStateCall,
				ToolCallID: call.ID,
				ToolName:   call.Function.Name,
				Args:       parseToolArguments(call.Function.Arguments),
			},
		})
	}
	if len(out.Content.Parts) == 0 {
		return nil, errors.New("openai: response carried no usable content")
	}
	return out, nil
}

// isRateLimited reports whether err represents an OpenAI rate limiting
// response. It is idempotent when ErrRateLimited is already present in the
// error chain.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, model.ErrRateLimited) {
		return true
	}
	var apiErr *openai.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests
}

func parseToolArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return map[string]any{"raw": raw}
	}
	return payload
}
