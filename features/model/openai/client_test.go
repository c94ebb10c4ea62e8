package openai

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

type fakeChat struct {
	got  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = request
	return f.resp, f.err
}

func conversation() []*messages.MessageV2 {
	return []*messages.MessageV2{
		{
			Role: messages.RoleSystem,
			Content: messages.ContentV2{
				Format: messages.FormatV2,
				Parts:  []messages.Part{messages.TextPart{Text: "be helpful"}},
			},
		},
		{
			Role: messages.RoleUser,
			Content: messages.ContentV2{
				Format: messages.FormatV2,
				Parts:  []messages.Part{messages.TextPart{Text: "look up go"}},
			},
		},
		{
			Role: messages.RoleAssistant,
			Content: messages.ContentV2{
				Format: messages.FormatV2,
				Parts: []messages.Part{
					messages.TextPart{Text: "searching now"},
					messages.ToolInvocationPart{ToolInvocation: messages.ToolInvocation{
						State:      messages.ToolStateResult,
						ToolCallID: "c1",
						ToolName:   "search",
						Args:       map[string]any{"q": "go"},
						Result:     map[string]any{"hits": float64(3)},
					}},
				},
			},
		},
	}
}

func TestEncodeMessages(t *testing.T) {
	encoded, err := EncodeMessages(conversation())
	require.NoError(t, err)
	require.Len(t, encoded, 4)

	require.Equal(t, openai.ChatMessageRoleSystem, encoded[0].Role)
	require.Equal(t, "be helpful", encoded[0].Content)

	require.Equal(t, openai.ChatMessageRoleUser, encoded[1].Role)
	require.Equal(t, "look up go", encoded[1].Content)

	require.Equal(t, openai.ChatMessageRoleAssistant, encoded[2].Role)
	require.Equal(t, "searching now", encoded[2].Content)
	require.Len(t, encoded[2].ToolCalls, 1)
	call := encoded[2].ToolCalls[0]
	require.Equal(t, "c1", call.ID)
	require.Equal(t, openai.ToolTypeFunction, call.Type)
	require.Equal(t, "search", call.Function.Name)
	require.JSONEq(t, `{"q":"go"}`, call.Function.Arguments)

	require.Equal(t, openai.ChatMessageRoleTool, encoded[3].Role)
	require.Equal(t, "c1", encoded[3].ToolCallID)
	require.JSONEq(t, `{"hits":3}`, encoded[3].Content)
}

func TestEncodeMessagesSkipsUnresolvedCalls(t *testing.T) {
	msgs := []*messages.MessageV2{
		{
			Role: messages.RoleAssistant,
			Content: messages.ContentV2{
				Format: messages.FormatV2,
				Parts: []messages.Part{
					messages.TextPart{Text: "working on it"},
					messages.ToolInvocationPart{ToolInvocation: messages.ToolInvocation{
						State:      messages.ToolStateCall,
						ToolCallID: "c2",
						ToolName:   "search",
					}},
				},
			},
		},
	}
	encoded, err := EncodeMessages(msgs)
	require.NoError(t, err)
	require.Len(t, encoded, 1)
	require.Empty(t, encoded[0].ToolCalls)
	require.Equal(t, "working on it", encoded[0].Content)
}

func TestEncodeMessagesRequiresContent(t *testing.T) {
	_, err := EncodeMessages(nil)
	require.Error(t, err)

	_, err = EncodeMessages([]*messages.MessageV2{{
		Role:    messages.RoleUser,
		Content: messages.ContentV2{Format: messages.FormatV2},
	}})
	require.Error(t, err)
}

func TestCompleteTranslatesResponse(t *testing.T) {
	fake := &fakeChat{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: "let me search",
					ToolCalls: []openai.ToolCall{{
						ID:   "c9",
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      "search",
							Arguments: `{"q":"go"}`,
						},
					}},
				},
			}},
		},
	}
	client, err := New(Options{Client: fake, DefaultModel: "gpt-4o"})
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), conversation())
	require.NoError(t, err)
	require.Equal(t, "gpt-4o", fake.got.Model)
	require.Len(t, fake.got.Messages, 4)

	require.Equal(t, messages.RoleAssistant, reply.Role)
	require.NotEmpty(t, reply.ID)
	require.Len(t, reply.Content.Parts, 2)
	text, ok := reply.Content.Parts[0].(messages.TextPart)
	require.True(t, ok)
	require.Equal(t, "let me search", text.Text)
	inv, ok := reply.Content.Parts[1].(messages.ToolInvocationPart)
	require.True(t, ok)
	require.Equal(t, messages.ToolStateCall, inv.ToolInvocation.State)
	require.Equal(t, "c9", inv.ToolInvocation.ToolCallID)
	require.Equal(t, "search", inv.ToolInvocation.ToolName)
	require.Equal(t, map[string]any{"q": "go"}, inv.ToolInvocation.Args)
}

func TestCompleteMalformedArguments(t *testing.T) {
	fake := &fakeChat{
		resp: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					ToolCalls: []openai.ToolCall{{
						ID:       "c3",
						Type:     openai.ToolTypeFunction,
						Function: openai.FunctionCall{Name: "search", Arguments: "not json"},
					}},
				},
			}},
		},
	}
	client, err := New(Options{Client: fake, DefaultModel: "gpt-4o"})
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), conversation())
	require.NoError(t, err)
	inv, ok := reply.Content.Parts[0].(messages.ToolInvocationPart)
	require.True(t, ok)
	require.Equal(t, map[string]any{"raw": "not json"}, inv.ToolInvocation.Args)
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{DefaultModel: "gpt-4o"})
	require.Error(t, err)

	_, err = New(Options{Client: &fakeChat{}})
	require.Error(t, err)
}
