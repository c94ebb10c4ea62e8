package bedrock

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/require"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/features/model"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

type fakeRuntime struct {
	got  *bedrockruntime.ConverseInput
	resp *bedrockruntime.ConverseOutput
	err  error
}

func (f *fakeRuntime) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.got = params
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
						Result:     "3 hits",
					}},
				},
			},
		},
	}
}

func TestEncodeMessages(t *testing.T) {
	conv, system, err := EncodeMessages(conversation())
	require.NoError(t, err)

	require.Len(t, system, 1)
	sys, ok := system[0].(*brtypes.SystemContentBlockMemberText)
	require.True(t, ok)
	require.Equal(t, "be helpful", sys.Value)

	require.Len(t, conv, 3)
	require.Equal(t, brtypes.ConversationRoleUser, conv[0].Role)
	require.Equal(t, brtypes.ConversationRoleAssistant, conv[1].Role)
	require.Len(t, conv[1].Content, 2)

	use, ok := conv[1].Content[1].(*brtypes.ContentBlockMemberToolUse)
	require.True(t, ok)
	require.Equal(t, "c1", aws.ToString(use.Value.ToolUseId))
	require.Equal(t, "search", aws.ToString(use.Value.Name))

	// String results encode as a text tool_result in a trailing user message.
	require.Equal(t, brtypes.ConversationRoleUser, conv[2].Role)
	result, ok := conv[2].Content[0].(*brtypes.ContentBlockMemberToolResult)
	require.True(t, ok)
	require.Equal(t, "c1", aws.ToString(result.Value.ToolUseId))
	text, ok := result.Value.Content[0].(*brtypes.ToolResultContentBlockMemberText)
	require.True(t, ok)
	require.Equal(t, "3 hits", text.Value)
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
	conv, _, err := EncodeMessages(msgs)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	require.Len(t, conv[0].Content, 1)
}

func TestEncodeMessagesRejectsUnsafeToolUseID(t *testing.T) {
	msgs := []*messages.MessageV2{
		{
			Role: messages.RoleAssistant,
			Content: messages.ContentV2{
				Format: messages.FormatV2,
				Parts: []messages.Part{
					messages.ToolInvocationPart{ToolInvocation: messages.ToolInvocation{
						State:      messages.ToolStateResult,
						ToolCallID: "runs/abc/calls/1",
						ToolName:   "search",
						Result:     "ok",
					}},
				},
			},
		},
	}
	_, _, err := EncodeMessages(msgs)
	require.Error(t, err)
}

func TestCompleteRequiresToolConfigForToolBlocks(t *testing.T) {
	client, err := New(Options{Runtime: &fakeRuntime{}, DefaultModel: "anthropic.claude-3"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), conversation())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no tools were configured")
}

func TestCompleteTranslatesResponse(t *testing.T) {
	fake := &fakeRuntime{
		resp: &bedrockruntime.ConverseOutput{
			Output: &brtypes.ConverseOutputMemberMessage{
				Value: brtypes.Message{
					Role: brtypes.ConversationRoleAssistant,
					Content: []brtypes.ContentBlock{
						&brtypes.ContentBlockMemberText{Value: "let me search"},
						&brtypes.ContentBlockMemberToolUse{
							Value: brtypes.ToolUseBlock{
								ToolUseId: aws.String("c9"),
								Name:      aws.String("search"),
								Input:     lazyDocument(map[string]any{"q": "go"}),
							},
						},
					},
				},
			},
		},
	}
	client, err := New(Options{
		Runtime:      fake,
		DefaultModel: "anthropic.claude-3",
		MaxTokens:    1024,
		Tools: []ToolDefinition{
			{Name: "search", Description: "full text search"},
		},
	})
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), conversation())
	require.NoError(t, err)

	require.Equal(t, "anthropic.claude-3", aws.ToString(fake.got.ModelId))
	require.NotNil(t, fake.got.ToolConfig)
	require.NotNil(t, fake.got.InferenceConfig)
	require.EqualValues(t, 1024, aws.ToInt32(fake.got.InferenceConfig.MaxTokens))

	require.Equal(t, messages.RoleAssistant, reply.Role)
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

func TestCompleteWrapsRateLimitedErrors(t *testing.T) {
	fake := &fakeRuntime{err: model.ErrRateLimited}
	client, err := New(Options{Runtime: fake, DefaultModel: "anthropic.claude-3"})
	require.NoError(t, err)

	msgs := []*messages.MessageV2{
		{
			Role: messages.RoleUser,
			Content: messages.ContentV2{
				Format: messages.FormatV2,
				Parts:  []messages.Part{messages.TextPart{Text: "hello"}},
			},
		},
	}
	_, err = client.Complete(context.Background(), msgs)
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrRateLimited)
}

func TestIsRateLimitedIdempotentOnSentinel(t *testing.T) {
	require.True(t, isRateLimited(model.ErrRateLimited))
	require.True(t, isRateLimited(fmt.Errorf("provider: %w", model.ErrRateLimited)))
	require.False(t, isRateLimited(nil))
}
