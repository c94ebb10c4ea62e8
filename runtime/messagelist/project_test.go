package messagelist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/aiv5"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

func TestPromptSynthesizesUserMessage(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.AddSystem(ctx, "be helpful", "")
	require.NoError(t, err)

	prompt := l.Prompt()
	require.Len(t, prompt, 2)
	require.Equal(t, messages.RoleSystem, prompt[0].Role)
	require.Equal(t, messages.RoleUser, prompt[1].Role)
	require.Equal(t, " ", prompt[1].Content.Text)

	// Same for a conversation that opens with the assistant.
	_, err = l.Add(ctx, assistantText("", "hello there"), SourceResponse)
	require.NoError(t, err)
	prompt = l.Prompt()
	require.Len(t, prompt, 3)
	require.Equal(t, messages.RoleUser, prompt[1].Role)
	require.Equal(t, messages.RoleAssistant, prompt[2].Role)
}

func TestPromptNoSyntheticWhenUserFirst(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.Add(ctx, "question", SourceInput)
	require.NoError(t, err)

	prompt := l.PromptModel()
	require.Len(t, prompt, 1)
	require.Equal(t, messages.RoleUser, prompt[0].Role)
	require.Equal(t, "question", prompt[0].Content.Text)
}

func TestCoreV4SplitsResolvedInvocations(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.Add(ctx, &messages.MessageV2{
		Role: messages.RoleAssistant,
		Content: messages.ContentV2{
			Format: messages.FormatV2,
			Parts: []messages.Part{
				messages.TextPart{Text: "running the tool"},
				messages.ToolInvocationPart{ToolInvocation: messages.ToolInvocation{
					State:      messages.ToolStateResult,
					ToolCallID: "c1",
					ToolName:   "search",
					Args:       map[string]any{"q": "go"},
					Result:     "found",
				}},
			},
		},
	}, SourceResponse)
	require.NoError(t, err)

	core := l.All().CoreV4()
	require.Len(t, core, 2)
	require.Equal(t, messages.RoleAssistant, core[0].Role)
	require.Equal(t, messages.RoleTool, core[1].Role)
	require.Len(t, core[1].Content.Parts, 1)
}

func TestModelProjectionDropsUnresolvedCalls(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.Add(ctx, assistantWithInvocation(messages.ToolInvocation{
		State:      messages.ToolStateCall,
		ToolCallID: "c1",
		ToolName:   "search",
		Args:       map[string]any{},
	}), SourceResponse)
	require.NoError(t, err)

	require.Empty(t, l.All().CoreV4(), "a dangling call must not reach the model")
	require.Empty(t, l.All().ModelV5())

	// The UI projections still show the in-flight call.
	ui := l.All().UIV4()
	require.Len(t, ui, 1)
	require.Len(t, ui[0].Parts, 1)
}

func TestModelProjectionDropsEmptyReasoning(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.Add(ctx, &messages.MessageV2{
		Role: messages.RoleAssistant,
		Content: messages.ContentV2{
			Format: messages.FormatV2,
			Parts: []messages.Part{
				messages.ReasoningPart{Reasoning: ""},
				messages.TextPart{Text: "answer"},
			},
		},
	}, SourceResponse)
	require.NoError(t, err)

	model := l.All().ModelV5()
	require.Len(t, model, 1)
	require.True(t, model[0].Content.IsString)
	require.Equal(t, "answer", model[0].Content.Text)
}

func TestUIV5RoundTrip(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	in := aiv5.UIMessage{
		ID:   "u1",
		Role: messages.RoleAssistant,
		Parts: []messages.PartV3{
			messages.TextPartV3{Text: "found"},
			messages.ToolPartV3{
				ToolName:   "search",
				ToolCallID: "c1",
				State:      messages.ToolStateV3OutputAvailable,
				Input:      map[string]any{"q": "go"},
				Output:     "ok",
			},
		},
		Metadata: map[string]any{"run": "r1"},
	}
	_, err := l.Add(ctx, in, SourceResponse)
	require.NoError(t, err)

	out := l.All().UIV5()
	require.Len(t, out, 1)
	require.Equal(t, "u1", out[0].ID)
	require.Equal(t, map[string]any{"run": "r1"}, out[0].Metadata)
	require.Len(t, out[0].Parts, 2)
	tp := out[0].Parts[1].(messages.ToolPartV3)
	require.Equal(t, "search", tp.ToolName)
	require.Equal(t, messages.ToolStateV3OutputAvailable, tp.State)
	require.Equal(t, "ok", tp.Output)
}

func TestUIV4TextRoundTripFromUIV5(t *testing.T) {
	// A newer-dialect text message projects out through the older dialect
	// with its text intact.
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.Add(ctx, aiv5.UIMessage{
		Role:  messages.RoleUser,
		Parts: []messages.PartV3{messages.TextPartV3{Text: "hello"}},
	}, SourceInput)
	require.NoError(t, err)

	ui := l.All().UIV4()
	require.Len(t, ui, 1)
	require.Equal(t, "hello", ui[0].Content)
	tp, ok := ui[0].Parts[0].(messages.TextPart)
	require.True(t, ok)
	require.Equal(t, "hello", tp.Text)
}

func TestV1Projection(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.Add(ctx, "plain question", SourceInput)
	require.NoError(t, err)
	_, err = l.Add(ctx, assistantWithInvocation(messages.ToolInvocation{
		State:      messages.ToolStateResult,
		ToolCallID: "c1",
		ToolName:   "search",
		Args:       map[string]any{"q": "go"},
		Result:     "found",
	}), SourceResponse)
	require.NoError(t, err)

	v1 := l.All().V1()
	require.Len(t, v1, 2)
	require.True(t, v1[0].Content.IsString)
	require.Equal(t, "plain question", v1[0].Content.Text)
	require.Equal(t, "tool-result", v1[1].Type)
	require.Equal(t, []string{"c1"}, v1[1].ToolCallIDs)
	require.Equal(t, []string{"search"}, v1[1].ToolNames)
}

func TestProjectByName(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.Add(ctx, "hi", SourceInput)
	require.NoError(t, err)

	got, err := l.All().Project(DialectUIV5)
	require.NoError(t, err)
	require.Len(t, got.([]aiv5.UIMessage), 1)

	_, err = l.All().Project(Dialect("markdown"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "markdown")
}
