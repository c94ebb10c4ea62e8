package messagelist

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/aiv4"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/aiv5"
	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

func TestIngestRawUIV4(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	raw := json.RawMessage(`{
		"id": "u1",
		"role": "user",
		"content": "look this up",
		"parts": [{"type": "text", "text": "look this up"}],
		"experimental_attachments": [{"url": "https://files/x.png", "contentType": "image/png"}]
	}`)
	_, err := l.Add(ctx, raw, SourceInput)
	require.NoError(t, err)

	got := l.All().V2()
	require.Len(t, got, 1)
	require.Equal(t, "u1", got[0].ID)
	require.Equal(t, "look this up", got[0].TextContent())
	require.Len(t, got[0].Content.Attachments, 1)
}

func TestIngestRawUIV5(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	raw := map[string]any{
		"id":   "u2",
		"role": "assistant",
		"parts": []any{
			map[string]any{"type": "text", "text": "found"},
			map[string]any{
				"type": "tool-search", "toolCallId": "c1",
				"state": "output-available",
				"input": map[string]any{"q": "go"}, "output": "ok",
			},
		},
	}
	_, err := l.Add(ctx, raw, SourceResponse)
	require.NoError(t, err)

	got := l.All().V2()
	require.Len(t, got, 1)
	require.Len(t, got[0].Content.Parts, 2)
	inv := got[0].Content.Parts[1].(messages.ToolInvocationPart).ToolInvocation
	require.Equal(t, messages.ToolStateResult, inv.State)
	require.Equal(t, "search", inv.ToolName)
	require.Equal(t, "ok", inv.Result)
}

func TestIngestTypedCoreV4(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	msg := aiv4.CoreMessage{
		Role: messages.RoleUser,
		Content: aiv4.CoreContent{Parts: []aiv4.CorePart{
			aiv4.TextPart{Text: "describe this"},
			aiv4.ImagePart{Image: "aGk=", MimeType: "image/png"},
		}},
	}
	_, err := l.Add(ctx, msg, SourceInput)
	require.NoError(t, err)

	got := l.All().V2()
	require.Len(t, got[0].Content.Parts, 2)
	fp, ok := got[0].Content.Parts[1].(messages.FilePart)
	require.True(t, ok, "image parts normalize to file parts")
	require.Equal(t, "image/png", fp.MimeType)
}

func TestToolResultArgsBackfilledFromHistory(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.Add(ctx, assistantWithInvocation(messages.ToolInvocation{
		State:      messages.ToolStateCall,
		ToolCallID: "c1",
		ToolName:   "search",
		Args:       map[string]any{"q": "go"},
	}), SourceResponse)
	require.NoError(t, err)

	// The result arrives in the older model dialect with no args of its own.
	raw := json.RawMessage(`{
		"role": "tool",
		"content": [{"type": "tool-result", "toolCallId": "c1", "toolName": "search", "result": "found"}]
	}`)
	_, err = l.Add(ctx, raw, SourceResponse)
	require.NoError(t, err)

	require.Equal(t, 1, l.Len(), "tool role collapses into assistant and merges")
	inv := l.All().V2()[0].Content.Parts[0].(messages.ToolInvocationPart).ToolInvocation
	require.Equal(t, messages.ToolStateResult, inv.State)
	require.Equal(t, "found", inv.Result)
	require.Equal(t, "go", inv.Args["q"], "args backfilled from the originating call")
}

func TestOrphanToolResultKeptWithEmptyArgs(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	raw := json.RawMessage(`{
		"role": "tool",
		"content": [{"type": "tool-result", "toolCallId": "nope", "toolName": "t", "result": 1}]
	}`)
	_, err := l.Add(ctx, raw, SourceResponse)
	require.NoError(t, err)

	inv := l.All().V2()[0].Content.Parts[0].(messages.ToolInvocationPart).ToolInvocation
	require.NotNil(t, inv.Args)
	require.Empty(t, inv.Args)
}

func TestIngestTypedModelV5(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	msg := aiv5.ModelMessage{
		Role:            messages.RoleAssistant,
		Content:         aiv5.ModelContent{Text: "plain answer", IsString: true},
		ProviderOptions: map[string]any{"anthropic": map[string]any{"cache": true}},
	}
	_, err := l.Add(ctx, msg, SourceResponse)
	require.NoError(t, err)

	got := l.All().V2()
	require.Equal(t, "plain answer", got[0].TextContent())
	require.Contains(t, got[0].Content.Metadata, messages.MetaKeyProviderMetadata)
}

func TestIngestErrorOutput(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	msg := aiv5.ModelMessage{
		Role: messages.RoleAssistant,
		Content: aiv5.ModelContent{Parts: []aiv5.ModelPart{
			aiv5.ToolCallPart{ToolCallID: "c1", ToolName: "t", Input: map[string]any{}},
			aiv5.ToolResultPart{ToolCallID: "c1", ToolName: "t", Output: aiv5.ToolOutput{Type: "error-text", Value: "boom"}},
		}},
	}
	_, err := l.Add(ctx, msg, SourceResponse)
	require.NoError(t, err)

	// Projecting back through the newer vocabulary restores the error state.
	v3 := l.All().V3()[0]
	var toolPart messages.ToolPartV3
	found := false
	for _, p := range v3.Content.Parts {
		if tp, ok := p.(messages.ToolPartV3); ok {
			toolPart = tp
			found = true
		}
	}
	require.True(t, found)
	require.Equal(t, messages.ToolStateV3OutputError, toolPart.State)
	require.Equal(t, "boom", toolPart.ErrorText)
}

func TestIngestMixedBatch(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	batch := []any{
		"plain shorthand",
		map[string]any{"role": "assistant", "content": "scalar core"},
	}
	_, err := l.Add(ctx, batch, SourceInput)
	require.NoError(t, err)
	require.Equal(t, 2, l.Len())
}
