package messagelist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vivek100/mastra-subAgentStreaming-sub000/runtime/messages"
)

func userText(id, text string, at time.Time) *messages.MessageV2 {
	return &messages.MessageV2{
		ID:        id,
		Role:      messages.RoleUser,
		CreatedAt: at,
		Content: messages.ContentV2{
			Format:  messages.FormatV2,
			Parts:   []messages.Part{messages.TextPart{Text: text}},
			Content: text,
		},
	}
}

func assistantText(id, text string) *messages.MessageV2 {
	return &messages.MessageV2{
		ID:   id,
		Role: messages.RoleAssistant,
		Content: messages.ContentV2{
			Format:  messages.FormatV2,
			Parts:   []messages.Part{messages.TextPart{Text: text}},
			Content: text,
		},
	}
}

func TestAddStringShorthand(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.Add(ctx, "hello", SourceInput)
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())

	got := l.All().V2()
	require.Equal(t, messages.RoleUser, got[0].Role)
	require.NotEmpty(t, got[0].ID)
	require.False(t, got[0].CreatedAt.IsZero())
	require.Equal(t, "t1", got[0].ThreadID)
	require.Equal(t, "hello", got[0].TextContent())
}

func TestOrderingByCreatedAt(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	batch := []*messages.MessageV2{
		userText("m3", "third", base.Add(2*time.Minute)),
		userText("m1", "first", base),
		userText("m2", "second", base.Add(time.Minute)),
	}
	_, err := l.Add(ctx, batch, SourceMemory)
	require.NoError(t, err)

	got := l.All().V2()
	require.Len(t, got, 3)
	require.Equal(t, []string{"m1", "m2", "m3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	for i := 1; i < len(got); i++ {
		require.False(t, got[i].CreatedAt.Before(got[i-1].CreatedAt))
	}
}

func TestFourMessageOrderPreserved(t *testing.T) {
	// Mixed-dialect conversation added in order without timestamps keeps
	// insertion order via synthesized timestamps.
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	_, err := l.Add(ctx, "one", SourceInput)
	require.NoError(t, err)
	_, err = l.Add(ctx, assistantText("", "two"), SourceResponse)
	require.NoError(t, err)
	_, err = l.Add(ctx, "three", SourceInput)
	require.NoError(t, err)
	_, err = l.Add(ctx, assistantText("", "four"), SourceResponse)
	require.NoError(t, err)

	got := l.All().V2()
	require.Len(t, got, 4)
	texts := make([]string, len(got))
	for i, m := range got {
		texts[i] = m.TextContent()
	}
	require.Equal(t, []string{"one", "two", "three", "four"}, texts)
}

func TestMemoryReplayIdempotent(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := l.Add(ctx, userText("m1", "hi", at), SourceMemory)
	require.NoError(t, err)

	// Same content under a different id replays as a no-op, keeping the
	// fresher timestamp.
	_, err = l.Add(ctx, userText("m1-copy", "hi", at.Add(time.Hour)), SourceMemory)
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())
	got := l.All().V2()
	require.Equal(t, "m1", got[0].ID)
	require.True(t, got[0].CreatedAt.Equal(at.Add(time.Hour)))
}

func TestReplaceByID(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := l.Add(ctx, userText("m1", "draft", at), SourceInput)
	require.NoError(t, err)
	_, err = l.Add(ctx, userText("m1", "final", at.Add(time.Second)), SourceInput)
	require.NoError(t, err)

	require.Equal(t, 1, l.Len())
	got := l.All().V2()
	require.Equal(t, "final", got[0].TextContent())
}

func TestDrainUnsaved(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := l.Add(ctx, userText("old", "from storage", at), SourceMemory)
	require.NoError(t, err)
	_, err = l.Add(ctx, "new question", SourceInput)
	require.NoError(t, err)
	_, err = l.Add(ctx, assistantText("", "new answer"), SourceResponse)
	require.NoError(t, err)

	drained := l.DrainUnsaved()
	require.Len(t, drained, 2)
	require.Equal(t, "new question", drained[0].TextContent())
	require.Equal(t, "new answer", drained[1].TextContent())

	// Drained messages are now remembered; a second drain is empty.
	require.Empty(t, l.DrainUnsaved())
	require.Equal(t, 3, l.Remembered().Len())
	require.Equal(t, 0, l.Input().Len())
	require.Equal(t, 0, l.Response().Len())
}

func TestEarliestUnsaved(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	require.True(t, l.EarliestUnsaved().IsZero())
	_, err := l.Add(ctx, "pending", SourceInput)
	require.NoError(t, err)
	require.False(t, l.EarliestUnsaved().IsZero())
}

func TestValidationErrors(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1", ResourceID: "r1"})

	_, err := l.Add(ctx, &messages.MessageV2{Role: messages.RoleUser}, SourceInput)
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, KindEmptyContent, ve.Kind())

	_, err = l.Add(ctx, userText("m1", "hi", time.Time{}), SourceInput)
	require.NoError(t, err)

	bad := userText("m2", "hi", time.Time{})
	bad.ThreadID = "other"
	_, err = l.Add(ctx, bad, SourceInput)
	ve, ok = AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, KindThreadMismatch, ve.Kind())

	bad = userText("m3", "hi", time.Time{})
	bad.ResourceID = "other"
	_, err = l.Add(ctx, bad, SourceInput)
	ve, ok = AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, KindResourceMismatch, ve.Kind())

	_, err = l.Add(ctx, 42, SourceInput)
	ve, ok = AsValidationError(err)
	require.True(t, ok)
	require.Equal(t, KindUnsupportedInput, ve.Kind())
}

func TestSystemMessages(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})

	sys := &messages.MessageV2{
		Role: messages.RoleSystem,
		Content: messages.ContentV2{
			Format: messages.FormatV2,
			Parts:  []messages.Part{messages.TextPart{Text: "be helpful"}},
		},
	}
	_, err := l.Add(ctx, sys, SourceInput)
	require.NoError(t, err)
	require.Equal(t, 0, l.Len())
	require.Len(t, l.SystemMessages(""), 1)

	// Duplicate system text is dropped.
	_, err = l.Add(ctx, sys, SourceInput)
	require.NoError(t, err)
	require.Len(t, l.SystemMessages(""), 1)

	_, err = l.AddSystem(ctx, "tool instructions", "tools")
	require.NoError(t, err)
	require.Len(t, l.SystemMessages("tools"), 1)
	require.Len(t, l.SystemMessages(""), 1)

	l.ClearSystemMessages("tools")
	require.Empty(t, l.SystemMessages("tools"))
	require.Len(t, l.SystemMessages(""), 1)
}

func TestSystemMemoryReplayNotResurrected(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	sys := &messages.MessageV2{
		ID:   "s1",
		Role: messages.RoleSystem,
		Content: messages.ContentV2{
			Format: messages.FormatV2,
			Parts:  []messages.Part{messages.TextPart{Text: "stale prompt"}},
		},
	}
	_, err := l.Add(ctx, sys, SourceMemory)
	require.NoError(t, err)
	require.Equal(t, 0, l.Len())
	require.Empty(t, l.SystemMessages(""))
}

func TestSynthesizedTimestampsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	l := New(Options{ThreadID: "t1"})
	for i := 0; i < 10; i++ {
		_, err := l.Add(ctx, userText("", "m", time.Time{}), SourceInput)
		require.NoError(t, err)
	}
	got := l.All().V2()
	require.Len(t, got, 10)
	for i := 1; i < len(got); i++ {
		require.True(t, got[i].CreatedAt.After(got[i-1].CreatedAt),
			"timestamps must be strictly increasing: %v vs %v", got[i-1].CreatedAt, got[i].CreatedAt)
	}
}

func TestIndependentListsDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	a := New(Options{ThreadID: "a"})
	b := New(Options{ThreadID: "b"})
	_, err := a.Add(ctx, "one", SourceInput)
	require.NoError(t, err)
	_, err = b.Add(ctx, "uno", SourceInput)
	require.NoError(t, err)
	require.Equal(t, 1, a.Len())
	require.Equal(t, 1, b.Len())
	require.Equal(t, "a", a.All().V2()[0].ThreadID)
	require.Equal(t, "b", b.All().V2()[0].ThreadID)
}
