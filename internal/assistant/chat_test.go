package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/job-hunter/internal/ai"
)

func TestChatStreamMessageShape(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{fragments: []string{"Sure."}}
	chat := NewChat(provider, "Resume text.", "Job text.", DefaultChatConfig(), zap.NewNop())

	history := []ai.Message{
		ai.User("old question one"),
		ai.Assistant("old answer one"),
		ai.User("old question two"),
		ai.Assistant("old answer two"),
		ai.User("old question three"),
	}

	for range chat.Stream(context.Background(), "Should I apply?", history) {
	}

	messages := provider.calls[0]
	// system + last 3 history messages + question
	if len(messages) != 5 {
		t.Fatalf("expected 5 messages, got %d: %+v", len(messages), messages)
	}

	system := messages[0]
	if system.Role != ai.RoleSystem {
		t.Fatalf("expected leading system message, got %s", system.Role)
	}
	if !strings.Contains(system.Content, "[Resume]") || !strings.Contains(system.Content, "Resume text.") {
		t.Fatalf("expected resume context in system message, got %q", system.Content)
	}
	if !strings.Contains(system.Content, "[Job]") || !strings.Contains(system.Content, "Job text.") {
		t.Fatalf("expected job context in system message, got %q", system.Content)
	}

	if messages[1].Content != "old answer one" {
		t.Fatalf("expected history bounded to the last 3 messages, got %+v", messages[1:4])
	}

	last := messages[len(messages)-1]
	if last.Role != ai.RoleUser || last.Content != "Should I apply?" {
		t.Fatalf("expected trailing user question, got %+v", last)
	}
}

func TestChatStreamYieldsFragments(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{fragments: []string{"Yes, ", "apply."}}
	chat := NewChat(provider, "Resume.", "Job.", DefaultChatConfig(), zap.NewNop())

	var reply strings.Builder
	for fragment, err := range chat.Stream(context.Background(), "Well?", nil) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		reply.WriteString(fragment)
	}

	if reply.String() != "Yes, apply." {
		t.Fatalf("unexpected reply: %q", reply.String())
	}
}

func TestChatStreamSurfacesError(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{fragments: []string{"partial"}, err: errors.New("stream broke")}
	chat := NewChat(provider, "Resume.", "Job.", DefaultChatConfig(), zap.NewNop())

	var streamErr error
	var reply strings.Builder
	for fragment, err := range chat.Stream(context.Background(), "Well?", nil) {
		if err != nil {
			streamErr = err
			break
		}
		reply.WriteString(fragment)
	}

	if reply.String() != "partial" {
		t.Fatalf("expected partial reply, got %q", reply.String())
	}
	if streamErr == nil || !strings.Contains(streamErr.Error(), "stream broke") {
		t.Fatalf("expected the stream error, got %v", streamErr)
	}
}

func TestChatClipsContext(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{fragments: []string{"ok"}}
	cfg := ChatConfig{ContextBudget: 10, HistoryLimit: 3}
	longResume := strings.Repeat("r", 80)
	chat := NewChat(provider, longResume, "job", cfg, zap.NewNop())

	for range chat.Stream(context.Background(), "q", nil) {
	}

	system := provider.calls[0][0].Content
	if strings.Contains(system, longResume) {
		t.Fatal("expected resume clipped to the chat budget")
	}
	if !strings.Contains(system, strings.Repeat("r", 10)) {
		t.Fatalf("expected clipped resume prefix, got %q", system)
	}
}
