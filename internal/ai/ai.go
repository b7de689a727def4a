package ai

import (
	"context"
	"iter"
)

// Role tags a chat message with its author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn of model input.
type Message struct {
	Role    Role
	Content string
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// Provider is the generation capability consumed by the optimizer and the
// assistant. Complete returns the full text of one model turn. Stream returns
// the same turn as a lazy, finite fragment sequence; the consumer cancels by
// not pulling further fragments.
type Provider interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (string, error)
	Stream(ctx context.Context, messages []Message) iter.Seq2[string, error]
}

// Clip returns at most limit runes of s. Prompt content is clipped to a fixed
// per-component budget before it is sent to a provider.
func Clip(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
