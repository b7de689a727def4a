package assistant

import (
	"context"
	"iter"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/job-hunter/internal/ai"
)

//go:embed chat_system.md
var chatSystemPrompt string

const (
	defaultChatBudget   = 1500
	defaultHistoryLimit = 3
)

// ChatConfig bounds the context stuffed into every chat turn.
type ChatConfig struct {
	ContextBudget int
	HistoryLimit  int
}

func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		ContextBudget: defaultChatBudget,
		HistoryLimit:  defaultHistoryLimit,
	}
}

// Chat answers questions about one posting, grounded in the resume and the
// job description. Replies are streamed; the caller owns the history.
type Chat struct {
	provider     ai.Provider
	system       string
	historyLimit int
	logger       *zap.Logger
}

func NewChat(provider ai.Provider, resume, jobDescription string, cfg ChatConfig, log *zap.Logger) *Chat {
	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = defaultChatBudget
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if log == nil {
		log = zap.NewNop()
	}

	system := strings.ReplaceAll(chatSystemPrompt, "{{RESUME}}", ai.Clip(resume, cfg.ContextBudget))
	system = strings.ReplaceAll(system, "{{JOB}}", ai.Clip(jobDescription, cfg.ContextBudget))

	return &Chat{
		provider:     provider,
		system:       system,
		historyLimit: cfg.HistoryLimit,
		logger:       log,
	}
}

// Stream sends the question with the bounded trailing history and yields
// reply fragments. A provider failure ends the sequence with the error;
// the caller may simply stop consuming.
func (c *Chat) Stream(ctx context.Context, question string, history []ai.Message) iter.Seq2[string, error] {
	messages := c.messages(question, history)

	c.logger.Debug("chat request",
		zap.Int("history_messages", len(messages)-2),
		zap.Int("question_length", len(question)),
	)

	return c.provider.Stream(ctx, messages)
}

func (c *Chat) messages(question string, history []ai.Message) []ai.Message {
	recent := history
	if len(recent) > c.historyLimit {
		recent = recent[len(recent)-c.historyLimit:]
	}

	messages := make([]ai.Message, 0, len(recent)+2)
	messages = append(messages, ai.System(c.system))
	messages = append(messages, recent...)
	return append(messages, ai.User(question))
}
