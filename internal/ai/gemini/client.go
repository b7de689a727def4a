package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/job-hunter/internal/ai"
	"github.com/spigell/job-hunter/internal/logger"
	"github.com/spigell/job-hunter/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	providerName = "gemini"

	defaultModel      = "gemini-2.5-flash"
	defaultMaxRetries = 3
	defaultTimeout    = 60 * time.Second

	defaultTemperature float32 = 0.7

	defaultRetryDelay = 2 * time.Second
	// maxQuotaDelay bounds how long a quota hint may ask us to wait before
	// the call is given up instead of retried.
	maxQuotaDelay = 30 * time.Second

	defaultMaxLogLength = 200
)

var wait = utils.WaitFor

var quotaDelayPattern = regexp.MustCompile(`retry after (\d+)`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	client *genai.Client
}

func (c *genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.client.Chats.Create(ctx, model, config, history)
}

// Generator talks to the Gemini API through per-request chat sessions and
// implements ai.Provider. Temporary API failures are retried up to maxRetries
// with a quota-aware delay.
type Generator struct {
	chats      chatCreator
	model      string
	maxRetries int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if maxRetries < 1 {
		maxRetries = defaultMaxRetries
	}

	return &Generator{
		chats:      &genaiChats{client: client},
		model:      model,
		maxRetries: maxRetries,
		timeout:    defaultTimeout,
		logger:     logger.WithCommonFields(log, providerName, model),
	}, nil
}

func (g *Generator) Name() string { return providerName }

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// GenerateContent sends a single user message under the provided system
// instruction and returns the model's reply.
func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	messages := make([]ai.Message, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, ai.System(system))
	}
	return g.Complete(ctx, append(messages, ai.User(message)))
}

// Complete implements ai.Provider. A response without any textual part yields
// an empty string, not an error.
func (g *Generator) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	system, history, message, err := splitMessages(messages)
	if err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.logger.Debug("gemini request",
		zap.Int("history_turns", len(history)),
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, defaultMaxLogLength)),
	)

	config := g.generateConfig(system)

	var lastErr error
	for attempt := 1; attempt <= g.retries(); attempt++ {
		chat, err := g.chats.Create(ctx, g.model, config, history)
		if err != nil {
			return "", fmt.Errorf("create chat session: %w", err)
		}

		resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
		if err == nil {
			output := strings.TrimSpace(responseText(resp))
			g.logger.Debug("gemini response",
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", utils.TruncateForLog(output, defaultMaxLogLength)),
			)
			return output, nil
		}

		lastErr = err
		delay, retryable := retryDelay(err)
		if !retryable || attempt == g.retries() {
			break
		}

		g.logger.Warn("temporary gemini failure, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if waitErr := wait(ctx, delay); waitErr != nil {
			return "", fmt.Errorf("waiting before retry: %w", waitErr)
		}
	}

	return "", fmt.Errorf("send message: %w", lastErr)
}

// Stream implements ai.Provider. The reply is yielded fragment by fragment as
// the API produces it; the consumer cancels by not pulling further fragments.
// Streaming calls are not retried.
func (g *Generator) Stream(ctx context.Context, messages []ai.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		system, history, message, err := splitMessages(messages)
		if err != nil {
			yield("", err)
			return
		}

		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		chat, err := g.chats.Create(ctx, g.model, g.generateConfig(system), history)
		if err != nil {
			yield("", fmt.Errorf("create chat session: %w", err))
			return
		}

		for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: message}) {
			if err != nil {
				yield("", fmt.Errorf("stream message: %w", err))
				return
			}

			fragment := responseText(resp)
			if fragment == "" {
				continue
			}

			if !yield(fragment, nil) {
				return
			}
		}
	}
}

func (g *Generator) retries() int {
	if g.maxRetries < 1 {
		return 1
	}
	return g.maxRetries
}

func (g *Generator) generateConfig(system string) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](defaultTemperature),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	return config
}

// splitMessages converts role-tagged messages into the pieces a chat session
// needs: a combined system instruction, prior turns, and the final user
// message to send.
func splitMessages(messages []ai.Message) (string, []*genai.Content, string, error) {
	var systemParts []string
	var turns []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case ai.RoleSystem:
			if s := strings.TrimSpace(m.Content); s != "" {
				systemParts = append(systemParts, s)
			}
		case ai.RoleUser:
			turns = append(turns, userContent(m.Content))
		case ai.RoleAssistant:
			turns = append(turns, modelContent(m.Content))
		default:
			return "", nil, "", fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	if len(turns) == 0 || turns[len(turns)-1].Role != genai.RoleUser {
		return "", nil, "", errors.New("conversation must end with a user message")
	}

	last := turns[len(turns)-1]
	return strings.Join(systemParts, "\n\n"), turns[:len(turns)-1], last.Parts[0].Text, nil
}

func userContent(text string) *genai.Content {
	return &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}}
}

func modelContent(text string) *genai.Content {
	return &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
	}

	return builder.String()
}

// retryDelay classifies an API error and reports whether the call should be
// retried after the returned delay. Quota errors carrying a wait hint above
// maxQuotaDelay are not retried.
func retryDelay(err error) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch apiErr.Code {
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		return defaultRetryDelay, true
	case http.StatusTooManyRequests:
		match := quotaDelayPattern.FindStringSubmatch(apiErr.Message)
		if match == nil {
			return defaultRetryDelay, true
		}
		seconds, convErr := strconv.Atoi(match[1])
		if convErr != nil {
			return defaultRetryDelay, true
		}
		delay := time.Duration(seconds) * time.Second
		if delay > maxQuotaDelay {
			return 0, false
		}
		return delay, true
	default:
		return 0, false
	}
}
