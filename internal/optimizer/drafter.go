package optimizer

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/job-hunter/internal/ai"
	"github.com/spigell/job-hunter/internal/utils"
)

const maxLogLength = 200

// Drafter produces resume drafts constrained to facts from the original
// resume.
type Drafter struct {
	provider ai.Provider
	budget   int
	logger   *zap.Logger
}

func NewDrafter(provider ai.Provider, cfg Config, log *zap.Logger) *Drafter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Drafter{
		provider: provider,
		budget:   cfg.ContextBudget,
		logger:   log,
	}
}

// Draft returns the next draft for the state. A provider failure or empty
// response keeps the previous draft; only context cancellation terminates
// the run.
func (d *Drafter) Draft(ctx context.Context, state *State) (string, error) {
	previous := state.CurrentDraft
	if previous == "" {
		previous = state.OriginalResume
	}

	var user string
	if state.RevisionCount == 0 {
		user = buildInitialDraftPrompt(state, d.budget)
	} else {
		user = buildRevisionDraftPrompt(state, d.budget)
	}

	d.logger.Debug("draft request",
		zap.Int("revision", state.RevisionCount),
		zap.Int("prompt_length", utf8.RuneCountInString(user)),
		zap.String("prompt_preview", utils.TruncateForLog(user, maxLogLength)),
	)

	content, err := d.provider.Complete(ctx, []ai.Message{
		ai.System(draftSystemPrompt),
		ai.User(user),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		d.logger.Warn("draft generation failed, keeping previous draft",
			zap.Int("revision", state.RevisionCount),
			zap.Error(err),
		)
		return previous, nil
	}

	if strings.TrimSpace(content) == "" {
		d.logger.Warn("draft generation returned no content, keeping previous draft",
			zap.Int("revision", state.RevisionCount),
		)
		return previous, nil
	}

	d.logger.Debug("draft response",
		zap.Int("revision", state.RevisionCount),
		zap.Int("response_length", utf8.RuneCountInString(content)),
		zap.String("response_preview", utils.TruncateForLog(content, maxLogLength)),
	)

	return content, nil
}
