package optimizer

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/job-hunter/internal/ai"
	"github.com/spigell/job-hunter/internal/utils"
)

const ungradableFeedback = "Could not grade."

// GradeResult is one grading verdict. Score 0 means the draft could not be
// graded.
type GradeResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Grader scores drafts against the original resume and the job description,
// penalizing invented content.
type Grader struct {
	provider ai.Provider
	budget   int
	logger   *zap.Logger
}

func NewGrader(provider ai.Provider, cfg Config, log *zap.Logger) *Grader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Grader{
		provider: provider,
		budget:   cfg.ContextBudget,
		logger:   log,
	}
}

// Grade returns the verdict for the state's current draft. Provider failures
// and unparsable responses degrade to the ungradable result; only context
// cancellation terminates the run.
func (g *Grader) Grade(ctx context.Context, state *State) (GradeResult, error) {
	fallback := GradeResult{Score: 0, Feedback: ungradableFeedback}

	prompt := buildGradePrompt(state, g.budget)

	g.logger.Debug("grade request",
		zap.Int("revision", state.RevisionCount),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, maxLogLength)),
	)

	content, err := g.provider.Complete(ctx, []ai.Message{ai.User(prompt)})
	if err != nil {
		if ctx.Err() != nil {
			return GradeResult{}, ctx.Err()
		}
		g.logger.Warn("grading failed",
			zap.Int("revision", state.RevisionCount),
			zap.Error(err),
		)
		return fallback, nil
	}

	var payload map[string]any
	if err := ai.ExtractJSON(content, &payload); err != nil {
		g.logger.Warn("grader response is not valid json",
			zap.Int("revision", state.RevisionCount),
			zap.String("response_preview", utils.TruncateForLog(content, maxLogLength)),
		)
		return fallback, nil
	}

	result := fallback
	if score, ok := ai.CoerceInt(payload["score"]); ok {
		result.Score = score
	}
	if feedback := ai.CoerceString(payload["feedback"]); feedback != "" {
		result.Feedback = feedback
	}

	g.logger.Debug("grade response",
		zap.Int("revision", state.RevisionCount),
		zap.Int("score", result.Score),
		zap.String("feedback", utils.TruncateForLog(result.Feedback, maxLogLength)),
	)

	return result, nil
}
