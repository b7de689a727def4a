package assistant

import (
	"context"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/job-hunter/internal/ai"
	"github.com/spigell/job-hunter/internal/utils"
)

//go:embed analyze.md
var analyzePrompt string

const (
	couldNotAnalyze       = "Could not analyze"
	defaultAnalysisBudget = 4000
	maxLogLength          = 200
)

// Report is the result of one deep analysis.
type Report struct {
	Score    int    `json:"score"`
	Analysis string `json:"analysis"`
}

// Analyzer produces a one-shot fit report for a resume and a job
// description. It is not part of the iterative optimization loop.
type Analyzer struct {
	provider ai.Provider
	budget   int
	logger   *zap.Logger
}

func NewAnalyzer(provider ai.Provider, budget int, log *zap.Logger) *Analyzer {
	if budget <= 0 {
		budget = defaultAnalysisBudget
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{
		provider: provider,
		budget:   budget,
		logger:   log,
	}
}

// Analyze returns a 0-100 fit score with an explanation. Any failure,
// provider or parse, yields the fixed fallback report.
func (a *Analyzer) Analyze(ctx context.Context, resume, jobDescription string) *Report {
	sentinel := &Report{Score: 0, Analysis: couldNotAnalyze}

	prompt := strings.ReplaceAll(analyzePrompt, "{{RESUME}}", ai.Clip(resume, a.budget))
	prompt = strings.ReplaceAll(prompt, "{{JOB}}", ai.Clip(jobDescription, a.budget))

	a.logger.Debug("analysis request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, maxLogLength)),
	)

	content, err := a.provider.Complete(ctx, []ai.Message{ai.User(prompt)})
	if err != nil {
		a.logger.Warn("analysis failed", zap.Error(err))
		return sentinel
	}
	if strings.TrimSpace(content) == "" {
		a.logger.Warn("analysis returned no content")
		return sentinel
	}

	var payload map[string]any
	if err := ai.ExtractJSON(content, &payload); err != nil {
		a.logger.Warn("analysis response is not valid json",
			zap.String("response_preview", utils.TruncateForLog(content, maxLogLength)),
		)
		return sentinel
	}

	report := &Report{Score: 0, Analysis: couldNotAnalyze}
	if score, ok := ai.CoerceInt(payload["score"]); ok {
		report.Score = score
	}
	if analysis := ai.CoerceString(payload["analysis"]); analysis != "" {
		report.Analysis = analysis
	}
	return report
}
