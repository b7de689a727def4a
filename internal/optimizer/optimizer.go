package optimizer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/job-hunter/internal/ai"
)

// Config holds the tunables of the optimization loop. The quality gate and
// revision cap come from configuration, not literals; the defaults are the
// values the loop was designed around.
type Config struct {
	QualityGate   int
	MaxRevisions  int
	ContextBudget int
}

func DefaultConfig() Config {
	return Config{
		QualityGate:   8,
		MaxRevisions:  2,
		ContextBudget: 2000,
	}
}

func (c Config) Validate() error {
	if c.QualityGate < 1 || c.QualityGate > 10 {
		return fmt.Errorf("quality gate must be within 1..10, got %d", c.QualityGate)
	}
	if c.MaxRevisions < 1 {
		return fmt.Errorf("max revisions must be at least 1, got %d", c.MaxRevisions)
	}
	if c.ContextBudget < 1 {
		return fmt.Errorf("context budget must be positive, got %d", c.ContextBudget)
	}
	return nil
}

type drafterStep interface {
	Draft(ctx context.Context, state *State) (string, error)
}

type graderStep interface {
	Grade(ctx context.Context, state *State) (GradeResult, error)
}

// Optimizer runs the iterative draft/grade loop until the quality gate or
// the revision cap is reached.
type Optimizer struct {
	drafter  drafterStep
	grader   graderStep
	config   Config
	logger   *zap.Logger
	progress Progress
}

func New(provider ai.Provider, cfg Config, log *zap.Logger, progress Progress) *Optimizer {
	if log == nil {
		log = zap.NewNop()
	}

	o := &Optimizer{
		config:   cfg,
		logger:   log,
		progress: progress,
	}
	if provider != nil {
		o.drafter = NewDrafter(provider, cfg, log)
		o.grader = NewGrader(provider, cfg, log)
	}
	return o
}

// Run executes the state machine and returns the final draft. It never
// fails: an unrecoverable error returns the original resume annotated with
// the reason.
func (o *Optimizer) Run(ctx context.Context, resume, jobDescription string) string {
	if o.drafter == nil || o.grader == nil {
		return annotate(resume, errors.New("generation provider is not configured"))
	}

	state := NewState(resume, jobDescription)

	for {
		o.emit(Event{Phase: PhaseDrafting, Revision: state.RevisionCount, Score: state.Score})

		draft, err := o.drafter.Draft(ctx, state)
		if err != nil {
			o.logger.Warn("optimization run aborted while drafting", zap.Error(err))
			return annotate(resume, err)
		}
		state.CurrentDraft = draft
		state.RevisionCount++

		o.emit(Event{Phase: PhaseGrading, Revision: state.RevisionCount, Score: state.Score})

		grade, err := o.grader.Grade(ctx, state)
		if err != nil {
			o.logger.Warn("optimization run aborted while grading", zap.Error(err))
			return annotate(resume, err)
		}
		state.Score = grade.Score
		state.Feedback = grade.Feedback

		if state.Score >= o.config.QualityGate || state.RevisionCount >= o.config.MaxRevisions {
			break
		}
	}

	o.emit(Event{Phase: PhaseDone, Revision: state.RevisionCount, Score: state.Score})

	return state.CurrentDraft
}

func (o *Optimizer) emit(event Event) {
	if o.progress == nil {
		return
	}
	o.progress(event)
}

func annotate(resume string, err error) string {
	return resume + fmt.Sprintf("\n\n[Error: %v]", err)
}
