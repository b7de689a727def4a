package optimizer

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/job-hunter/internal/ai"
)

// scriptedProvider replays canned responses in call order and records every
// message list it was asked to complete.
type scriptedProvider struct {
	responses []providerResponse
	calls     [][]ai.Message
}

type providerResponse struct {
	content string
	err     error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, messages []ai.Message) (string, error) {
	p.calls = append(p.calls, messages)
	if len(p.responses) == 0 {
		return "", nil
	}
	next := p.responses[0]
	p.responses = p.responses[1:]
	return next.content, next.err
}

func (p *scriptedProvider) Stream(ctx context.Context, messages []ai.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		content, err := p.Complete(ctx, messages)
		if err != nil {
			yield("", err)
			return
		}
		yield(content, nil)
	}
}

type fakeDrafter struct {
	drafts []string
	err    error
	calls  int
}

func (f *fakeDrafter) Draft(_ context.Context, _ *State) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	draft := f.drafts[f.calls%len(f.drafts)]
	f.calls++
	return draft, nil
}

type fakeGrader struct {
	results []GradeResult
	calls   int
}

func (f *fakeGrader) Grade(_ context.Context, _ *State) (GradeResult, error) {
	result := f.results[f.calls%len(f.results)]
	f.calls++
	return result, nil
}

func newTestOptimizer(drafter drafterStep, grader graderStep, progress Progress) *Optimizer {
	return &Optimizer{
		drafter:  drafter,
		grader:   grader,
		config:   DefaultConfig(),
		logger:   zap.NewNop(),
		progress: progress,
	}
}

func TestRunStopsAtQualityGate(t *testing.T) {
	t.Parallel()

	drafter := &fakeDrafter{drafts: []string{"draft one"}}
	grader := &fakeGrader{results: []GradeResult{{Score: 9, Feedback: "great"}}}

	var events []Event
	o := newTestOptimizer(drafter, grader, func(e Event) { events = append(events, e) })

	result := o.Run(context.Background(), "original", "job")

	if result != "draft one" {
		t.Fatalf("expected first draft, got %q", result)
	}
	if drafter.calls != 1 || grader.calls != 1 {
		t.Fatalf("expected one draft and one grade, got %d and %d", drafter.calls, grader.calls)
	}

	phases := eventPhases(events)
	expected := []Phase{PhaseDrafting, PhaseGrading, PhaseDone}
	if !equalPhases(phases, expected) {
		t.Fatalf("expected phases %v, got %v", expected, phases)
	}
	if events[len(events)-1].Score != 9 || events[len(events)-1].Revision != 1 {
		t.Fatalf("unexpected final event: %+v", events[len(events)-1])
	}
}

func TestRunExhaustsRevisionCap(t *testing.T) {
	t.Parallel()

	drafter := &fakeDrafter{drafts: []string{"draft one", "draft two"}}
	grader := &fakeGrader{results: []GradeResult{{Score: 1, Feedback: "needs work"}}}

	var events []Event
	o := newTestOptimizer(drafter, grader, func(e Event) { events = append(events, e) })

	result := o.Run(context.Background(), "original", "job")

	if result != "draft two" {
		t.Fatalf("expected second draft, got %q", result)
	}
	if drafter.calls != 2 {
		t.Fatalf("expected exactly 2 drafter invocations, got %d", drafter.calls)
	}
	if grader.calls != 2 {
		t.Fatalf("expected exactly 2 grader invocations, got %d", grader.calls)
	}

	phases := eventPhases(events)
	expected := []Phase{PhaseDrafting, PhaseGrading, PhaseDrafting, PhaseGrading, PhaseDone}
	if !equalPhases(phases, expected) {
		t.Fatalf("expected phases %v, got %v", expected, phases)
	}

	final := events[len(events)-1]
	if final.Revision != 2 || final.Score != 1 {
		t.Fatalf("unexpected final event: %+v", final)
	}
}

func TestRunAnnotatesOnUnrecoverableFailure(t *testing.T) {
	t.Parallel()

	drafter := &fakeDrafter{err: errors.New("boom")}
	grader := &fakeGrader{results: []GradeResult{{Score: 9}}}

	var events []Event
	o := newTestOptimizer(drafter, grader, func(e Event) { events = append(events, e) })

	result := o.Run(context.Background(), "original resume", "job")

	if result != "original resume\n\n[Error: boom]" {
		t.Fatalf("expected annotated original, got %q", result)
	}
	for _, event := range events {
		if event.Phase == PhaseDone {
			t.Fatalf("unexpected done event after a failed run: %+v", events)
		}
	}
}

func TestRunWithoutProvider(t *testing.T) {
	t.Parallel()

	o := New(nil, DefaultConfig(), zap.NewNop(), nil)

	result := o.Run(context.Background(), "original", "job")

	if !strings.HasPrefix(result, "original\n\n[Error: ") {
		t.Fatalf("expected annotated original, got %q", result)
	}
	if !strings.Contains(result, "not configured") {
		t.Fatalf("expected a configuration hint, got %q", result)
	}
}

func TestRunNilProgress(t *testing.T) {
	t.Parallel()

	drafter := &fakeDrafter{drafts: []string{"draft"}}
	grader := &fakeGrader{results: []GradeResult{{Score: 10, Feedback: "ok"}}}

	o := newTestOptimizer(drafter, grader, nil)

	if result := o.Run(context.Background(), "original", "job"); result != "draft" {
		t.Fatalf("expected draft, got %q", result)
	}
}

func TestRunThroughRealComponents(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{responses: []providerResponse{
		{content: "Tailored v1"},
		{content: `{"score": 3, "feedback": "tighten the summary"}`},
		{content: "Tailored v2"},
		{content: `{"score": 9, "feedback": "good"}`},
	}}

	o := New(provider, DefaultConfig(), zap.NewNop(), nil)

	result := o.Run(context.Background(), "My resume", "A job description")

	if result != "Tailored v2" {
		t.Fatalf("expected second draft, got %q", result)
	}
	if len(provider.calls) != 4 {
		t.Fatalf("expected 4 provider calls, got %d", len(provider.calls))
	}

	revisionPrompt := provider.calls[2][len(provider.calls[2])-1].Content
	if !strings.Contains(revisionPrompt, "tighten the summary") {
		t.Fatalf("expected grader feedback in the revision prompt, got %q", revisionPrompt)
	}
	if !strings.Contains(revisionPrompt, "Tailored v1") {
		t.Fatalf("expected previous draft in the revision prompt, got %q", revisionPrompt)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		config    Config
		expectErr bool
	}{
		{name: "defaults", config: DefaultConfig(), expectErr: false},
		{name: "gate too low", config: Config{QualityGate: 0, MaxRevisions: 2, ContextBudget: 2000}, expectErr: true},
		{name: "gate too high", config: Config{QualityGate: 11, MaxRevisions: 2, ContextBudget: 2000}, expectErr: true},
		{name: "zero revisions", config: Config{QualityGate: 8, MaxRevisions: 0, ContextBudget: 2000}, expectErr: true},
		{name: "zero budget", config: Config{QualityGate: 8, MaxRevisions: 2, ContextBudget: 0}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.expectErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tt.expectErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func eventPhases(events []Event) []Phase {
	phases := make([]Phase, 0, len(events))
	for _, event := range events {
		phases = append(phases, event.Phase)
	}
	return phases
}

func equalPhases(got, expected []Phase) bool {
	if len(got) != len(expected) {
		return false
	}
	for i := range got {
		if got[i] != expected[i] {
			return false
		}
	}
	return true
}
