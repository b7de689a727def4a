package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-hunter/internal/triage"
)

type fitLabelFilter struct {
	disabled bool
	reason   string
	minimum  triage.Label
}

// NewFitLabel creates a filter that drops postings triaged below a minimum
// fit label.
func NewFitLabel() Filter {
	return &fitLabelFilter{}
}

func (f *fitLabelFilter) Name() string { return "fit_label" }

func (f *fitLabelFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *fitLabelFilter) IsEnabled() bool { return !f.disabled }

func (f *fitLabelFilter) Validate(cfg *Config) error {
	f.minimum = ""
	if cfg == nil || strings.TrimSpace(cfg.MinimumFitLabel) == "" {
		return nil
	}

	label, err := triage.ParseLabel(cfg.MinimumFitLabel)
	if err != nil {
		return fmt.Errorf("minimum fit label: %w", err)
	}
	f.minimum = label
	return nil
}

func (f *fitLabelFilter) Apply(_ context.Context, deps Deps, scored *triage.ScoredPostings) (*triage.ScoredPostings, Step, error) {
	initial := scored.Len()
	if f.minimum == "" {
		return scored, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	removed := scored.KeepAtOrAbove(f.minimum)
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding postings below the minimum fit label",
			zap.String("minimum", string(f.minimum)),
			zap.Strings("excluded_postings", removed),
			zap.Int("postings_left", scored.Len()),
		)
	}

	return scored, Step{Initial: initial, Dropped: len(removed), Left: scored.Len()}, nil
}

func (f *fitLabelFilter) Status() Status {
	details := map[string]string{}
	if f.minimum != "" {
		details["minimum"] = string(f.minimum)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
