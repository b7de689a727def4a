package filtering

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-hunter/internal/triage"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes postings listed in the
// exclude file of earlier runs.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, scored *triage.ScoredPostings) (*triage.ScoredPostings, Step, error) {
	initial := scored.Len()
	if f.path == "" {
		return scored, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded, err := triage.GetExcludedPostingsFromFile(f.path)
	if err != nil {
		// The file appears once the first posting is marked as seen.
		if errors.Is(err, os.ErrNotExist) {
			return scored, Step{Initial: initial, Dropped: 0, Left: initial}, nil
		}
		return scored, Step{}, fmt.Errorf("getting excluded postings from file: %w", err)
	}

	removed := scored.Exclude(excluded.PostingIDs())
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding postings based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_postings", removed),
			zap.Int("postings_left", scored.Len()),
		)
	}

	return scored, Step{Initial: initial, Dropped: len(removed), Left: scored.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
