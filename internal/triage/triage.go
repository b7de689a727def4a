package triage

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spigell/job-hunter/internal/jobsearch"
)

type Label string

const (
	GoodFit        Label = "good_fit"
	Stretch        Label = "stretch"
	NotRecommended Label = "not_recommended"
)

var labelRanks = map[Label]int{
	NotRecommended: 0,
	Stretch:        1,
	GoodFit:        2,
}

// ParseLabel converts a config string into a known fit label.
func ParseLabel(s string) (Label, error) {
	label := Label(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := labelRanks[label]; !ok {
		return "", fmt.Errorf("unknown fit label %q", s)
	}
	return label, nil
}

// Meets reports whether the label is at least as good as min.
func (l Label) Meets(min Label) bool {
	return labelRanks[l] >= labelRanks[min]
}

// Thresholds hold the overlap-ratio boundaries for label assignment.
// Boundaries are inclusive.
type Thresholds struct {
	GoodFit float64
	Stretch float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{GoodFit: 0.25, Stretch: 0.12}
}

func (t Thresholds) Validate() error {
	if t.Stretch < 0 {
		return fmt.Errorf("stretch threshold must not be negative, got %v", t.Stretch)
	}
	if t.GoodFit < t.Stretch {
		return fmt.Errorf("good fit threshold %v must not be below stretch threshold %v", t.GoodFit, t.Stretch)
	}
	if t.GoodFit > 1 {
		return fmt.Errorf("good fit threshold must not exceed 1, got %v", t.GoodFit)
	}
	return nil
}

func (t Thresholds) Label(ratio float64) Label {
	switch {
	case ratio >= t.GoodFit:
		return GoodFit
	case ratio >= t.Stretch:
		return Stretch
	default:
		return NotRecommended
	}
}

type ScoredPostings struct {
	Items []*ScoredPosting
}

// ScoredPosting is a posting enriched with triage results. The embedded
// posting is shared with the input list and never mutated here.
type ScoredPosting struct {
	*jobsearch.Posting
	OverlapScore int   `json:"overlap_score"`
	FitLabel     Label `json:"fit_label"`
}

// ScoreAll scores every posting against the resume, preserving input order
// and count. Scoring is deterministic and never fails: absent fields count
// as empty text and score 0.
func ScoreAll(resume string, postings []*jobsearch.Posting, thresholds Thresholds) *ScoredPostings {
	resumeTokens := Tokenize(resume)

	scored := &ScoredPostings{Items: make([]*ScoredPosting, 0, len(postings))}
	for _, posting := range postings {
		if posting == nil {
			posting = &jobsearch.Posting{}
		}

		jobTokens := Tokenize(posting.Title + " " + posting.Description)
		ratio := OverlapRatio(resumeTokens, jobTokens)

		scored.Items = append(scored.Items, &ScoredPosting{
			Posting:      posting,
			OverlapScore: int(math.Round(ratio * 100)),
			FitLabel:     thresholds.Label(ratio),
		})
	}
	return scored
}

func (s *ScoredPostings) Len() int {
	return len(s.Items)
}

func (s *ScoredPostings) FindByID(id string) *ScoredPosting {
	for _, posting := range s.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

// Exclude removes postings whose ids are listed, preserving the order of the
// rest. Returns the removed ids.
func (s *ScoredPostings) Exclude(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	var excluded []string
	kept := make([]*ScoredPosting, 0, len(s.Items))
	for _, posting := range s.Items {
		if _, ok := drop[posting.ID]; ok {
			excluded = append(excluded, posting.ID)
			continue
		}
		kept = append(kept, posting)
	}
	s.Items = kept
	return excluded
}

// KeepAtOrAbove drops postings labeled below min. Returns the removed ids.
func (s *ScoredPostings) KeepAtOrAbove(min Label) []string {
	var excluded []string
	kept := make([]*ScoredPosting, 0, len(s.Items))
	for _, posting := range s.Items {
		if posting.FitLabel.Meets(min) {
			kept = append(kept, posting)
			continue
		}
		excluded = append(excluded, posting.ID)
	}
	s.Items = kept
	return excluded
}

func (s *ScoredPostings) CountByLabel() map[Label]int {
	counts := make(map[Label]int)
	for _, posting := range s.Items {
		counts[posting.FitLabel]++
	}
	return counts
}

// ReportByLabel groups postings for display.
func (s *ScoredPostings) ReportByLabel() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range s.Items {
		key := string(posting.FitLabel)
		report[key] = append(report[key], map[string]string{
			"title":   posting.Title,
			"company": posting.Company,
			"url":     posting.URL,
			"overlap": fmt.Sprintf("%d%%", posting.OverlapScore),
		})
	}
	return report
}

func (s *ScoredPostings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "scored_postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return file.Name(), nil
}
