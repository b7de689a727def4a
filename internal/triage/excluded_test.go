package triage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/job-hunter/internal/jobsearch"
)

func TestExcludedPostingsRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "excluded.json")

	excluded := &ExcludedPostings{}
	excluded.Append(scoredFixture().ToExcluded())

	if err := excluded.ToFile(path); err != nil {
		t.Fatalf("writing exclude file: %v", err)
	}

	loaded, err := GetExcludedPostingsFromFile(path)
	if err != nil {
		t.Fatalf("reading exclude file: %v", err)
	}

	ids := loaded.PostingIDs()
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if loaded.Items[0].ExcludedAt.IsZero() {
		t.Fatal("expected exclusion timestamp to survive the round trip")
	}
}

func TestGetExcludedPostingsFromEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("creating empty file: %v", err)
	}

	excluded, err := GetExcludedPostingsFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(excluded.Items) != 0 {
		t.Fatalf("expected no items, got %+v", excluded.Items)
	}
}

func TestGetExcludedPostingsFromMissingFile(t *testing.T) {
	t.Parallel()

	_, err := GetExcludedPostingsFromFile(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestToExcluded(t *testing.T) {
	t.Parallel()

	scored := &ScoredPostings{Items: []*ScoredPosting{
		{Posting: &jobsearch.Posting{ID: "a", Title: "First", Company: "Acme"}, FitLabel: GoodFit},
	}}

	excluded := scored.ToExcluded()

	if len(excluded.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(excluded.Items))
	}
	item := excluded.Items[0]
	if item.ID != "a" || item.Title != "First" || item.Company != "Acme" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.ExcludedAt.IsZero() {
		t.Fatal("expected a timestamp")
	}
}
