package triage

import (
	"encoding/json"
	"os"
	"time"
)

// ExcludedPostings is the content of a user-managed exclude file: postings
// already seen or acted on in earlier runs.
type ExcludedPostings struct {
	Items []*ExcludedPosting
}

type ExcludedPosting struct {
	ID         string
	Title      string
	Company    string
	ExcludedAt time.Time
}

func GetExcludedPostingsFromFile(path string) (*ExcludedPostings, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedPostings{}, nil
	}

	var excluded ExcludedPostings
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedPostings) Append(other *ExcludedPostings) {
	e.Items = append(e.Items, other.Items...)
}

func (e *ExcludedPostings) PostingIDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, posting := range e.Items {
		ids = append(ids, posting.ID)
	}
	return ids
}

func (e *ExcludedPostings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

// ToExcluded converts scored postings into exclude-file entries stamped now.
func (s *ScoredPostings) ToExcluded() *ExcludedPostings {
	excluded := &ExcludedPostings{}
	for _, posting := range s.Items {
		excluded.Items = append(excluded.Items, &ExcludedPosting{
			ID:         posting.ID,
			Title:      posting.Title,
			Company:    posting.Company,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}
