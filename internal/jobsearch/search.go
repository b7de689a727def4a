package jobsearch

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	SearchPath = "/search"

	defaultQuery = "software engineer"
)

type SearchParams struct {
	Role       string `yaml:"role"`
	Location   string `yaml:"location"`
	Experience string `yaml:"experience"`
	Pages      int    `yaml:"pages"`
}

// Query renders the params as a JSearch free-text query, e.g.
// "Senior Python Developer in Berlin". Empty parts are elided; with no role
// and no location the query falls back to a generic search.
func (p *SearchParams) Query() string {
	role := strings.TrimSpace(p.Role)
	location := strings.TrimSpace(p.Location)

	query := defaultQuery
	switch {
	case role != "" && location != "":
		query = fmt.Sprintf("%s in %s", role, location)
	case role != "":
		query = role
	case location != "":
		query = fmt.Sprintf("%s in %s", defaultQuery, location)
	}

	if experience := strings.TrimSpace(p.Experience); experience != "" {
		query = fmt.Sprintf("%s %s", experience, query)
	}

	return query
}

func (c *Client) search(params *SearchParams) (*Postings, error) {
	pages := params.Pages
	if pages < 1 {
		pages = 1
	}

	q := url.Values{}
	q.Set("query", params.Query())
	q.Set("num_pages", strconv.Itoa(pages))

	apiURLSearch := fmt.Sprintf("%s%s", c.APIURL, SearchPath)

	items, err := c.getItems(apiURLSearch, q)
	if err != nil {
		return nil, err
	}

	if len(items) > maxPostings {
		items = items[:maxPostings]
	}

	var wire []*apiPosting
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &wire,
		TagName:  "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode jsearch items: %w", err)
	}

	postings := make([]*Posting, 0, len(wire))
	for i, item := range wire {
		if item == nil {
			continue
		}
		postings = append(postings, item.normalize(i))
	}

	return &Postings{
		Items: postings,
	}, nil
}

// apiPosting mirrors the JSearch wire fields together with the short aliases
// some feeds use for the same data.
type apiPosting struct {
	JobID          string `json:"job_id"`
	ID             string `json:"id"`
	JobTitle       string `json:"job_title"`
	Title          string `json:"title"`
	EmployerName   string `json:"employer_name"`
	CompanyName    string `json:"company_name"`
	JobDescription string `json:"job_description"`
	Description    string `json:"description"`
	JobApplyLink   string `json:"job_apply_link"`
	JobLink        string `json:"job_link"`
	URL            string `json:"url"`
}

func (a *apiPosting) normalize(index int) *Posting {
	posting := &Posting{
		ID:          firstNonEmpty(a.JobID, a.ID),
		Title:       firstNonEmpty(a.JobTitle, a.Title, "Untitled"),
		Company:     firstNonEmpty(a.EmployerName, a.CompanyName, "Unknown"),
		Description: firstNonEmpty(a.JobDescription, a.Description),
		URL:         firstNonEmpty(a.JobApplyLink, a.JobLink, a.URL),
	}

	if posting.ID == "" {
		posting.ID = fmt.Sprintf("job_%d", index)
	}

	if runes := []rune(posting.Description); len(runes) > maxDescriptionLength {
		posting.Description = string(runes[:maxDescriptionLength])
	}

	return posting
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
