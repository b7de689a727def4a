package jobsearch

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://jsearch.p.rapidapi.com"
	apiHost   = "jsearch.p.rapidapi.com"
	userAgent = "spigell/job-hunter (spigelly@gmail.com)"

	// JSearch rarely returns more useful entries than this for one query;
	// everything past the cap is dropped.
	maxPostings = 20
	// Posting descriptions are clamped to this many characters at the
	// client boundary.
	maxDescriptionLength = 4000
)

type Client struct {
	// ctx used only for http requests right now
	ctx        context.Context
	apiKey     string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	APIHost    string
}

func New(ctx context.Context, logger *zap.Logger, apiKey string) *Client {
	return &Client{
		ctx:     ctx,
		apiKey:  apiKey,
		APIURL:  apiURL,
		APIHost: apiHost,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Search(params *SearchParams) (*Postings, error) {
	return c.search(params)
}
