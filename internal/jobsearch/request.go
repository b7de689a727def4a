package jobsearch

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip, deflate, br"
)

type searchResponse struct {
	Status    string           `json:"status"`
	RequestID string           `json:"request_id"`
	Error     *apiError        `json:"error"`
	Data      []map[string]any `json:"data"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// getItems makes a GET request to the JSearch API and returns the raw data
// entries from the response envelope.
func (c *Client) getItems(url string, q url.Values) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req = c.setHeaders(req)
	// Additional headers. For GET requests only
	req.Header.Set("Content-Type", contentType)
	req.URL.RawQuery = q.Encode()

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}

	response, err := c.parseSearchResponse(resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("got response from JSearch",
		zap.String("status", response.Status),
		zap.String("request_id", response.RequestID),
		zap.Int("items", len(response.Data)),
	)

	return response.Data, nil
}

func (c *Client) parseSearchResponse(resp *http.Response) (*searchResponse, error) {
	var body io.ReadCloser
	var err error
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		body, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer body.Close()
	default:
		body = resp.Body
		defer body.Close()
	}

	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("api key rejected (status %s), check the jsearch key configuration", resp.Status)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var response *searchResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, err
	}

	if response.Status != "OK" {
		if response.Error != nil && response.Error.Message != "" {
			return nil, fmt.Errorf("jsearch api: %s", response.Error.Message)
		}
		return nil, fmt.Errorf("jsearch api status %q", response.Status)
	}

	return response, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.APIHost)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
