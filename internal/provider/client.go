package provider

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/logger"
	"github.com/mmbarrys/navigara/internal/orgraph"
)

const (
	httpProvider = "http"

	graphPath       = "/api/nakhoda/get-graph"
	userAgent       = "mmbarrys/navigara"
	contentType     = "application/json"
	contentEncoding = "gzip"

	defaultTimeout  = 10 * time.Second
	errorPreviewLen = 200
)

// Client reads the default graph from a remote navigara service.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func NewClient(apiURL, token string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		token:  token,
		APIURL: strings.TrimRight(apiURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		logger:    logger.WithFields(log, zap.String("provider", httpProvider)),
		UserAgent: userAgent,
	}
}

// DefaultGraph fetches the get-graph document and decodes its roster and
// collaboration list.
func (c *Client) DefaultGraph(ctx context.Context) (*orgraph.Dataset, error) {
	var doc map[string]any
	if err := c.getJSON(ctx, c.APIURL+graphPath, &doc); err != nil {
		return nil, err
	}

	ds, err := orgraph.DecodeDataset(doc)
	if err != nil {
		return nil, &Error{Provider: httpProvider, Status: http.StatusOK, Message: "decoding graph", Err: err}
	}

	c.logger.Debug("got graph from provider",
		zap.Int("employees", len(ds.Employees)),
		zap.Int("collaborations", len(ds.Edges)),
	)

	return ds, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("Accept", contentType)

	return req
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &Error{Provider: httpProvider, Message: "request failed", Err: err}
	}

	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.request(c.setHeaders(req))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return &Error{Provider: httpProvider, Status: resp.StatusCode, Message: "reading response", Err: err}
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return &Error{Provider: httpProvider, Status: resp.StatusCode, Message: "reading response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &Error{Provider: httpProvider, Status: resp.StatusCode, Message: errorMessage(data, resp.Status)}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Provider: httpProvider, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}

	return nil
}

// errorMessage prefers the "error" field of a JSON error body and falls
// back to the raw body or status line.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return strings.TrimSpace(payload.Error)
	}

	if text := logger.TruncateForLog(string(body), errorPreviewLen); text != "" {
		return text
	}
	return status
}
