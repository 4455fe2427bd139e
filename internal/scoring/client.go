package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/mmbarrys/navigara/internal/logger"
)

const (
	httpProvider = "http"

	userAgent       = "mmbarrys/navigara"
	contentType     = "application/json"
	defaultTimeout  = 60 * time.Second
	errorPreviewLen = 200
)

type request struct {
	Kind  ArtifactKind `json:"kind"`
	Name  string       `json:"nama,omitempty"`
	Title string       `json:"jabatan,omitempty"`
	Text  string       `json:"text"`
}

// response accepts numbers or numeric strings for every score.
type response struct {
	PotentialScore   *float64           `mapstructure:"skor_potensi"`
	PerformanceScore *float64           `mapstructure:"skor_kinerja"`
	Structured       map[string]float64 `mapstructure:"scores_structured"`
	Grading          string             `mapstructure:"grading_result"`
	Analysis         string             `mapstructure:"artifact_analysis"`
	Error            string             `mapstructure:"error"`
}

// Client posts artifacts to an HTTP scoring service.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	URL        string
}

func NewClient(url, token string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		token:      token,
		URL:        url,
		HTTPClient: &http.Client{Timeout: timeout},
		logger:     logger.WithFields(log, zap.String("scoring_provider", httpProvider)),
		UserAgent:  userAgent,
	}
}

func (c *Client) Score(ctx context.Context, artifact Artifact) (*Result, error) {
	if strings.TrimSpace(artifact.Text) == "" {
		return nil, &Error{Provider: httpProvider, Message: "artifact text is empty"}
	}

	payload, err := json.Marshal(request{
		Kind:  artifact.Kind,
		Name:  artifact.CandidateName,
		Title: artifact.TargetTitle,
		Text:  artifact.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal scoring request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", c.UserAgent)
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	c.logger.Debug("make request", zap.String("url", c.URL), zap.String("kind", string(artifact.Kind)))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &Error{Provider: httpProvider, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Provider: httpProvider, Status: resp.StatusCode, Message: "reading response", Err: err}
	}

	var doc map[string]any
	decodeErr := json.Unmarshal(data, &doc)

	var body response
	if decodeErr == nil {
		decodeErr = decodeWeak(doc, &body)
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(body.Error)
		if msg == "" {
			msg = logger.TruncateForLog(string(data), errorPreviewLen)
		}
		if msg == "" {
			msg = resp.Status
		}
		return nil, &Error{Provider: httpProvider, Status: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return nil, &Error{Provider: httpProvider, Status: resp.StatusCode, Message: "malformed response", Err: decodeErr}
	}

	summary := body.Grading
	if summary == "" {
		summary = body.Analysis
	}

	result := &Result{
		PotentialScore:   body.PotentialScore,
		PerformanceScore: body.PerformanceScore,
		Structured:       body.Structured,
		Summary:          summary,
	}

	c.logger.Debug("got scores",
		zap.Bool("potential", result.PotentialScore != nil),
		zap.Bool("performance", result.PerformanceScore != nil),
		zap.Int("structured", len(result.Structured)),
	)

	return result, nil
}

func decodeWeak(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
