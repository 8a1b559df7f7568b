// Package generation wraps the Gemini generateContent endpoint as a
// single-shot text generation client.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"activity-log-api/internal/observability"
)

// Defaults used when Config leaves a value empty
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash-preview-09-2025"
	DefaultTimeout = 10 * time.Second
)

// Messages returned in Result.Error
const (
	MsgNotConfigured = "API Key not configured on the server."
	MsgNoText        = "Could not extract text from Gemini API response."
)

// Failure classifies why a Result carries no text
type Failure int

const (
	FailureNone Failure = iota
	FailureNotConfigured
	FailureProvider
)

// Config holds the provider settings
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Result is the outcome of one generation call. Exactly one of Text and
// Error is set; Detail names the missing response part when parsing fails.
type Result struct {
	Text    string  `json:"text,omitempty"`
	Error   string  `json:"error,omitempty"`
	Detail  string  `json:"detail,omitempty"`
	Failure Failure `json:"-"`
}

// OK reports whether the result carries generated text
func (r Result) OK() bool {
	return r.Failure == FailureNone && r.Error == ""
}

// Client calls the generateContent endpoint
type Client struct {
	config Config
	http   *http.Client
	logger *logrus.Logger
}

// NewClient creates a client. A nil httpClient gets one bounded by config.Timeout.
func NewClient(config Config, httpClient *http.Client, logger *logrus.Logger) *Client {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{config: config, http: httpClient, logger: logger}
}

type textPart struct {
	Text string `json:"text"`
}

type partList struct {
	Parts []textPart `json:"parts"`
}

type generateRequest struct {
	Contents          []partList `json:"contents"`
	SystemInstruction partList   `json:"systemInstruction"`
}

// GenerateContent sends prompt with systemPrompt as the system instruction.
// Provider failures are reported in the Result, never as a Go error.
func (c *Client) GenerateContent(ctx context.Context, prompt, systemPrompt string) Result {
	if c.config.APIKey == "" {
		observability.RecordGeneration(observability.OutcomeNotConfigured, 0)
		return Result{Error: MsgNotConfigured, Failure: FailureNotConfigured}
	}

	start := time.Now()
	result, outcome := c.call(ctx, prompt, systemPrompt)
	elapsed := time.Since(start)
	observability.RecordGeneration(outcome, elapsed)

	entry := c.logger.WithFields(logrus.Fields{
		"model":    c.config.Model,
		"outcome":  outcome,
		"duration": elapsed,
	})
	if result.OK() {
		entry.Debug("Generation call succeeded")
	} else {
		entry.WithField("error", result.Error).Warn("Generation call failed")
	}

	return result
}

func (c *Client) call(ctx context.Context, prompt, systemPrompt string) (Result, string) {
	payload, err := json.Marshal(generateRequest{
		Contents:          []partList{{Parts: []textPart{{Text: prompt}}}},
		SystemInstruction: partList{Parts: []textPart{{Text: systemPrompt}}},
	})
	if err != nil {
		return providerFailure(fmt.Sprintf("Failed to call Gemini API: %v", err), ""), observability.OutcomeTransport
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return providerFailure(fmt.Sprintf("Failed to call Gemini API: %v", err), ""), observability.OutcomeTransport
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return providerFailure(fmt.Sprintf("Failed to call Gemini API: %v", transportReason(err)), ""), observability.OutcomeTransport
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return providerFailure(fmt.Sprintf("Failed to call Gemini API. Status: %d", resp.StatusCode), ""), observability.OutcomeHTTPError
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return providerFailure(fmt.Sprintf("Failed to call Gemini API: %v", transportReason(err)), ""), observability.OutcomeTransport
	}

	text, err := ExtractText(body)
	if err != nil {
		detail := err.Error()
		var missing *MissingPartError
		if errors.As(err, &missing) {
			detail = missing.Path
		}
		return providerFailure(MsgNoText, detail), observability.OutcomeMalformed
	}

	return Result{Text: text}, observability.OutcomeSuccess
}

// endpoint builds {base}/models/{model}:generateContent?key=...
func (c *Client) endpoint() string {
	query := url.Values{}
	query.Set("key", c.config.APIKey)
	return fmt.Sprintf("%s/models/%s:generateContent?%s", c.config.BaseURL, url.PathEscape(c.config.Model), query.Encode())
}

func providerFailure(message, detail string) Result {
	return Result{Error: message, Detail: detail, Failure: FailureProvider}
}

// transportReason strips the request URL from net/http errors so the API key
// never reaches a response body or log line.
func transportReason(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
