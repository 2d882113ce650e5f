package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/sethvargo/go-retry"
)

// GenerationConfig holds the fixed sampling parameters sent with every request.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GeminiConfig holds the configuration for the generateContent endpoint.
type GeminiConfig struct {
	Endpoint   string // full generateContent URL, without the key query param
	APIKey     string
	Timeout    time.Duration // per attempt
	MaxRetries int
	Backoff    time.Duration // base delay, doubled per retry
	Generation GenerationConfig
}

// GeminiProvider implements port.TextGenerator using the Gemini REST API.
type GeminiProvider struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

// NewGeminiProvider creates a new Gemini-backed text generator.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	return &GeminiProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ModelName returns the model segment of the endpoint path.
func (g *GeminiProvider) ModelName() string {
	u, err := url.Parse(g.cfg.Endpoint)
	if err != nil {
		return ""
	}
	last := u.Path[strings.LastIndex(u.Path, "/")+1:]
	if i := strings.Index(last, ":"); i >= 0 {
		return last[:i]
	}
	return last
}

// Generate sends prompt to the generation API and returns the first candidate's text.
// Transport errors, 429 and 5xx responses are retried with exponential backoff.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: g.cfg.Generation,
	})
	if err != nil {
		return "", fmt.Errorf("gemini: marshal payload: %w", err)
	}

	var body []byte
	attempt := 0
	backoff := retry.WithMaxRetries(uint64(g.cfg.MaxRetries), retry.NewExponential(g.cfg.Backoff))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		b, err := g.post(ctx, payload)
		if err != nil {
			var re *retryableError
			if errors.As(err, &re) {
				slog.Warn("gemini request failed", "attempt", attempt, "error", re.err)
				return retry.RetryableError(re.err)
			}
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		if errors.Is(err, port.ErrUpstreamUnavailable) || errors.Is(err, port.ErrUpstreamMalformed) {
			return "", err
		}
		return "", fmt.Errorf("gemini: %w: %v", port.ErrUpstreamUnavailable, err)
	}

	return parseCompletion(body)
}

// retryableError marks a failure worth another attempt.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }

func (g *GeminiProvider) post(ctx context.Context, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	endpoint, err := url.Parse(g.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("gemini: parse endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", g.cfg.APIKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("%w: %v", port.ErrUpstreamUnavailable, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("%w: read body: %v", port.ErrUpstreamUnavailable, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := fmt.Errorf("%w: gemini API error (%d): %s", port.ErrUpstreamUnavailable, resp.StatusCode, truncate(string(body), 512))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &retryableError{err: apiErr}
		}
		return nil, apiErr
	}

	return body, nil
}

// parseCompletion extracts the first candidate's text. A well-formed response
// without text yields port.ErrEmptyCompletion.
func parseCompletion(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("gemini: decode: %w: %v", port.ErrUpstreamMalformed, err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("gemini: %w: %s", port.ErrUpstreamUnavailable, resp.Error.Message)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", port.ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", port.ErrEmptyCompletion
	}
	return text, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
