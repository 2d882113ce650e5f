package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/port"
)

// Client talks to a Supabase-compatible project: GoTrue for auth, PostgREST for tables.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient creates a client for the project at baseURL using the service key.
func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// apiError is the error body returned by GoTrue and PostgREST. Field names differ between versions.
type apiError struct {
	Status    int    `json:"-"`
	Code      string `json:"error_code"`
	ErrName   string `json:"error"`
	ErrorDesc string `json:"error_description"`
	Msg       string `json:"msg"`
	Message   string `json:"message"`
}

func (e *apiError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDesc, e.ErrName} {
		if s != "" {
			return s
		}
	}
	return http.StatusText(e.Status)
}

// do sends a JSON request. bearer defaults to the service key when empty.
// A non-2xx answer is returned as *apiError; transport failures and 5xx map to port.ErrProviderUnavailable.
func (c *Client) do(ctx context.Context, method, path, bearer string, in, out interface{}, headers map[string]string) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("supabase: marshal payload: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	if bearer == "" {
		bearer = c.serviceKey
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: %s %s: %w: %v", method, path, port.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("supabase: read body: %w: %v", port.ErrProviderUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return fmt.Errorf("supabase: %s %s (%d): %w", method, path, resp.StatusCode, port.ErrProviderUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("supabase: decode %s: %w: %v", path, port.ErrProviderMalformed, err)
	}
	return nil
}

// Error implements error so apiError can travel through do's error return.
func (e *apiError) Error() string {
	return fmt.Sprintf("supabase API error (%d): %s", e.Status, e.text())
}
