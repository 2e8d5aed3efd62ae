package dimlink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultShortenerURL is the TinyURL creation endpoint; the long URL is appended escaped.
const DefaultShortenerURL = "https://tinyurl.com/api-create.php?url="

// DefaultShortenTimeout bounds one shortener call.
const DefaultShortenTimeout = 3 * time.Second

// maxShortURL caps how much of the shortener response is read.
const maxShortURL = 2048

// TinyURL shortens links through a TinyURL-compatible plain-text endpoint.
type TinyURL struct {
	endpoint   string
	httpClient *http.Client
}

// NewTinyURL creates a shortener calling endpoint with the given timeout.
// Empty or non-positive arguments take the defaults.
func NewTinyURL(endpoint string, timeout time.Duration) *TinyURL {
	if endpoint == "" {
		endpoint = DefaultShortenerURL
	}
	if timeout <= 0 {
		timeout = DefaultShortenTimeout
	}
	return &TinyURL{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Shorten implements Shortener.
//
// Postcondition: on success the result is an absolute http(s) URL.
func (t *TinyURL) Shorten(ctx context.Context, longURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+url.QueryEscape(longURL), nil)
	if err != nil {
		return "", fmt.Errorf("Shorten: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Shorten: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Shorten: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxShortURL))
	if err != nil {
		return "", fmt.Errorf("Shorten: reading body: %w", err)
	}
	short := strings.TrimSpace(string(body))
	if !strings.HasPrefix(short, "http://") && !strings.HasPrefix(short, "https://") {
		return "", fmt.Errorf("Shorten: unexpected response %q", short)
	}
	return short, nil
}
