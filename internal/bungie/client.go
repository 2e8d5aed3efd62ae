// Package bungie is a read-only client for the Bungie.net Destiny 2 platform API.
package bungie

import (
	"context"
	"encoding/json"
		"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Bungie.net platform root.
const DefaultBaseURL = "https://www.bungie.net/Platform"

// ProfileComponents is the component list requested by GetProfile:
// profile, profile progression, characters, character progressions,
// character equipment, item instances, item stats and item sockets.
const ProfileComponents = "100,104,200,202,205,300,304,305"

// Manifest entity names accepted by FetchDefinition.
const (
	EntityInventoryItem = "DestinyInventoryItemDefinition"
	EntityArtifact      = "DestinyArtifactDefinition"
)

// Config holds the settings of a Client.
type Config struct {
	// BaseURL is the platform root, without a trailing slash.
	BaseURL string
	// APIKey is sent in the X-API-Key header of every request.
	APIKey string
	// Timeout bounds every outbound request.
	Timeout time.Duration
	// RatePerSecond caps outbound requests; zero or negative disables limiting.
	RatePerSecond float64
	// Burst is the limiter bucket size.
	Burst int
}

// Validate fills defaults for unset fields.
//
// Postcondition: BaseURL is non-empty, Timeout > 0 and Burst >= 1.
func (c *Config) Validate() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Burst < 1 {
		c.Burst = 1
	}
}

// Client performs rate-limited, traced GET requests against the platform API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a Client. An empty APIKey is accepted; calls then fail
// with ErrMissingAPIKey so the server can still start and report the problem.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a ready Client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	cfg.Validate()
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  logger,
	}
}

// HasAPIKey reports whether an API key is configured.
func (c *Client) HasAPIKey() bool { return c.cfg.APIKey != "" }

// SearchPlayer looks up players by full Bungie name ("Name#1234") across all platforms.
//
// Precondition: bungieName must be non-empty.
// Postcondition: Returns at least one card, or ErrPlayerNotFound, or a transport/API error.
func (c *Client) SearchPlayer(ctx context.Context, bungieName string) ([]UserInfoCard, error) {
	path := "/Destiny2/SearchDestinyPlayer/-1/" + url.PathEscape(bungieName) + "/"
	cards, err := get[[]UserInfoCard](ctx, c, path, nil)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, bungieName)
	}
	return cards, nil
}

// GetProfile fetches a player's profile with ProfileComponents.
//
// Precondition: membershipID must be non-empty.
// Postcondition: Returns a non-nil Profile or a non-nil error.
func (c *Client) GetProfile(ctx context.Context, membershipType int, membershipID string) (*Profile, error) {
	path := "/Destiny2/" + strconv.Itoa(membershipType) + "/Profile/" + url.PathEscape(membershipID) + "/"
	q := url.Values{"components": {ProfileComponents}}
	p, err := get[Profile](ctx, c, path, q)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Settings fetches the platform's core settings, which list the enabled systems.
//
// Postcondition: Returns non-nil settings, or an error; IsMaintenance(err) holds
// when the whole platform is down for maintenance.
func (c *Client) Settings(ctx context.Context) (*CoreSettings, error) {
	s, err := get[CoreSettings](ctx, c, "/Settings/", nil)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FetchDefinition fetches a single manifest entity by hash.
//
// Precondition: entity is EntityInventoryItem or EntityArtifact.
// Postcondition: Returns a non-nil Definition, or an error; errors.Is(err, ErrNotFound)
// holds when Bungie reports the hash as unknown.
func (c *Client) FetchDefinition(ctx context.Context, entity string, hash uint32) (*Definition, error) {
	path := "/Destiny2/Manifest/" + entity + "/" + strconv.FormatUint(uint64(hash), 10) + "/"
	def, err := get[Definition](ctx, c, path, nil)
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// get issues one GET and unwraps the Bungie envelope.
func get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var zero T
	if !c.HasAPIKey() {
		return zero, ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("%w: rate limiter: %w", ErrUnavailable, err)
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zero, fmt.Errorf("building request %s: %w", path, err)
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%w: GET %s: %w", ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("bungie request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	var env envelope[T]
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, &APIError{
			Status:      resp.StatusCode,
			ErrorCode:   env.ErrorCode,
			ErrorStatus: env.ErrorStatus,
			Message:     firstNonEmpty(env.Message, http.StatusText(resp.StatusCode)),
			Path:        path,
		}
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("%w: decoding %s: %w", ErrUnavailable, path, decodeErr)
	}
	if env.ErrorCode != ErrorCodeSuccess {
		return zero, &APIError{
			Status:      resp.StatusCode,
			ErrorCode:   env.ErrorCode,
			ErrorStatus: env.ErrorStatus,
			Message:     env.Message,
			Path:        path,
		}
	}
	return env.Response, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
