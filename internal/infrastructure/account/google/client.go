package google

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/mexicorn/podium/internal/domain/user"
	"github.com/mexicorn/podium/internal/platform/logging"
	"github.com/mexicorn/podium/internal/usecase"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

type ClientConfig struct {
	HTTPClient   *http.Client
	TokenInfoURL string
	// ClientID is the expected audience of presented ID tokens. Tokens
	// minted for another application are rejected.
	ClientID string
	CacheTTL time.Duration
	Logger   *logging.Logger
}

// Client verifies Google ID tokens through the tokeninfo endpoint and maps
// them to principals. Verified tokens are cached until shortly before their
// expiry so repeated requests from the same client do not hit Google.
type Client struct {
	httpClient   *http.Client
	tokenInfoURL string
	clientID     string
	logger       *logging.Logger
	cache        *principalCache
	now          func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	tokenInfoURL := strings.TrimSpace(cfg.TokenInfoURL)
	if tokenInfoURL == "" {
		tokenInfoURL = defaultTokenInfoURL
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Client{
		httpClient:   httpClient,
		tokenInfoURL: tokenInfoURL,
		clientID:     strings.TrimSpace(cfg.ClientID),
		logger:       logger,
		cache:        newPrincipalCache(ttl, 4096),
		now:          time.Now,
	}
}

func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	cacheKey := hashToken(token)
	if principal, ok := c.cache.Get(cacheKey, c.now()); ok {
		return principal, nil
	}

	endpoint := c.tokenInfoURL + "?" + url.Values{"id_token": {token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return user.Principal{}, fmt.Errorf("create tokeninfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return user.Principal{}, fmt.Errorf("request google tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return user.Principal{}, fmt.Errorf("read tokeninfo response: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return user.Principal{}, fmt.Errorf("%w: token rejected by google", usecase.ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "google tokeninfo non-200", "status_code", resp.StatusCode)
		return user.Principal{}, fmt.Errorf("google tokeninfo failed with status %d", resp.StatusCode)
	}

	var decoded tokenInfoResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return user.Principal{}, fmt.Errorf("unmarshal tokeninfo response: %w", err)
	}

	if c.clientID != "" && decoded.Audience != c.clientID {
		return user.Principal{}, fmt.Errorf("%w: token audience mismatch", usecase.ErrUnauthorized)
	}
	if decoded.EmailVerified != "true" {
		return user.Principal{}, fmt.Errorf("%w: email is not verified", usecase.ErrUnauthorized)
	}
	email := strings.ToLower(strings.TrimSpace(decoded.Email))
	if email == "" {
		return user.Principal{}, fmt.Errorf("invalid tokeninfo response: email is empty")
	}

	principal := user.Principal{
		Email: email,
		Name:  strings.TrimSpace(decoded.Name),
	}

	expiresAt := c.now().Add(c.cache.ttl)
	if seconds, err := strconv.ParseInt(decoded.ExpiresAt, 10, 64); err == nil {
		if tokenExpiry := time.Unix(seconds, 0); tokenExpiry.Before(expiresAt) {
			expiresAt = tokenExpiry
		}
	}
	c.cache.Set(cacheKey, principal, expiresAt)

	return principal, nil
}

type tokenInfoResponse struct {
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	ExpiresAt     string `json:"exp"`
}
