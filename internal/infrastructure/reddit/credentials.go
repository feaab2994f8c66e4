package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/qj0r9j0vc2/modlog-bridge/internal/domain/entity"
)

// DefaultTokenURL is reddit's OAuth token endpoint.
const DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"

// defaultTokenLifetime applies when a grant omits expires_in.
const defaultTokenLifetime = time.Hour

// RefreshMetrics records credential renewals.
type RefreshMetrics interface {
	RecordCredentialRefresh(ctx context.Context, ok bool, duration time.Duration)
}

// RefresherConfig configures a CredentialRefresher.
type RefresherConfig struct {
	TokenURL  string
	UserAgent string
	// Margin renews the token this long before it expires.
	Margin  time.Duration
	Timeout time.Duration
}

// CredentialRefresher owns the forum credential and renews it with the
// refresh-token grant. All methods are safe for concurrent use.
type CredentialRefresher struct {
	mu   sync.Mutex
	cred entity.Credential

	oauth      *oauth2.Config
	httpClient *http.Client
	margin     time.Duration
	timeout    time.Duration
	metrics    RefreshMetrics
	logger     Logger
	now        func() time.Time
}

// NewCredentialRefresher creates a refresher seeded with cred. The initial access
// token has an unknown lifetime unless cred.Expiry is set, so the first Refresh
// renews it.
func NewCredentialRefresher(cred entity.Credential, cfg RefresherConfig, metrics RefreshMetrics, logger Logger) (*CredentialRefresher, error) {
	if cred.AppKey == "" || cred.AppSecret == "" {
		return nil, errors.New("forum app key and secret are required")
	}
	if cred.RefreshToken == "" {
		return nil, errors.New("forum refresh token is required")
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &CredentialRefresher{
		cred: cred,
		oauth: &oauth2.Config{
			ClientID:     cred.AppKey,
			ClientSecret: cred.AppSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: NewUserAgentTransport(cfg.UserAgent, nil),
		},
		margin:  cfg.Margin,
		timeout: cfg.Timeout,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Refresh renews the access token when it is expired, close to expiry or was
// rejected. It is a no-op returning true otherwise. A failed renewal leaves the
// stored credential untouched and returns false.
func (r *CredentialRefresher) Refresh(ctx context.Context) bool {
	r.mu.Lock()
	if !r.cred.NeedsRefresh(r.now(), r.margin) {
		r.mu.Unlock()
		return true
	}
	refreshToken := r.cred.RefreshToken
	r.mu.Unlock()

	start := r.now()
	tok, err := r.fetch(ctx, refreshToken)
	if r.metrics != nil {
		r.metrics.RecordCredentialRefresh(ctx, err == nil, r.now().Sub(start))
	}
	if err != nil {
		r.logger.Warn("Forum token refresh failed", "error", err)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cred.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		r.cred.RefreshToken = tok.RefreshToken
	}
	r.cred.Expiry = tok.Expiry
	if r.cred.Expiry.IsZero() {
		r.cred.Expiry = r.now().Add(defaultTokenLifetime)
	}
	r.cred.Rejected = false

	r.logger.Debug("Forum token refreshed", "expiry", r.cred.Expiry)
	return true
}

func (r *CredentialRefresher) fetch(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)

	// A token with no access part is always invalid, forcing the refresh grant.
	tok, err := r.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh grant: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("refresh grant returned an empty access token")
	}
	return tok, nil
}

// Invalidate marks the current access token as rejected by the forum.
func (r *CredentialRefresher) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cred.Rejected = true
}

// AccessToken returns the current access token and whether it may be used.
func (r *CredentialRefresher) AccessToken() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cred.AccessToken, r.cred.IsUsable(r.now())
}

// Snapshot returns a copy of the stored credential.
func (r *CredentialRefresher) Snapshot() entity.Credential {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cred
}

// Ping reports whether a usable access token is held.
func (r *CredentialRefresher) Ping(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.cred.Rejected:
		return errors.New("forum access token rejected")
	case !r.cred.IsUsable(r.now()):
		return errors.New("forum access token expired")
	}
	return nil
}
