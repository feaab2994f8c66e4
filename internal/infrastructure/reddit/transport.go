package reddit

import "net/http"

// DefaultUserAgent identifies the bridge to reddit, which rejects generic agents.
const DefaultUserAgent = "modlog-bridge/1.0 (Slack moderation bridge)"

// UserAgentTransport sets the User-Agent header on every request.
type UserAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

// NewUserAgentTransport wraps base (http.DefaultTransport when nil).
func NewUserAgentTransport(userAgent string, base http.RoundTripper) *UserAgentTransport {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &UserAgentTransport{userAgent: userAgent, base: base}
}

func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}
