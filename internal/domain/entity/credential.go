package entity

import "time"

// Credential holds the forum OAuth application and token pair.
type Credential struct {
	AccessToken  string
	RefreshToken string
	AppKey       string
	AppSecret    string
	Expiry       time.Time
	// Rejected is set when the forum refused AccessToken; it forces the next refresh.
	Rejected bool
}

// NeedsRefresh reports whether the access token must be renewed before use.
// A zero Expiry means the lifetime is unknown and is treated as expired.
func (c Credential) NeedsRefresh(now time.Time, margin time.Duration) bool {
	if c.Rejected || c.AccessToken == "" || c.Expiry.IsZero() {
		return true
	}
	return !now.Add(margin).Before(c.Expiry)
}

// IsUsable reports whether the access token can be sent to the forum right now.
func (c Credential) IsUsable(now time.Time) bool {
	return c.AccessToken != "" && !c.Rejected && now.Before(c.Expiry)
}
