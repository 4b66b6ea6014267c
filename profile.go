package connect

import "time"

// Token is the raw token material returned by a provider.
type Token struct {
	AccessToken  string         `json:"-"`
	TokenType    string         `json:"token_type,omitempty"`
	RefreshToken string         `json:"-"`
	ExpiresAt    time.Time      `json:"expires_at,omitempty"`
	Scopes       []string       `json:"scopes,omitempty"`
	Raw          map[string]any `json:"-"`
}

// Profile is the normalized third-party user profile for one login attempt.
// It is created once per attempt and never persisted directly; provider data
// reaches storage only through connection records.
type Profile struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	FirstName      string
	LastName       string
	Username       string
	AvatarURL      string
	ProfileURL     string
	Raw            map[string]any
	Token          *Token
}
