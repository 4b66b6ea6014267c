package connect

import (
	"time"

	"github.com/google/uuid"
)

// LocalAccount is the local identity a resolution produces or confirms. The
// resolver only reads accounts; status flags are owned by the account store.
type LocalAccount struct {
	ID                 uuid.UUID      `json:"id"`
	Username           string         `json:"username,omitempty"`
	Email              string         `json:"email,omitempty"`
	FirstName          string         `json:"first_name,omitempty"`
	LastName           string         `json:"last_name,omitempty"`
	ProfilePicture     string         `json:"profile_picture,omitempty"`
	Authorities        []string       `json:"authorities,omitempty"`
	Locked             bool           `json:"locked,omitempty"`
	Disabled           bool           `json:"disabled,omitempty"`
	AccountExpired     bool           `json:"account_expired,omitempty"`
	CredentialsExpired bool           `json:"credentials_expired,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	CreatedAt          *time.Time     `json:"created_at,omitempty"`
	UpdatedAt          *time.Time     `json:"updated_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (a *LocalAccount) AddMetadata(key string, val any) *LocalAccount {
	if a.Metadata == nil {
		a.Metadata = make(map[string]any)
	}
	a.Metadata[key] = val
	return a
}

// Principal is the security-context caller of a login attempt, decided once
// at entry: either anonymous or an already authenticated local account.
type Principal struct {
	account *LocalAccount
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// AuthenticatedPrincipal wraps an already authenticated account. A nil
// account yields the anonymous principal.
func AuthenticatedPrincipal(account *LocalAccount) Principal {
	if account == nil {
		return Principal{}
	}
	return Principal{account: account}
}

// Authenticated reports whether the principal carries an account.
func (p Principal) Authenticated() bool {
	return p.account != nil
}

// Account returns the authenticated account, nil for anonymous callers.
func (p Principal) Account() *LocalAccount {
	return p.account
}

// RequestKindOAuth2Login identifies login requests this package can resolve.
const RequestKindOAuth2Login = "oauth2_login"

// LoginRequest is the originating request context of a login attempt. The
// resolver passes it through; only Details end up on the resolved token.
type LoginRequest struct {
	Kind     string         `json:"kind"`
	Provider string         `json:"provider"`
	Code     string         `json:"code,omitempty"`
	State    string         `json:"state,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}
