package connect

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Connection is one durable link between a provider identity and a local
// account, plus the provider data cached at the last reconciliation.
//
// For a given (provider, provider user id) pair at most one record is
// authoritative, the one with the lowest rank. The store may legally return
// several; callers must pick deterministically via FirstByRank.
type Connection struct {
	ID             uuid.UUID      `json:"id"`
	LocalUserID    uuid.UUID      `json:"local_user_id"`
	Provider       string         `json:"provider"`
	ProviderUserID string         `json:"provider_user_id"`
	Rank           int            `json:"rank"`
	Email          string         `json:"email,omitempty"`
	Name           string         `json:"name,omitempty"`
	Username       string         `json:"username,omitempty"`
	AvatarURL      string         `json:"avatar_url,omitempty"`
	AccessToken    string         `json:"-"`
	RefreshToken   string         `json:"-"`
	TokenExpiresAt *time.Time     `json:"token_expires_at,omitempty"`
	ProfileData    map[string]any `json:"profile_data,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ConnectionStore manages connection record persistence.
type ConnectionStore interface {
	// FindByProviderUserID returns all records for a provider identity
	// ordered by rank ascending. Empty slice, not nil, when none exist.
	FindByProviderUserID(ctx context.Context, provider, providerUserID string) ([]*Connection, error)
	FindByUserID(ctx context.Context, localUserID uuid.UUID) ([]*Connection, error)
	Upsert(ctx context.Context, conn *Connection) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// FirstByRank picks the authoritative record: the lowest rank, first
// occurrence winning on ties regardless of input ordering. Returns nil for an
// empty slice.
//
// Letting the caller disambiguate between multiple local accounts is an
// extension point, not supported in this version.
func FirstByRank(conns []*Connection) *Connection {
	var first *Connection
	for _, c := range conns {
		if c == nil {
			continue
		}
		if first == nil || c.Rank < first.Rank {
			first = c
		}
	}
	return first
}
