package connect

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ProfileFetcher resolves a provider authorization artifact (code, state)
// into a normalized third-party profile. It owns the token exchange and the
// user-info call; failures propagate to the caller unmodified.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, req *LoginRequest) (*Profile, error)
}

// ConnectionService handles the account side effects of a login resolution:
// registering a new local account for a provider identity, binding a provider
// identity to an existing account, and persisting fresh provider data into an
// existing connection record.
type ConnectionService interface {
	// SignUp creates a local account and its connection record atomically.
	SignUp(ctx context.Context, profile *Profile, provider string) (*LocalAccount, error)
	// Bind links the provider identity in profile to an existing account.
	Bind(ctx context.Context, account *LocalAccount, profile *Profile, provider string) error
	// UpdateConnection persists the latest profile attributes and token
	// material into the backing record of conn. Must be safe to call twice
	// with the same arguments.
	UpdateConnection(ctx context.Context, profile *Profile, conn *Connection) error
}

// AccountResolver loads local accounts by id, always from the backing store,
// never from a cache.
type AccountResolver interface {
	LoadAccountByID(ctx context.Context, id uuid.UUID) (*LocalAccount, error)
}

// StateCache keeps per-login-flow state nonces. The resolver removes the
// nonce for a provider once the flow completes.
type StateCache interface {
	PutLoginState(ctx context.Context, provider, nonce string) error
	GetLoginState(ctx context.Context, provider string) (string, bool)
	RemoveLoginState(ctx context.Context, provider string) error
}

// TokenService mints the identity token returned on a successful resolution.
type TokenService interface {
	Generate(account *LocalAccount, provider string) (string, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CONNECT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] CONNECT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CONNECT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CONNECT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
