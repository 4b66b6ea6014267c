package connect

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AccountStore creates local accounts during auto-registration.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *LocalAccount) (*LocalAccount, error)
}

// DefaultConnectionService implements ConnectionService over an account
// store and a connection store.
type DefaultConnectionService struct {
	accounts    AccountStore
	connections ConnectionStore

	// DefaultAuthorities are granted to auto-registered accounts.
	DefaultAuthorities []string

	// OnAccountCreated runs after a successful sign up.
	OnAccountCreated func(ctx context.Context, account *LocalAccount, profile *Profile) error
}

// NewDefaultConnectionService creates a connection service.
func NewDefaultConnectionService(accounts AccountStore, connections ConnectionStore) *DefaultConnectionService {
	return &DefaultConnectionService{
		accounts:    accounts,
		connections: connections,
	}
}

// SignUp creates a local account from profile and a rank 0 connection record
// for it.
func (s *DefaultConnectionService) SignUp(ctx context.Context, profile *Profile, provider string) (*LocalAccount, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	if s.accounts == nil || s.connections == nil {
		return nil, ErrSignupFailed
	}

	account := s.accountFromProfile(profile)

	created, err := s.accounts.CreateAccount(ctx, account)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to create account")
	}

	conn := connectionFromProfile(profile, provider, created.ID, 0)
	if err := s.connections.Upsert(ctx, conn); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to create connection")
	}

	if s.OnAccountCreated != nil {
		if err := s.OnAccountCreated(ctx, created, profile); err != nil {
			return nil, err
		}
	}

	return created, nil
}

// Bind links the provider identity in profile to an existing account. When
// records for the identity already exist the new one takes the next rank.
func (s *DefaultConnectionService) Bind(ctx context.Context, account *LocalAccount, profile *Profile, provider string) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	if account == nil || account.ID == uuid.Nil {
		return ErrBindingFailed
	}
	if s.connections == nil {
		return ErrBindingFailed
	}

	existing, err := s.connections.FindByProviderUserID(ctx, provider, profile.ProviderUserID)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to find connections")
	}

	rank := 0
	for _, c := range existing {
		if c == nil {
			continue
		}
		if c.LocalUserID == account.ID {
			// Already bound.
			return nil
		}
		if c.Rank >= rank {
			rank = c.Rank + 1
		}
	}

	conn := connectionFromProfile(profile, provider, account.ID, rank)
	if err := s.connections.Upsert(ctx, conn); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to create connection")
	}

	return nil
}

// UpdateConnection overwrites conn's provider snapshot and token material
// with the latest profile data. Calling it twice with the same arguments
// leaves the stored record in the same state as once.
func (s *DefaultConnectionService) UpdateConnection(ctx context.Context, profile *Profile, conn *Connection) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	if conn == nil {
		return ErrInvalidProfile
	}
	if s.connections == nil {
		return errors.New("connection store not configured", errors.CategoryInternal)
	}

	updated := connectionFromProfile(profile, conn.Provider, conn.LocalUserID, conn.Rank)
	updated.ID = conn.ID
	updated.CreatedAt = conn.CreatedAt

	return s.connections.Upsert(ctx, updated)
}

func (s *DefaultConnectionService) accountFromProfile(profile *Profile) *LocalAccount {
	account := &LocalAccount{
		Email:          profile.Email,
		ProfilePicture: profile.AvatarURL,
		Authorities:    append([]string(nil), s.DefaultAuthorities...),
		Metadata: map[string]any{
			"connect_provider": profile.Provider,
		},
	}

	if profile.FirstName != "" {
		account.FirstName = profile.FirstName
		account.LastName = profile.LastName
	} else if profile.Name != "" {
		parts := strings.SplitN(profile.Name, " ", 2)
		account.FirstName = parts[0]
		if len(parts) > 1 {
			account.LastName = parts[1]
		}
	}

	if profile.Username != "" {
		account.Username = profile.Username
	} else if profile.Email != "" {
		account.Username = strings.Split(profile.Email, "@")[0]
	} else {
		account.Username = fmt.Sprintf("%s_%s", profile.Provider, profile.ProviderUserID)
	}

	return account
}

func connectionFromProfile(profile *Profile, provider string, localUserID uuid.UUID, rank int) *Connection {
	conn := &Connection{
		LocalUserID:    localUserID,
		Provider:       provider,
		ProviderUserID: profile.ProviderUserID,
		Rank:           rank,
		Email:          profile.Email,
		Name:           profile.Name,
		Username:       profile.Username,
		AvatarURL:      profile.AvatarURL,
		ProfileData:    profile.Raw,
		UpdatedAt:      time.Now(),
	}

	if token := profile.Token; token != nil {
		conn.AccessToken = token.AccessToken
		conn.RefreshToken = token.RefreshToken
		if !token.ExpiresAt.IsZero() {
			expiresAt := token.ExpiresAt
			conn.TokenExpiresAt = &expiresAt
		}
	}

	return conn
}

func validateProfile(profile *Profile) error {
	if profile == nil {
		return ErrInvalidProfile
	}
	if err := validation.ValidateStruct(profile,
		validation.Field(&profile.Provider, validation.Required),
		validation.Field(&profile.ProviderUserID, validation.Required),
	); err != nil {
		return ErrInvalidProfile
	}
	return nil
}
