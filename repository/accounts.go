package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-connect"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountModel is the Bun model for local accounts.
type AccountModel struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID                 uuid.UUID      `bun:"id,pk,nullzero,type:uuid"`
	Username           string         `bun:"username,notnull,unique"`
	Email              string         `bun:"email,unique"`
	FirstName          string         `bun:"first_name"`
	LastName           string         `bun:"last_name"`
	ProfilePicture     string         `bun:"profile_picture"`
	Authorities        []string       `bun:"authorities,type:jsonb"`
	Locked             bool           `bun:"is_locked"`
	Disabled           bool           `bun:"is_disabled"`
	AccountExpired     bool           `bun:"is_account_expired"`
	CredentialsExpired bool           `bun:"is_credentials_expired"`
	Metadata           map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt          *time.Time     `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt          *time.Time     `bun:"updated_at,nullzero,default:current_timestamp"`
}

// AccountRepository implements connect.AccountResolver and
// connect.AccountStore using Bun.
type AccountRepository struct {
	db *bun.DB
}

// NewAccountRepository creates a new repository.
func NewAccountRepository(db *bun.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// LoadAccountByID implements connect.AccountResolver. Reads always hit the
// store; identity caching is the caller's concern.
func (r *AccountRepository) LoadAccountByID(ctx context.Context, id uuid.UUID) (*connect.LocalAccount, error) {
	var model AccountModel
	err := r.db.NewSelect().
		Model(&model).
		Where("usr.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, connect.ErrAccountNotFound
		}
		return nil, err
	}
	return r.toAccount(&model), nil
}

// CreateAccount implements connect.AccountStore.
func (r *AccountRepository) CreateAccount(ctx context.Context, account *connect.LocalAccount) (*connect.LocalAccount, error) {
	model := r.fromAccount(account)
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}

	_, err := r.db.NewInsert().
		Model(model).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return r.toAccount(model), nil
}

func (r *AccountRepository) toAccount(m *AccountModel) *connect.LocalAccount {
	return &connect.LocalAccount{
		ID:                 m.ID,
		Username:           m.Username,
		Email:              m.Email,
		FirstName:          m.FirstName,
		LastName:           m.LastName,
		ProfilePicture:     m.ProfilePicture,
		Authorities:        m.Authorities,
		Locked:             m.Locked,
		Disabled:           m.Disabled,
		AccountExpired:     m.AccountExpired,
		CredentialsExpired: m.CredentialsExpired,
		Metadata:           m.Metadata,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func (r *AccountRepository) fromAccount(a *connect.LocalAccount) *AccountModel {
	return &AccountModel{
		ID:                 a.ID,
		Username:           a.Username,
		Email:              a.Email,
		FirstName:          a.FirstName,
		LastName:           a.LastName,
		ProfilePicture:     a.ProfilePicture,
		Authorities:        a.Authorities,
		Locked:             a.Locked,
		Disabled:           a.Disabled,
		AccountExpired:     a.AccountExpired,
		CredentialsExpired: a.CredentialsExpired,
		Metadata:           a.Metadata,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}
