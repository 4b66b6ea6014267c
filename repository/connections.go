package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-connect"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConnectionModel is the Bun model for connection records.
type ConnectionModel struct {
	bun.BaseModel `bun:"table:user_connections"`

	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid"`
	LocalUserID    uuid.UUID      `bun:"local_user_id,notnull,type:uuid"`
	Provider       string         `bun:"provider,notnull"`
	ProviderUserID string         `bun:"provider_user_id,notnull"`
	Rank           int            `bun:"rank,notnull"`
	Email          string         `bun:"email"`
	Name           string         `bun:"name"`
	Username       string         `bun:"username"`
	AvatarURL      string         `bun:"avatar_url"`
	AccessToken    string         `bun:"access_token"`
	RefreshToken   string         `bun:"refresh_token"`
	TokenExpiresAt *time.Time     `bun:"token_expires_at"`
	ProfileData    map[string]any `bun:"profile_data,type:jsonb"`
	CreatedAt      time.Time      `bun:"created_at,default:current_timestamp"`
	UpdatedAt      time.Time      `bun:"updated_at,default:current_timestamp"`
}

// ConnectionRepository implements connect.ConnectionStore using Bun.
type ConnectionRepository struct {
	db *bun.DB
}

// NewConnectionRepository creates a new repository.
func NewConnectionRepository(db *bun.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// FindByProviderUserID implements connect.ConnectionStore. Records come back
// ordered by rank ascending; no rows yields an empty slice.
func (r *ConnectionRepository) FindByProviderUserID(ctx context.Context, provider, providerUserID string) ([]*connect.Connection, error) {
	var models []ConnectionModel
	err := r.db.NewSelect().
		Model(&models).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		OrderExpr("rank ASC").
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	conns := make([]*connect.Connection, len(models))
	for i, m := range models {
		conns[i] = r.toConnection(&m)
	}
	return conns, nil
}

// FindByUserID implements connect.ConnectionStore.
func (r *ConnectionRepository) FindByUserID(ctx context.Context, localUserID uuid.UUID) ([]*connect.Connection, error) {
	var models []ConnectionModel
	err := r.db.NewSelect().
		Model(&models).
		Where("local_user_id = ?", localUserID).
		OrderExpr("provider ASC, rank ASC").
		Scan(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	conns := make([]*connect.Connection, len(models))
	for i, m := range models {
		conns[i] = r.toConnection(&m)
	}
	return conns, nil
}

// Upsert implements connect.ConnectionStore. Conflicts on the
// (provider, provider_user_id, rank) key overwrite the stored snapshot, so
// repeating the same update is a no-op beyond the timestamp.
func (r *ConnectionRepository) Upsert(ctx context.Context, conn *connect.Connection) error {
	model := r.fromConnection(conn)
	model.UpdatedAt = time.Now()

	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (provider, provider_user_id, rank) DO UPDATE").
		Set("local_user_id = EXCLUDED.local_user_id").
		Set("email = EXCLUDED.email").
		Set("name = EXCLUDED.name").
		Set("username = EXCLUDED.username").
		Set("avatar_url = EXCLUDED.avatar_url").
		Set("access_token = EXCLUDED.access_token").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("token_expires_at = EXCLUDED.token_expires_at").
		Set("profile_data = EXCLUDED.profile_data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	return err
}

// Delete implements connect.ConnectionStore.
func (r *ConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*ConnectionModel)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *ConnectionRepository) toConnection(m *ConnectionModel) *connect.Connection {
	return &connect.Connection{
		ID:             m.ID,
		LocalUserID:    m.LocalUserID,
		Provider:       m.Provider,
		ProviderUserID: m.ProviderUserID,
		Rank:           m.Rank,
		Email:          m.Email,
		Name:           m.Name,
		Username:       m.Username,
		AvatarURL:      m.AvatarURL,
		AccessToken:    m.AccessToken,
		RefreshToken:   m.RefreshToken,
		TokenExpiresAt: m.TokenExpiresAt,
		ProfileData:    m.ProfileData,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func (r *ConnectionRepository) fromConnection(c *connect.Connection) *ConnectionModel {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &ConnectionModel{
		ID:             id,
		LocalUserID:    c.LocalUserID,
		Provider:       c.Provider,
		ProviderUserID: c.ProviderUserID,
		Rank:           c.Rank,
		Email:          c.Email,
		Name:           c.Name,
		Username:       c.Username,
		AvatarURL:      c.AvatarURL,
		AccessToken:    c.AccessToken,
		RefreshToken:   c.RefreshToken,
		TokenExpiresAt: c.TokenExpiresAt,
		ProfileData:    c.ProfileData,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
