package connect

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryConnectionStore struct {
	records map[string]*Connection
}

func newMemoryConnectionStore() *memoryConnectionStore {
	return &memoryConnectionStore{records: map[string]*Connection{}}
}

func connKey(provider, providerUserID string, rank int) string {
	return fmt.Sprintf("%s/%s/%d", provider, providerUserID, rank)
}

func (s *memoryConnectionStore) FindByProviderUserID(ctx context.Context, provider, providerUserID string) ([]*Connection, error) {
	conns := []*Connection{}
	for rank := 0; rank < len(s.records)+1; rank++ {
		if c, ok := s.records[connKey(provider, providerUserID, rank)]; ok {
			conns = append(conns, c)
		}
	}
	return conns, nil
}

func (s *memoryConnectionStore) FindByUserID(ctx context.Context, localUserID uuid.UUID) ([]*Connection, error) {
	conns := []*Connection{}
	for _, c := range s.records {
		if c.LocalUserID == localUserID {
			conns = append(conns, c)
		}
	}
	return conns, nil
}

func (s *memoryConnectionStore) Upsert(ctx context.Context, conn *Connection) error {
	copied := *conn
	s.records[connKey(conn.Provider, conn.ProviderUserID, conn.Rank)] = &copied
	return nil
}

func (s *memoryConnectionStore) Delete(ctx context.Context, id uuid.UUID) error {
	for key, c := range s.records {
		if c.ID == id {
			delete(s.records, key)
		}
	}
	return nil
}

type memoryAccountStore struct {
	created []*LocalAccount
}

func (s *memoryAccountStore) CreateAccount(ctx context.Context, account *LocalAccount) (*LocalAccount, error) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	s.created = append(s.created, account)
	return account, nil
}

func tokenProfile() *Profile {
	return &Profile{
		Provider:       "github",
		ProviderUserID: "p1",
		Email:          "person@example.com",
		Name:           "Person Example",
		Username:       "person",
		AvatarURL:      "https://example.com/avatar.png",
		Token: &Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(time.Hour),
		},
	}
}

func TestSignUpCreatesAccountAndConnection(t *testing.T) {
	accounts := &memoryAccountStore{}
	connections := newMemoryConnectionStore()
	service := NewDefaultConnectionService(accounts, connections)
	service.DefaultAuthorities = []string{"member"}

	account, err := service.SignUp(context.Background(), tokenProfile(), "github")
	require.NoError(t, err)
	require.NotNil(t, account)

	assert.Equal(t, "person", account.Username)
	assert.Equal(t, "Person", account.FirstName)
	assert.Equal(t, "Example", account.LastName)
	assert.Equal(t, []string{"member"}, account.Authorities)

	conns, err := connections.FindByProviderUserID(context.Background(), "github", "p1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, account.ID, conns[0].LocalUserID)
	assert.Equal(t, 0, conns[0].Rank)
	assert.Equal(t, "access-1", conns[0].AccessToken)
	assert.Equal(t, "refresh-1", conns[0].RefreshToken)
	require.NotNil(t, conns[0].TokenExpiresAt)
}

func TestSignUpDerivesUsernameFromEmail(t *testing.T) {
	profile := tokenProfile()
	profile.Username = ""

	service := NewDefaultConnectionService(&memoryAccountStore{}, newMemoryConnectionStore())
	account, err := service.SignUp(context.Background(), profile, "github")
	require.NoError(t, err)
	assert.Equal(t, "person", account.Username)

	profile = tokenProfile()
	profile.Username = ""
	profile.Email = ""
	account, err = service.SignUp(context.Background(), profile, "github")
	require.NoError(t, err)
	assert.Equal(t, "github_p1", account.Username)
}

func TestSignUpRunsCreatedHook(t *testing.T) {
	service := NewDefaultConnectionService(&memoryAccountStore{}, newMemoryConnectionStore())

	var hooked *LocalAccount
	service.OnAccountCreated = func(ctx context.Context, account *LocalAccount, profile *Profile) error {
		hooked = account
		return nil
	}

	account, err := service.SignUp(context.Background(), tokenProfile(), "github")
	require.NoError(t, err)
	assert.Equal(t, account, hooked)
}

func TestBindAssignsNextRank(t *testing.T) {
	connections := newMemoryConnectionStore()
	service := NewDefaultConnectionService(&memoryAccountStore{}, connections)

	first, err := service.SignUp(context.Background(), tokenProfile(), "github")
	require.NoError(t, err)

	second := &LocalAccount{ID: uuid.New()}
	require.NoError(t, service.Bind(context.Background(), second, tokenProfile(), "github"))

	conns, err := connections.FindByProviderUserID(context.Background(), "github", "p1")
	require.NoError(t, err)
	require.Len(t, conns, 2)
	assert.Equal(t, first.ID, conns[0].LocalUserID)
	assert.Equal(t, 0, conns[0].Rank)
	assert.Equal(t, second.ID, conns[1].LocalUserID)
	assert.Equal(t, 1, conns[1].Rank)
}

func TestBindAlreadyBoundIsNoop(t *testing.T) {
	connections := newMemoryConnectionStore()
	service := NewDefaultConnectionService(&memoryAccountStore{}, connections)

	account, err := service.SignUp(context.Background(), tokenProfile(), "github")
	require.NoError(t, err)

	require.NoError(t, service.Bind(context.Background(), account, tokenProfile(), "github"))

	conns, err := connections.FindByProviderUserID(context.Background(), "github", "p1")
	require.NoError(t, err)
	assert.Len(t, conns, 1)
}

func TestBindRejectsMissingAccount(t *testing.T) {
	service := NewDefaultConnectionService(&memoryAccountStore{}, newMemoryConnectionStore())
	err := service.Bind(context.Background(), nil, tokenProfile(), "github")
	require.ErrorIs(t, err, ErrBindingFailed)
}

func TestUpdateConnectionIsIdempotent(t *testing.T) {
	connections := newMemoryConnectionStore()
	service := NewDefaultConnectionService(&memoryAccountStore{}, connections)

	account, err := service.SignUp(context.Background(), tokenProfile(), "github")
	require.NoError(t, err)

	conns, err := connections.FindByProviderUserID(context.Background(), "github", "p1")
	require.NoError(t, err)
	require.Len(t, conns, 1)

	updated := tokenProfile()
	updated.Token.AccessToken = "access-2"

	require.NoError(t, service.UpdateConnection(context.Background(), updated, conns[0]))
	require.NoError(t, service.UpdateConnection(context.Background(), updated, conns[0]))

	conns, err = connections.FindByProviderUserID(context.Background(), "github", "p1")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, account.ID, conns[0].LocalUserID)
	assert.Equal(t, "access-2", conns[0].AccessToken)
}

func TestConnectionServiceRejectsInvalidProfile(t *testing.T) {
	service := NewDefaultConnectionService(&memoryAccountStore{}, newMemoryConnectionStore())

	_, err := service.SignUp(context.Background(), nil, "github")
	require.ErrorIs(t, err, ErrInvalidProfile)

	_, err = service.SignUp(context.Background(), &Profile{Provider: "github"}, "github")
	require.ErrorIs(t, err, ErrInvalidProfile)

	err = service.Bind(context.Background(), &LocalAccount{ID: uuid.New()}, &Profile{}, "github")
	require.ErrorIs(t, err, ErrInvalidProfile)

	err = service.UpdateConnection(context.Background(), tokenProfile(), nil)
	require.ErrorIs(t, err, ErrInvalidProfile)
}

func TestFirstByRank(t *testing.T) {
	assert.Nil(t, FirstByRank(nil))
	assert.Nil(t, FirstByRank([]*Connection{}))

	a := &Connection{Rank: 1}
	b := &Connection{Rank: 0}
	c := &Connection{Rank: 0}

	assert.Equal(t, b, FirstByRank([]*Connection{a, b, c}))
	assert.Equal(t, b, FirstByRank([]*Connection{b, c, a}))
	assert.Equal(t, a, FirstByRank([]*Connection{nil, a}))
}
