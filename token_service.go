package connect

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// IdentityClaims are the claims carried by minted identity tokens.
type IdentityClaims struct {
	jwt.RegisteredClaims
	UID         string   `json:"uid"`
	Provider    string   `json:"provider,omitempty"`
	Authorities []string `json:"authorities,omitempty"`
}

// JWTTokenService implements TokenService using HMAC signed JWTs.
type JWTTokenService struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
}

// NewJWTTokenService creates a token service. tokenExpiration is in hours.
func NewJWTTokenService(signingKey []byte, tokenExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) *JWTTokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &JWTTokenService{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        audience,
		logger:          logger,
	}
}

// Generate creates a signed token for a resolved account.
func (ts *JWTTokenService) Generate(account *LocalAccount, provider string) (string, error) {
	if account == nil {
		return "", ErrAccountNotFound
	}

	now := time.Now()
	claims := &IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    ts.issuer,
			Subject:   account.ID.String(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
		},
		UID:         account.ID.String(),
		Provider:    provider,
		Authorities: append([]string(nil), account.Authorities...),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		ts.logger.Error("failed to sign identity token", "error", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign identity token")
	}

	return signed, nil
}

// Validate parses and validates a token produced by Generate.
func (ts *JWTTokenService) Validate(token string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method", errors.CategoryAuth)
		}
		return ts.signingKey, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, "invalid identity token")
	}
	if !parsed.Valid {
		return nil, errors.New("invalid identity token", errors.CategoryAuth)
	}
	return claims, nil
}
