package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/repository"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 24 * time.Hour
	defaultIssuer          = "savingapp"
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Type models.TokenType `json:"typ"`
	Role models.Role      `json:"role"`
	Name string           `json:"name"`
}

type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	Type models.TokenType `json:"typ"`
}

// Token manager with sensible default
type Config struct {
	// Secret key to sign tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// 'iss' claim set and required on parse
	Issuer string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	key    []byte
	alg    jwt.SigningMethod
	issuer string

	accessTTL  time.Duration
	refreshTTL time.Duration

	// Registry of used refresh token ids
	revoked repository.RevocationRepo
}

func New(cfg Config, revoked repository.RevocationRepo) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method %q", cfg.Alg)
	}

	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		key:        []byte(cfg.SecretKey),
		alg:        alg,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		revoked:    revoked,
	}, nil
}

func (m *TokenManager) GeneratePair(_ context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	registered := func(expiresAt time.Time) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		}
	}

	access, err := jwt.NewWithClaims(m.alg, AccessTokenClaims{
		RegisteredClaims: registered(accessExpiresAt),
		Type:             models.TokenTypeAccess,
		Role:             user.Role,
		Name:             user.FullName,
	}).SignedString(m.key)
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refresh, err := jwt.NewWithClaims(m.alg, RefreshTokenClaims{
		RegisteredClaims: registered(refreshExpiresAt),
		Type:             models.TokenTypeRefresh,
	}).SignedString(m.key)
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

func (m *TokenManager) parse(tokenString string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	return err
}

// Parse and validate access token
func (m *TokenManager) ParseAccess(_ context.Context, access string) (uuid.UUID, error) {
	claims := &AccessTokenClaims{}

	err := m.parse(access, claims)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrAccessTokenInvalid, err)
	}
	if claims.Type != models.TokenTypeAccess {
		return uuid.Nil, fmt.Errorf("%w: not an access token", apperrors.ErrAccessTokenInvalid)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrAccessTokenInvalid, err)
	}

	return userID, nil
}

func (m *TokenManager) parseRefresh(refresh string) (models.RefreshClaims, error) {
	claims := &RefreshTokenClaims{}

	err := m.parse(refresh, claims)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.RefreshClaims{}, apperrors.ErrRefreshTokenExpired
	case err != nil:
		return models.RefreshClaims{}, fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenInvalid, err)
	case claims.Type != models.TokenTypeRefresh || claims.ID == "":
		return models.RefreshClaims{}, apperrors.ErrRefreshTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.RefreshClaims{}, fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenInvalid, err)
	}

	return models.RefreshClaims{
		TokenID:   claims.ID,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Use token: return its claims if it valid and revoke it, so it can't be used twice
func (m *TokenManager) UseRefresh(ctx context.Context, refresh string) (models.RefreshClaims, error) {
	claims, err := m.parseRefresh(refresh)
	if err != nil {
		return claims, err
	}

	err = m.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt)
	if err != nil {
		return claims, fmt.Errorf("error while marking token used. Err: %w", err)
	}

	return claims, nil
}

// Revoke refresh token. Revoking used token again is ok
func (m *TokenManager) RevokeRefresh(ctx context.Context, refresh string) error {
	_, err := m.UseRefresh(ctx, refresh)
	if errors.Is(err, apperrors.ErrRefreshTokenIsUsed) {
		return nil
	}
	return err
}

func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}
