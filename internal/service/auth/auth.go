package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/repository"
)

const (
	defaultAccessHeaderName = "Authorization"
	defaultAccessAuthScheme = "Bearer"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

var DefaultHasher PasswordHasher = BcryptHasher{}

type tokenManager interface {
	GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error)
	ParseAccess(ctx context.Context, access string) (uuid.UUID, error)
	UseRefresh(ctx context.Context, refresh string) (models.RefreshClaims, error)
	RevokeRefresh(ctx context.Context, refresh string) error
}

type Config struct {
	// Header to read access token from and its scheme
	// Defaults are 'Authorization' and 'Bearer'
	AccessHeaderName string
	AccessAuthScheme string

	Hasher PasswordHasher
}

// Auth service
type AuthService struct {
	accessHeaderName string
	accessAuthScheme string

	// Manager to issue token pairs (access and refresh)
	tokens tokenManager

	// hasher to compare user passwords
	hasher PasswordHasher

	users repository.UserRepo
}

func NewService(cfg Config, tokens tokenManager, users repository.UserRepo) (*AuthService, error) {
	if cfg.AccessHeaderName == "" {
		cfg.AccessHeaderName = defaultAccessHeaderName
	}
	if cfg.AccessAuthScheme == "" {
		cfg.AccessAuthScheme = defaultAccessAuthScheme
	}
	if cfg.Hasher == nil {
		cfg.Hasher = DefaultHasher
	}

	return &AuthService{
		accessHeaderName: cfg.AccessHeaderName,
		accessAuthScheme: cfg.AccessAuthScheme,
		tokens:           tokens,
		hasher:           cfg.Hasher,
		users:            users,
	}, nil
}

// Login user with email and password
// Unknown email and wrong password both are apperrors.ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.TokenPair, models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.TokenPair{}, user, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.TokenPair{}, user, fmt.Errorf("can't get user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, user, apperrors.ErrInvalidCredentials
	}

	pair, err := s.tokens.GeneratePair(ctx, user)
	if err != nil {
		return pair, user, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, user, nil
}

// Exchange refresh token for a new pair. The old refresh token is revoked
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	claims, err := s.tokens.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("refresh token owner: %w", err)
	}

	return s.tokens.GeneratePair(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	return s.tokens.RevokeRefresh(ctx, refresh)
}

// Get request and return user if it authenticated or error
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(s.accessHeaderName)
	scheme, access, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, s.accessAuthScheme) || access == "" {
		return models.User{}, apperrors.ErrAccessTokenInvalid
	}

	userID, err := s.tokens.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", apperrors.ErrAccessTokenInvalid, err)
	}

	return user, nil
}
