package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/savingapp/internal/apperrors"
	"github.com/nkiryanov/savingapp/internal/models"
	"github.com/nkiryanov/savingapp/internal/repository"
	"github.com/nkiryanov/savingapp/internal/service/auth"
)

type CreateParams struct {
	FullName string
	Email    string
	Password string
	Role     models.Role
	Address  string
	Phone    string
}

type ProfileParams struct {
	FullName string
	Email    string
	Address  string
	Phone    string
}

type ListParams struct {
	Keyword string
	SortBy  string // fullName (default), email or createdAt
	Desc    bool
	Page    models.PageRequest
}

type UserService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

func (s *UserService) CreateUser(ctx context.Context, p CreateParams) (models.User, error) {
	var user models.User
	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	// Savepoint when called within a transaction, so a duplicate email does not abort it
	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		user, err = tx.User().Create(ctx, models.User{
			ID:             uuid.New(),
			CreatedAt:      time.Now().UTC(),
			FullName:       p.FullName,
			Email:          p.Email,
			HashedPassword: hash,
			Role:           p.Role,
			Address:        p.Address,
			Phone:          p.Phone,
		})
		return err
	})
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

func (s *UserService) CreateNasabah(ctx context.Context, p CreateParams) (models.User, error) {
	p.Role = models.RoleNasabah
	return s.CreateUser(ctx, p)
}

// Create admin with the email unless user with this email exists already
func (s *UserService) EnsureAdmin(ctx context.Context, email string, password string) (created bool, err error) {
	_, err = s.storage.User().GetByEmail(ctx, email)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return false, err
	}

	_, err = s.CreateUser(ctx, CreateParams{
		FullName: "Administrator",
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
	if errors.Is(err, apperrors.ErrUserAlreadyExists) {
		return false, nil
	}

	return err == nil, err
}

func (s *UserService) GetNasabah(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, err := s.storage.User().GetByID(ctx, id)
	if err != nil {
		return user, err
	}
	if user.Role != models.RoleNasabah {
		return user, apperrors.ErrUserNotNasabah
	}
	return user, nil
}

func (s *UserService) ListNasabah(ctx context.Context, p ListParams) (models.Page[models.User], error) {
	return s.storage.User().List(ctx, models.UserFilter{
		Role:    models.RoleNasabah,
		Keyword: p.Keyword,
		SortBy:  p.SortBy,
		Desc:    p.Desc,
		Page:    p.Page,
	})
}

func (s *UserService) DeleteNasabah(ctx context.Context, id uuid.UUID) error {
	return s.storage.InTx(ctx, func(tx repository.Storage) error {
		user, err := tx.User().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user.Role != models.RoleNasabah {
			return apperrors.ErrUserNotNasabah
		}
		return tx.User().Delete(ctx, id)
	})
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileParams) (models.User, error) {
	user, err := s.storage.User().GetByID(ctx, id)
	if err != nil {
		return user, err
	}

	user.FullName = p.FullName
	user.Email = p.Email
	user.Address = p.Address
	user.Phone = p.Phone

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		user, err = tx.User().Update(ctx, user)
		return err
	})
	return user, err
}

// Admin edit of nasabah profile. Other roles are apperrors.ErrUserNotNasabah
func (s *UserService) UpdateNasabah(ctx context.Context, id uuid.UUID, p ProfileParams) (models.User, error) {
	if _, err := s.GetNasabah(ctx, id); err != nil {
		return models.User{}, err
	}
	return s.UpdateProfile(ctx, id, p)
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword string, newPassword string) error {
	user, err := s.storage.User().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, oldPassword); err != nil {
		return apperrors.ErrPasswordMismatch
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, Err: %w", err)
	}

	return s.storage.User().SetPassword(ctx, id, hash)
}
