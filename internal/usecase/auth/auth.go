package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/internal/infrastructure"
	"github.com/xueshanchen/picbed/internal/repo"
	"github.com/xueshanchen/picbed/internal/usecase"
	"github.com/xueshanchen/picbed/pkg/logger"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

// Options holds the account settings supplied from configuration.
type Options struct {
	PasswordSecret string
	AdminUsername  string
	AdminPassword  string
	AdminEmail     string
	CascadeDelete  bool
}

type UseCase struct {
	userRepo repo.UserRepo
	codec    infrastructure.TokenCodec
	images   usecase.ImageUseCase

	opts Options

	logger logger.Interface
}

func New(
	userRepo repo.UserRepo,
	codec infrastructure.TokenCodec,
	images usecase.ImageUseCase,
	opts Options,
	l logger.Interface,
) *UseCase {
	return &UseCase{
		userRepo: userRepo,
		codec:    codec,
		images:   images,
		opts:     opts,
		logger:   l,
	}
}

// Login checks credentials and mints a bearer token. Unknown username,
// wrong password and inactive account all collapse into
// errs.ErrInvalidCredentials; the password is hashed before the user
// lookup result is consulted so the two paths cost the same.
func (uc *UseCase) Login(ctx context.Context, username, password string) (string, *entity.User, error) {
	hash := uc.hashPassword(password)

	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("AuthUseCase - Login: %w", errs.ErrInvalidCredentials)
		}

		return "", nil, fmt.Errorf("AuthUseCase - Login - uc.userRepo.GetByUsername: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(hash), []byte(user.PasswordHash)) != 1 {
		return "", nil, fmt.Errorf("AuthUseCase - Login: %w", errs.ErrInvalidCredentials)
	}

	if !user.IsActive {
		return "", nil, fmt.Errorf("AuthUseCase - Login: %w", errs.ErrInvalidCredentials)
	}

	if err := uc.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		uc.logger.Error(err, "AuthUseCase - Login - uc.userRepo.UpdateLastLogin")
	}

	token, err := uc.codec.Mint(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("AuthUseCase - Login - uc.codec.Mint: %w", err)
	}

	return token, user, nil
}

// Register creates an account and logs it straight in.
func (uc *UseCase) Register(ctx context.Context, username, password string, email *string) (string, *entity.User, error) {
	_, err := uc.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return "", nil, fmt.Errorf("AuthUseCase - Register: %w", errs.ErrUsernameTaken)
	}
	if !errors.Is(err, errs.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("AuthUseCase - Register - uc.userRepo.GetByUsername: %w", err)
	}

	if email != nil && *email != "" {
		taken, err := uc.userRepo.ExistsByEmail(ctx, *email)
		if err != nil {
			return "", nil, fmt.Errorf("AuthUseCase - Register - uc.userRepo.ExistsByEmail: %w", err)
		}
		if taken {
			return "", nil, fmt.Errorf("AuthUseCase - Register: %w", errs.ErrEmailTaken)
		}
	}

	user := uc.newUser(username, password, email)

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return "", nil, fmt.Errorf("AuthUseCase - Register - uc.userRepo.Create: %w", err)
	}

	token, err := uc.codec.Mint(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("AuthUseCase - Register - uc.codec.Mint: %w", err)
	}

	return token, user, nil
}

// Validate verifies the token and resolves it to a live account.
func (uc *UseCase) Validate(ctx context.Context, token string) (*entity.User, error) {
	identity, err := uc.codec.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("AuthUseCase - Validate - uc.codec.Verify: %w", err)
	}

	user, err := uc.userRepo.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return nil, fmt.Errorf("AuthUseCase - Validate: %w", errs.ErrInvalidToken)
		}

		return nil, fmt.Errorf("AuthUseCase - Validate - uc.userRepo.GetByID: %w", err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("AuthUseCase - Validate: %w", errs.ErrInvalidToken)
	}

	return user, nil
}

// DeleteUser removes an account. Admin only; the admin account itself
// cannot be deleted. With cascade enabled the user's images go first.
func (uc *UseCase) DeleteUser(ctx context.Context, caller *entity.User, id uuid.UUID) error {
	if !uc.IsAdmin(caller) {
		return fmt.Errorf("AuthUseCase - DeleteUser: %w", errs.ErrNotAllowed)
	}

	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("AuthUseCase - DeleteUser - uc.userRepo.GetByID: %w", err)
	}

	if user.Username == uc.opts.AdminUsername {
		return fmt.Errorf("AuthUseCase - DeleteUser: %w", errs.ErrNotAllowed)
	}

	if uc.opts.CascadeDelete {
		if err := uc.images.DeleteAllByUser(ctx, id); err != nil {
			return fmt.Errorf("AuthUseCase - DeleteUser - uc.images.DeleteAllByUser: %w", err)
		}
	}

	if err := uc.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("AuthUseCase - DeleteUser - uc.userRepo.Delete: %w", err)
	}

	return nil
}

// EnsureAdmin seeds the admin account on an empty user table.
func (uc *UseCase) EnsureAdmin(ctx context.Context) error {
	count, err := uc.userRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("AuthUseCase - EnsureAdmin - uc.userRepo.Count: %w", err)
	}
	if count > 0 {
		return nil
	}

	var email *string
	if uc.opts.AdminEmail != "" {
		email = &uc.opts.AdminEmail
	}

	admin := uc.newUser(uc.opts.AdminUsername, uc.opts.AdminPassword, email)

	if err := uc.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("AuthUseCase - EnsureAdmin - uc.userRepo.Create: %w", err)
	}

	uc.logger.Info("seeded admin account %q", admin.Username)

	return nil
}

func (uc *UseCase) IsAdmin(user *entity.User) bool {
	return user != nil && user.Username == uc.opts.AdminUsername
}

func (uc *UseCase) newUser(username, password string, email *string) *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: uc.hashPassword(password),
		Email:        email,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
}

func (uc *UseCase) hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password + uc.opts.PasswordSecret))

	return base64.StdEncoding.EncodeToString(sum[:])
}
