package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/pkg/postgres"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

const (
	// Table
	usersTable = "users"

	// Columns
	userIDCol       = "id"
	usernameColumn  = "username"
	passwordColumn  = "password_hash"
	emailColumn     = "email"
	isActiveColumn  = "is_active"
	createdAtColumn = "created_at"
	lastLoginColumn = "last_login_at"
)

var userColumns = []string{
	userIDCol,
	usernameColumn,
	passwordColumn,
	emailColumn,
	isActiveColumn,
	createdAtColumn,
	lastLoginColumn,
}

type UserRepo struct {
	*postgres.Postgres
}

func NewUserRepo(pg *postgres.Postgres) *UserRepo {
	return &UserRepo{pg}
}

func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	sql, args, err := r.Builder.
		Insert(usersTable).
		Columns(userColumns...).
		Values(
			user.ID,
			user.Username,
			user.PasswordHash,
			user.Email,
			user.IsActive,
			user.CreatedAt,
			user.LastLoginAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("UserRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("UserRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.getOne(ctx, squirrel.Eq{userIDCol: id}, "GetByID")
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, squirrel.Eq{usernameColumn: username}, "GetByUsername")
}

func (r *UserRepo) getOne(ctx context.Context, where squirrel.Eq, op string) (*entity.User, error) {
	sql, args, err := r.Builder.
		Select(userColumns...).
		From(usersTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("UserRepo - %s - r.Builder.ToSql: %w", op, err)
	}

	executor := r.GetExecutor(ctx)

	var user entity.User
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Email,
		&user.IsActive,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("UserRepo - %s: %w", op, errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("UserRepo - %s - executor.QueryRow: %w", op, err)
	}

	return &user, nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	sql, args, err := r.Builder.
		Select("COUNT(*)").
		From(usersTable).
		Where(squirrel.Eq{emailColumn: email}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("UserRepo - ExistsByEmail - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var count int
	err = executor.QueryRow(ctx, sql, args...).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("UserRepo - ExistsByEmail - executor.QueryRow: %w", err)
	}

	return count > 0, nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	sql, args, err := r.Builder.
		Select("COUNT(*)").
		From(usersTable).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("UserRepo - Count - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var count int
	err = executor.QueryRow(ctx, sql, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("UserRepo - Count - executor.QueryRow: %w", err)
	}

	return count, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Update(usersTable).
		Set(lastLoginColumn, time.Now()).
		Where(squirrel.Eq{userIDCol: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("UserRepo - UpdateLastLogin - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("UserRepo - UpdateLastLogin - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("UserRepo - UpdateLastLogin: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(usersTable).
		Where(squirrel.Eq{userIDCol: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("UserRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("UserRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("UserRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}
