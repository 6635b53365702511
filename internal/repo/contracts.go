package repo

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/xueshanchen/picbed/internal/dto"
	"github.com/xueshanchen/picbed/internal/entity"
)

type (
	// BlobStore is the storage backend contract. Exactly one concrete
	// implementation (local filesystem or S3) is instantiated at
	// process start; all higher-level code depends only on this
	// interface so originals and thumbnails stay retrievable by the
	// same key scheme regardless of backend.
	BlobStore interface {
		Put(ctx context.Context, key string, data io.Reader, contentType string, size int64) error
		// Get returns errs.ErrRecordNotFound when no blob exists under key.
		Get(ctx context.Context, key string) (io.ReadCloser, error)
		// Delete reports whether the blob existed.
		Delete(ctx context.Context, key string) (bool, error)
		URL(ctx context.Context, key string) (string, error)
	}

	ImageMetadataRepo interface {
		Create(ctx context.Context, image *entity.Image) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error)
		GetByFileName(ctx context.Context, fileName string) (*entity.Image, error)
		List(ctx context.Context, q dto.ListImages) ([]*entity.Image, error)
		CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
		ListKeysByUser(ctx context.Context, userID uuid.UUID) ([]string, error)
		Delete(ctx context.Context, id uuid.UUID) error
		DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	}

	UserRepo interface {
		Create(ctx context.Context, user *entity.User) error
		GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
		GetByUsername(ctx context.Context, username string) (*entity.User, error)
		ExistsByEmail(ctx context.Context, email string) (bool, error)
		Count(ctx context.Context) (int, error)
		UpdateLastLogin(ctx context.Context, id uuid.UUID) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	CleanupRepo interface {
		Create(ctx context.Context, marker *entity.CleanupMarker) error
		GetPending(ctx context.Context, maxRetries, limit int) ([]*entity.CleanupMarker, error)
		MarkProcessing(ctx context.Context, ids uuid.UUIDs) error
		MarkProcessed(ctx context.Context, ids uuid.UUIDs) error
		IncrementRetry(ctx context.Context, ids uuid.UUIDs) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		PurgeTerminal(ctx context.Context) (int64, error)
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
