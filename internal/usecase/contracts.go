package usecase

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/xueshanchen/picbed/internal/dto"
	"github.com/xueshanchen/picbed/internal/entity"
)

type (
	ImageUseCase interface {
		Upload(ctx context.Context, owner *entity.User, upload dto.UploadImage) (*entity.Image, string, error)
		GetInfo(ctx context.Context, id uuid.UUID) (*entity.Image, error)
		GetInfoByFileName(ctx context.Context, fileName string) (*entity.Image, error)
		List(ctx context.Context, q dto.ListImages) ([]*entity.Image, error)
		Delete(ctx context.Context, id uuid.UUID) error
		DeleteAllByUser(ctx context.Context, userID uuid.UUID) error
		Stream(ctx context.Context, fileName string) (io.ReadCloser, error)
		StreamThumbnail(ctx context.Context, fileName string) (io.ReadCloser, error)
	}

	AuthUseCase interface {
		Login(ctx context.Context, username, password string) (string, *entity.User, error)
		Register(ctx context.Context, username, password string, email *string) (string, *entity.User, error)
		Validate(ctx context.Context, token string) (*entity.User, error)
		DeleteUser(ctx context.Context, caller *entity.User, id uuid.UUID) error
		EnsureAdmin(ctx context.Context) error
		IsAdmin(user *entity.User) bool
	}

	CleanupUseCase interface {
		GetPendingMarkers(ctx context.Context, maxRetries, limit int) ([]*entity.CleanupMarker, error)
		MarkProcessing(ctx context.Context, markers []*entity.CleanupMarker) error
		ReapMarker(ctx context.Context, marker *entity.CleanupMarker) error
		MarkProcessed(ctx context.Context, markers []*entity.CleanupMarker) error
		IncrementRetry(ctx context.Context, markers []*entity.CleanupMarker) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		PurgeTerminal(ctx context.Context) error
	}
)
