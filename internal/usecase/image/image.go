package image

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xueshanchen/picbed/internal/dto"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/internal/infrastructure"
	"github.com/xueshanchen/picbed/internal/repo"
	"github.com/xueshanchen/picbed/pkg/logger"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

// Limits holds the upload constraints supplied from configuration.
type Limits struct {
	MaxFileSize       int64
	AllowedExtensions []string
	AdminUsername     string
	UserQuota         int
}

type UseCase struct {
	blobStore    repo.BlobStore
	metadataRepo repo.ImageMetadataRepo
	cleanupRepo  repo.CleanupRepo
	transactor   repo.Transactor
	processor    infrastructure.ThumbnailProcessor

	limits     Limits
	allowedExt map[string]bool

	logger logger.Interface
}

func New(
	blobStore repo.BlobStore,
	metadataRepo repo.ImageMetadataRepo,
	cleanupRepo repo.CleanupRepo,
	transactor repo.Transactor,
	processor infrastructure.ThumbnailProcessor,
	limits Limits,
	l logger.Interface,
) *UseCase {
	allowed := make(map[string]bool, len(limits.AllowedExtensions))
	for _, ext := range limits.AllowedExtensions {
		allowed[strings.ToLower(ext)] = true
	}

	return &UseCase{
		blobStore:    blobStore,
		metadataRepo: metadataRepo,
		cleanupRepo:  cleanupRepo,
		transactor:   transactor,
		processor:    processor,
		limits:       limits,
		allowedExt:   allowed,
		logger:       l,
	}
}

// Upload runs the pipeline: validate, quota check, key generation,
// thumbnail, blob writes, metadata commit. The metadata row is written
// only after both blobs are stored, so no record ever references a
// missing blob. Orphan blobs from a partial failure are handed to the
// cleanup reconciler. Returns the stored record and its serving URL.
func (uc *UseCase) Upload(ctx context.Context, owner *entity.User, upload dto.UploadImage) (*entity.Image, string, error) {
	// 1. validation, before any I/O
	if int64(len(upload.Data)) > uc.limits.MaxFileSize {
		return nil, "", fmt.Errorf("ImageUseCase - Upload: %w", errs.ErrFileTooLarge)
	}

	ext := strings.ToLower(filepath.Ext(upload.OriginalFileName))
	if !uc.allowedExt[ext] {
		return nil, "", fmt.Errorf("ImageUseCase - Upload: %w", errs.ErrExtensionNotAllowed)
	}

	// 2. quota: one image per user, admin unbounded. Two concurrent
	// uploads can both pass this check before either commits; the
	// store's isolation is the only guard (accepted limitation).
	if owner.Username != uc.limits.AdminUsername {
		count, err := uc.metadataRepo.CountByUser(ctx, owner.ID)
		if err != nil {
			return nil, "", fmt.Errorf("ImageUseCase - Upload - uc.metadataRepo.CountByUser: %w", err)
		}
		if count >= uc.limits.UserQuota {
			return nil, "", fmt.Errorf("ImageUseCase - Upload: %w", errs.ErrUploadQuotaExceeded)
		}
	}

	// 3. collision-resistant key; random 128 bits, no retry loop
	fileName := uuid.New().String() + ext
	thumbKey := entity.ThumbnailKeyFor(fileName)

	// 4. thumbnail first, so undecodable input fails before any write
	processed, err := uc.processor.Process(upload.Data)
	if err != nil {
		return nil, "", fmt.Errorf("ImageUseCase - Upload - uc.processor.Process: %w", err)
	}

	err = uc.blobStore.Put(ctx, fileName, bytes.NewReader(upload.Data), upload.ContentType, int64(len(upload.Data)))
	if err != nil {
		return nil, "", fmt.Errorf("ImageUseCase - Upload - uc.blobStore.Put: %w", err)
	}

	thumbType := "image/" + processed.ThumbnailFormat
	err = uc.blobStore.Put(ctx, thumbKey, bytes.NewReader(processed.Thumbnail), thumbType, int64(len(processed.Thumbnail)))
	if err != nil {
		uc.reclaim(ctx, fileName)

		return nil, "", fmt.Errorf("ImageUseCase - Upload - uc.blobStore.Put thumbnail: %w", err)
	}

	// 5. metadata commit
	image := &entity.Image{
		ID:               uuid.New(),
		FileName:         fileName,
		OriginalFileName: upload.OriginalFileName,
		FileExtension:    ext,
		FileSize:         int64(len(upload.Data)),
		Width:            processed.Width,
		Height:           processed.Height,
		MimeType:         upload.ContentType,
		Description:      upload.Description,
		Category:         upload.Category,
		UserID:           owner.ID,
		UploadTime:       time.Now(),
		IsPublic:         true,
	}

	err = uc.metadataRepo.Create(ctx, image)
	if err != nil {
		uc.reclaim(ctx, fileName)
		uc.reclaim(ctx, thumbKey)

		return nil, "", fmt.Errorf("ImageUseCase - Upload - uc.metadataRepo.Create: %w", err)
	}

	url, err := uc.blobStore.URL(ctx, fileName)
	if err != nil {
		uc.logger.Error(err, "ImageUseCase - Upload - uc.blobStore.URL")

		url = ""
	}

	return image, url, nil
}

// reclaim best-effort deletes a blob and, when the delete fails, leaves
// a marker for the reconciler. Failures here are logged, never escalated.
func (uc *UseCase) reclaim(ctx context.Context, key string) {
	_, err := uc.blobStore.Delete(ctx, key)
	if err == nil {
		return
	}

	uc.logger.Error(err, "ImageUseCase - reclaim - uc.blobStore.Delete")

	markerErr := uc.cleanupRepo.Create(ctx, &entity.CleanupMarker{
		ID:        uuid.New(),
		BlobKey:   key,
		Status:    entity.Pending,
		CreatedAt: time.Now(),
	})
	if markerErr != nil {
		uc.logger.Error(markerErr, "ImageUseCase - reclaim - uc.cleanupRepo.Create")
	}
}

func (uc *UseCase) GetInfo(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	image, err := uc.metadataRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - GetInfo - uc.metadataRepo.GetByID: %w", err)
	}

	return image, nil
}

func (uc *UseCase) GetInfoByFileName(ctx context.Context, fileName string) (*entity.Image, error) {
	image, err := uc.metadataRepo.GetByFileName(ctx, fileName)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - GetInfoByFileName - uc.metadataRepo.GetByFileName: %w", err)
	}

	return image, nil
}

// List returns the page ordered by upload time descending.
func (uc *UseCase) List(ctx context.Context, q dto.ListImages) ([]*entity.Image, error) {
	q.Normalize()

	images, err := uc.metadataRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - List - uc.metadataRepo.List: %w", err)
	}

	return images, nil
}

// Delete removes thumbnail blob, original blob, then the metadata row.
// A missing record reports not found without touching storage.
func (uc *UseCase) Delete(ctx context.Context, id uuid.UUID) error {
	image, err := uc.metadataRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("ImageUseCase - Delete - uc.metadataRepo.GetByID: %w", err)
	}

	uc.reclaim(ctx, image.ThumbnailKey())
	uc.reclaim(ctx, image.FileName)

	err = uc.metadataRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("ImageUseCase - Delete - uc.metadataRepo.Delete: %w", err)
	}

	return nil
}

// DeleteAllByUser removes every image a user owns: rows in one
// transaction, blobs best-effort afterwards.
func (uc *UseCase) DeleteAllByUser(ctx context.Context, userID uuid.UUID) error {
	keys, err := uc.metadataRepo.ListKeysByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("ImageUseCase - DeleteAllByUser - uc.metadataRepo.ListKeysByUser: %w", err)
	}

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := uc.metadataRepo.DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("ImageUseCase - DeleteAllByUser - uc.metadataRepo.DeleteByUser: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("ImageUseCase - DeleteAllByUser - uc.transactor.WithinTransaction: %w", err)
	}

	for _, key := range keys {
		uc.reclaim(ctx, entity.ThumbnailKeyFor(key))
		uc.reclaim(ctx, key)
	}

	return nil
}

func (uc *UseCase) Stream(ctx context.Context, fileName string) (io.ReadCloser, error) {
	body, err := uc.blobStore.Get(ctx, fileName)
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - Stream - uc.blobStore.Get: %w", err)
	}

	return body, nil
}

func (uc *UseCase) StreamThumbnail(ctx context.Context, fileName string) (io.ReadCloser, error) {
	body, err := uc.blobStore.Get(ctx, entity.ThumbnailKeyFor(fileName))
	if err != nil {
		return nil, fmt.Errorf("ImageUseCase - StreamThumbnail - uc.blobStore.Get: %w", err)
	}

	return body, nil
}
