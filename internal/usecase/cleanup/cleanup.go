package cleanup

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/internal/repo"
	"github.com/xueshanchen/picbed/pkg/logger"
)

// UseCase reconciles orphan blobs: markers written by a failed upload
// or delete are drained here, batch by batch.
type UseCase struct {
	cleanupRepo repo.CleanupRepo
	blobStore   repo.BlobStore

	logger logger.Interface
}

func New(cleanupRepo repo.CleanupRepo, blobStore repo.BlobStore, l logger.Interface) *UseCase {
	return &UseCase{
		cleanupRepo: cleanupRepo,
		blobStore:   blobStore,
		logger:      l,
	}
}

func (uc *UseCase) GetPendingMarkers(ctx context.Context, maxRetries, limit int) ([]*entity.CleanupMarker, error) {
	markers, err := uc.cleanupRepo.GetPending(ctx, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("CleanupUseCase - GetPendingMarkers - uc.cleanupRepo.GetPending: %w", err)
	}

	return markers, nil
}

func (uc *UseCase) MarkProcessing(ctx context.Context, markers []*entity.CleanupMarker) error {
	err := uc.cleanupRepo.MarkProcessing(ctx, markerIDs(markers))
	if err != nil {
		return fmt.Errorf("CleanupUseCase - MarkProcessing - uc.cleanupRepo.MarkProcessing: %w", err)
	}

	return nil
}

// ReapMarker deletes the blob the marker points at. A blob that is
// already gone counts as reaped.
func (uc *UseCase) ReapMarker(ctx context.Context, marker *entity.CleanupMarker) error {
	_, err := uc.blobStore.Delete(ctx, marker.BlobKey)
	if err != nil {
		return fmt.Errorf("CleanupUseCase - ReapMarker - uc.blobStore.Delete: %w", err)
	}

	return nil
}

func (uc *UseCase) MarkProcessed(ctx context.Context, markers []*entity.CleanupMarker) error {
	err := uc.cleanupRepo.MarkProcessed(ctx, markerIDs(markers))
	if err != nil {
		return fmt.Errorf("CleanupUseCase - MarkProcessed - uc.cleanupRepo.MarkProcessed: %w", err)
	}

	return nil
}

func (uc *UseCase) IncrementRetry(ctx context.Context, markers []*entity.CleanupMarker) error {
	err := uc.cleanupRepo.IncrementRetry(ctx, markerIDs(markers))
	if err != nil {
		return fmt.Errorf("CleanupUseCase - IncrementRetry - uc.cleanupRepo.IncrementRetry: %w", err)
	}

	return nil
}

func (uc *UseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	err := uc.cleanupRepo.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("CleanupUseCase - MarkMaxRetriesAsFailed - uc.cleanupRepo.MarkMaxRetriesAsFailed: %w", err)
	}

	return nil
}

func (uc *UseCase) PurgeTerminal(ctx context.Context) error {
	purged, err := uc.cleanupRepo.PurgeTerminal(ctx)
	if err != nil {
		return fmt.Errorf("CleanupUseCase - PurgeTerminal - uc.cleanupRepo.PurgeTerminal: %w", err)
	}

	if purged > 0 {
		uc.logger.Info("purged %d terminal cleanup markers", purged)
	}

	return nil
}

func markerIDs(markers []*entity.CleanupMarker) uuid.UUIDs {
	ids := make(uuid.UUIDs, 0, len(markers))
	for _, m := range markers {
		ids = append(ids, m.ID)
	}

	return ids
}
