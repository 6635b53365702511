package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/pkg/postgres"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

const (
	// Table
	cleanupTable = "blob_cleanup"

	// Columns
	cleanupIDColumn          = "id"
	cleanupBlobKeyColumn     = "blob_key"
	cleanupStatusColumn      = "status"
	cleanupCreatedAtColumn   = "created_at"
	cleanupProcessedAtColumn = "processed_at"
	cleanupRetryCountColumn  = "retry_count"
)

type CleanupRepo struct {
	*postgres.Postgres
}

func NewCleanupRepo(pg *postgres.Postgres) *CleanupRepo {
	return &CleanupRepo{pg}
}

func (r *CleanupRepo) Create(ctx context.Context, marker *entity.CleanupMarker) error {
	sql, args, err := r.Builder.
		Insert(cleanupTable).
		Columns(
			cleanupIDColumn,
			cleanupBlobKeyColumn,
			cleanupStatusColumn,
			cleanupCreatedAtColumn,
			cleanupRetryCountColumn,
		).
		Values(
			marker.ID,
			marker.BlobKey,
			marker.Status,
			marker.CreatedAt,
			marker.RetryCount,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("CleanupRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("CleanupRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *CleanupRepo) GetPending(ctx context.Context, maxRetries, limit int) ([]*entity.CleanupMarker, error) {
	sql, args, err := r.Builder.
		Select(
			cleanupIDColumn,
			cleanupBlobKeyColumn,
			cleanupStatusColumn,
			cleanupCreatedAtColumn,
			cleanupProcessedAtColumn,
			cleanupRetryCountColumn,
		).
		From(cleanupTable).
		Where(squirrel.And{
			squirrel.Eq{cleanupStatusColumn: entity.Pending},
			squirrel.Lt{cleanupRetryCountColumn: maxRetries},
		}).
		OrderBy(cleanupCreatedAtColumn + " ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("CleanupRepo - GetPending - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("CleanupRepo - GetPending - executor.Query: %w", err)
	}
	defer rows.Close()

	markers := make([]*entity.CleanupMarker, 0, limit)
	for rows.Next() {
		var marker entity.CleanupMarker
		err = rows.Scan(
			&marker.ID,
			&marker.BlobKey,
			&marker.Status,
			&marker.CreatedAt,
			&marker.ProcessedAt,
			&marker.RetryCount,
		)
		if err != nil {
			return nil, fmt.Errorf("CleanupRepo - GetPending - rows.Scan: %w", err)
		}
		markers = append(markers, &marker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("CleanupRepo - GetPending - rows.Err: %w", err)
	}

	return markers, nil
}

// MarkProcessing claims markers; processed_at is stamped only when the
// reap completes, in MarkProcessed.
func (r *CleanupRepo) MarkProcessing(ctx context.Context, ids uuid.UUIDs) error {
	return r.exec(ctx, r.statusUpdate(ids, entity.Processing), "MarkProcessing")
}

func (r *CleanupRepo) MarkProcessed(ctx context.Context, ids uuid.UUIDs) error {
	return r.exec(ctx, r.processedUpdate(ids), "MarkProcessed")
}

func (r *CleanupRepo) processedUpdate(ids uuid.UUIDs) squirrel.UpdateBuilder {
	return r.statusUpdate(ids, entity.Processed).
		Set(cleanupProcessedAtColumn, time.Now())
}

func (r *CleanupRepo) statusUpdate(ids uuid.UUIDs, status entity.Status) squirrel.UpdateBuilder {
	return r.Builder.
		Update(cleanupTable).
		Set(cleanupStatusColumn, status).
		Where(squirrel.Eq{cleanupIDColumn: ids})
}

func (r *CleanupRepo) exec(ctx context.Context, update squirrel.UpdateBuilder, op string) error {
	sql, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("CleanupRepo - %s - update.ToSql: %w", op, err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("CleanupRepo - %s - executor.Exec: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("CleanupRepo - %s: %w", op, errs.ErrRecordNotFound)
	}

	return nil
}

func (r *CleanupRepo) IncrementRetry(ctx context.Context, ids uuid.UUIDs) error {
	sql, args, err := r.Builder.
		Update(cleanupTable).
		Set(cleanupRetryCountColumn, squirrel.Expr(cleanupRetryCountColumn+" + 1")).
		Set(cleanupStatusColumn, entity.Pending).
		Where(squirrel.Eq{cleanupIDColumn: ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("CleanupRepo - IncrementRetry - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("CleanupRepo - IncrementRetry - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("CleanupRepo - IncrementRetry: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *CleanupRepo) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	sql, args, err := r.Builder.
		Update(cleanupTable).
		Set(cleanupStatusColumn, entity.Failed).
		Where(squirrel.And{
			squirrel.Eq{cleanupStatusColumn: string(entity.Pending)},
			squirrel.GtOrEq{cleanupRetryCountColumn: maxRetries},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("CleanupRepo - MarkMaxRetriesAsFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("CleanupRepo - MarkMaxRetriesAsFailed - executor.Exec: %w", err)
	}

	return nil
}

func (r *CleanupRepo) PurgeTerminal(ctx context.Context) (int64, error) {
	sql, args, err := r.Builder.
		Delete(cleanupTable).
		Where(squirrel.Or{
			squirrel.Eq{cleanupStatusColumn: string(entity.Processed)},
			squirrel.Eq{cleanupStatusColumn: string(entity.Failed)},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("CleanupRepo - PurgeTerminal - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("CleanupRepo - PurgeTerminal - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}
