package persistent

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/xueshanchen/picbed/internal/dto"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/pkg/postgres"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

const (
	// Table
	imagesTable = "images"

	// Columns
	idColumn               = "id"
	fileNameColumn         = "file_name"
	originalFileNameColumn = "original_file_name"
	fileExtensionColumn    = "file_extension"
	fileSizeColumn         = "file_size"
	widthColumn            = "width"
	heightColumn           = "height"
	mimeTypeColumn         = "mime_type"
	descriptionColumn      = "description"
	categoryColumn         = "category"
	userIDColumn           = "user_id"
	uploadTimeColumn       = "upload_time"
	isPublicColumn         = "is_public"
)

var imageColumns = []string{
	idColumn,
	fileNameColumn,
	originalFileNameColumn,
	fileExtensionColumn,
	fileSizeColumn,
	widthColumn,
	heightColumn,
	mimeTypeColumn,
	descriptionColumn,
	categoryColumn,
	userIDColumn,
	uploadTimeColumn,
	isPublicColumn,
}

type ImageMetadataRepo struct {
	*postgres.Postgres
}

func NewImageMetadataRepo(pg *postgres.Postgres) *ImageMetadataRepo {
	return &ImageMetadataRepo{pg}
}

func (r *ImageMetadataRepo) Create(ctx context.Context, image *entity.Image) error {
	sql, args, err := r.Builder.
		Insert(imagesTable).
		Columns(imageColumns...).
		Values(
			image.ID,
			image.FileName,
			image.OriginalFileName,
			image.FileExtension,
			image.FileSize,
			image.Width,
			image.Height,
			image.MimeType,
			image.Description,
			image.Category,
			image.UserID,
			image.UploadTime,
			image.IsPublic,
		).ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *ImageMetadataRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	return r.getOne(ctx, squirrel.Eq{idColumn: id}, "GetByID")
}

func (r *ImageMetadataRepo) GetByFileName(ctx context.Context, fileName string) (*entity.Image, error) {
	return r.getOne(ctx, squirrel.Eq{fileNameColumn: fileName}, "GetByFileName")
}

func (r *ImageMetadataRepo) getOne(ctx context.Context, where squirrel.Eq, op string) (*entity.Image, error) {
	sql, args, err := r.Builder.
		Select(imageColumns...).
		From(imagesTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - %s - r.Builder.ToSql: %w", op, err)
	}

	executor := r.GetExecutor(ctx)

	var image entity.Image
	err = executor.QueryRow(ctx, sql, args...).Scan(
		&image.ID,
		&image.FileName,
		&image.OriginalFileName,
		&image.FileExtension,
		&image.FileSize,
		&image.Width,
		&image.Height,
		&image.MimeType,
		&image.Description,
		&image.Category,
		&image.UserID,
		&image.UploadTime,
		&image.IsPublic,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ImageMetadataRepo - %s: %w", op, errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("ImageMetadataRepo - %s - executor.QueryRow: %w", op, err)
	}

	return &image, nil
}

// List returns a page ordered by upload time descending. The use case
// normalizes page and page size before calling.
func (r *ImageMetadataRepo) List(ctx context.Context, q dto.ListImages) ([]*entity.Image, error) {
	builder := r.Builder.
		Select(imageColumns...).
		From(imagesTable)

	if q.Category != nil && *q.Category != "" {
		builder = builder.Where(squirrel.Eq{categoryColumn: *q.Category})
	}

	sql, args, err := builder.
		OrderBy(uploadTimeColumn + " DESC").
		Offset(uint64((q.Page - 1) * q.PageSize)).
		Limit(uint64(q.PageSize)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - List - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - List - executor.Query: %w", err)
	}
	defer rows.Close()

	images := make([]*entity.Image, 0, q.PageSize)
	for rows.Next() {
		var image entity.Image
		err = rows.Scan(
			&image.ID,
			&image.FileName,
			&image.OriginalFileName,
			&image.FileExtension,
			&image.FileSize,
			&image.Width,
			&image.Height,
			&image.MimeType,
			&image.Description,
			&image.Category,
			&image.UserID,
			&image.UploadTime,
			&image.IsPublic,
		)
		if err != nil {
			return nil, fmt.Errorf("ImageMetadataRepo - List - rows.Scan: %w", err)
		}
		images = append(images, &image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - List - rows.Err: %w", err)
	}

	return images, nil
}

func (r *ImageMetadataRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	sql, args, err := r.Builder.
		Select("COUNT(*)").
		From(imagesTable).
		Where(squirrel.Eq{userIDColumn: userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ImageMetadataRepo - CountByUser - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	var count int
	err = executor.QueryRow(ctx, sql, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ImageMetadataRepo - CountByUser - executor.QueryRow: %w", err)
	}

	return count, nil
}

func (r *ImageMetadataRepo) ListKeysByUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	sql, args, err := r.Builder.
		Select(fileNameColumn).
		From(imagesTable).
		Where(squirrel.Eq{userIDColumn: userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - ListKeysByUser - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - ListKeysByUser - executor.Query: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("ImageMetadataRepo - ListKeysByUser - rows.Scan: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ImageMetadataRepo - ListKeysByUser - rows.Err: %w", err)
	}

	return keys, nil
}

func (r *ImageMetadataRepo) Delete(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Delete(imagesTable).
		Where(squirrel.Eq{idColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Delete - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("ImageMetadataRepo - Delete - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ImageMetadataRepo - Delete: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *ImageMetadataRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	sql, args, err := r.Builder.
		Delete(imagesTable).
		Where(squirrel.Eq{userIDColumn: userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ImageMetadataRepo - DeleteByUser - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("ImageMetadataRepo - DeleteByUser - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}
