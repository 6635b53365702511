package persistent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/xueshanchen/picbed/pkg/s3client"
	"github.com/xueshanchen/picbed/pkg/types/errs"
)

// S3BlobStore keeps blobs as bucket objects, one object per key.
// Objects are written with AES256 server-side encryption; read URLs
// are presigned and time-bounded.
type S3BlobStore struct {
	*s3client.S3Client
	bucket        string
	presignExpiry time.Duration
}

func NewS3BlobStore(s3c *s3client.S3Client, bucket string, presignExpiry time.Duration) *S3BlobStore {
	return &S3BlobStore{s3c, bucket, presignExpiry}
}

func (r *S3BlobStore) Put(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(r.bucket),
		Key:                  aws.String(key),
		Body:                 data,
		ContentType:          aws.String(contentType),
		ContentLength:        aws.Int64(size),
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return fmt.Errorf("S3BlobStore - Put - r.Client.PutObject: %w", err)
	}

	return nil
}

func (r *S3BlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("S3BlobStore - Get: %w", errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("S3BlobStore - Get - r.Client.GetObject: %w", err)
	}

	return result.Body, nil
}

// Delete reports true on any non-error completion: S3 removes are
// idempotent and do not say whether the object was there.
func (r *S3BlobStore) Delete(ctx context.Context, key string) (bool, error) {
	_, err := r.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, fmt.Errorf("S3BlobStore - Delete - r.Client.DeleteObject: %w", err)
	}

	return true, nil
}

func (r *S3BlobStore) URL(ctx context.Context, key string) (string, error) {
	req, err := r.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(r.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("S3BlobStore - URL - r.Presign.PresignGetObject: %w", err)
	}

	return req.URL, nil
}
