package cleanup_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/internal/usecase/cleanup"
)

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

type fakeBlobStore struct {
	blobs     map[string][]byte
	deleteErr error
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data io.Reader, _ string, _ int64) error {
	b, _ := io.ReadAll(data)
	f.blobs[key] = b

	return nil
}

func (f *fakeBlobStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}

	_, ok := f.blobs[key]
	delete(f.blobs, key)

	return ok, nil
}

func (f *fakeBlobStore) URL(context.Context, string) (string, error) { return "", nil }

type fakeCleanupRepo struct {
	statuses map[uuid.UUID]entity.Status
	retries  map[uuid.UUID]int
}

func (f *fakeCleanupRepo) Create(_ context.Context, m *entity.CleanupMarker) error {
	f.statuses[m.ID] = m.Status

	return nil
}

func (f *fakeCleanupRepo) GetPending(context.Context, int, int) ([]*entity.CleanupMarker, error) {
	return nil, nil
}

func (f *fakeCleanupRepo) MarkProcessing(_ context.Context, ids uuid.UUIDs) error {
	for _, id := range ids {
		f.statuses[id] = entity.Processing
	}

	return nil
}

func (f *fakeCleanupRepo) MarkProcessed(_ context.Context, ids uuid.UUIDs) error {
	for _, id := range ids {
		f.statuses[id] = entity.Processed
	}

	return nil
}

func (f *fakeCleanupRepo) IncrementRetry(_ context.Context, ids uuid.UUIDs) error {
	for _, id := range ids {
		f.retries[id]++
		f.statuses[id] = entity.Pending
	}

	return nil
}

func (f *fakeCleanupRepo) MarkMaxRetriesAsFailed(context.Context, int) error { return nil }
func (f *fakeCleanupRepo) PurgeTerminal(context.Context) (int64, error)      { return 0, nil }

func marker(key string) *entity.CleanupMarker {
	return &entity.CleanupMarker{
		ID:        uuid.New(),
		BlobKey:   key,
		Status:    entity.Pending,
		CreatedAt: time.Now(),
	}
}

func TestReapMarkerDeletesBlob(t *testing.T) {
	blobs := &fakeBlobStore{blobs: map[string][]byte{"orphan.png": []byte("data")}}
	repo := &fakeCleanupRepo{statuses: map[uuid.UUID]entity.Status{}, retries: map[uuid.UUID]int{}}
	uc := cleanup.New(repo, blobs, nopLogger{})

	err := uc.ReapMarker(context.Background(), marker("orphan.png"))
	require.NoError(t, err)
	require.Empty(t, blobs.blobs)
}

func TestReapMarkerToleratesMissingBlob(t *testing.T) {
	blobs := &fakeBlobStore{blobs: map[string][]byte{}}
	repo := &fakeCleanupRepo{statuses: map[uuid.UUID]entity.Status{}, retries: map[uuid.UUID]int{}}
	uc := cleanup.New(repo, blobs, nopLogger{})

	err := uc.ReapMarker(context.Background(), marker("already-gone.png"))
	require.NoError(t, err)
}

func TestReapMarkerPropagatesStorageError(t *testing.T) {
	blobs := &fakeBlobStore{blobs: map[string][]byte{}, deleteErr: errors.New("network down")}
	repo := &fakeCleanupRepo{statuses: map[uuid.UUID]entity.Status{}, retries: map[uuid.UUID]int{}}
	uc := cleanup.New(repo, blobs, nopLogger{})

	err := uc.ReapMarker(context.Background(), marker("stuck.png"))
	require.Error(t, err)
}

func TestBatchStatusTransitions(t *testing.T) {
	blobs := &fakeBlobStore{blobs: map[string][]byte{}}
	repo := &fakeCleanupRepo{statuses: map[uuid.UUID]entity.Status{}, retries: map[uuid.UUID]int{}}
	uc := cleanup.New(repo, blobs, nopLogger{})
	ctx := context.Background()

	markers := []*entity.CleanupMarker{marker("a.png"), marker("b.png")}

	require.NoError(t, uc.MarkProcessing(ctx, markers))
	for _, m := range markers {
		require.Equal(t, entity.Processing, repo.statuses[m.ID])
	}

	require.NoError(t, uc.MarkProcessed(ctx, markers[:1]))
	require.Equal(t, entity.Processed, repo.statuses[markers[0].ID])

	require.NoError(t, uc.IncrementRetry(ctx, markers[1:]))
	require.Equal(t, entity.Pending, repo.statuses[markers[1].ID])
	require.Equal(t, 1, repo.retries[markers[1].ID])
}
