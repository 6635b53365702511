package persistent

import (
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xueshanchen/picbed/internal/entity"
	"github.com/xueshanchen/picbed/pkg/postgres"
)

func newBuilderOnlyCleanupRepo() *CleanupRepo {
	return NewCleanupRepo(&postgres.Postgres{
		Builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	})
}

func TestMarkProcessingDoesNotStampProcessedAt(t *testing.T) {
	r := newBuilderOnlyCleanupRepo()
	ids := uuid.UUIDs{uuid.New(), uuid.New()}

	sql, args, err := r.statusUpdate(ids, entity.Processing).ToSql()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sql, "UPDATE blob_cleanup SET status"))
	require.NotContains(t, sql, cleanupProcessedAtColumn)
	require.Contains(t, args, entity.Processing)
}

func TestMarkProcessedStampsProcessedAt(t *testing.T) {
	r := newBuilderOnlyCleanupRepo()
	ids := uuid.UUIDs{uuid.New()}

	sql, args, err := r.processedUpdate(ids).ToSql()
	require.NoError(t, err)
	require.Contains(t, sql, cleanupProcessedAtColumn)
	require.Contains(t, args, entity.Processed)
}
