package embedded

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/spaces-backend/internal/db"
	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/repository"
)

func newTestStore(t *testing.T) *ReportStore {
	t.Helper()
	conn, err := db.NewEmbedded(filepath.Join(t.TempDir(), "spaces.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewReportStore(conn)
}

func newReport(postID *string) *models.Report {
	reportType := models.ReportTypeUser
	if postID != nil {
		reportType = models.ReportTypePost
	}
	return &models.Report{
		ID:           uuid.New(),
		Type:         reportType,
		TargetUserID: uuid.New(),
		TargetPostID: postID,
		Reason:       "спам",
		ReporterID:   uuid.New(),
	}
}

func TestReportStore_CreateAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := newReport(nil)
	require.NoError(t, store.Create(ctx, report))
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.False(t, report.CreatedAt.IsZero())

	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, report.ID, pending[0].ID)

	got, err := store.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Reason, got.Reason)
}

func TestReportStore_SetStatusTerminalNoOp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := newReport(nil)
	require.NoError(t, store.Create(ctx, report))

	changed, err := store.SetStatus(ctx, report.ID, models.ReportStatusRemoved)
	require.NoError(t, err)
	assert.True(t, changed)

	// Терминальная жалоба не перезаписывается.
	changed, err = store.SetStatus(ctx, report.ID, models.ReportStatusDismissed)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := store.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusRemoved, got.Status)
}

func TestReportStore_SetStatusNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SetStatus(context.Background(), uuid.New(), models.ReportStatusDismissed)
	assert.ErrorIs(t, err, repository.ErrReportNotFound)
}

func TestReportStore_InvalidateReloadsFromDisk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	report := newReport(nil)
	require.NoError(t, store.Create(ctx, report))

	store.Invalidate()

	// После сброса кэша состояние перечитывается из базы.
	pending, err := store.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, report.ID, pending[0].ID)
}

func TestReportStore_RemovedSetIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "post-1"))
	require.NoError(t, store.Add(ctx, "post-1"))
	require.NoError(t, store.Add(ctx, "post-2"))

	ids, err := store.RemovedIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"post-1", "post-2"}, ids)

	// Набор переживает сброс кэша.
	store.Invalidate()
	ids, err = store.RemovedIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"post-1", "post-2"}, ids)
}

func TestReportStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spaces.db")
	ctx := context.Background()

	conn, err := db.NewEmbedded(path)
	require.NoError(t, err)
	store := NewReportStore(conn)

	report := newReport(nil)
	require.NoError(t, store.Create(ctx, report))
	require.NoError(t, conn.Close())

	// Новое открытие той же базы видит сохранённую жалобу.
	conn, err = db.NewEmbedded(path)
	require.NoError(t, err)
	defer conn.Close()

	reopened := NewReportStore(conn)
	got, err := reopened.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, got.Status)
}
