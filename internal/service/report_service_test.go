package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/pkg/apperror"
	"github.com/ignatzorin/spaces-backend/internal/repository"
)

// mockReportStore — очередь жалоб в памяти с семантикой durable-хранилища:
// терминальный статус не перезаписывается, SetStatus возвращает признак изменения.
type mockReportStore struct {
	reports     map[uuid.UUID]*models.Report
	invalidated int
}

func newMockReportStore() *mockReportStore {
	return &mockReportStore{reports: make(map[uuid.UUID]*models.Report)}
}

func (m *mockReportStore) Create(ctx context.Context, report *models.Report) error {
	report.Status = models.ReportStatusPending
	report.CreatedAt = time.Now()
	cp := *report
	m.reports[report.ID] = &cp
	return nil
}

func (m *mockReportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	if r, ok := m.reports[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, repository.ErrReportNotFound
}

func (m *mockReportStore) ListPending(ctx context.Context) ([]models.Report, error) {
	var out []models.Report
	for _, r := range m.reports {
		if r.Status == models.ReportStatusPending {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockReportStore) SetStatus(ctx context.Context, id uuid.UUID, status models.ReportStatus) (bool, error) {
	r, ok := m.reports[id]
	if !ok {
		return false, repository.ErrReportNotFound
	}
	if r.Status.Terminal() {
		return false, nil
	}
	r.Status = status
	return true, nil
}

func (m *mockReportStore) Invalidate() {
	m.invalidated++
}

// mockRemovalStore — набор скрытых постов в памяти.
type mockRemovalStore struct {
	removed map[string]struct{}
	adds    int
}

func newMockRemovalStore() *mockRemovalStore {
	return &mockRemovalStore{removed: make(map[string]struct{})}
}

func (m *mockRemovalStore) Add(ctx context.Context, postID string) error {
	m.adds++
	m.removed[postID] = struct{}{}
	return nil
}

func (m *mockRemovalStore) RemovedIDs(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(m.removed))
	for id := range m.removed {
		out = append(out, id)
	}
	return out, nil
}

func ptr(s string) *string { return &s }

func TestReportService_SubmitToRemovalLifecycle(t *testing.T) {
	store := newMockReportStore()
	removals := newMockRemovalStore()
	svc := NewReportService(store, removals)
	ctx := context.Background()

	report, err := svc.Submit(ctx, uuid.New(), SubmitReportInput{
		Type:         models.ReportTypePost,
		TargetUserID: uuid.New(),
		TargetPostID: ptr("post-123"),
		Reason:       "спам",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)

	pending, err := svc.ListPending(ctx)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)

	assert.NoError(t, svc.Remove(ctx, report.ID))

	pending, err = svc.ListPending(ctx)
	assert.NoError(t, err)
	assert.Empty(t, pending)

	ids, err := svc.RemovedIDs(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"post-123"}, ids)
}

func TestReportService_SubmitValidation(t *testing.T) {
	svc := NewReportService(newMockReportStore(), newMockRemovalStore())
	ctx := context.Background()

	// Аноним жаловаться не может.
	_, err := svc.Submit(ctx, uuid.Nil, SubmitReportInput{
		Type: models.ReportTypeUser, TargetUserID: uuid.New(), Reason: "оскорбления",
	})
	assert.True(t, apperror.IsCode(err, apperror.ErrCodePermissionDenied))

	_, err = svc.Submit(ctx, uuid.New(), SubmitReportInput{
		Type: models.ReportType("comment"), TargetUserID: uuid.New(), Reason: "x",
	})
	assert.True(t, apperror.IsCode(err, apperror.ErrCodeBadRequest))

	_, err = svc.Submit(ctx, uuid.New(), SubmitReportInput{
		Type: models.ReportTypeUser, TargetUserID: uuid.New(), Reason: "   ",
	})
	assert.True(t, apperror.IsCode(err, apperror.ErrCodeBadRequest))

	// Жалоба на пост без идентификатора поста.
	_, err = svc.Submit(ctx, uuid.New(), SubmitReportInput{
		Type: models.ReportTypePost, TargetUserID: uuid.New(), Reason: "x",
	})
	assert.True(t, apperror.IsCode(err, apperror.ErrCodeBadRequest))
}

func TestReportService_DismissIsIdempotentAndFinal(t *testing.T) {
	store := newMockReportStore()
	svc := NewReportService(store, newMockRemovalStore())
	ctx := context.Background()

	report, err := svc.Submit(ctx, uuid.New(), SubmitReportInput{
		Type: models.ReportTypeUser, TargetUserID: uuid.New(), Reason: "спам",
	})
	assert.NoError(t, err)

	assert.NoError(t, svc.Dismiss(ctx, report.ID))
	assert.NoError(t, svc.Dismiss(ctx, report.ID))

	got, err := store.GetByID(ctx, report.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ReportStatusDismissed, got.Status)
}

func TestReportService_RemovedNotOverwrittenByDismiss(t *testing.T) {
	store := newMockReportStore()
	removals := newMockRemovalStore()
	svc := NewReportService(store, removals)
	ctx := context.Background()

	report, err := svc.Submit(ctx, uuid.New(), SubmitReportInput{
		Type:         models.ReportTypePost,
		TargetUserID: uuid.New(),
		TargetPostID: ptr("post-9"),
		Reason:       "запрещённый контент",
	})
	assert.NoError(t, err)

	assert.NoError(t, svc.Remove(ctx, report.ID))
	assert.NoError(t, svc.Dismiss(ctx, report.ID))

	got, err := store.GetByID(ctx, report.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ReportStatusRemoved, got.Status)

	// Повторный remove — no-op, набор скрытых не растёт.
	assert.NoError(t, svc.Remove(ctx, report.ID))
	assert.Equal(t, 1, removals.adds)
}

func TestReportService_RemoveUserReportSkipsRemovalSet(t *testing.T) {
	removals := newMockRemovalStore()
	svc := NewReportService(newMockReportStore(), removals)
	ctx := context.Background()

	report, err := svc.Submit(ctx, uuid.New(), SubmitReportInput{
		Type: models.ReportTypeUser, TargetUserID: uuid.New(), Reason: "фейковый аккаунт",
	})
	assert.NoError(t, err)

	assert.NoError(t, svc.Remove(ctx, report.ID))
	assert.Equal(t, 0, removals.adds)
}

func TestReportService_NotFound(t *testing.T) {
	svc := NewReportService(newMockReportStore(), newMockRemovalStore())
	ctx := context.Background()

	assert.True(t, apperror.IsNotFound(svc.Dismiss(ctx, uuid.New())))
	assert.True(t, apperror.IsNotFound(svc.Remove(ctx, uuid.New())))
}

func TestReportService_InvalidatePropagates(t *testing.T) {
	store := newMockReportStore()
	svc := NewReportService(store, newMockRemovalStore())

	svc.Invalidate()
	assert.Equal(t, 1, store.invalidated)
}
