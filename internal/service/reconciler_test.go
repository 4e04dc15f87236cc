package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/spaces-backend/internal/repository"
)

type mockStaleRejecter struct {
	stale     []repository.StaleMedia
	err       error
	gotHours  int
	sweepRuns int
}

func (m *mockStaleRejecter) RejectStaleProcessing(ctx context.Context, olderThanHours int) ([]repository.StaleMedia, error) {
	m.sweepRuns++
	m.gotHours = olderThanHours
	return m.stale, m.err
}

type mockObjectDeleter struct {
	deleted []string
}

func (m *mockObjectDeleter) Delete(ctx context.Context, relativePath string) error {
	m.deleted = append(m.deleted, relativePath)
	return nil
}

func TestReconciler_SweepDeletesOrphanObjects(t *testing.T) {
	media := &mockStaleRejecter{stale: []repository.StaleMedia{
		{ID: uuid.New(), OriginalPath: "a/b/original.jpg"},
		{ID: uuid.New(), OriginalPath: "c/d/original.mp4"},
	}}
	objects := &mockObjectDeleter{}
	rec := NewReconciler(media, objects, 24*time.Hour, time.Hour)

	rec.Sweep(context.Background())

	assert.Equal(t, 24, media.gotHours)
	assert.Equal(t, []string{"a/b/original.jpg", "c/d/original.mp4"}, objects.deleted)
}

func TestReconciler_SweepMinimumAgeOneHour(t *testing.T) {
	media := &mockStaleRejecter{}
	rec := NewReconciler(media, &mockObjectDeleter{}, 10*time.Minute, time.Hour)

	rec.Sweep(context.Background())

	assert.Equal(t, 1, media.gotHours)
}

func TestReconciler_SweepErrorSkipsDeletes(t *testing.T) {
	media := &mockStaleRejecter{err: errors.New("база недоступна")}
	objects := &mockObjectDeleter{}
	rec := NewReconciler(media, objects, 24*time.Hour, time.Hour)

	rec.Sweep(context.Background())

	assert.Empty(t, objects.deleted)
}

func TestReconciler_RunStopsOnContextCancel(t *testing.T) {
	media := &mockStaleRejecter{}
	rec := NewReconciler(media, &mockObjectDeleter{}, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("reconciler должен останавливаться по отмене контекста")
	}

	assert.GreaterOrEqual(t, media.sweepRuns, 1)
}
