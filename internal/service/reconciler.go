package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/spaces-backend/internal/logger"
	"github.com/ignatzorin/spaces-backend/internal/repository"
)

// StaleRejecter — срез хранилища медиа, нужный reconciler'у.
type StaleRejecter interface {
	RejectStaleProcessing(ctx context.Context, olderThanHours int) ([]repository.StaleMedia, error)
}

// ObjectDeleter удаляет карантинные объекты отбракованных сирот.
type ObjectDeleter interface {
	Delete(ctx context.Context, relativePath string) error
}

// Reconciler — фоновый sweeper осиротевших загрузок: processing-записи,
// чья передача байт упала, а возраст превысил порог, переводятся в rejected,
// их карантинные объекты (если байты частично дошли) удаляются.
type Reconciler struct {
	media    StaleRejecter
	objects  ObjectDeleter
	maxAge   time.Duration
	interval time.Duration
	log      *logrus.Entry
}

// NewReconciler создаёт sweeper с порогом возраста и периодом обхода.
func NewReconciler(media StaleRejecter, objects ObjectDeleter, maxAge, interval time.Duration) *Reconciler {
	return &Reconciler{
		media:    media,
		objects:  objects,
		maxAge:   maxAge,
		interval: interval,
		log:      logger.WithComponent("reconciler"),
	}
}

// Run крутит цикл обхода до отмены контекста. Запускается через SafeGoWithContext.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep выполняет один проход уборки.
func (r *Reconciler) Sweep(ctx context.Context) {
	hours := int(r.maxAge / time.Hour)
	if hours < 1 {
		hours = 1
	}

	stale, err := r.media.RejectStaleProcessing(ctx, hours)
	if err != nil {
		r.log.Errorf("проход уборки не удался: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	for _, record := range stale {
		if err := r.objects.Delete(ctx, record.OriginalPath); err != nil {
			r.log.Warnf("не удалось удалить объект сироты %s: %v", record.OriginalPath, err)
		}
	}

	r.log.Infof("отбраковано %d осиротевших загрузок старше %dч", len(stale), hours)
}
