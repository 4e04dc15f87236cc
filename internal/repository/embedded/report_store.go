// Package embedded реализует fallback-хранилище очереди жалоб поверх локальной
// sqlite-базы. Режим включается, когда общий durable backend не сконфигурирован.
// Состояние жалоб в этом режиме живёт только на данном устройстве и не
// синхронизируется между сессиями/устройствами — документированное ограничение
// режима, а не дефект.
package embedded

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/repository"
)

// ReportStore — embedded-реализация очереди жалоб и набора скрытых постов.
// Кэш загружается лениво при первом обращении (load-once) и защищён мьютексом:
// в отличие от однопоточного UI-цикла исходного клиента, сервер многопоточен.
type ReportStore struct {
	db *sqlx.DB

	mu      sync.Mutex
	loaded  bool
	reports map[uuid.UUID]models.Report
	removed map[string]struct{}
}

// NewReportStore создаёт хранилище поверх открытой sqlite-базы.
func NewReportStore(db *sqlx.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Invalidate сбрасывает кэш; следующее обращение перечитает базу.
// Вызывается, когда есть подозрение на устаревшие данные.
func (s *ReportStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.reports = nil
	s.removed = nil
}

// load перечитывает базу в кэш. Вызывается под мьютексом.
func (s *ReportStore) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	var reports []models.Report
	if err := s.db.SelectContext(ctx, &reports, `SELECT * FROM reports`); err != nil {
		return fmt.Errorf("embedded: load reports %w", err)
	}

	var removed []string
	if err := s.db.SelectContext(ctx, &removed, `SELECT post_id FROM removed_posts`); err != nil {
		return fmt.Errorf("embedded: load removed posts %w", err)
	}

	s.reports = make(map[uuid.UUID]models.Report, len(reports))
	for _, r := range reports {
		s.reports[r.ID] = r
	}
	s.removed = make(map[string]struct{}, len(removed))
	for _, id := range removed {
		s.removed[id] = struct{}{}
	}
	s.loaded = true
	return nil
}

// Create сохраняет жалобу со статусом pending.
func (s *ReportStore) Create(ctx context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return err
	}

	report.Status = models.ReportStatusPending
	report.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, report_type, target_user_id, target_post_id, reason, reporter_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.Type, report.TargetUserID, report.TargetPostID,
		report.Reason, report.ReporterID, report.Status, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("embedded: create report %w", err)
	}

	s.reports[report.ID] = *report
	return nil
}

// GetByID возвращает жалобу из кэша.
func (s *ReportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	report, ok := s.reports[id]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	return &report, nil
}

// ListPending возвращает необработанные жалобы, свежие первыми.
func (s *ReportStore) ListPending(ctx context.Context) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	pending := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		if r.Status == models.ReportStatusPending {
			pending = append(pending, r)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	return pending, nil
}

// SetStatus переводит жалобу в терминальный статус. Терминальная жалоба
// не меняется (no-op, возвращается false); несуществующая — ошибка.
func (s *ReportStore) SetStatus(ctx context.Context, id uuid.UUID, status models.ReportStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return false, err
	}

	report, ok := s.reports[id]
	if !ok {
		return false, repository.ErrReportNotFound
	}
	if report.Status.Terminal() {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE reports SET status = ? WHERE id = ? AND status = ?
	`, status, id, models.ReportStatusPending)
	if err != nil {
		return false, fmt.Errorf("embedded: set status %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		// База обогнала кэш; перечитаем при следующем обращении.
		s.loaded = false
		return false, nil
	}

	report.Status = status
	s.reports[id] = report
	return true, nil
}

// Add добавляет пост в набор скрытых. Идемпотентно.
func (s *ReportStore) Add(ctx context.Context, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO removed_posts (post_id) VALUES (?)
		ON CONFLICT (post_id) DO NOTHING
	`, postID)
	if err != nil {
		return fmt.Errorf("embedded: add removed post %w", err)
	}

	s.removed[postID] = struct{}{}
	return nil
}

// RemovedIDs возвращает полный набор идентификаторов скрытых постов.
func (s *ReportStore) RemovedIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(s.removed))
	for id := range s.removed {
		ids = append(ids, id)
	}
	return ids, nil
}
