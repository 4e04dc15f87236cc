package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/spaces-backend/internal/models"
)

// ErrReportNotFound сигнализирует об отсутствии жалобы.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository — durable-реализация очереди жалоб поверх общего Postgres.
// Каждая операция идёт напрямую в базу, без локального кэша: состояние
// консистентно между сессиями и устройствами.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository создаёт экземпляр.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create сохраняет жалобу со статусом pending.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO reports (id, report_type, target_user_id, target_post_id, reason, reporter_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING status, created_at
	`, report.ID, report.Type, report.TargetUserID, report.TargetPostID, report.Reason, report.ReporterID).
		Scan(&report.Status, &report.CreatedAt)
	if err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}
	return nil
}

// GetByID возвращает жалобу.
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	err := r.db.GetContext(ctx, &report, `SELECT * FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("report repository: get by id %w", err)
	}
	return &report, nil
}

// ListPending возвращает все необработанные жалобы, свежие первыми.
func (r *ReportRepository) ListPending(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM reports WHERE status = $1 ORDER BY created_at DESC
	`, models.ReportStatusPending)
	if err != nil {
		return nil, fmt.Errorf("report repository: list pending %w", err)
	}
	return reports, nil
}

// SetStatus переводит жалобу из pending в терминальный статус.
// WHERE status = pending делает операцию идемпотентной и гарантирует,
// что dismissed никогда не перетрёт removed (и наоборот).
// Возвращает true, если переход реально произошёл в этом вызове.
func (r *ReportRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.ReportStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE reports SET status = $2 WHERE id = $1 AND status = $3
	`, id, status, models.ReportStatusPending)
	if err != nil {
		return false, fmt.Errorf("report repository: set status %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("report repository: set status %w", err)
	}
	if affected == 0 {
		// Отличаем терминальную жалобу (no-op) от несуществующей.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return false, getErr
		}
		return false, nil
	}
	return true, nil
}

// Invalidate у durable-реализации ничего не делает: кэша нет.
func (r *ReportRepository) Invalidate() {}
