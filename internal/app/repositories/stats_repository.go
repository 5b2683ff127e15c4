package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/logger"
)

// StatsRepository runs aggregate queries for dashboards
type StatsRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StatsRepository) countBy(ctx context.Context, table, column string) (map[string]int64, error) {
	sql, args, err := r.sb.Select(column, "COUNT(*)").From(table).GroupBy(column).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count by %s query: %w", column, err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", table).Msg("Error running count by query")
		return nil, fmt.Errorf("error counting %s: %w", table, err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("error scanning %s count: %w", table, err)
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// UsersByRole counts users per role
func (r *StatsRepository) UsersByRole(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "users", "role")
}

// CoursesByStatus counts courses per status
func (r *StatsRepository) CoursesByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "courses", "status")
}

// EnrollmentsByStatus counts enrollments per status
func (r *StatsRepository) EnrollmentsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "enrollments", "status")
}

// PaymentsByStatus counts payments per status
func (r *StatsRepository) PaymentsByStatus(ctx context.Context) (map[string]int64, error) {
	return r.countBy(ctx, "payments", "status")
}

// RevenueCents sums completed payments. Refunded payments leave the COMPLETED state and
// therefore drop out of the sum. instructorID 0 means the whole platform.
func (r *StatsRepository) RevenueCents(ctx context.Context, instructorID int64) (int64, error) {
	q := r.sb.Select("COALESCE(SUM(p.amount_cents), 0)").
		From("payments p").
		Where(squirrel.Eq{"p.status": models.PaymentCompleted})
	if instructorID > 0 {
		q = q.Join("courses c ON c.id = p.course_id").Where(squirrel.Eq{"c.instructor_id": instructorID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build revenue query: %w", err)
	}

	var cents int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&cents); err != nil {
		logger.Error().Err(err).Int64("instructorID", instructorID).Msg("Error summing revenue")
		return 0, fmt.Errorf("error summing revenue: %w", err)
	}
	return cents, nil
}

// PendingApplications counts applications awaiting a decision
func (r *StatsRepository) PendingApplications(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("applications").
		Where(squirrel.Eq{"status": models.ApplicationPending}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build pending applications query: %w", err)
	}

	var n int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		logger.Error().Err(err).Msg("Error counting pending applications")
		return 0, fmt.Errorf("error counting pending applications: %w", err)
	}
	return n, nil
}

// DistinctStudents counts students enrolled in any course of the instructor
func (r *StatsRepository) DistinctStudents(ctx context.Context, instructorID int64) (int, error) {
	sql, args, err := r.sb.Select("COUNT(DISTINCT e.student_id)").
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Where(squirrel.Eq{"c.instructor_id": instructorID, "e.status": activeEnrollmentStatuses}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build distinct students query: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		logger.Error().Err(err).Int64("instructorID", instructorID).Msg("Error counting students")
		return 0, fmt.Errorf("error counting students: %w", err)
	}
	return n, nil
}
