package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/db"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/dberrors"
	"github.com/yigit/learnsphere/internal/pkg/logger"
)

var paymentColumns = []string{
	"p.id", "p.user_id", "p.course_id", "p.amount_cents", "p.currency", "p.status", "p.provider",
	"p.reference", "p.provider_transaction_id", "p.failure_reason", "p.created_at", "p.completed_at",
	"p.refunded_at", "c.title",
}

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	UserID int64
	Status models.PaymentStatus
}

// PaymentRepository handles course purchases
type PaymentRepository struct {
	db *pgxpool.Pool
	pg *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pg *db.PostgresDB) *PaymentRepository {
	return &PaymentRepository{
		db: pg.Pool,
		pg: pg,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *PaymentRepository) selectPayments() squirrel.SelectBuilder {
	return r.sb.Select(paymentColumns...).From("payments p").Join("courses c ON c.id = p.course_id")
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(&p.ID, &p.UserID, &p.CourseID, &p.AmountCents, &p.Currency, &p.Status, &p.Provider,
		&p.Reference, &p.ProviderTransactionID, &p.FailureReason, &p.CreatedAt, &p.CompletedAt,
		&p.RefundedAt, &p.CourseTitle)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a PENDING payment
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	sql, args, err := r.sb.Insert("payments").
		Columns("user_id", "course_id", "amount_cents", "currency", "status", "provider", "reference").
		Values(p.UserID, p.CourseID, p.AmountCents, p.Currency, p.Status, p.Provider, p.Reference).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create payment query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "payments_reference_key") {
			return apperrors.NewConflictError("payment reference already exists")
		}
		logger.Error().Err(err).Int64("userID", p.UserID).Int64("courseID", p.CourseID).Msg("Error inserting payment")
		return fmt.Errorf("error creating payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Payment, error) {
	sql, args, err := r.selectPayments().Where(where).OrderBy("p.created_at DESC").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get payment query: %w", err)
	}

	p, err := scanPayment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrPaymentNotFound
		}
		logger.Error().Err(err).Msg("Error scanning payment row")
		return nil, fmt.Errorf("error getting payment: %w", err)
	}
	return p, nil
}

// GetByID retrieves a payment
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	return r.getOne(ctx, squirrel.Eq{"p.id": id})
}

// GetByReference retrieves a payment by its gateway reference
func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	return r.getOne(ctx, squirrel.Eq{"p.reference": reference})
}

// FindPending returns the open payment of a user for a course
func (r *PaymentRepository) FindPending(ctx context.Context, userID, courseID int64) (*models.Payment, error) {
	return r.getOne(ctx, squirrel.Eq{"p.user_id": userID, "p.course_id": courseID, "p.status": models.PaymentPending})
}

// List returns a page of payments and the total count
func (r *PaymentRepository) List(ctx context.Context, filter PaymentFilter, offset, limit uint64) ([]*models.Payment, int64, error) {
	where := squirrel.And{}
	if filter.UserID > 0 {
		where = append(where, squirrel.Eq{"p.user_id": filter.UserID})
	}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"p.status": filter.Status})
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("payments p").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count payments query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting payments")
		return nil, 0, fmt.Errorf("error counting payments: %w", err)
	}

	sql, args, err := r.selectPayments().Where(where).OrderBy("p.created_at DESC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list payments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing payments")
		return nil, 0, fmt.Errorf("error listing payments: %w", err)
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning payment row: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, total, nil
}

// transition updates the payment only if it is still in the from state
func (r *PaymentRepository) transition(ctx context.Context, q db.Querier, p *models.Payment, from models.PaymentStatus) error {
	sql, args, err := r.sb.Update("payments").
		SetMap(map[string]interface{}{
			"status":                  p.Status,
			"provider_transaction_id": p.ProviderTransactionID,
			"failure_reason":          p.FailureReason,
			"completed_at":            p.CompletedAt,
			"refunded_at":             p.RefundedAt,
		}).
		Where(squirrel.Eq{"id": p.ID, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payment transition query: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("paymentID", p.ID).Str("status", string(p.Status)).Msg("Error updating payment status")
		return fmt.Errorf("error updating payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// UpdateStatus applies a transition that has no enrollment side effect
func (r *PaymentRepository) UpdateStatus(ctx context.Context, p *models.Payment, from models.PaymentStatus) error {
	return r.transition(ctx, r.db, p, from)
}

// CompleteAndEnroll marks a PENDING payment COMPLETED and grants the enrollment atomically.
// A student who is already enrolled keeps the enrollment; the payment is still recorded.
func (r *PaymentRepository) CompleteAndEnroll(ctx context.Context, p *models.Payment) (*models.Enrollment, error) {
	var enrollment *models.Enrollment
	err := r.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.transition(ctx, tx, p, models.PaymentPending); err != nil {
			return err
		}

		e, err := enroll(ctx, tx, r.sb, p.UserID, p.CourseID, &p.ID)
		if err != nil && !errors.Is(err, apperrors.ErrAlreadyEnrolled) {
			return err
		}
		enrollment = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

// RefundAndDrop marks a COMPLETED payment REFUNDED and drops the enrollment it paid for
func (r *PaymentRepository) RefundAndDrop(ctx context.Context, p *models.Payment) error {
	return r.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.transition(ctx, tx, p, models.PaymentCompleted); err != nil {
			return err
		}

		sql, args, err := r.sb.Update("enrollments").
			Set("status", models.EnrollmentDropped).
			Where(squirrel.Eq{"student_id": p.UserID, "course_id": p.CourseID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build drop enrollment query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			logger.Error().Err(err).Int64("paymentID", p.ID).Msg("Error dropping refunded enrollment")
			return fmt.Errorf("error dropping enrollment: %w", err)
		}
		return nil
	})
}

// ExpireStale moves PENDING payments created before the cutoff to EXPIRED
func (r *PaymentRepository) ExpireStale(ctx context.Context, before time.Time) ([]*models.Payment, error) {
	sql, args, err := r.sb.Update("payments").
		Set("status", models.PaymentExpired).
		Set("failure_reason", "checkout expired").
		Where(squirrel.Eq{"status": models.PaymentPending}).
		Where(squirrel.Lt{"created_at": before}).
		Suffix("RETURNING id, user_id, course_id, amount_cents, currency, reference").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build expire payments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error expiring payments")
		return nil, fmt.Errorf("error expiring payments: %w", err)
	}
	defer rows.Close()

	var expired []*models.Payment
	for rows.Next() {
		p := &models.Payment{Status: models.PaymentExpired}
		if err := rows.Scan(&p.ID, &p.UserID, &p.CourseID, &p.AmountCents, &p.Currency, &p.Reference); err != nil {
			return nil, fmt.Errorf("error scanning expired payment: %w", err)
		}
		expired = append(expired, p)
	}
	return expired, rows.Err()
}
