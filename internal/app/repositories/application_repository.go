package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/dberrors"
	"github.com/yigit/learnsphere/internal/pkg/logger"
)

// ApplicationFilter narrows application listings
type ApplicationFilter struct {
	ApplicantID  int64
	InstructorID int64
	CourseID     int64
	Type         models.ApplicationType
	Status       models.ApplicationStatus
}

// ApplicationRepository handles course and instructor applications
type ApplicationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewApplicationRepository creates a new ApplicationRepository
func NewApplicationRepository(db *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ApplicationRepository) selectApplications() squirrel.SelectBuilder {
	return r.sb.Select("ap.id", "ap.applicant_id", "ap.type", "ap.course_id", "ap.statement", "ap.status",
		"ap.reviewer_id", "ap.review_note", "ap.created_at", "ap.decided_at",
		"TRIM(u.first_name || ' ' || u.last_name)", "u.email", "COALESCE(c.title, '')").
		From("applications ap").
		Join("users u ON u.id = ap.applicant_id").
		LeftJoin("courses c ON c.id = ap.course_id")
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	a := &models.Application{}
	err := row.Scan(&a.ID, &a.ApplicantID, &a.Type, &a.CourseID, &a.Statement, &a.Status,
		&a.ReviewerID, &a.ReviewNote, &a.CreatedAt, &a.DecidedAt,
		&a.ApplicantName, &a.ApplicantEmail, &a.CourseTitle)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a PENDING application
func (r *ApplicationRepository) Create(ctx context.Context, a *models.Application) error {
	sql, args, err := r.sb.Insert("applications").
		Columns("applicant_id", "type", "course_id", "statement", "status").
		Values(a.ApplicantID, a.Type, a.CourseID, a.Statement, a.Status).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create application query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt); err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return apperrors.ErrApplicationExists
		}
		logger.Error().Err(err).Int64("applicantID", a.ApplicantID).Msg("Error inserting application")
		return fmt.Errorf("error creating application: %w", err)
	}
	return nil
}

// GetByID retrieves an application with applicant and course names
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	sql, args, err := r.selectApplications().Where(squirrel.Eq{"ap.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get application query: %w", err)
	}

	a, err := scanApplication(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrApplicationNotFound
		}
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error scanning application row")
		return nil, fmt.Errorf("error getting application: %w", err)
	}
	return a, nil
}

// List returns applications matching the filter, newest first
func (r *ApplicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]*models.Application, error) {
	q := r.selectApplications()
	if filter.ApplicantID > 0 {
		q = q.Where(squirrel.Eq{"ap.applicant_id": filter.ApplicantID})
	}
	if filter.InstructorID > 0 {
		q = q.Where(squirrel.Eq{"c.instructor_id": filter.InstructorID})
	}
	if filter.CourseID > 0 {
		q = q.Where(squirrel.Eq{"ap.course_id": filter.CourseID})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"ap.type": filter.Type})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"ap.status": filter.Status})
	}

	sql, args, err := q.OrderBy("ap.created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list applications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing applications")
		return nil, fmt.Errorf("error listing applications: %w", err)
	}
	defer rows.Close()

	applications := []*models.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning application row: %w", err)
		}
		applications = append(applications, a)
	}
	return applications, rows.Err()
}

// LatestStatus returns the status of the newest application of the user for a course, or "" when none exists
func (r *ApplicationRepository) LatestStatus(ctx context.Context, applicantID, courseID int64) (models.ApplicationStatus, error) {
	sql, args, err := r.sb.Select("status").
		From("applications").
		Where(squirrel.Eq{"applicant_id": applicantID, "course_id": courseID, "type": models.ApplicationCourse}).
		Where(squirrel.NotEq{"status": models.ApplicationWithdrawn}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build application status query: %w", err)
	}

	var status models.ApplicationStatus
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&status); err != nil {
		if dberrors.IsNoRows(err) {
			return "", nil
		}
		logger.Error().Err(err).Int64("applicantID", applicantID).Int64("courseID", courseID).Msg("Error reading application status")
		return "", fmt.Errorf("error reading application status: %w", err)
	}
	return status, nil
}

// Decide moves a PENDING application to its final status. A concurrent decision yields ErrConflict.
func (r *ApplicationRepository) Decide(ctx context.Context, id int64, status models.ApplicationStatus, reviewerID *int64, note string) error {
	sql, args, err := r.sb.Update("applications").
		Set("status", status).
		Set("reviewer_id", reviewerID).
		Set("review_note", note).
		Set("decided_at", time.Now()).
		Where(squirrel.Eq{"id": id, "status": models.ApplicationPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build decide application query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("applicationID", id).Msg("Error deciding application")
		return fmt.Errorf("error deciding application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError("application is no longer pending")
	}
	return nil
}
