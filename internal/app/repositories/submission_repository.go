package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/dberrors"
	"github.com/yigit/learnsphere/internal/pkg/logger"
)

var submissionColumns = []string{
	"s.id", "s.assessment_id", "s.student_id", "s.attempt", "s.answers", "s.status", "s.score",
	"s.percentage", "s.passed", "s.is_late", "s.feedback", "s.submitted_at", "s.graded_at", "s.graded_by",
	"TRIM(u.first_name || ' ' || u.last_name)",
}

// SubmissionRepository handles assessment attempts
type SubmissionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *SubmissionRepository) selectSubmissions() squirrel.SelectBuilder {
	return r.sb.Select(submissionColumns...).From("submissions s").Join("users u ON u.id = s.student_id")
}

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	s := &models.Submission{}
	err := row.Scan(&s.ID, &s.AssessmentID, &s.StudentID, &s.Attempt, &s.Answers, &s.Status, &s.Score,
		&s.Percentage, &s.Passed, &s.IsLate, &s.Feedback, &s.SubmittedAt, &s.GradedAt, &s.GradedBy,
		&s.StudentName)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SubmissionRepository) query(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Submission, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build submissions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying submissions")
		return nil, fmt.Errorf("error querying submissions: %w", err)
	}
	defer rows.Close()

	submissions := []*models.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning submission row: %w", err)
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

// Create inserts a submission; a concurrent attempt with the same number is a conflict
func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	sql, args, err := r.sb.Insert("submissions").
		Columns("assessment_id", "student_id", "attempt", "answers", "status", "score", "percentage",
			"passed", "is_late", "submitted_at", "graded_at").
		Values(s.AssessmentID, s.StudentID, s.Attempt, s.Answers, s.Status, s.Score, s.Percentage,
			s.Passed, s.IsLate, s.SubmittedAt, s.GradedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create submission query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "submissions_attempt_key") {
			return apperrors.NewConflictError("this attempt was already submitted")
		}
		logger.Error().Err(err).Int64("assessmentID", s.AssessmentID).Int64("studentID", s.StudentID).Msg("Error inserting submission")
		return fmt.Errorf("error creating submission: %w", err)
	}
	return nil
}

// GetByID retrieves a submission
func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*models.Submission, error) {
	sql, args, err := r.selectSubmissions().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get submission query: %w", err)
	}

	s, err := scanSubmission(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrSubmissionNotFound
		}
		logger.Error().Err(err).Int64("submissionID", id).Msg("Error scanning submission row")
		return nil, fmt.Errorf("error getting submission: %w", err)
	}
	return s, nil
}

// ListByAssessment returns every submission of an assessment, newest first
func (r *SubmissionRepository) ListByAssessment(ctx context.Context, assessmentID int64, status models.SubmissionStatus) ([]*models.Submission, error) {
	q := r.selectSubmissions().Where(squirrel.Eq{"s.assessment_id": assessmentID})
	if status != "" {
		q = q.Where(squirrel.Eq{"s.status": status})
	}
	return r.query(ctx, q.OrderBy("s.submitted_at DESC"))
}

// ListByStudent returns the attempts of a student at an assessment in attempt order
func (r *SubmissionRepository) ListByStudent(ctx context.Context, assessmentID, studentID int64) ([]*models.Submission, error) {
	q := r.selectSubmissions().
		Where(squirrel.Eq{"s.assessment_id": assessmentID, "s.student_id": studentID}).
		OrderBy("s.attempt ASC")
	return r.query(ctx, q)
}

// ListAllByStudent returns every attempt of a student
func (r *SubmissionRepository) ListAllByStudent(ctx context.Context, studentID int64) ([]*models.Submission, error) {
	q := r.selectSubmissions().Where(squirrel.Eq{"s.student_id": studentID}).OrderBy("s.assessment_id", "s.attempt ASC")
	return r.query(ctx, q)
}

// ListPendingForInstructor returns submissions awaiting review in the instructor's courses
func (r *SubmissionRepository) ListPendingForInstructor(ctx context.Context, instructorID int64, limit uint64) ([]*models.Submission, error) {
	q := r.selectSubmissions().
		Join("assessments a ON a.id = s.assessment_id").
		Join("courses c ON c.id = a.course_id").
		Where(squirrel.Eq{"c.instructor_id": instructorID, "s.status": models.SubmissionPendingReview}).
		OrderBy("s.submitted_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.query(ctx, q)
}

// UpdateGrading stores the grading result of a submission
func (r *SubmissionRepository) UpdateGrading(ctx context.Context, s *models.Submission) error {
	sql, args, err := r.sb.Update("submissions").
		SetMap(map[string]interface{}{
			"answers":    s.Answers,
			"status":     s.Status,
			"score":      s.Score,
			"percentage": s.Percentage,
			"passed":     s.Passed,
			"feedback":   s.Feedback,
			"graded_at":  s.GradedAt,
			"graded_by":  s.GradedBy,
		}).
		Where(squirrel.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build grade submission query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("submissionID", s.ID).Msg("Error grading submission")
		return fmt.Errorf("error grading submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSubmissionNotFound
	}
	return nil
}
