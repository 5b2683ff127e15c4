package repositories

import (
	"context"
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

var assessmentColumns = []string{
	"a.id", "a.course_id", "a.title", "a.description", "a.type", "a.status", "a.passing_score",
	"a.time_limit_minutes", "a.max_attempts", "a.available_from", "a.due_at", "a.allow_late",
	"a.total_points", "a.created_at", "a.updated_at", "c.title",
}

// DueReminder is a student who has not yet submitted an assessment that is due soon
type DueReminder struct {
	AssessmentID int64
	Title        string
	CourseID     int64
	DueAt        time.Time
	StudentID    int64
}

// AssessmentRepository handles assessments and their questions
type AssessmentRepository struct {
	db *pgxpool.Pool
	pg *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewAssessmentRepository creates a new AssessmentRepository
func NewAssessmentRepository(pg *db.PostgresDB) *AssessmentRepository {
	return &AssessmentRepository{
		db: pg.Pool,
		pg: pg,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *AssessmentRepository) selectAssessments() squirrel.SelectBuilder {
	return r.sb.Select(assessmentColumns...).From("assessments a").Join("courses c ON c.id = a.course_id")
}

func scanAssessment(row pgx.Row) (*models.Assessment, error) {
	a := &models.Assessment{}
	err := row.Scan(&a.ID, &a.CourseID, &a.Title, &a.Description, &a.Type, &a.Status, &a.PassingScore,
		&a.TimeLimitMinutes, &a.MaxAttempts, &a.AvailableFrom, &a.DueAt, &a.AllowLate,
		&a.TotalPoints, &a.CreatedAt, &a.UpdatedAt, &a.CourseTitle)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AssessmentRepository) queryAssessments(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Assessment, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building assessments SQL")
		return nil, fmt.Errorf("failed to build assessments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying assessments")
		return nil, fmt.Errorf("error querying assessments: %w", err)
	}
	defer rows.Close()

	assessments := []*models.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning assessment row: %w", err)
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// Create inserts an assessment with its questions in one transaction
func (r *AssessmentRepository) Create(ctx context.Context, a *models.Assessment) error {
	return r.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("assessments").
			Columns("course_id", "title", "description", "type", "status", "passing_score",
				"time_limit_minutes", "max_attempts", "available_from", "due_at", "allow_late", "total_points").
			Values(a.CourseID, a.Title, a.Description, a.Type, a.Status, a.PassingScore,
				a.TimeLimitMinutes, a.MaxAttempts, a.AvailableFrom, a.DueAt, a.AllowLate, a.TotalPoints).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create assessment query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			logger.Error().Err(err).Int64("courseID", a.CourseID).Msg("Error inserting assessment")
			return fmt.Errorf("error creating assessment: %w", err)
		}
		return r.insertQuestions(ctx, tx, a)
	})
}

// Replace overwrites a DRAFT assessment and its whole question list
func (r *AssessmentRepository) Replace(ctx context.Context, a *models.Assessment) error {
	return r.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		a.UpdatedAt = time.Now()
		sql, args, err := r.sb.Update("assessments").
			SetMap(map[string]interface{}{
				"title":              a.Title,
				"description":        a.Description,
				"type":               a.Type,
				"passing_score":      a.PassingScore,
				"time_limit_minutes": a.TimeLimitMinutes,
				"max_attempts":       a.MaxAttempts,
				"available_from":     a.AvailableFrom,
				"due_at":             a.DueAt,
				"allow_late":         a.AllowLate,
				"total_points":       a.TotalPoints,
				"updated_at":         a.UpdatedAt,
			}).
			Where(squirrel.Eq{"id": a.ID, "status": models.AssessmentDraft}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update assessment query: %w", err)
		}

		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			logger.Error().Err(err).Int64("assessmentID", a.ID).Msg("Error updating assessment")
			return fmt.Errorf("error updating assessment: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrAssessmentNotEditable
		}

		sql, args, err = r.sb.Delete("questions").Where(squirrel.Eq{"assessment_id": a.ID}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete questions query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error deleting questions: %w", err)
		}

		return r.insertQuestions(ctx, tx, a)
	})
}

func (r *AssessmentRepository) insertQuestions(ctx context.Context, q db.Querier, a *models.Assessment) error {
	for i, question := range a.Questions {
		question.AssessmentID = a.ID
		question.Position = i + 1
		if question.Options == nil {
			question.Options = []models.AnswerOption{}
		}
		if question.AcceptedAnswers == nil {
			question.AcceptedAnswers = []string{}
		}

		sql, args, err := r.sb.Insert("questions").
			Columns("assessment_id", "type", "prompt", "points", "position", "options",
				"correct_answer", "accepted_answers", "explanation").
			Values(a.ID, question.Type, question.Prompt, question.Points, question.Position, question.Options,
				question.CorrectAnswer, question.AcceptedAnswers, question.Explanation).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create question query: %w", err)
		}
		if err := q.QueryRow(ctx, sql, args...).Scan(&question.ID); err != nil {
			logger.Error().Err(err).Int64("assessmentID", a.ID).Msg("Error inserting question")
			return fmt.Errorf("error creating question: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an assessment with its questions
func (r *AssessmentRepository) GetByID(ctx context.Context, id int64) (*models.Assessment, error) {
	sql, args, err := r.selectAssessments().Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get assessment query: %w", err)
	}

	a, err := scanAssessment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrAssessmentNotFound
		}
		logger.Error().Err(err).Int64("assessmentID", id).Msg("Error scanning assessment row")
		return nil, fmt.Errorf("error getting assessment: %w", err)
	}

	a.Questions, err = r.questions(ctx, id)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AssessmentRepository) questions(ctx context.Context, assessmentID int64) ([]*models.Question, error) {
	sql, args, err := r.sb.Select("id", "assessment_id", "type", "prompt", "points", "position", "options",
		"correct_answer", "accepted_answers", "explanation").
		From("questions").
		Where(squirrel.Eq{"assessment_id": assessmentID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build questions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("assessmentID", assessmentID).Msg("Error querying questions")
		return nil, fmt.Errorf("error querying questions: %w", err)
	}
	defer rows.Close()

	questions := []*models.Question{}
	for rows.Next() {
		q := &models.Question{}
		if err := rows.Scan(&q.ID, &q.AssessmentID, &q.Type, &q.Prompt, &q.Points, &q.Position, &q.Options,
			&q.CorrectAnswer, &q.AcceptedAnswers, &q.Explanation); err != nil {
			return nil, fmt.Errorf("error scanning question row: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListByCourse returns the assessments of a course without questions
func (r *AssessmentRepository) ListByCourse(ctx context.Context, courseID int64, statuses ...models.AssessmentStatus) ([]*models.Assessment, error) {
	q := r.selectAssessments().Where(squirrel.Eq{"a.course_id": courseID})
	if len(statuses) > 0 {
		q = q.Where(squirrel.Eq{"a.status": statuses})
	}
	return r.queryAssessments(ctx, q.OrderBy("a.due_at ASC NULLS LAST", "a.id ASC"))
}

// ListForStudent returns published assessments of courses the student can access
func (r *AssessmentRepository) ListForStudent(ctx context.Context, studentID int64) ([]*models.Assessment, error) {
	q := r.selectAssessments().
		Join("enrollments e ON e.course_id = a.course_id").
		Where(squirrel.Eq{
			"e.student_id": studentID,
			"e.status":     []models.EnrollmentStatus{models.EnrollmentActive, models.EnrollmentCompleted},
			"a.status":     models.AssessmentPublished,
		}).
		OrderBy("a.due_at ASC NULLS LAST", "a.id ASC")
	return r.queryAssessments(ctx, q)
}

// UpdateStatus publishes or closes an assessment
func (r *AssessmentRepository) UpdateStatus(ctx context.Context, id int64, status models.AssessmentStatus) error {
	sql, args, err := r.sb.Update("assessments").
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update assessment status query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("assessmentID", id).Msg("Error updating assessment status")
		return fmt.Errorf("error updating assessment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAssessmentNotFound
	}
	return nil
}

// Delete removes a DRAFT assessment
func (r *AssessmentRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("assessments").
		Where(squirrel.Eq{"id": id, "status": models.AssessmentDraft}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete assessment query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("assessmentID", id).Msg("Error deleting assessment")
		return fmt.Errorf("error deleting assessment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAssessmentNotEditable
	}
	return nil
}

// DueReminders lists students of published assessments due in [from, to) who have neither
// submitted nor been reminded yet
func (r *AssessmentRepository) DueReminders(ctx context.Context, from, to time.Time) ([]DueReminder, error) {
	sql, args, err := r.sb.Select("a.id", "a.title", "a.course_id", "a.due_at", "e.student_id").
		From("assessments a").
		Join("enrollments e ON e.course_id = a.course_id AND e.status = 'ACTIVE'").
		Where(squirrel.Eq{"a.status": models.AssessmentPublished}).
		Where(squirrel.GtOrEq{"a.due_at": from}).
		Where(squirrel.Lt{"a.due_at": to}).
		Where("NOT EXISTS (SELECT 1 FROM submissions s WHERE s.assessment_id = a.id AND s.student_id = e.student_id)").
		Where("NOT EXISTS (SELECT 1 FROM assessment_reminders ar WHERE ar.assessment_id = a.id AND ar.student_id = e.student_id)").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build due reminders query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying due reminders")
		return nil, fmt.Errorf("error querying due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []DueReminder
	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(&d.AssessmentID, &d.Title, &d.CourseID, &d.DueAt, &d.StudentID); err != nil {
			return nil, fmt.Errorf("error scanning due reminder row: %w", err)
		}
		reminders = append(reminders, d)
	}
	return reminders, rows.Err()
}

// MarkReminded records a sent reminder; it reports false when one was already recorded
func (r *AssessmentRepository) MarkReminded(ctx context.Context, assessmentID, studentID int64) (bool, error) {
	sql, args, err := r.sb.Insert("assessment_reminders").
		Columns("assessment_id", "student_id").
		Values(assessmentID, studentID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build mark reminded query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("assessmentID", assessmentID).Msg("Error recording reminder")
		return false, fmt.Errorf("error recording reminder: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
