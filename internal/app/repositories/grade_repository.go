package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/dberrors"
	"github.com/yigit/learnsphere/internal/pkg/logger"
)

// GradeRepository handles grading schemes and gradebook entries
type GradeRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewGradeRepository creates a new GradeRepository
func NewGradeRepository(db *pgxpool.Pool) *GradeRepository {
	return &GradeRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetScheme returns the grading scheme of a course, or nil when none was defined
func (r *GradeRepository) GetScheme(ctx context.Context, courseID int64) (*models.GradingScheme, error) {
	sql, args, err := r.sb.Select("course_id", "categories", "letter_scale", "updated_at").
		From("grading_schemes").
		Where(squirrel.Eq{"course_id": courseID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get scheme query: %w", err)
	}

	s := &models.GradingScheme{}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.CourseID, &s.Categories, &s.LetterScale, &s.UpdatedAt); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error scanning grading scheme")
		return nil, fmt.Errorf("error getting grading scheme: %w", err)
	}
	return s, nil
}

// SaveScheme inserts or replaces the grading scheme of a course
func (r *GradeRepository) SaveScheme(ctx context.Context, s *models.GradingScheme) error {
	s.UpdatedAt = time.Now()
	sql, args, err := r.sb.Insert("grading_schemes").
		Columns("course_id", "categories", "letter_scale", "updated_at").
		Values(s.CourseID, s.Categories, s.LetterScale, s.UpdatedAt).
		Suffix("ON CONFLICT (course_id) DO UPDATE SET categories = EXCLUDED.categories, " +
			"letter_scale = EXCLUDED.letter_scale, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save scheme query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("courseID", s.CourseID).Msg("Error saving grading scheme")
		return fmt.Errorf("error saving grading scheme: %w", err)
	}
	return nil
}

// Upsert writes a gradebook entry. Submission-derived entries never overwrite manual ones.
// It reports whether a row was written.
func (r *GradeRepository) Upsert(ctx context.Context, g *models.Grade) (bool, error) {
	g.UpdatedAt = time.Now()
	suffix := "ON CONFLICT (assessment_id, student_id) DO UPDATE SET score = EXCLUDED.score, " +
		"max_score = EXCLUDED.max_score, percentage = EXCLUDED.percentage, feedback = EXCLUDED.feedback, " +
		"source = EXCLUDED.source, graded_by = EXCLUDED.graded_by, updated_at = EXCLUDED.updated_at"
	if g.Source == models.GradeFromSubmission {
		suffix += " WHERE grades.source <> 'MANUAL'"
	}

	sql, args, err := r.sb.Insert("grades").
		Columns("course_id", "assessment_id", "student_id", "score", "max_score", "percentage",
			"feedback", "source", "graded_by", "updated_at").
		Values(g.CourseID, g.AssessmentID, g.StudentID, g.Score, g.MaxScore, g.Percentage,
			g.Feedback, g.Source, g.GradedBy, g.UpdatedAt).
		Suffix(suffix + " RETURNING id").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build upsert grade query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&g.ID); err != nil {
		if dberrors.IsNoRows(err) {
			return false, nil
		}
		logger.Error().Err(err).Int64("assessmentID", g.AssessmentID).Int64("studentID", g.StudentID).Msg("Error upserting grade")
		return false, fmt.Errorf("error saving grade: %w", err)
	}
	return true, nil
}

func (r *GradeRepository) query(ctx context.Context, where squirrel.Sqlizer, limit uint64) ([]*models.Grade, error) {
	q := r.sb.Select("g.id", "g.course_id", "g.assessment_id", "g.student_id", "g.score", "g.max_score",
		"g.percentage", "g.feedback", "g.source", "g.graded_by", "g.updated_at", "a.title", "a.type", "c.title").
		From("grades g").
		Join("assessments a ON a.id = g.assessment_id").
		Join("courses c ON c.id = g.course_id").
		Where(where).
		OrderBy("g.updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build grades query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying grades")
		return nil, fmt.Errorf("error querying grades: %w", err)
	}
	defer rows.Close()

	grades := []*models.Grade{}
	for rows.Next() {
		g := &models.Grade{}
		if err := rows.Scan(&g.ID, &g.CourseID, &g.AssessmentID, &g.StudentID, &g.Score, &g.MaxScore,
			&g.Percentage, &g.Feedback, &g.Source, &g.GradedBy, &g.UpdatedAt,
			&g.AssessmentTitle, &g.AssessmentType, &g.CourseTitle); err != nil {
			return nil, fmt.Errorf("error scanning grade row: %w", err)
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// ListByCourse returns every gradebook entry of a course
func (r *GradeRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.Grade, error) {
	return r.query(ctx, squirrel.Eq{"g.course_id": courseID}, 0)
}

// ListByStudent returns the entries of a student, newest first
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID int64, limit uint64) ([]*models.Grade, error) {
	return r.query(ctx, squirrel.Eq{"g.student_id": studentID}, limit)
}
