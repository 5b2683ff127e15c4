package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/db"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/dberrors"
	"github.com/yigit/learnsphere/internal/pkg/logger"
)

var activeEnrollmentStatuses = []models.EnrollmentStatus{models.EnrollmentActive, models.EnrollmentCompleted}

// EnrollmentRepository handles student enrollments
type EnrollmentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *EnrollmentRepository) selectEnrollments() squirrel.SelectBuilder {
	return r.sb.Select(
		"e.id", "e.student_id", "e.course_id", "e.status", "e.progress", "e.completed_lesson_ids",
		"e.payment_id", "e.enrolled_at", "e.completed_at",
		"c.title", "c.subtitle", "c.thumbnail_url", "c.level", "c.status", "c.instructor_id",
		"TRIM(i.first_name || ' ' || i.last_name)",
		"(SELECT COUNT(*) FROM lessons l JOIN course_sections cs ON cs.id = l.section_id WHERE cs.course_id = c.id)",
		"TRIM(st.first_name || ' ' || st.last_name)", "st.email",
	).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		Join("users i ON i.id = c.instructor_id").
		Join("users st ON st.id = e.student_id")
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	e := &models.Enrollment{Course: &models.Course{}}
	err := row.Scan(
		&e.ID, &e.StudentID, &e.CourseID, &e.Status, &e.Progress, &e.CompletedLessonIDs,
		&e.PaymentID, &e.EnrolledAt, &e.CompletedAt,
		&e.Course.Title, &e.Course.Subtitle, &e.Course.ThumbnailURL, &e.Course.Level, &e.Course.Status,
		&e.Course.InstructorID, &e.Course.InstructorName, &e.Course.Counts.Lessons,
		&e.StudentName, &e.StudentMail,
	)
	if err != nil {
		return nil, err
	}
	e.Course.ID = e.CourseID
	return e, nil
}

func (r *EnrollmentRepository) query(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Enrollment, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build enrollments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error querying enrollments")
		return nil, fmt.Errorf("error querying enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// Enroll creates an ACTIVE enrollment or reactivates a DROPPED one.
// An enrollment that is already active yields ErrAlreadyEnrolled.
func (r *EnrollmentRepository) Enroll(ctx context.Context, studentID, courseID int64, paymentID *int64) (*models.Enrollment, error) {
	return enroll(ctx, r.db, r.sb, studentID, courseID, paymentID)
}

func enroll(ctx context.Context, q db.Querier, sb squirrel.StatementBuilderType, studentID, courseID int64, paymentID *int64) (*models.Enrollment, error) {
	sql, args, err := sb.Insert("enrollments").
		Columns("student_id", "course_id", "status", "payment_id").
		Values(studentID, courseID, models.EnrollmentActive, paymentID).
		Suffix("ON CONFLICT (student_id, course_id) DO UPDATE SET " +
			"status = CASE WHEN enrollments.progress >= 100 THEN 'COMPLETED' ELSE 'ACTIVE' END, " +
			"payment_id = COALESCE(EXCLUDED.payment_id, enrollments.payment_id), enrolled_at = NOW() " +
			"WHERE enrollments.status = 'DROPPED' " +
			"RETURNING id, student_id, course_id, status, progress, completed_lesson_ids, payment_id, enrolled_at, completed_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build enroll query: %w", err)
	}

	e := &models.Enrollment{}
	err = q.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.StudentID, &e.CourseID, &e.Status, &e.Progress,
		&e.CompletedLessonIDs, &e.PaymentID, &e.EnrolledAt, &e.CompletedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrAlreadyEnrolled
		}
		logger.Error().Err(err).Int64("studentID", studentID).Int64("courseID", courseID).Msg("Error enrolling student")
		return nil, fmt.Errorf("error creating enrollment: %w", err)
	}
	return e, nil
}

// Get retrieves the enrollment of a student in a course
func (r *EnrollmentRepository) Get(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	sql, args, err := r.selectEnrollments().
		Where(squirrel.Eq{"e.student_id": studentID, "e.course_id": courseID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get enrollment query: %w", err)
	}

	e, err := scanEnrollment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		logger.Error().Err(err).Int64("studentID", studentID).Int64("courseID", courseID).Msg("Error scanning enrollment row")
		return nil, fmt.Errorf("error getting enrollment: %w", err)
	}
	return e, nil
}

// ListByStudent returns a student's enrollments that are not dropped
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Enrollment, error) {
	return r.query(ctx, r.selectEnrollments().
		Where(squirrel.Eq{"e.student_id": studentID, "e.status": activeEnrollmentStatuses}).
		OrderBy("e.enrolled_at DESC"))
}

// ListByCourse returns the students that can access a course
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.Enrollment, error) {
	return r.query(ctx, r.selectEnrollments().
		Where(squirrel.Eq{"e.course_id": courseID, "e.status": activeEnrollmentStatuses}).
		OrderBy("st.last_name ASC", "st.first_name ASC"))
}

// ListRecentForInstructor returns the newest enrollments in the instructor's courses
func (r *EnrollmentRepository) ListRecentForInstructor(ctx context.Context, instructorID int64, limit uint64) ([]*models.Enrollment, error) {
	return r.query(ctx, r.selectEnrollments().
		Where(squirrel.Eq{"c.instructor_id": instructorID, "e.status": activeEnrollmentStatuses}).
		OrderBy("e.enrolled_at DESC").
		Limit(limit))
}

// CountActive counts the students that occupy a seat in the course
func (r *EnrollmentRepository) CountActive(ctx context.Context, courseID int64) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("enrollments").
		Where(squirrel.Eq{"course_id": courseID, "status": activeEnrollmentStatuses}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count enrollments query: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error counting enrollments")
		return 0, fmt.Errorf("error counting enrollments: %w", err)
	}
	return n, nil
}

// ActiveStudentIDs returns the IDs of students with access to the course
func (r *EnrollmentRepository) ActiveStudentIDs(ctx context.Context, courseID int64) ([]int64, error) {
	sql, args, err := r.sb.Select("student_id").
		From("enrollments").
		Where(squirrel.Eq{"course_id": courseID, "status": activeEnrollmentStatuses}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build student ids query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error querying enrolled students")
		return nil, fmt.Errorf("error querying enrolled students: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// UpdateProgress stores completed lessons, progress and status
func (r *EnrollmentRepository) UpdateProgress(ctx context.Context, e *models.Enrollment) error {
	sql, args, err := r.sb.Update("enrollments").
		Set("completed_lesson_ids", e.CompletedLessonIDs).
		Set("progress", e.Progress).
		Set("status", e.Status).
		Set("completed_at", e.CompletedAt).
		Where(squirrel.Eq{"id": e.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update progress query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("enrollmentID", e.ID).Msg("Error updating enrollment progress")
		return fmt.Errorf("error updating enrollment progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}
	return nil
}

// Drop marks an enrollment as DROPPED
func (r *EnrollmentRepository) Drop(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Update("enrollments").
		Set("status", models.EnrollmentDropped).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build drop enrollment query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("enrollmentID", id).Msg("Error dropping enrollment")
		return fmt.Errorf("error dropping enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEnrollmentNotFound
	}
	return nil
}
