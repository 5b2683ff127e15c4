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

var draftColumns = []string{"id", "instructor_id", "current_step", "data", "submitted_course_id", "created_at", "updated_at"}

// CourseDraftRepository persists course creation wizard state
type CourseDraftRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCourseDraftRepository creates a new CourseDraftRepository
func NewCourseDraftRepository(db *pgxpool.Pool) *CourseDraftRepository {
	return &CourseDraftRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanDraft(row pgx.Row) (*models.CourseDraft, error) {
	d := &models.CourseDraft{}
	if err := row.Scan(&d.ID, &d.InstructorID, &d.CurrentStep, &d.Data, &d.SubmittedCourseID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return d, nil
}

// Create inserts a new draft
func (r *CourseDraftRepository) Create(ctx context.Context, draft *models.CourseDraft) error {
	sql, args, err := r.sb.Insert("course_drafts").
		Columns("instructor_id", "current_step", "data").
		Values(draft.InstructorID, draft.CurrentStep, draft.Data).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create draft query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&draft.ID, &draft.CreatedAt, &draft.UpdatedAt); err != nil {
		logger.Error().Err(err).Int64("instructorID", draft.InstructorID).Msg("Error creating course draft")
		return fmt.Errorf("error creating course draft: %w", err)
	}
	return nil
}

// GetByID retrieves a draft
func (r *CourseDraftRepository) GetByID(ctx context.Context, id int64) (*models.CourseDraft, error) {
	sql, args, err := r.sb.Select(draftColumns...).From("course_drafts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get draft query: %w", err)
	}

	draft, err := scanDraft(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrDraftNotFound
		}
		logger.Error().Err(err).Int64("draftID", id).Msg("Error scanning draft row")
		return nil, fmt.Errorf("error getting course draft: %w", err)
	}
	return draft, nil
}

// ListByInstructor returns the drafts of an instructor, newest first
func (r *CourseDraftRepository) ListByInstructor(ctx context.Context, instructorID int64) ([]*models.CourseDraft, error) {
	sql, args, err := r.sb.Select(draftColumns...).
		From("course_drafts").
		Where(squirrel.Eq{"instructor_id": instructorID}).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list drafts query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("instructorID", instructorID).Msg("Error listing drafts")
		return nil, fmt.Errorf("error listing course drafts: %w", err)
	}
	defer rows.Close()

	drafts := []*models.CourseDraft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning draft row: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// Update stores the step pointer and step payloads
func (r *CourseDraftRepository) Update(ctx context.Context, draft *models.CourseDraft) error {
	draft.UpdatedAt = time.Now()
	sql, args, err := r.sb.Update("course_drafts").
		Set("current_step", draft.CurrentStep).
		Set("data", draft.Data).
		Set("updated_at", draft.UpdatedAt).
		Where(squirrel.Eq{"id": draft.ID, "submitted_course_id": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update draft query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("draftID", draft.ID).Msg("Error updating draft")
		return fmt.Errorf("error updating course draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrDraftAlreadyCreated
	}
	return nil
}

// Delete removes a draft
func (r *CourseDraftRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("course_drafts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete draft query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("draftID", id).Msg("Error deleting draft")
		return fmt.Errorf("error deleting course draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrDraftNotFound
	}
	return nil
}
