package repositories

import (
	"context"
	"fmt"
	"strings"
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

// Catalog sort keys
const (
	SortNewest    = "newest"
	SortPopular   = "popular"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortTitle     = "title"
)

var courseSortOrders = map[string][]string{
	SortNewest:    {"c.published_at DESC NULLS LAST", "c.created_at DESC"},
	SortPopular:   {"enrollment_count DESC", "c.created_at DESC"},
	SortPriceAsc:  {"c.price_cents ASC", "c.title ASC"},
	SortPriceDesc: {"c.price_cents DESC", "c.title ASC"},
	SortTitle:     {"c.title ASC"},
}

// CourseFilter narrows course listings
type CourseFilter struct {
	Statuses      []models.CourseStatus
	InstructorID  int64
	CategoryID    int64
	Level         models.CourseLevel
	Search        string
	IsFree        *bool
	MinPriceCents *int64
	MaxPriceCents *int64
	Sort          string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches s literally anywhere in the column. Postgres escapes LIKE with a backslash by default.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (f CourseFilter) where() squirrel.And {
	where := squirrel.And{}
	if len(f.Statuses) > 0 {
		where = append(where, squirrel.Eq{"c.status": f.Statuses})
	}
	if f.InstructorID > 0 {
		where = append(where, squirrel.Eq{"c.instructor_id": f.InstructorID})
	}
	if f.CategoryID > 0 {
		where = append(where, squirrel.Eq{"c.category_id": f.CategoryID})
	}
	if f.Level != "" {
		where = append(where, squirrel.Eq{"c.level": f.Level})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := containsPattern(s)
		where = append(where, squirrel.Or{
			squirrel.ILike{"c.title": pattern},
			squirrel.ILike{"c.subtitle": pattern},
			squirrel.ILike{"c.description": pattern},
		})
	}
	if f.IsFree != nil {
		where = append(where, squirrel.Eq{"c.is_free": *f.IsFree})
	}
	if f.MinPriceCents != nil {
		where = append(where, squirrel.GtOrEq{"c.price_cents": *f.MinPriceCents})
	}
	if f.MaxPriceCents != nil {
		where = append(where, squirrel.LtOrEq{"c.price_cents": *f.MaxPriceCents})
	}
	return where
}

// CourseRepository handles courses and their outline
type CourseRepository struct {
	db *pgxpool.Pool
	pg *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(pg *db.PostgresDB) *CourseRepository {
	return &CourseRepository{
		db: pg.Pool,
		pg: pg,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CourseRepository) selectCourses() squirrel.SelectBuilder {
	return r.sb.Select(
		"c.id", "c.instructor_id", "c.category_id", "c.title", "c.subtitle", "c.description",
		"c.level", "c.language", "c.thumbnail_url", "c.price_cents", "c.currency", "c.is_free",
		"c.requires_application", "c.max_students", "c.status", "c.learning_outcomes",
		"c.requirements", "c.target_audience", "c.review_note", "c.published_at",
		"c.created_at", "c.updated_at",
		"TRIM(u.first_name || ' ' || u.last_name)", "cat.name", "cat.slug",
		"(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id AND e.status <> 'DROPPED') AS enrollment_count",
		"(SELECT COUNT(*) FROM lessons l JOIN course_sections s ON s.id = l.section_id WHERE s.course_id = c.id) AS lesson_count",
		"(SELECT COUNT(*) FROM assessments a WHERE a.course_id = c.id) AS assessment_count",
	).
		From("courses c").
		Join("users u ON u.id = c.instructor_id").
		Join("categories cat ON cat.id = c.category_id")
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	c := &models.Course{Category: &models.Category{}}
	err := row.Scan(
		&c.ID, &c.InstructorID, &c.CategoryID, &c.Title, &c.Subtitle, &c.Description,
		&c.Level, &c.Language, &c.ThumbnailURL, &c.PriceCents, &c.Currency, &c.IsFree,
		&c.RequiresApplication, &c.MaxStudents, &c.Status, &c.LearningOutcomes,
		&c.Requirements, &c.TargetAudience, &c.ReviewNote, &c.PublishedAt,
		&c.CreatedAt, &c.UpdatedAt,
		&c.InstructorName, &c.Category.Name, &c.Category.Slug,
		&c.Counts.Enrollments, &c.Counts.Lessons, &c.Counts.Assessments,
	)
	if err != nil {
		return nil, err
	}
	c.Category.ID = c.CategoryID
	return c, nil
}

// List returns a page of courses matching the filter and the total count
func (r *CourseRepository) List(ctx context.Context, filter CourseFilter, offset, limit uint64) ([]*models.Course, int64, error) {
	where := filter.where()

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From("courses c").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count courses query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting courses")
		return nil, 0, fmt.Errorf("error counting courses: %w", err)
	}

	order, ok := courseSortOrders[filter.Sort]
	if !ok {
		order = courseSortOrders[SortNewest]
	}

	q := r.selectCourses().Where(where).OrderBy(order...)
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list courses SQL")
		return nil, 0, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list courses query")
		return nil, 0, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning course row")
			return nil, 0, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, total, nil
}

// GetByID retrieves a course with instructor, category and counts
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.selectCourses().Where(squirrel.Eq{"c.id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course: %w", err)
	}
	return course, nil
}

// GetOutline loads sections and lessons ordered by position
func (r *CourseRepository) GetOutline(ctx context.Context, courseID int64) ([]*models.CourseSection, error) {
	sql, args, err := r.sb.Select("s.id", "s.course_id", "s.title", "s.position",
		"l.id", "l.title", "l.type", "l.duration_minutes", "l.position").
		From("course_sections s").
		LeftJoin("lessons l ON l.section_id = s.id").
		Where(squirrel.Eq{"s.course_id": courseID}).
		OrderBy("s.position ASC", "l.position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build outline query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", courseID).Msg("Error querying course outline")
		return nil, fmt.Errorf("error querying course outline: %w", err)
	}
	defer rows.Close()

	sections := []*models.CourseSection{}
	var current *models.CourseSection
	for rows.Next() {
		var (
			s                 models.CourseSection
			lessonID          *int64
			lessonTitle       *string
			lessonType        *models.LessonType
			duration, lessPos *int
		)
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Title, &s.Position,
			&lessonID, &lessonTitle, &lessonType, &duration, &lessPos); err != nil {
			return nil, fmt.Errorf("error scanning outline row: %w", err)
		}
		if current == nil || current.ID != s.ID {
			s.Lessons = []*models.Lesson{}
			current = &s
			sections = append(sections, current)
		}
		if lessonID != nil {
			current.Lessons = append(current.Lessons, &models.Lesson{
				ID:              *lessonID,
				SectionID:       s.ID,
				Title:           *lessonTitle,
				Type:            *lessonType,
				DurationMinutes: *duration,
				Position:        *lessPos,
			})
		}
	}
	return sections, rows.Err()
}

// CreateWithOutline inserts a course, its sections and lessons in one transaction.
// When draftID is set the draft is marked as submitted in the same transaction.
func (r *CourseRepository) CreateWithOutline(ctx context.Context, course *models.Course, sections []*models.CourseSection, draftID *int64) error {
	return r.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Insert("courses").
			Columns("instructor_id", "category_id", "title", "subtitle", "description", "level",
				"language", "price_cents", "currency", "is_free", "requires_application",
				"max_students", "status", "learning_outcomes", "requirements", "target_audience").
			Values(course.InstructorID, course.CategoryID, course.Title, course.Subtitle, course.Description,
				course.Level, course.Language, course.PriceCents, course.Currency, course.IsFree,
				course.RequiresApplication, course.MaxStudents, course.Status, course.LearningOutcomes,
				course.Requirements, course.TargetAudience).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create course query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt); err != nil {
			if dberrors.IsForeignKeyError(err) {
				return apperrors.ErrCategoryNotFound
			}
			logger.Error().Err(err).Int64("instructorID", course.InstructorID).Msg("Error inserting course")
			return fmt.Errorf("error creating course: %w", err)
		}

		if err := r.insertOutline(ctx, tx, course.ID, sections); err != nil {
			return err
		}
		course.Sections = sections

		if draftID == nil {
			return nil
		}

		sql, args, err = r.sb.Update("course_drafts").
			Set("submitted_course_id", course.ID).
			Set("updated_at", time.Now()).
			Where(squirrel.Eq{"id": *draftID, "submitted_course_id": nil}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build submit draft query: %w", err)
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			logger.Error().Err(err).Int64("draftID", *draftID).Msg("Error marking draft submitted")
			return fmt.Errorf("error marking draft submitted: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrDraftAlreadyCreated
		}
		return nil
	})
}

func (r *CourseRepository) insertOutline(ctx context.Context, q db.Querier, courseID int64, sections []*models.CourseSection) error {
	for i, section := range sections {
		section.CourseID = courseID
		section.Position = i + 1

		sql, args, err := r.sb.Insert("course_sections").
			Columns("course_id", "title", "position").
			Values(courseID, section.Title, section.Position).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create section query: %w", err)
		}
		if err := q.QueryRow(ctx, sql, args...).Scan(&section.ID); err != nil {
			logger.Error().Err(err).Int64("courseID", courseID).Msg("Error inserting section")
			return fmt.Errorf("error creating section: %w", err)
		}

		for j, lesson := range section.Lessons {
			lesson.SectionID = section.ID
			lesson.Position = j + 1

			sql, args, err := r.sb.Insert("lessons").
				Columns("section_id", "title", "type", "duration_minutes", "position").
				Values(section.ID, lesson.Title, lesson.Type, lesson.DurationMinutes, lesson.Position).
				Suffix("RETURNING id").
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build create lesson query: %w", err)
			}
			if err := q.QueryRow(ctx, sql, args...).Scan(&lesson.ID); err != nil {
				logger.Error().Err(err).Int64("sectionID", section.ID).Msg("Error inserting lesson")
				return fmt.Errorf("error creating lesson: %w", err)
			}
		}
	}
	return nil
}

// Update replaces the editable fields of a course
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"category_id":          course.CategoryID,
			"title":                course.Title,
			"subtitle":             course.Subtitle,
			"description":          course.Description,
			"level":                course.Level,
			"language":             course.Language,
			"price_cents":          course.PriceCents,
			"currency":             course.Currency,
			"is_free":              course.IsFree,
			"requires_application": course.RequiresApplication,
			"max_students":         course.MaxStudents,
			"learning_outcomes":    course.LearningOutcomes,
			"requirements":         course.Requirements,
			"target_audience":      course.TargetAudience,
			"updated_at":           time.Now(),
		}).
		Where(squirrel.Eq{"id": course.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrCategoryNotFound
		}
		logger.Error().Err(err).Int64("courseID", course.ID).Msg("Error updating course")
		return fmt.Errorf("error updating course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// UpdateStatus moves a course through its lifecycle
func (r *CourseRepository) UpdateStatus(ctx context.Context, id int64, status models.CourseStatus, note *string) error {
	q := r.sb.Update("courses").
		Set("status", status).
		Set("review_note", note).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id})
	if status == models.CoursePublished {
		q = q.Set("published_at", squirrel.Expr("COALESCE(published_at, NOW())"))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update course status query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", id).Str("status", string(status)).Msg("Error updating course status")
		return fmt.Errorf("error updating course status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// UpdateThumbnail stores the public URL of the course image
func (r *CourseRepository) UpdateThumbnail(ctx context.Context, id int64, url string) error {
	sql, args, err := r.sb.Update("courses").
		Set("thumbnail_url", url).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update thumbnail query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error updating thumbnail")
		return fmt.Errorf("error updating thumbnail: %w", err)
	}
	return nil
}

// Delete removes a course and, through cascades, its outline
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("courses").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete course query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error deleting course")
		return fmt.Errorf("error deleting course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// CourseIDOfLesson returns the course a lesson belongs to
func (r *CourseRepository) CourseIDOfLesson(ctx context.Context, lessonID int64) (int64, error) {
	sql, args, err := r.sb.Select("s.course_id").
		From("lessons l").
		Join("course_sections s ON s.id = l.section_id").
		Where(squirrel.Eq{"l.id": lessonID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build lesson course query: %w", err)
	}

	var courseID int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&courseID); err != nil {
		if dberrors.IsNoRows(err) {
			return 0, apperrors.ErrLessonNotFound
		}
		return 0, fmt.Errorf("error getting lesson course: %w", err)
	}
	return courseID, nil
}
