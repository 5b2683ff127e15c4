package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

// GradebookService manages grading schemes and the course gradebook
type GradebookService interface {
	GetScheme(ctx context.Context, actor authz.Actor, courseID int64) (*models.GradingScheme, error)
	SaveScheme(ctx context.Context, actor authz.Actor, courseID int64, req *dto.GradingSchemeRequest) (*models.GradingScheme, error)
	Gradebook(ctx context.Context, actor authz.Actor, courseID int64) (*dto.GradebookResponse, error)
	SetManualGrade(ctx context.Context, actor authz.Actor, courseID int64, req *dto.ManualGradeRequest) (*models.Grade, error)
	ExportCSV(ctx context.Context, actor authz.Actor, courseID int64, w io.Writer) error
	StudentGrades(ctx context.Context, actor authz.Actor) ([]dto.StudentCourseGrades, error)
}

type gradebookServiceImpl struct {
	gradeRepo      GradeStore
	courseRepo     CourseStore
	assessmentRepo AssessmentStore
	enrollmentRepo EnrollmentStore
	notifier       Notifier
	logger         zerolog.Logger
}

// NewGradebookService creates a new gradebook service
func NewGradebookService(
	gradeRepo GradeStore,
	courseRepo CourseStore,
	assessmentRepo AssessmentStore,
	enrollmentRepo EnrollmentStore,
	notifier Notifier,
	logger zerolog.Logger,
) GradebookService {
	return &gradebookServiceImpl{
		gradeRepo:      gradeRepo,
		courseRepo:     courseRepo,
		assessmentRepo: assessmentRepo,
		enrollmentRepo: enrollmentRepo,
		notifier:       notifier,
		logger:         logger,
	}
}

// GetScheme returns the course scheme, or an empty one with the default letter scale
func (s *gradebookServiceImpl) GetScheme(ctx context.Context, actor authz.Actor, courseID int64) (*models.GradingScheme, error) {
	if _, err := ownedCourse(ctx, s.courseRepo, actor, courseID); err != nil {
		return nil, err
	}

	scheme, err := s.gradeRepo.GetScheme(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if scheme == nil {
		scheme = &models.GradingScheme{
			CourseID:    courseID,
			Categories:  []models.GradingCategory{},
			LetterScale: models.DefaultLetterScale(),
		}
	}
	return scheme, nil
}

// SaveScheme validates and replaces the course scheme
func (s *gradebookServiceImpl) SaveScheme(ctx context.Context, actor authz.Actor, courseID int64, req *dto.GradingSchemeRequest) (*models.GradingScheme, error) {
	if _, err := ownedCourse(ctx, s.courseRepo, actor, courseID); err != nil {
		return nil, err
	}
	if err := ValidateGradingScheme(req); err != nil {
		return nil, err
	}

	scheme := &models.GradingScheme{
		CourseID:    courseID,
		Categories:  req.Categories,
		LetterScale: req.LetterScale,
	}
	if len(scheme.LetterScale) == 0 {
		scheme.LetterScale = models.DefaultLetterScale()
	}
	if err := s.gradeRepo.SaveScheme(ctx, scheme); err != nil {
		return nil, err
	}
	return scheme, nil
}

// Gradebook builds the grid of enrolled students by published assessments
func (s *gradebookServiceImpl) Gradebook(ctx context.Context, actor authz.Actor, courseID int64) (*dto.GradebookResponse, error) {
	if _, err := ownedCourse(ctx, s.courseRepo, actor, courseID); err != nil {
		return nil, err
	}

	assessments, err := s.assessmentRepo.ListByCourse(ctx, courseID, models.AssessmentPublished, models.AssessmentClosed)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollmentRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	grades, err := s.gradeRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	scheme, err := s.gradeRepo.GetScheme(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return buildGradebook(courseID, scheme, assessments, enrollments, grades), nil
}

// buildGradebook lays out the grid. Only grades of active students on column assessments count.
func buildGradebook(courseID int64, scheme *models.GradingScheme, assessments []*models.Assessment, enrollments []*models.Enrollment, grades []*models.Grade) *dto.GradebookResponse {
	types := make(map[int64]models.AssessmentType, len(assessments))
	for _, a := range assessments {
		types[a.ID] = a.Type
	}

	active := make(map[int64]bool, len(enrollments))
	for _, e := range enrollments {
		if e.IsActive() {
			active[e.StudentID] = true
		}
	}

	byStudent := make(map[int64][]*models.Grade)
	colSums := make(map[int64]float64)
	colCounts := make(map[int64]int)
	for _, g := range grades {
		if _, ok := types[g.AssessmentID]; !ok || !active[g.StudentID] {
			continue
		}
		byStudent[g.StudentID] = append(byStudent[g.StudentID], g)
		colSums[g.AssessmentID] += g.Percentage
		colCounts[g.AssessmentID]++
	}

	resp := &dto.GradebookResponse{
		CourseID: courseID,
		Scheme:   scheme,
		Columns:  make([]dto.GradebookColumn, 0, len(assessments)),
		Rows:     []dto.GradebookRow{},
	}
	for _, a := range assessments {
		col := dto.GradebookColumn{AssessmentID: a.ID, Title: a.Title, Type: a.Type, MaxScore: a.TotalPoints}
		if n := colCounts[a.ID]; n > 0 {
			avg := roundPercentage(colSums[a.ID] / float64(n))
			col.ClassAverage = &avg
		}
		resp.Columns = append(resp.Columns, col)
	}

	for _, e := range enrollments {
		if !e.IsActive() {
			continue
		}
		row := dto.GradebookRow{
			StudentID:    e.StudentID,
			StudentName:  e.StudentName,
			StudentEmail: e.StudentMail,
			Grades:       make(map[int64]*dto.GradebookCell),
		}
		studentGrades := byStudent[e.StudentID]
		for _, g := range studentGrades {
			row.Grades[g.AssessmentID] = &dto.GradebookCell{
				Score:      g.Score,
				MaxScore:   g.MaxScore,
				Percentage: g.Percentage,
				Source:     g.Source,
				Feedback:   g.Feedback,
			}
		}
		row.FinalPercentage, row.LetterGrade = finalGrade(scheme, studentGrades, types)
		resp.Rows = append(resp.Rows, row)
	}

	sort.SliceStable(resp.Rows, func(i, j int) bool {
		return strings.ToLower(resp.Rows[i].StudentName) < strings.ToLower(resp.Rows[j].StudentName)
	})
	return resp
}

// SetManualGrade enters or overrides a gradebook cell
func (s *gradebookServiceImpl) SetManualGrade(ctx context.Context, actor authz.Actor, courseID int64, req *dto.ManualGradeRequest) (*models.Grade, error) {
	course, err := ownedCourse(ctx, s.courseRepo, actor, courseID)
	if err != nil {
		return nil, err
	}
	a, err := s.assessmentRepo.GetByID(ctx, req.AssessmentID)
	if err != nil {
		return nil, err
	}
	if a.CourseID != courseID {
		return nil, apperrors.ErrAssessmentNotFound
	}
	if a.Status == models.AssessmentDraft {
		return nil, apperrors.ErrAssessmentNotEditable
	}
	if _, err := activeEnrollment(ctx, s.enrollmentRepo, req.StudentID, courseID); err != nil {
		return nil, err
	}
	if req.Score < 0 || req.Score > a.TotalPoints {
		return nil, apperrors.NewValidationError("score", fmt.Sprintf("must be between 0 and %g", a.TotalPoints))
	}

	graderID := actor.UserID
	g := &models.Grade{
		CourseID:        courseID,
		AssessmentID:    a.ID,
		StudentID:       req.StudentID,
		Score:           req.Score,
		MaxScore:        a.TotalPoints,
		Percentage:      percentageOf(req.Score, a.TotalPoints),
		Feedback:        strings.TrimSpace(req.Feedback),
		Source:          models.GradeManual,
		GradedBy:        &graderID,
		AssessmentTitle: a.Title,
		AssessmentType:  a.Type,
		CourseTitle:     course.Title,
	}
	if _, err := s.gradeRepo.Upsert(ctx, g); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("courseID", courseID).Int64("assessmentID", a.ID).Int64("studentID", req.StudentID).Msg("Manual grade recorded")
	s.notifier.Notify(ctx, &models.Notification{
		UserID:  req.StudentID,
		Type:    models.NotificationGrade,
		Title:   "Grade updated",
		Message: fmt.Sprintf("Your grade for %s in %s is %.2f%%.", a.Title, course.Title, g.Percentage),
		Link:    "/student/grades",
	})
	return g, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExportCSV writes the gradebook as CSV, one line per student
func (s *gradebookServiceImpl) ExportCSV(ctx context.Context, actor authz.Actor, courseID int64, w io.Writer) error {
	book, err := s.Gradebook(ctx, actor, courseID)
	if err != nil {
		return err
	}
	return writeGradebookCSV(w, book)
}

func writeGradebookCSV(w io.Writer, book *dto.GradebookResponse) error {
	cw := csv.NewWriter(w)

	header := []string{"Student ID", "Name", "Email"}
	for _, col := range book.Columns {
		header = append(header, fmt.Sprintf("%s (%s)", col.Title, formatFloat(col.MaxScore)))
	}
	header = append(header, "Final %", "Letter")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range book.Rows {
		record := []string{strconv.FormatInt(row.StudentID, 10), row.StudentName, row.StudentEmail}
		for _, col := range book.Columns {
			cell := ""
			if g, ok := row.Grades[col.AssessmentID]; ok {
				cell = formatFloat(g.Score)
			}
			record = append(record, cell)
		}
		final, letter := "", ""
		if row.FinalPercentage != nil {
			final = formatFloat(*row.FinalPercentage)
		}
		if row.LetterGrade != nil {
			letter = *row.LetterGrade
		}
		record = append(record, final, letter)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// StudentGrades groups the student's entries per enrolled course with the final grade
func (s *gradebookServiceImpl) StudentGrades(ctx context.Context, actor authz.Actor) ([]dto.StudentCourseGrades, error) {
	enrollments, err := s.enrollmentRepo.ListByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	grades, err := s.gradeRepo.ListByStudent(ctx, actor.UserID, 0)
	if err != nil {
		return nil, err
	}

	byCourse := make(map[int64][]*models.Grade)
	for _, g := range grades {
		byCourse[g.CourseID] = append(byCourse[g.CourseID], g)
	}

	out := make([]dto.StudentCourseGrades, 0, len(enrollments))
	for _, e := range enrollments {
		if !e.IsActive() {
			continue
		}
		scheme, err := s.gradeRepo.GetScheme(ctx, e.CourseID)
		if err != nil {
			return nil, err
		}

		entries := byCourse[e.CourseID]
		if entries == nil {
			entries = []*models.Grade{}
		}
		item := dto.StudentCourseGrades{CourseID: e.CourseID, Entries: entries}
		if e.Course != nil {
			item.CourseTitle = e.Course.Title
		}
		item.FinalPercentage, item.LetterGrade = finalGrade(scheme, entries, nil)
		out = append(out, item)
	}
	return out, nil
}
