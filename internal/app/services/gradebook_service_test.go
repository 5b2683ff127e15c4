package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

func gradebookInput() ([]*models.Assessment, []*models.Enrollment, []*models.Grade) {
	assessments := []*models.Assessment{
		{ID: 7, Title: "Goroutines quiz", Type: models.AssessmentQuiz, TotalPoints: 10},
		{ID: 8, Title: "Final exam", Type: models.AssessmentExam, TotalPoints: 50},
	}
	enrollments := []*models.Enrollment{
		{StudentID: 42, StudentName: "Grace Hopper", StudentMail: "grace@example.test", Status: models.EnrollmentActive},
		{StudentID: 43, StudentName: "alan Turing", StudentMail: "alan@example.test", Status: models.EnrollmentCompleted},
		{StudentID: 44, StudentName: "Dropped Student", StudentMail: "gone@example.test", Status: models.EnrollmentDropped},
	}
	grades := []*models.Grade{
		{AssessmentID: 7, StudentID: 42, Score: 10, MaxScore: 10, Percentage: 100, Source: models.GradeFromSubmission},
		{AssessmentID: 7, StudentID: 43, Score: 8, MaxScore: 10, Percentage: 80, Source: models.GradeManual, Feedback: "close"},
		{AssessmentID: 7, StudentID: 44, Score: 0, MaxScore: 10, Percentage: 0, Source: models.GradeFromSubmission},
		{AssessmentID: 99, StudentID: 42, Score: 1, MaxScore: 1, Percentage: 100},
	}
	return assessments, enrollments, grades
}

func TestBuildGradebook(t *testing.T) {
	assessments, enrollments, grades := gradebookInput()
	book := buildGradebook(3, nil, assessments, enrollments, grades)

	assert.Equal(t, int64(3), book.CourseID)
	require.Len(t, book.Columns, 2)
	require.NotNil(t, book.Columns[0].ClassAverage)
	assert.Equal(t, 90.0, *book.Columns[0].ClassAverage, "dropped students stay out of the average")
	assert.Nil(t, book.Columns[1].ClassAverage, "nobody took the exam")

	require.Len(t, book.Rows, 2)
	assert.Equal(t, int64(43), book.Rows[0].StudentID, "rows sort by name ignoring case")
	assert.Equal(t, int64(42), book.Rows[1].StudentID)

	alan := book.Rows[0]
	require.Contains(t, alan.Grades, int64(7))
	assert.Equal(t, models.GradeManual, alan.Grades[7].Source)
	assert.Equal(t, "close", alan.Grades[7].Feedback)
	assert.NotContains(t, alan.Grades, int64(8))
	require.NotNil(t, alan.FinalPercentage)
	assert.Equal(t, 80.0, *alan.FinalPercentage)
	require.NotNil(t, alan.LetterGrade)
	assert.Equal(t, "B", *alan.LetterGrade)

	grace := book.Rows[1]
	assert.NotContains(t, grace.Grades, int64(99), "grades outside the columns are ignored")
	require.NotNil(t, grace.FinalPercentage)
	assert.Equal(t, 100.0, *grace.FinalPercentage)
}

func TestBuildGradebookOnlyDroppedGrades(t *testing.T) {
	assessments := []*models.Assessment{{ID: 7, Title: "Quiz", Type: models.AssessmentQuiz, TotalPoints: 10}}
	enrollments := []*models.Enrollment{
		{StudentID: 42, StudentName: "Grace Hopper", Status: models.EnrollmentActive},
		{StudentID: 44, StudentName: "Dropped Student", Status: models.EnrollmentDropped},
	}
	grades := []*models.Grade{{AssessmentID: 7, StudentID: 44, Score: 0, MaxScore: 10, Percentage: 0}}

	book := buildGradebook(3, nil, assessments, enrollments, grades)
	assert.Nil(t, book.Columns[0].ClassAverage)
	require.Len(t, book.Rows, 1)
	assert.Nil(t, book.Rows[0].FinalPercentage)
	assert.Nil(t, book.Rows[0].LetterGrade)
}

func TestWriteGradebookCSV(t *testing.T) {
	assessments, enrollments, grades := gradebookInput()
	book := buildGradebook(3, nil, assessments, enrollments, grades)

	var buf bytes.Buffer
	require.NoError(t, writeGradebookCSV(&buf, book))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus one line per active student")
	assert.Equal(t, []string{"Student ID", "Name", "Email", "Goroutines quiz (10)", "Final exam (50)", "Final %", "Letter"}, records[0])
	assert.Equal(t, []string{"43", "alan Turing", "alan@example.test", "8", "", "80", "B"}, records[1])
	assert.Equal(t, []string{"42", "Grace Hopper", "grace@example.test", "10", "", "100", "A"}, records[2])
}

type manualGradeFixture struct {
	svc         GradebookService
	assessment  *models.Assessment
	enrollments *memEnrollments
	grades      *recordingGrades
	notifier    *recordingNotifier
}

func newManualGradeFixture(t *testing.T) *manualGradeFixture {
	t.Helper()
	a := quizAssessment()
	a.Title = "Goroutines quiz"
	f := &manualGradeFixture{
		assessment:  a,
		enrollments: &memEnrollments{},
		grades:      &recordingGrades{},
		notifier:    &recordingNotifier{},
	}
	course := &models.Course{ID: a.CourseID, InstructorID: courseOwner.UserID, Title: "Go Basics", Status: models.CoursePublished}
	f.svc = NewGradebookService(
		f.grades,
		newMemCourses(course),
		&memAssessments{rows: map[int64]*models.Assessment{a.ID: a}},
		f.enrollments,
		f.notifier,
		zerolog.Nop(),
	)
	_, err := f.enrollments.Enroll(context.Background(), student.UserID, a.CourseID, nil)
	require.NoError(t, err)
	return f
}

func TestSetManualGrade(t *testing.T) {
	ctx := context.Background()
	req := func(score float64) *dto.ManualGradeRequest {
		return &dto.ManualGradeRequest{StudentID: student.UserID, AssessmentID: 7, Score: score, Feedback: " Solid work. "}
	}

	t.Run("records the cell and notifies", func(t *testing.T) {
		f := newManualGradeFixture(t)
		g, err := f.svc.SetManualGrade(ctx, courseOwner, 3, req(7.5))
		require.NoError(t, err)
		assert.Equal(t, 75.0, g.Percentage)
		assert.Equal(t, models.GradeManual, g.Source)
		assert.Equal(t, "Solid work.", g.Feedback)
		require.NotNil(t, g.GradedBy)
		assert.Equal(t, courseOwner.UserID, *g.GradedBy)
		require.Len(t, f.grades.upserts, 1)
		assert.Equal(t, student.UserID, f.notifier.last().UserID)
		assert.Equal(t, models.NotificationGrade, f.notifier.last().Type)
	})

	tests := []struct {
		name    string
		actor   authz.Actor
		course  int64
		mutate  func(f *manualGradeFixture)
		score   float64
		wantErr error
	}{
		{"not the owner", authz.Actor{UserID: 6, Role: models.RoleInstructor}, 3, nil, 5, authz.ErrNotOwner},
		{"assessment of another course", courseOwner, 3, func(f *manualGradeFixture) { f.assessment.CourseID = 4 }, 5, apperrors.ErrAssessmentNotFound},
		{"draft assessment", courseOwner, 3, func(f *manualGradeFixture) { f.assessment.Status = models.AssessmentDraft }, 5, apperrors.ErrAssessmentNotEditable},
		{"dropped student", courseOwner, 3, func(f *manualGradeFixture) { f.enrollments.rows[0].Status = models.EnrollmentDropped }, 5, apperrors.ErrNotEnrolled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newManualGradeFixture(t)
			if tt.mutate != nil {
				tt.mutate(f)
			}
			_, err := f.svc.SetManualGrade(ctx, tt.actor, tt.course, req(tt.score))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.grades.upserts)
		})
	}

	t.Run("score above the maximum", func(t *testing.T) {
		f := newManualGradeFixture(t)
		_, err := f.svc.SetManualGrade(ctx, courseOwner, 3, req(11))
		assert.Equal(t, []string{"score"}, fieldsOf(t, err))
		assert.Empty(t, f.grades.upserts)
	})

	t.Run("closed assessments stay gradable", func(t *testing.T) {
		f := newManualGradeFixture(t)
		f.assessment.Status = models.AssessmentClosed
		_, err := f.svc.SetManualGrade(ctx, courseOwner, 3, req(10))
		require.NoError(t, err)
	})
}
