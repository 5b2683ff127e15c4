package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

const applyStatement = "I have been writing Go for two years and want to go deeper."

var courseOwner = authz.Actor{UserID: 5, Role: models.RoleInstructor}

type applicationFixture struct {
	svc          ApplicationService
	applications *memApplications
	enrollments  *memEnrollments
	users        *memUsers
	notifier     *recordingNotifier
}

func newApplicationFixture(courses ...*models.Course) *applicationFixture {
	f := &applicationFixture{
		applications: &memApplications{},
		enrollments:  &memEnrollments{},
		users:        newMemUsers(&models.User{ID: student.UserID, Role: models.RoleStudent}),
		notifier:     &recordingNotifier{},
	}
	f.svc = NewApplicationService(f.applications, newMemCourses(courses...), f.users, f.enrollments, f.notifier, zerolog.Nop())
	return f
}

func gatedCourse(free bool) *models.Course {
	c := &models.Course{ID: 30, InstructorID: courseOwner.UserID, Title: "Kernel Hacking", Status: models.CoursePublished, RequiresApplication: true, IsFree: free}
	if !free {
		c.PriceCents = 9900
	}
	return c
}

func courseApplication(courseID int64) *dto.CreateApplicationRequest {
	return &dto.CreateApplicationRequest{Type: models.ApplicationCourse, CourseID: &courseID, Statement: applyStatement}
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("course application notifies the instructor", func(t *testing.T) {
		f := newApplicationFixture(gatedCourse(true))
		app, err := f.svc.Apply(ctx, student, courseApplication(30))
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationPending, app.Status)
		assert.Equal(t, "Kernel Hacking", app.CourseTitle)
		assert.Equal(t, courseOwner.UserID, f.notifier.last().UserID)

		_, err = f.svc.Apply(ctx, student, courseApplication(30))
		assert.ErrorIs(t, err, apperrors.ErrApplicationExists)
	})

	t.Run("statement length", func(t *testing.T) {
		f := newApplicationFixture(gatedCourse(true))
		req := courseApplication(30)
		req.Statement = "  too short "
		_, err := f.svc.Apply(ctx, student, req)
		assert.Equal(t, []string{"statement"}, fieldsOf(t, err))
	})

	t.Run("course must take applications", func(t *testing.T) {
		c := gatedCourse(true)
		c.RequiresApplication = false
		f := newApplicationFixture(c)
		_, err := f.svc.Apply(ctx, student, courseApplication(30))
		assert.Equal(t, []string{"courseId"}, fieldsOf(t, err))

		_, err = f.svc.Apply(ctx, student, &dto.CreateApplicationRequest{Type: models.ApplicationCourse, Statement: applyStatement})
		assert.Equal(t, []string{"courseId"}, fieldsOf(t, err))
	})

	t.Run("enrolled students cannot apply", func(t *testing.T) {
		f := newApplicationFixture(gatedCourse(true))
		_, err := f.enrollments.Enroll(ctx, student.UserID, 30, nil)
		require.NoError(t, err)
		_, err = f.svc.Apply(ctx, student, courseApplication(30))
		assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)
	})

	t.Run("only students apply to teach", func(t *testing.T) {
		f := newApplicationFixture()
		_, err := f.svc.Apply(ctx, courseOwner, &dto.CreateApplicationRequest{Type: models.ApplicationInstructor, Statement: applyStatement})
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

		app, err := f.svc.Apply(ctx, student, &dto.CreateApplicationRequest{Type: models.ApplicationInstructor, Statement: applyStatement})
		require.NoError(t, err)
		assert.Nil(t, app.CourseID)
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	f := newApplicationFixture(gatedCourse(true))
	app, err := f.svc.Apply(ctx, student, courseApplication(30))
	require.NoError(t, err)

	_, err = f.svc.Withdraw(ctx, authz.Actor{UserID: 77, Role: models.RoleStudent}, app.ID)
	assert.ErrorIs(t, err, authz.ErrNotOwner)

	got, err := f.svc.Withdraw(ctx, student, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationWithdrawn, got.Status)

	_, err = f.svc.Withdraw(ctx, student, app.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestDecide(t *testing.T) {
	ctx := context.Background()
	approve := &dto.ReviewDecisionRequest{Decision: "APPROVED"}

	t.Run("approving a free course enrolls the applicant", func(t *testing.T) {
		f := newApplicationFixture(gatedCourse(true))
		app, err := f.svc.Apply(ctx, student, courseApplication(30))
		require.NoError(t, err)

		got, err := f.svc.Decide(ctx, courseOwner, app.ID, approve)
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationApproved, got.Status)
		require.NotNil(t, got.ReviewerID)
		assert.Equal(t, courseOwner.UserID, *got.ReviewerID)

		e, err := f.enrollments.Get(ctx, student.UserID, 30)
		require.NoError(t, err)
		assert.True(t, e.IsActive())

		require.Len(t, f.notifier.mailed, 1)
		assert.Contains(t, f.notifier.mailed[0].Message, "You are now enrolled")

		_, err = f.svc.Decide(ctx, courseOwner, app.ID, approve)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	})

	t.Run("approving a paid course asks for payment", func(t *testing.T) {
		f := newApplicationFixture(gatedCourse(false))
		app, err := f.svc.Apply(ctx, student, courseApplication(30))
		require.NoError(t, err)

		_, err = f.svc.Decide(ctx, courseOwner, app.ID, approve)
		require.NoError(t, err)
		_, err = f.enrollments.Get(ctx, student.UserID, 30)
		assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
		assert.Contains(t, f.notifier.mailed[0].Message, "complete the purchase")
	})

	t.Run("rejection carries the note", func(t *testing.T) {
		f := newApplicationFixture(gatedCourse(true))
		app, err := f.svc.Apply(ctx, student, courseApplication(30))
		require.NoError(t, err)

		got, err := f.svc.Decide(ctx, admin, app.ID, &dto.ReviewDecisionRequest{Decision: "REJECTED", Note: " Course is full this term "})
		require.NoError(t, err)
		assert.Equal(t, "Course is full this term", got.ReviewNote)
		assert.Equal(t, "We declined your application to Kernel Hacking: Course is full this term", f.notifier.mailed[0].Message)
	})

	t.Run("other instructors cannot decide", func(t *testing.T) {
		f := newApplicationFixture(gatedCourse(true))
		app, err := f.svc.Apply(ctx, student, courseApplication(30))
		require.NoError(t, err)

		_, err = f.svc.Decide(ctx, authz.Actor{UserID: 6, Role: models.RoleInstructor}, app.ID, approve)
		assert.ErrorIs(t, err, authz.ErrNotOwner)
	})

	t.Run("instructor applications are admin only and promote", func(t *testing.T) {
		f := newApplicationFixture()
		app, err := f.svc.Apply(ctx, student, &dto.CreateApplicationRequest{Type: models.ApplicationInstructor, Statement: applyStatement})
		require.NoError(t, err)

		_, err = f.svc.Decide(ctx, courseOwner, app.ID, approve)
		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

		_, err = f.svc.Decide(ctx, admin, app.ID, approve)
		require.NoError(t, err)
		assert.Equal(t, models.RoleInstructor, f.users.roles[student.UserID])
	})
}

func TestListForReview(t *testing.T) {
	ctx := context.Background()
	f := newApplicationFixture(gatedCourse(true))
	_, err := f.svc.Apply(ctx, student, courseApplication(30))
	require.NoError(t, err)
	_, err = f.svc.Apply(ctx, student, &dto.CreateApplicationRequest{Type: models.ApplicationInstructor, Statement: applyStatement})
	require.NoError(t, err)

	all, err := f.svc.ListForReview(ctx, admin, &dto.ApplicationFilterRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListForReview(ctx, student, &dto.ApplicationFilterRequest{})
	assert.ErrorIs(t, err, authz.ErrNotInstructor)

	mine, err := f.svc.ListForReview(ctx, courseOwner, &dto.ApplicationFilterRequest{Type: "INSTRUCTOR"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.ApplicationCourse, mine[0].Type)
}
