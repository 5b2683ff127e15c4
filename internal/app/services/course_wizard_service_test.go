package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

type memDrafts struct {
	DraftStore
	rows map[int64]*models.CourseDraft
}

func (m *memDrafts) Create(_ context.Context, d *models.CourseDraft) error {
	d.ID = int64(len(m.rows) + 1)
	cp := *d
	m.rows[d.ID] = &cp
	return nil
}

func (m *memDrafts) GetByID(_ context.Context, id int64) (*models.CourseDraft, error) {
	d, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrDraftNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDrafts) Update(_ context.Context, d *models.CourseDraft) error {
	cp := *d
	m.rows[d.ID] = &cp
	return nil
}

func (m *memDrafts) Delete(_ context.Context, id int64) error {
	delete(m.rows, id)
	return nil
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestNextStep(t *testing.T) {
	assert.Equal(t, 2, nextStep(1, 1))
	assert.Equal(t, 4, nextStep(4, 2), "saving an earlier step keeps progress")
	assert.Equal(t, models.StepReview, nextStep(5, 5))
}

func TestCourseWizard(t *testing.T) {
	ctx := context.Background()
	drafts := &memDrafts{rows: map[int64]*models.CourseDraft{}}
	courses := newMemCourses()
	svc := NewCourseWizardService(drafts, courses, zerolog.Nop())
	data := completeDraftData()

	_, err := svc.CreateDraft(ctx, student)
	assert.ErrorIs(t, err, authz.ErrNotInstructor)

	draft, err := svc.CreateDraft(ctx, courseOwner)
	require.NoError(t, err)
	assert.Equal(t, models.StepBasicInfo, draft.CurrentStep)

	_, err = svc.SaveStep(ctx, courseOwner, draft.ID, models.StepCurriculum, mustJSON(t, data.Curriculum))
	assert.ErrorIs(t, err, apperrors.ErrWizardStepLocked)

	_, err = svc.SaveStep(ctx, courseOwner, draft.ID, models.StepBasicInfo, json.RawMessage(`null`))
	assert.Equal(t, []string{"payload"}, fieldsOf(t, err))

	_, err = svc.SaveStep(ctx, courseOwner, draft.ID, 0, nil)
	assert.Equal(t, []string{"step"}, fieldsOf(t, err))

	_, err = svc.SaveStep(ctx, authz.Actor{UserID: 6, Role: models.RoleInstructor}, draft.ID, models.StepBasicInfo, mustJSON(t, data.BasicInfo))
	assert.ErrorIs(t, err, authz.ErrNotOwner)

	steps := []struct {
		step    int
		payload interface{}
	}{
		{models.StepBasicInfo, data.BasicInfo},
		{models.StepCurriculum, data.Curriculum},
		{models.StepDetails, data.Details},
		{models.StepPricing, data.Pricing},
	}
	for _, s := range steps {
		draft, err = svc.SaveStep(ctx, courseOwner, draft.ID, s.step, mustJSON(t, s.payload))
		require.NoError(t, err, "step %d", s.step)
	}
	assert.Equal(t, models.StepReview, draft.CurrentStep)

	draft, err = svc.SaveStep(ctx, courseOwner, draft.ID, models.StepReview, nil)
	require.NoError(t, err, "the review step takes no payload")
	assert.Equal(t, models.StepReview, draft.CurrentStep)

	_, err = svc.Back(ctx, courseOwner, draft.ID)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, courseOwner, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrWizardIncomplete)

	invalid := *data.BasicInfo
	invalid.Title = "Go"
	_, err = svc.SaveStep(ctx, courseOwner, draft.ID, models.StepBasicInfo, mustJSON(t, &invalid))
	assert.Equal(t, []string{"basicInfo.title"}, fieldsOf(t, err))

	draft, err = svc.SaveStep(ctx, courseOwner, draft.ID, models.StepPricing, mustJSON(t, data.Pricing))
	require.NoError(t, err)
	require.Equal(t, models.StepReview, draft.CurrentStep)

	course, err := svc.Submit(ctx, courseOwner, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusDraft, course.Status)
	assert.Equal(t, courseOwner.UserID, course.InstructorID)
	assert.Equal(t, "Concurrency in Go", course.Title)
	assert.Len(t, course.Sections, 2)
	assert.Equal(t, []int64{draft.ID}, courses.fromDraft)

	// The repository links the draft to the course on submit
	stored := drafts.rows[draft.ID]
	stored.SubmittedCourseID = &course.ID
	_, err = svc.SaveStep(ctx, courseOwner, draft.ID, models.StepBasicInfo, mustJSON(t, data.BasicInfo))
	assert.ErrorIs(t, err, apperrors.ErrDraftAlreadyCreated)

	require.NoError(t, svc.DeleteDraft(ctx, courseOwner, draft.ID))
	_, err = svc.GetDraft(ctx, courseOwner, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrDraftNotFound)
}
