package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	authz "github.com/yigit/learnsphere/internal/app/auth"
	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

// CourseWizardService drives the multi-step course creation wizard
type CourseWizardService interface {
	CreateDraft(ctx context.Context, actor authz.Actor) (*models.CourseDraft, error)
	ListDrafts(ctx context.Context, actor authz.Actor) ([]*models.CourseDraft, error)
	GetDraft(ctx context.Context, actor authz.Actor, id int64) (*models.CourseDraft, error)
	SaveStep(ctx context.Context, actor authz.Actor, id int64, step int, payload json.RawMessage) (*models.CourseDraft, error)
	Back(ctx context.Context, actor authz.Actor, id int64) (*models.CourseDraft, error)
	Submit(ctx context.Context, actor authz.Actor, id int64) (*models.Course, error)
	DeleteDraft(ctx context.Context, actor authz.Actor, id int64) error
}

type courseWizardServiceImpl struct {
	draftRepo  DraftStore
	courseRepo CourseStore
	logger     zerolog.Logger
}

// NewCourseWizardService creates a new wizard service
func NewCourseWizardService(draftRepo DraftStore, courseRepo CourseStore, logger zerolog.Logger) CourseWizardService {
	return &courseWizardServiceImpl{
		draftRepo:  draftRepo,
		courseRepo: courseRepo,
		logger:     logger,
	}
}

// CreateDraft starts a wizard at the first step
func (s *courseWizardServiceImpl) CreateDraft(ctx context.Context, actor authz.Actor) (*models.CourseDraft, error) {
	if err := authz.ValidateInstructor(actor); err != nil {
		return nil, err
	}

	draft := &models.CourseDraft{
		InstructorID: actor.UserID,
		CurrentStep:  models.StepBasicInfo,
	}
	if err := s.draftRepo.Create(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// ListDrafts lists the drafts of the caller
func (s *courseWizardServiceImpl) ListDrafts(ctx context.Context, actor authz.Actor) ([]*models.CourseDraft, error) {
	return s.draftRepo.ListByInstructor(ctx, actor.UserID)
}

// GetDraft returns a draft owned by the caller
func (s *courseWizardServiceImpl) GetDraft(ctx context.Context, actor authz.Actor, id int64) (*models.CourseDraft, error) {
	draft, err := s.draftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.InstructorID != actor.UserID {
		return nil, authz.ErrNotOwner
	}
	return draft, nil
}

// editableDraft returns a draft the caller may still change
func (s *courseWizardServiceImpl) editableDraft(ctx context.Context, actor authz.Actor, id int64) (*models.CourseDraft, error) {
	draft, err := s.GetDraft(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if draft.IsSubmitted() {
		return nil, apperrors.ErrDraftAlreadyCreated
	}
	return draft, nil
}

// decodeStep parses the payload of a content step into a copy of the draft data
func decodeStep(step int, data models.DraftData, payload json.RawMessage) (models.DraftData, error) {
	if step == models.StepReview {
		return data, nil
	}

	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return data, apperrors.NewValidationError("payload", "step data is required")
	}

	var target interface{}
	switch step {
	case models.StepBasicInfo:
		data.BasicInfo = &models.BasicInfoStep{}
		target = data.BasicInfo
	case models.StepCurriculum:
		data.Curriculum = &models.CurriculumStep{}
		target = data.Curriculum
	case models.StepDetails:
		data.Details = &models.DetailsStep{}
		target = data.Details
	case models.StepPricing:
		data.Pricing = &models.PricingStep{}
		target = data.Pricing
	default:
		return data, apperrors.NewValidationError("step", fmt.Sprintf("must be between %d and %d", models.StepBasicInfo, models.StepReview))
	}

	if err := json.Unmarshal(trimmed, target); err != nil {
		return data, apperrors.NewValidationError("payload", "invalid step data: "+err.Error())
	}
	return data, nil
}

// nextStep unlocks the step after the saved one without moving backwards
func nextStep(current, saved int) int {
	next := saved + 1
	if current > next {
		next = current
	}
	if next > models.StepReview {
		next = models.StepReview
	}
	return next
}

// SaveStep validates and stores one step. Steps after the current one are locked.
func (s *courseWizardServiceImpl) SaveStep(ctx context.Context, actor authz.Actor, id int64, step int, payload json.RawMessage) (*models.CourseDraft, error) {
	if step < models.StepBasicInfo || step > models.StepReview {
		return nil, apperrors.NewValidationError("step", fmt.Sprintf("must be between %d and %d", models.StepBasicInfo, models.StepReview))
	}

	draft, err := s.editableDraft(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if step > draft.CurrentStep {
		return nil, apperrors.ErrWizardStepLocked
	}

	data, err := decodeStep(step, draft.Data, payload)
	if err != nil {
		return nil, err
	}
	if err := ValidateWizardStep(step, &data); err != nil {
		return nil, err
	}

	draft.Data = data
	draft.CurrentStep = nextStep(draft.CurrentStep, step)
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Back moves the wizard one step back
func (s *courseWizardServiceImpl) Back(ctx context.Context, actor authz.Actor, id int64) (*models.CourseDraft, error) {
	draft, err := s.editableDraft(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if draft.CurrentStep > models.StepBasicInfo {
		draft.CurrentStep--
	}
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Submit re-validates every step and creates the course with its outline in one transaction
func (s *courseWizardServiceImpl) Submit(ctx context.Context, actor authz.Actor, id int64) (*models.Course, error) {
	draft, err := s.editableDraft(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if draft.CurrentStep != models.StepReview {
		return nil, apperrors.ErrWizardIncomplete
	}
	if err := ValidateDraftData(&draft.Data); err != nil {
		return nil, err
	}

	course, sections := buildCourse(draft.InstructorID, &draft.Data)
	if err := s.courseRepo.CreateWithOutline(ctx, course, sections, &draft.ID); err != nil {
		return nil, err
	}
	course.Sections = sections
	draft.SubmittedCourseID = &course.ID

	s.logger.Info().Int64("draftID", draft.ID).Int64("courseID", course.ID).Msg("Course created from wizard")
	return course, nil
}

// DeleteDraft removes a draft of the caller
func (s *courseWizardServiceImpl) DeleteDraft(ctx context.Context, actor authz.Actor, id int64) error {
	if _, err := s.GetDraft(ctx, actor, id); err != nil {
		return err
	}
	return s.draftRepo.Delete(ctx, id)
}
