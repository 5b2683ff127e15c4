package services

import (
	"fmt"
	"strings"

	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/validation"
)

// Assessment builder limits
const (
	assessmentTitleMinLength = 3
	assessmentTitleMaxLength = 200
	maxTimeLimitMinutes      = 600
	minAttempts              = 1
	maxAttempts              = 10
	minQuestionPoints        = 0.5
	maxQuestionPoints        = 100
	minChoiceOptions         = 2

	// questionlessTotalPoints is the scale of assessments graded as a whole
	questionlessTotalPoints = 100
)

func validateQuestion(v *apperrors.ValidationError, field string, q *dto.QuestionRequest) {
	q.Prompt = strings.TrimSpace(q.Prompt)
	if q.Prompt == "" {
		v.Add(field+".prompt", "is required")
	}
	if q.Points < minQuestionPoints || q.Points > maxQuestionPoints {
		v.Add(field+".points", "must be between %g and %g", minQuestionPoints, float64(maxQuestionPoints))
	}

	correct := 0
	for i := range q.Options {
		q.Options[i].Text = strings.TrimSpace(q.Options[i].Text)
		if q.Options[i].IsCorrect {
			correct++
		}
	}
	checkOptions := func() {
		if len(q.Options) < minChoiceOptions {
			v.Add(field+".options", "at least %d options are required", minChoiceOptions)
		}
		for i := range q.Options {
			if q.Options[i].Text == "" {
				v.Add(fmt.Sprintf("%s.options[%d].text", field, i), "is required")
			}
		}
	}

	switch q.Type {
	case models.QuestionMultipleChoice:
		checkOptions()
		if correct != 1 {
			v.Add(field+".options", "exactly one option must be correct")
		}
	case models.QuestionMultipleSelect:
		checkOptions()
		if correct < 1 {
			v.Add(field+".options", "at least one option must be correct")
		}
	case models.QuestionTrueFalse:
		if q.CorrectAnswer == nil {
			v.Add(field+".correctAnswer", "must be true or false")
		}
	case models.QuestionShortAnswer:
		for i, a := range q.AcceptedAnswers {
			if strings.TrimSpace(a) == "" {
				v.Add(fmt.Sprintf("%s.acceptedAnswers[%d]", field, i), "must not be empty")
			}
		}
	case models.QuestionEssay:
		if len(q.Options) > 0 {
			v.Add(field+".options", "essay questions have no options")
		}
	default:
		v.Add(field+".type", "must be one of MULTIPLE_CHOICE, MULTIPLE_SELECT, TRUE_FALSE, SHORT_ANSWER, ESSAY")
	}
}

// ValidateAssessmentRequest checks the builder payload with its nested questions
func ValidateAssessmentRequest(req *dto.AssessmentRequest) error {
	v := &apperrors.ValidationError{}

	req.Title = strings.TrimSpace(req.Title)
	if !validation.NewStringValidation(req.Title).WithMinLength(assessmentTitleMinLength).WithMaxLength(assessmentTitleMaxLength).Validate() {
		v.Add("title", "must be between %d and %d characters", assessmentTitleMinLength, assessmentTitleMaxLength)
	}
	if !req.Type.IsValid() {
		v.Add("type", "must be one of QUIZ, EXAM, ASSIGNMENT, PROJECT")
	}
	if !validation.InRange(req.PassingScore, 0, 100) {
		v.Add("passingScore", "must be between 0 and 100")
	}
	if !validation.InRange(req.TimeLimitMinutes, 0, maxTimeLimitMinutes) {
		v.Add("timeLimitMinutes", "must be between 0 and %d", maxTimeLimitMinutes)
	}
	if !validation.InRange(req.MaxAttempts, minAttempts, maxAttempts) {
		v.Add("maxAttempts", "must be between %d and %d", minAttempts, maxAttempts)
	}
	if req.AvailableFrom != nil && req.DueAt != nil && !req.DueAt.After(*req.AvailableFrom) {
		v.Add("dueAt", "must be after availableFrom")
	}
	if req.Type.RequiresQuestions() && len(req.Questions) == 0 {
		v.Add("questions", "at least one question is required for a %s", strings.ToLower(string(req.Type)))
	}

	for i := range req.Questions {
		validateQuestion(v, fmt.Sprintf("questions[%d]", i), &req.Questions[i])
	}

	return v.Err()
}

// buildAssessment converts a validated request into an assessment with positioned questions
func buildAssessment(courseID int64, req *dto.AssessmentRequest) *models.Assessment {
	a := &models.Assessment{
		CourseID:         courseID,
		Title:            req.Title,
		Description:      strings.TrimSpace(req.Description),
		Type:             req.Type,
		Status:           models.AssessmentDraft,
		PassingScore:     req.PassingScore,
		TimeLimitMinutes: req.TimeLimitMinutes,
		MaxAttempts:      req.MaxAttempts,
		AvailableFrom:    req.AvailableFrom,
		DueAt:            req.DueAt,
		AllowLate:        req.AllowLate,
	}

	total := 0.0
	for i, qr := range req.Questions {
		q := &models.Question{
			Type:        qr.Type,
			Prompt:      qr.Prompt,
			Points:      qr.Points,
			Position:    i + 1,
			Options:     []models.AnswerOption{},
			Explanation: strings.TrimSpace(qr.Explanation),
		}
		switch qr.Type {
		case models.QuestionMultipleChoice, models.QuestionMultipleSelect:
			for j, o := range qr.Options {
				q.Options = append(q.Options, models.AnswerOption{
					ID:        fmt.Sprintf("opt-%d", j+1),
					Text:      o.Text,
					IsCorrect: o.IsCorrect,
				})
			}
		case models.QuestionTrueFalse:
			q.CorrectAnswer = qr.CorrectAnswer
		case models.QuestionShortAnswer:
			for _, accepted := range qr.AcceptedAnswers {
				q.AcceptedAnswers = append(q.AcceptedAnswers, strings.TrimSpace(accepted))
			}
		}
		total += q.Points
		a.Questions = append(a.Questions, q)
	}

	a.TotalPoints = total
	if len(a.Questions) == 0 {
		a.TotalPoints = questionlessTotalPoints
	}
	return a
}
