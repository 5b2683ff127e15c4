package dto

import (
	"time"

	"github.com/yigit/learnsphere/internal/app/models"
)

// AssessmentRequest creates or replaces an assessment with its full question list
type AssessmentRequest struct {
	Title            string                `json:"title"`
	Description      string                `json:"description"`
	Type             models.AssessmentType `json:"type"`
	PassingScore     float64               `json:"passingScore"`
	TimeLimitMinutes int                   `json:"timeLimitMinutes"`
	MaxAttempts      int                   `json:"maxAttempts"`
	AvailableFrom    *time.Time            `json:"availableFrom"`
	DueAt            *time.Time            `json:"dueAt"`
	AllowLate        bool                  `json:"allowLate"`
	Questions        []QuestionRequest     `json:"questions"`
}

// QuestionRequest is a question inside AssessmentRequest
type QuestionRequest struct {
	Type            models.QuestionType `json:"type"`
	Prompt          string              `json:"prompt"`
	Points          float64             `json:"points"`
	Options         []OptionRequest     `json:"options"`
	CorrectAnswer   *bool               `json:"correctAnswer"`
	AcceptedAnswers []string            `json:"acceptedAnswers"`
	Explanation     string              `json:"explanation"`
}

// OptionRequest is a choice of a question
type OptionRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// SubmitAssessmentRequest carries a student's answers.
// Content is the free-form work of assignments without questions.
type SubmitAssessmentRequest struct {
	Answers []AnswerRequest `json:"answers" binding:"dive"`
	Content string          `json:"content" binding:"max=20000"`
}

// AnswerRequest is the answer to a single question
type AnswerRequest struct {
	QuestionID int64    `json:"questionId" binding:"required,min=1"`
	Answer     string   `json:"answer"`
	Selected   []string `json:"selected"`
}

// GradeSubmissionRequest is the manual grading of pending answers.
// Score is the overall result of an assessment without questions.
type GradeSubmissionRequest struct {
	Scores   []QuestionScore `json:"scores" binding:"dive"`
	Score    *float64        `json:"score" binding:"omitempty,min=0"`
	Feedback string          `json:"feedback" binding:"max=5000"`
}

// QuestionScore awards points for one question
type QuestionScore struct {
	QuestionID int64   `json:"questionId" binding:"required,min=1"`
	Points     float64 `json:"points" binding:"min=0"`
}

// StudentQuestion is a question with the answer key stripped
type StudentQuestion struct {
	ID       int64           `json:"id"`
	Type     string          `json:"type"`
	Prompt   string          `json:"prompt"`
	Points   float64         `json:"points"`
	Position int             `json:"position"`
	Options  []StudentOption `json:"options,omitempty"`
}

// StudentOption is a choice without its correctness flag
type StudentOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// StudentAssessmentResponse is what a student sees before answering
type StudentAssessmentResponse struct {
	ID               int64                `json:"id"`
	CourseID         int64                `json:"courseId"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Type             string               `json:"type"`
	PassingScore     float64              `json:"passingScore"`
	TimeLimitMinutes int                  `json:"timeLimitMinutes"`
	MaxAttempts      int                  `json:"maxAttempts"`
	AvailableFrom    *time.Time           `json:"availableFrom,omitempty"`
	DueAt            *time.Time           `json:"dueAt,omitempty"`
	AllowLate        bool                 `json:"allowLate"`
	TotalPoints      float64              `json:"totalPoints"`
	AttemptsUsed     int                  `json:"attemptsUsed"`
	Questions        []StudentQuestion    `json:"questions"`
	Submissions      []*models.Submission `json:"submissions,omitempty"`
}

// NewStudentAssessmentResponse hides correct answers
func NewStudentAssessmentResponse(a *models.Assessment, submissions []*models.Submission) *StudentAssessmentResponse {
	questions := make([]StudentQuestion, 0, len(a.Questions))
	for _, q := range a.Questions {
		sq := StudentQuestion{ID: q.ID, Type: string(q.Type), Prompt: q.Prompt, Points: q.Points, Position: q.Position}
		for _, o := range q.Options {
			sq.Options = append(sq.Options, StudentOption{ID: o.ID, Text: o.Text})
		}
		questions = append(questions, sq)
	}
	return &StudentAssessmentResponse{
		ID:               a.ID,
		CourseID:         a.CourseID,
		Title:            a.Title,
		Description:      a.Description,
		Type:             string(a.Type),
		PassingScore:     a.PassingScore,
		TimeLimitMinutes: a.TimeLimitMinutes,
		MaxAttempts:      a.MaxAttempts,
		AvailableFrom:    a.AvailableFrom,
		DueAt:            a.DueAt,
		AllowLate:        a.AllowLate,
		TotalPoints:      a.TotalPoints,
		AttemptsUsed:     len(submissions),
		Questions:        questions,
		Submissions:      submissions,
	}
}

// StudentAssessmentSummary is a row of the student's assessment list
type StudentAssessmentSummary struct {
	ID           int64      `json:"id"`
	CourseID     int64      `json:"courseId"`
	CourseTitle  string     `json:"courseTitle"`
	Title        string     `json:"title"`
	Type         string     `json:"type"`
	DueAt        *time.Time `json:"dueAt,omitempty"`
	MaxAttempts  int        `json:"maxAttempts"`
	AttemptsUsed int        `json:"attemptsUsed"`
	BestScore    *float64   `json:"bestScore,omitempty"`
	Status       string     `json:"status" enums:"NOT_STARTED,PENDING_REVIEW,GRADED,OVERDUE"`
}
