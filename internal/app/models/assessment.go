package models

import "time"

// Assessment is a quiz, exam, assignment or project attached to a course
type Assessment struct {
	ID               int64            `json:"id" db:"id"`
	CourseID         int64            `json:"courseId" db:"course_id"`
	Title            string           `json:"title" db:"title"`
	Description      string           `json:"description" db:"description"`
	Type             AssessmentType   `json:"type" db:"type"`
	Status           AssessmentStatus `json:"status" db:"status"`
	PassingScore     float64          `json:"passingScore" db:"passing_score"`
	TimeLimitMinutes int              `json:"timeLimitMinutes" db:"time_limit_minutes"`
	MaxAttempts      int              `json:"maxAttempts" db:"max_attempts"`
	AvailableFrom    *time.Time       `json:"availableFrom,omitempty" db:"available_from"`
	DueAt            *time.Time       `json:"dueAt,omitempty" db:"due_at"`
	AllowLate        bool             `json:"allowLate" db:"allow_late"`
	TotalPoints      float64          `json:"totalPoints" db:"total_points"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" db:"updated_at"`

	Questions   []*Question `json:"questions,omitempty"`
	CourseTitle string      `json:"courseTitle,omitempty"`
}

// IsOpenAt reports whether submissions are accepted at t
func (a *Assessment) IsOpenAt(t time.Time) bool {
	if a.Status != AssessmentPublished {
		return false
	}
	return a.AvailableFrom == nil || !t.Before(*a.AvailableFrom)
}

// IsLateAt reports whether t is past the due date
func (a *Assessment) IsLateAt(t time.Time) bool {
	return a.DueAt != nil && t.After(*a.DueAt)
}

// QuestionByID finds a question of the assessment
func (a *Assessment) QuestionByID(id int64) *Question {
	for _, q := range a.Questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// Question is a single item of an assessment
type Question struct {
	ID              int64          `json:"id" db:"id"`
	AssessmentID    int64          `json:"assessmentId" db:"assessment_id"`
	Type            QuestionType   `json:"type" db:"type"`
	Prompt          string         `json:"prompt" db:"prompt"`
	Points          float64        `json:"points" db:"points"`
	Position        int            `json:"position" db:"position"`
	Options         []AnswerOption `json:"options" db:"options"`
	CorrectAnswer   *bool          `json:"correctAnswer,omitempty" db:"correct_answer"`
	AcceptedAnswers []string       `json:"acceptedAnswers,omitempty" db:"accepted_answers"`
	Explanation     string         `json:"explanation,omitempty" db:"explanation"`
}

// AnswerOption is one choice of a choice question, stored inside the question row as JSONB
type AnswerOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// CorrectOptionIDs returns the ids of the correct options
func (q *Question) CorrectOptionIDs() []string {
	var ids []string
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

// Submission is one attempt of a student at an assessment
type Submission struct {
	ID           int64            `json:"id" db:"id"`
	AssessmentID int64            `json:"assessmentId" db:"assessment_id"`
	StudentID    int64            `json:"studentId" db:"student_id"`
	Attempt      int              `json:"attempt" db:"attempt"`
	Answers      []Answer         `json:"answers" db:"answers"`
	Status       SubmissionStatus `json:"status" db:"status"`
	Score        float64          `json:"score" db:"score"`
	Percentage   float64          `json:"percentage" db:"percentage"`
	Passed       bool             `json:"passed" db:"passed"`
	IsLate       bool             `json:"isLate" db:"is_late"`
	Feedback     string           `json:"feedback,omitempty" db:"feedback"`
	SubmittedAt  time.Time        `json:"submittedAt" db:"submitted_at"`
	GradedAt     *time.Time       `json:"gradedAt,omitempty" db:"graded_at"`
	GradedBy     *int64           `json:"gradedBy,omitempty" db:"graded_by"`

	StudentName string `json:"studentName,omitempty"`
}

// Answer is the response to one question
type Answer struct {
	QuestionID    int64    `json:"questionId"`
	Answer        string   `json:"answer,omitempty"`
	Selected      []string `json:"selected,omitempty"`
	AwardedPoints *float64 `json:"awardedPoints,omitempty"`
	AutoGraded    bool     `json:"autoGraded"`
}

// IsPending reports whether the answer still waits for manual grading
func (a *Answer) IsPending() bool {
	return a.AwardedPoints == nil
}
