package dto

import "github.com/yigit/learnsphere/internal/app/models"

// GradingSchemeRequest replaces the grading scheme of a course
type GradingSchemeRequest struct {
	Categories  []models.GradingCategory `json:"categories"`
	LetterScale []models.LetterThreshold `json:"letterScale"`
}

// ManualGradeRequest enters or overrides a gradebook cell
type ManualGradeRequest struct {
	StudentID    int64   `json:"studentId" binding:"required,min=1"`
	AssessmentID int64   `json:"assessmentId" binding:"required,min=1"`
	Score        float64 `json:"score" binding:"min=0"`
	Feedback     string  `json:"feedback" binding:"max=5000"`
}

// GradebookColumn describes one assessment column
type GradebookColumn struct {
	AssessmentID int64                 `json:"assessmentId"`
	Title        string                `json:"title"`
	Type         models.AssessmentType `json:"type"`
	MaxScore     float64               `json:"maxScore"`
	ClassAverage *float64              `json:"classAverage"`
}

// GradebookCell is one student's result in a column
type GradebookCell struct {
	Score      float64            `json:"score"`
	MaxScore   float64            `json:"maxScore"`
	Percentage float64            `json:"percentage"`
	Source     models.GradeSource `json:"source"`
	Feedback   string             `json:"feedback,omitempty"`
}

// GradebookRow is a student line of the gradebook
type GradebookRow struct {
	StudentID       int64                    `json:"studentId"`
	StudentName     string                   `json:"studentName"`
	StudentEmail    string                   `json:"studentEmail"`
	Grades          map[int64]*GradebookCell `json:"grades"`
	FinalPercentage *float64                 `json:"finalPercentage"`
	LetterGrade     *string                  `json:"letterGrade"`
}

// GradebookResponse is the full instructor gradebook of a course
type GradebookResponse struct {
	CourseID int64                 `json:"courseId"`
	Scheme   *models.GradingScheme `json:"scheme,omitempty"`
	Columns  []GradebookColumn     `json:"columns"`
	Rows     []GradebookRow        `json:"rows"`
}

// StudentCourseGrades is one course of the student grade report
type StudentCourseGrades struct {
	CourseID        int64           `json:"courseId"`
	CourseTitle     string          `json:"courseTitle"`
	Entries         []*models.Grade `json:"entries"`
	FinalPercentage *float64        `json:"finalPercentage"`
	LetterGrade     *string         `json:"letterGrade"`
}
