package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

const weightTolerance = 0.01

// ValidateGradingScheme checks the categories and the letter scale of a scheme request
func ValidateGradingScheme(req *dto.GradingSchemeRequest) error {
	v := &apperrors.ValidationError{}

	if len(req.Categories) == 0 {
		v.Add("categories", "at least one category is required")
	}
	seen := make(map[models.AssessmentType]bool, len(req.Categories))
	total := 0.0
	for i := range req.Categories {
		c := &req.Categories[i]
		field := fmt.Sprintf("categories[%d]", i)
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			v.Add(field+".name", "is required")
		}
		if !c.AssessmentType.IsValid() {
			v.Add(field+".assessmentType", "must be one of QUIZ, EXAM, ASSIGNMENT, PROJECT")
		} else if seen[c.AssessmentType] {
			v.Add(field+".assessmentType", "%s is used by more than one category", c.AssessmentType)
		}
		seen[c.AssessmentType] = true
		if c.Weight <= 0 || c.Weight > 100 {
			v.Add(field+".weight", "must be greater than 0 and at most 100")
		}
		total += c.Weight
	}
	if len(req.Categories) > 0 && math.Abs(total-100) > weightTolerance {
		v.Add("categories", "weights must sum to 100, got %g", total)
	}

	for i := range req.LetterScale {
		t := &req.LetterScale[i]
		field := fmt.Sprintf("letterScale[%d]", i)
		t.Letter = strings.TrimSpace(t.Letter)
		if t.Letter == "" {
			v.Add(field+".letter", "is required")
		}
		if t.MinPercentage < 0 || t.MinPercentage > 100 {
			v.Add(field+".minPercentage", "must be between 0 and 100")
		}
		if i > 0 && t.MinPercentage >= req.LetterScale[i-1].MinPercentage {
			v.Add(field+".minPercentage", "thresholds must be strictly descending")
		}
	}

	return v.Err()
}

// letterFor maps a percentage onto the scale. Below every threshold the lowest letter applies.
func letterFor(scale []models.LetterThreshold, pct float64) string {
	if len(scale) == 0 {
		scale = models.DefaultLetterScale()
	}
	for _, t := range scale {
		if pct >= t.MinPercentage {
			return t.Letter
		}
	}
	return scale[len(scale)-1].Letter
}

// finalPercentage computes the course result of one student.
// With a scheme every category with at least one grade contributes the mean of its
// percentages, weighted and renormalized over the categories present.
// Without a scheme it is total score over total max score. It returns nil without grades.
func finalPercentage(scheme *models.GradingScheme, grades []*models.Grade, types map[int64]models.AssessmentType) *float64 {
	if len(grades) == 0 {
		return nil
	}

	if scheme == nil || len(scheme.Categories) == 0 {
		score, maxScore := 0.0, 0.0
		for _, g := range grades {
			score += g.Score
			maxScore += g.MaxScore
		}
		if maxScore <= 0 {
			return nil
		}
		pct := percentageOf(score, maxScore)
		return &pct
	}

	sums := make(map[models.AssessmentType]float64)
	counts := make(map[models.AssessmentType]int)
	for _, g := range grades {
		t := types[g.AssessmentID]
		if t == "" {
			t = g.AssessmentType
		}
		sums[t] += g.Percentage
		counts[t]++
	}

	weighted, weights := 0.0, 0.0
	for _, c := range scheme.Categories {
		n := counts[c.AssessmentType]
		if n == 0 {
			continue
		}
		weighted += c.Weight * sums[c.AssessmentType] / float64(n)
		weights += c.Weight
	}
	if weights == 0 {
		return nil
	}
	pct := roundPercentage(weighted / weights)
	return &pct
}

// finalGrade returns the final percentage with its letter
func finalGrade(scheme *models.GradingScheme, grades []*models.Grade, types map[int64]models.AssessmentType) (*float64, *string) {
	pct := finalPercentage(scheme, grades, types)
	if pct == nil {
		return nil, nil
	}
	var scale []models.LetterThreshold
	if scheme != nil {
		scale = scheme.LetterScale
	}
	letter := letterFor(scale, *pct)
	return pct, &letter
}

// bestAttempt is the graded submission with the highest score
func bestAttempt(subs []*models.Submission) *models.Submission {
	var best *models.Submission
	for _, s := range subs {
		if s.Status != models.SubmissionGraded {
			continue
		}
		if best == nil || s.Score > best.Score {
			best = s
		}
	}
	return best
}

// recordBestAttempt writes the student's best graded attempt into the gradebook.
// Manual entries are left alone by the store.
func recordBestAttempt(ctx context.Context, grades GradeStore, submissions SubmissionStore, a *models.Assessment, studentID int64) error {
	subs, err := submissions.ListByStudent(ctx, a.ID, studentID)
	if err != nil {
		return err
	}
	best := bestAttempt(subs)
	if best == nil {
		return nil
	}

	_, err = grades.Upsert(ctx, &models.Grade{
		CourseID:     a.CourseID,
		AssessmentID: a.ID,
		StudentID:    studentID,
		Score:        best.Score,
		MaxScore:     a.TotalPoints,
		Percentage:   best.Percentage,
		Feedback:     best.Feedback,
		Source:       models.GradeFromSubmission,
		GradedBy:     best.GradedBy,
	})
	return err
}
