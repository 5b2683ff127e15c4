package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/app/models/dto"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
)

// normalizeAnswer lower-cases and collapses whitespace for text comparison
func normalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// roundPercentage keeps two decimals
func roundPercentage(v float64) float64 {
	return math.Round(v*100) / 100
}

// percentageOf returns score/total as a percentage, 0 when total is 0
func percentageOf(score, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return roundPercentage(score / total * 100)
}

func sameIDSet(got, want []string) bool {
	seen := make(map[string]bool, len(got))
	for _, id := range got {
		seen[id] = true
	}
	if len(seen) != len(want) {
		return false
	}
	for _, id := range want {
		if !seen[id] {
			return false
		}
	}
	return true
}

// autoGradeAnswer scores an answer. graded is false when the answer needs an instructor.
func autoGradeAnswer(q *models.Question, a *models.Answer) (points float64, graded bool) {
	switch q.Type {
	case models.QuestionMultipleChoice:
		chosen := a.Answer
		if chosen == "" && len(a.Selected) == 1 {
			chosen = a.Selected[0]
		}
		correct := q.CorrectOptionIDs()
		if len(correct) == 1 && chosen == correct[0] {
			return q.Points, true
		}
		return 0, true

	case models.QuestionMultipleSelect:
		if len(a.Selected) > 0 && sameIDSet(a.Selected, q.CorrectOptionIDs()) {
			return q.Points, true
		}
		return 0, true

	case models.QuestionTrueFalse:
		value, err := strconv.ParseBool(normalizeAnswer(a.Answer))
		if err == nil && q.CorrectAnswer != nil && value == *q.CorrectAnswer {
			return q.Points, true
		}
		return 0, true

	case models.QuestionShortAnswer:
		if len(q.AcceptedAnswers) == 0 {
			return 0, false
		}
		given := normalizeAnswer(a.Answer)
		for _, accepted := range q.AcceptedAnswers {
			if given != "" && given == normalizeAnswer(accepted) {
				return q.Points, true
			}
		}
		return 0, true
	}

	return 0, false
}

// isBlank reports whether the student gave no answer at all
func isBlank(a *models.Answer) bool {
	return strings.TrimSpace(a.Answer) == "" && len(a.Selected) == 0
}

// gradeAnswers matches the submitted answers to the questions and auto-grades them.
// Unanswered questions are recorded with 0 points.
func gradeAnswers(a *models.Assessment, submitted []dto.AnswerRequest) ([]models.Answer, error) {
	v := &apperrors.ValidationError{}
	byQuestion := make(map[int64]dto.AnswerRequest, len(submitted))
	for i, ans := range submitted {
		field := fmt.Sprintf("answers[%d].questionId", i)
		if a.QuestionByID(ans.QuestionID) == nil {
			v.Add(field, "question %d does not belong to this assessment", ans.QuestionID)
			continue
		}
		if _, dup := byQuestion[ans.QuestionID]; dup {
			v.Add(field, "question %d is answered twice", ans.QuestionID)
			continue
		}
		byQuestion[ans.QuestionID] = ans
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	answers := make([]models.Answer, 0, len(a.Questions))
	for _, q := range a.Questions {
		req := byQuestion[q.ID]
		answer := models.Answer{
			QuestionID: q.ID,
			Answer:     strings.TrimSpace(req.Answer),
			Selected:   req.Selected,
		}

		points, graded := autoGradeAnswer(q, &answer)
		if !graded && isBlank(&answer) {
			points, graded = 0, true
		}
		if graded {
			answer.AwardedPoints = &points
			answer.AutoGraded = true
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

// applyResult recomputes score, percentage, pass flag and status of a submission.
// Without questions a submission stays pending until a grader gives it an overall score.
func applyResult(a *models.Assessment, s *models.Submission) {
	pending := false
	if len(a.Questions) == 0 {
		pending = s.GradedBy == nil
	} else {
		score := 0.0
		for i := range s.Answers {
			if s.Answers[i].QuestionID == 0 {
				continue
			}
			if s.Answers[i].IsPending() {
				pending = true
				continue
			}
			score += *s.Answers[i].AwardedPoints
		}
		s.Score = score
	}

	s.Percentage = percentageOf(s.Score, a.TotalPoints)
	s.Passed = !pending && s.Percentage >= a.PassingScore
	s.Status = models.SubmissionGraded
	if pending {
		s.Status = models.SubmissionPendingReview
	}
}

// applyManualScores awards points to the pending answers of a submission
func applyManualScores(a *models.Assessment, s *models.Submission, req *dto.GradeSubmissionRequest) error {
	v := &apperrors.ValidationError{}

	if len(a.Questions) == 0 {
		if req.Score == nil {
			v.Add("score", "is required for assessments without questions")
		} else if *req.Score < 0 || *req.Score > a.TotalPoints {
			v.Add("score", "must be between 0 and %g", a.TotalPoints)
		}
		if err := v.Err(); err != nil {
			return err
		}
		s.Score = *req.Score
		return nil
	}

	scores := make(map[int64]float64, len(req.Scores))
	for i, sc := range req.Scores {
		field := fmt.Sprintf("scores[%d]", i)
		q := a.QuestionByID(sc.QuestionID)
		if q == nil {
			v.Add(field+".questionId", "question %d does not belong to this assessment", sc.QuestionID)
			continue
		}
		if sc.Points < 0 || sc.Points > q.Points {
			v.Add(field+".points", "must be between 0 and %g", q.Points)
			continue
		}
		scores[sc.QuestionID] = sc.Points
	}

	var missing []string
	for i := range s.Answers {
		answer := &s.Answers[i]
		points, ok := scores[answer.QuestionID]
		switch {
		case ok:
			answer.AwardedPoints = &points
			answer.AutoGraded = false
		case answer.IsPending():
			missing = append(missing, strconv.FormatInt(answer.QuestionID, 10))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		v.Add("scores", "missing scores for questions %s", strings.Join(missing, ", "))
	}
	return v.Err()
}
