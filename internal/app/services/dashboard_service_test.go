package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/learnsphere/internal/app/models"
)

func TestUpcomingAssessments(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	assessments := []*models.Assessment{
		{ID: 1, Status: models.AssessmentPublished, DueAt: at(72 * time.Hour)},
		{ID: 2, Status: models.AssessmentPublished, DueAt: at(24 * time.Hour)},
		{ID: 3, Status: models.AssessmentPublished, DueAt: at(-time.Hour)},
		{ID: 4, Status: models.AssessmentPublished, DueAt: at(20 * 24 * time.Hour)},
		{ID: 5, Status: models.AssessmentPublished},
		{ID: 6, Status: models.AssessmentClosed, DueAt: at(time.Hour)},
		{ID: 7, Status: models.AssessmentPublished, DueAt: at(2 * time.Hour)},
	}
	subs := []*models.Submission{{AssessmentID: 7}}

	var ids []int64
	for _, a := range upcomingAssessments(assessments, subs, now) {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int64{2, 1}, ids)
	assert.NotNil(t, upcomingAssessments(nil, nil, now), "empty list, not null")
}

func TestAveragePercentage(t *testing.T) {
	assert.Nil(t, averagePercentage(nil))

	avg := averagePercentage([]*models.Grade{{Percentage: 90}, {Percentage: 75}, {Percentage: 80}})
	require.NotNil(t, avg)
	assert.Equal(t, 81.67, *avg)
}
