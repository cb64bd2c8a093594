package report

import (
	"testing"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)

	assert.Zero(t, s.Total)
	assert.Zero(t, s.QuotedTotal)
	assert.Zero(t, s.ConfirmedTotal)
	assert.Zero(t, s.AvgCompletionDays)

	// Every enum bucket is present even over an empty collection.
	assert.Len(t, s.ByStatus, 3)
	assert.Len(t, s.ByCategory, 2)
	assert.Len(t, s.ByPriority, 4)
	assert.Len(t, s.ByConfirmation, 2)
	for _, st := range models.AllStatuses() {
		assert.Zero(t, s.ByStatus[st])
	}
}

func TestAggregate(t *testing.T) {
	s := Aggregate(sampleItems())

	assert.Equal(t, 4, s.Total)

	assert.Equal(t, 2, s.ByStatus[models.StatusCompleted])
	assert.Equal(t, 1, s.ByStatus[models.StatusInProgress])
	assert.Equal(t, 1, s.ByStatus[models.StatusNotInitiated])

	statusSum := 0
	for _, n := range s.ByStatus {
		statusSum += n
	}
	assert.Equal(t, s.Total, statusSum)

	assert.Equal(t, 2, s.ByCategory[models.CategoryJob])
	assert.Equal(t, 2, s.ByCategory[models.CategoryProject])

	assert.Equal(t, 1, s.ByPriority[models.PriorityUrgent])
	assert.Equal(t, 1, s.ByPriority[models.PriorityHigh])
	assert.Equal(t, 1, s.ByPriority[models.PriorityMedium])
	assert.Equal(t, 1, s.ByPriority[models.PriorityLow])

	assert.Equal(t, 2, s.ByConfirmation[models.ConfirmationConfirmed])
	assert.Equal(t, 2, s.ByConfirmation[models.ConfirmationAwaiting])

	assert.Equal(t, 2, s.WithPONumber)
	assert.Equal(t, 3, s.RequiresMaterial)
	assert.Equal(t, 3, s.DocumentCount)

	// Quoted and confirmed sums are independent; absent prices contribute
	// nothing.
	assert.InDelta(t, 1200.0, s.QuotedTotal, 0.001)
	assert.InDelta(t, 630.0, s.ConfirmedTotal, 0.001)

	// wi-1 took 2 days, wi-4 took 1; the mean 1.5 rounds to 2.
	assert.Equal(t, 2, s.AvgCompletionDays)
}

func TestAggregateAvgCompletionDays(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	completed := func(days float64) models.WorkItem {
		end := start.Add(time.Duration(days * 24 * float64(time.Hour)))
		return models.WorkItem{StartedAt: timePtr(start), CompletedAt: timePtr(end)}
	}

	t.Run("mean over completed items, rounded to nearest day", func(t *testing.T) {
		s := Aggregate([]models.WorkItem{completed(2), completed(1)})
		assert.Equal(t, 2, s.AvgCompletionDays) // mean 1.5 rounds up

		s = Aggregate([]models.WorkItem{completed(10), completed(0)})
		assert.Equal(t, 5, s.AvgCompletionDays)
	})

	t.Run("zero when nothing completed", func(t *testing.T) {
		s := Aggregate([]models.WorkItem{
			{StartedAt: timePtr(start)},
			{},
		})
		assert.Zero(t, s.AvgCompletionDays)
	})

	t.Run("items without both timestamps are excluded from the mean", func(t *testing.T) {
		s := Aggregate([]models.WorkItem{completed(4), {StartedAt: timePtr(start)}})
		assert.Equal(t, 4, s.AvgCompletionDays)
	})
}
