package report

import (
	"math"

	"github.com/fieldline/workdesk/internal/models"
)

// Summary holds the aggregate figures computed over a filtered collection.
// Every enum bucket is present in the maps, at zero when empty.
type Summary struct {
	Total          int                         `json:"total"`
	ByStatus       map[models.Status]int       `json:"by_status"`
	ByCategory     map[models.Category]int     `json:"by_category"`
	ByPriority     map[models.Priority]int     `json:"by_priority"`
	ByConfirmation map[models.Confirmation]int `json:"by_confirmation"`

	WithPONumber     int     `json:"with_po_number"`
	QuotedTotal      float64 `json:"quoted_total"`
	ConfirmedTotal   float64 `json:"confirmed_total"`
	RequiresMaterial int     `json:"requires_material"`
	DocumentCount    int     `json:"document_count"`

	// AvgCompletionDays is the mean completion duration in whole days over
	// items carrying both an initiation and a completion timestamp, rounded
	// to the nearest day. It is zero when no item qualifies, which reads as
	// "no data" rather than a true average.
	AvgCompletionDays int `json:"avg_completion_days"`
}

// Aggregate computes the summary over the given collection. Absent prices
// count as zero in the sums. The empty collection yields all-zero figures.
func Aggregate(items []models.WorkItem) Summary {
	s := Summary{
		ByStatus:       make(map[models.Status]int, 3),
		ByCategory:     make(map[models.Category]int, 2),
		ByPriority:     make(map[models.Priority]int, 4),
		ByConfirmation: make(map[models.Confirmation]int, 2),
	}
	for _, st := range models.AllStatuses() {
		s.ByStatus[st] = 0
	}
	for _, c := range models.AllCategories() {
		s.ByCategory[c] = 0
	}
	for _, p := range models.AllPriorities() {
		s.ByPriority[p] = 0
	}
	for _, c := range models.AllConfirmations() {
		s.ByConfirmation[c] = 0
	}

	var completedSum float64
	var completedCount int

	for _, item := range items {
		s.Total++
		s.ByStatus[item.Status()]++
		s.ByCategory[item.Category]++
		s.ByPriority[item.Priority]++
		s.ByConfirmation[item.Confirmation]++

		if item.PONumber != "" {
			s.WithPONumber++
		}
		if item.QuotedPrice != nil {
			s.QuotedTotal += *item.QuotedPrice
		}
		if item.ConfirmedPrice != nil {
			s.ConfirmedTotal += *item.ConfirmedPrice
		}
		if item.RequiresMaterial {
			s.RequiresMaterial++
		}
		s.DocumentCount += len(item.Documents)

		if days, ok := item.CompletionDays(); ok {
			completedSum += days
			completedCount++
		}
	}

	if completedCount > 0 {
		s.AvgCompletionDays = int(math.Round(completedSum / float64(completedCount)))
	}

	return s
}
