package report

import (
	"sort"

	"github.com/fieldline/workdesk/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode selects a total order over work items.
type SortMode string

// Sort modes. Unknown tokens fall back to SortNewest.
const (
	SortNewest       SortMode = "newest"
	SortOldest       SortMode = "oldest"
	SortTitleAsc     SortMode = "title-asc"
	SortTitleDesc    SortMode = "title-desc"
	SortPriorityHigh SortMode = "priority-high"
	SortPriorityLow  SortMode = "priority-low"
	SortPriceHigh    SortMode = "price-high"
	SortPriceLow     SortMode = "price-low"
)

// Sort returns the items in the order selected by mode. The sort is stable:
// where a mode defines no tie-break, input order is preserved. The input is
// never mutated and the function never fails; an unknown mode sorts
// newest-first.
func Sort(items []models.WorkItem, mode SortMode) []models.WorkItem {
	out := make([]models.WorkItem, len(items))
	copy(out, items)

	less := lessFunc(mode)
	sort.SliceStable(out, func(i, j int) bool {
		return less(&out[i], &out[j])
	})
	return out
}

func lessFunc(mode SortMode) func(a, b *models.WorkItem) bool {
	switch mode {
	case SortOldest:
		return func(a, b *models.WorkItem) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	case SortTitleAsc:
		col := titleCollator()
		return func(a, b *models.WorkItem) bool {
			return col.CompareString(a.Title, b.Title) < 0
		}
	case SortTitleDesc:
		col := titleCollator()
		return func(a, b *models.WorkItem) bool {
			return col.CompareString(a.Title, b.Title) > 0
		}
	case SortPriorityHigh:
		return priorityLess(true)
	case SortPriorityLow:
		return priorityLess(false)
	case SortPriceHigh:
		return func(a, b *models.WorkItem) bool {
			return a.EffectivePrice() > b.EffectivePrice()
		}
	case SortPriceLow:
		return func(a, b *models.WorkItem) bool {
			return a.EffectivePrice() < b.EffectivePrice()
		}
	default:
		return func(a, b *models.WorkItem) bool {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
}

// priorityLess orders by priority rank with a fixed newest-first secondary
// key regardless of direction.
func priorityLess(highFirst bool) func(a, b *models.WorkItem) bool {
	return func(a, b *models.WorkItem) bool {
		ra, rb := models.PriorityRank(a.Priority), models.PriorityRank(b.Priority)
		if ra != rb {
			if highFirst {
				return ra > rb
			}
			return ra < rb
		}
		return a.CreatedAt.After(b.CreatedAt)
	}
}

// titleCollator builds a locale-aware collator for title comparison. A
// collator is not safe for concurrent use, so each sort gets its own.
func titleCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}
