package report

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPDFRendererRender(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	r := NewPDFRenderer(logger)
	generated := time.Date(2025, 7, 20, 18, 0, 0, 0, time.UTC)

	t.Run("renders a priced report", func(t *testing.T) {
		items := sampleItems()
		out, err := r.Render(&Data{
			Title:         "Weekly Report",
			RangeLabel:    "Jun 29, 2025 - Jul 5, 2025",
			GeneratedAt:   generated,
			Items:         items,
			Summary:       Aggregate(items),
			IncludePrices: true,
		})
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
		assert.Greater(t, len(out), 1000)
	})

	t.Run("renders without prices", func(t *testing.T) {
		items := sampleItems()
		out, err := r.Render(&Data{
			Title:       "Monthly Report",
			RangeLabel:  "Jul 1, 2025 - Jul 20, 2025",
			GeneratedAt: generated,
			Items:       items,
			Summary:     Aggregate(items),
		})
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	})

	t.Run("handles an empty collection", func(t *testing.T) {
		out, err := r.Render(&Data{
			Title:       "Daily Report",
			RangeLabel:  "Jul 20, 2025",
			GeneratedAt: generated,
			Summary:     Aggregate(nil),
		})
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	})

	t.Run("paginates large collections", func(t *testing.T) {
		base := sampleItems()
		items := make([]models.WorkItem, 0, 200)
		for i := 0; i < 200; i++ {
			item := base[i%len(base)]
			item.ID = fmt.Sprintf("wi-%d", i)
			item.Title = fmt.Sprintf("%s #%d", item.Title, i)
			items = append(items, item)
		}

		small, err := r.Render(&Data{Title: "Work Items Report", GeneratedAt: generated, Items: base, Summary: Aggregate(base)})
		require.NoError(t, err)
		large, err := r.Render(&Data{Title: "Work Items Report", GeneratedAt: generated, Items: items, Summary: Aggregate(items)})
		require.NoError(t, err)

		assert.Greater(t, len(large), len(small))
	})

	t.Run("long cell text is truncated, not fatal", func(t *testing.T) {
		item := sampleItems()[0]
		item.Title = "An exceptionally long work item title that cannot possibly fit inside a single table column at any reasonable font size"
		items := []models.WorkItem{item}

		out, err := r.Render(&Data{Title: "Work Items Report", GeneratedAt: generated, Items: items, Summary: Aggregate(items)})
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	})
}
