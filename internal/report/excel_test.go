package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestExcelRendererRender(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	r := NewExcelRenderer(logger)
	generated := time.Date(2025, 7, 20, 18, 0, 0, 0, time.UTC)

	items := sampleItems()
	newData := func(includePrices bool) *Data {
		return &Data{
			Title:         "Weekly Report",
			RangeLabel:    "Jun 29, 2025 - Jul 5, 2025",
			GeneratedAt:   generated,
			Items:         items,
			Summary:       Aggregate(items),
			IncludePrices: includePrices,
		}
	}

	t.Run("workbook carries both sheets", func(t *testing.T) {
		out, err := r.Render(newData(true))
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(out))
		require.NoError(t, err)
		defer f.Close()

		assert.ElementsMatch(t, []string{itemsSheet, summarySheet}, f.GetSheetList())
	})

	t.Run("one row per item under a header row", func(t *testing.T) {
		out, err := r.Render(newData(true))
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(out))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(itemsSheet)
		require.NoError(t, err)
		require.Len(t, rows, len(items)+1)

		header := rows[0]
		assert.Equal(t, "Title", header[0])
		assert.Len(t, header, 20)
		assert.Contains(t, header, "Quoted Price")

		first := rows[1]
		assert.Equal(t, "Fence repair", first[0])
		assert.Equal(t, "12 Oak Ave", first[1])
		assert.Equal(t, "completed", first[5])
		assert.Equal(t, "PO-77", first[7])
		assert.Equal(t, "200", first[11])
		assert.Equal(t, "180", first[12])
	})

	t.Run("price columns are omitted when excluded", func(t *testing.T) {
		out, err := r.Render(newData(false))
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(out))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(itemsSheet)
		require.NoError(t, err)
		header := rows[0]
		assert.Len(t, header, 18)
		assert.NotContains(t, header, "Quoted Price")
		assert.NotContains(t, header, "Confirmed Price")
	})

	t.Run("summary sheet carries the aggregate block", func(t *testing.T) {
		out, err := r.Render(newData(true))
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(out))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(summarySheet)
		require.NoError(t, err)
		require.NotEmpty(t, rows)
		assert.Equal(t, "Weekly Report", rows[0][0])

		flat := map[string]string{}
		for _, row := range rows {
			if len(row) >= 2 {
				flat[row[0]] = row[1]
			}
		}
		assert.Equal(t, "4", flat["Total items"])
		assert.Equal(t, "2", flat["  completed"])
		assert.Equal(t, "1200", flat["Quoted total"])
	})

	t.Run("empty collection still renders", func(t *testing.T) {
		out, err := r.Render(&Data{
			Title:       "Daily Report",
			GeneratedAt: generated,
			Summary:     Aggregate(nil),
		})
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(out))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(itemsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 1, "header row only")
	})
}
