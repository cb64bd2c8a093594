package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGeneratorBuild(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	g := NewGenerator(logger)
	items := sampleItems()
	now := fixtureBase.Add(30 * 24 * time.Hour)

	t.Run("selection mode overrides every filter", func(t *testing.T) {
		data, err := g.Build(items, Options{
			SelectionMode: true,
			Selection:     []string{"wi-4", "wi-1"},
			Filter:        Filter{Statuses: []models.Status{models.StatusInProgress}},
			Sort:          SortOldest,
		}, now)
		require.NoError(t, err)

		assert.Equal(t, "Custom Data Report", data.Title)
		assert.Empty(t, data.RangeLabel)
		assert.Equal(t, []string{"wi-4", "wi-1"}, itemIDs(data.Items))
		assert.Equal(t, 2, data.Summary.Total)
	})

	t.Run("selection mode requires at least one id", func(t *testing.T) {
		_, err := g.Build(items, Options{SelectionMode: true}, now)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("custom range filters by creation time", func(t *testing.T) {
		data, err := g.Build(items, Options{
			Custom: &DateRange{
				Start: fixtureBase.Add(-49 * time.Hour),
				End:   fixtureBase.Add(-20 * time.Hour),
			},
		}, now)
		require.NoError(t, err)

		assert.Equal(t, "Custom Range Report", data.Title)
		assert.NotEmpty(t, data.RangeLabel)
		assert.Equal(t, []string{"wi-2", "wi-3"}, itemIDs(data.Items))
	})

	t.Run("custom range is validated", func(t *testing.T) {
		_, err := g.Build(items, Options{
			Custom: &DateRange{Start: now.Add(-time.Hour), End: now.Add(time.Hour)},
		}, now)
		assert.ErrorIs(t, err, models.ErrValidation)

		_, err = g.Build(items, Options{
			Custom: &DateRange{Start: now, End: now.Add(-time.Hour)},
		}, now)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("named period frames the window", func(t *testing.T) {
		// Anchor Tuesday 2025-07-01; its Sunday-start week runs
		// 2025-06-29 through 2025-07-05 and holds wi-1 through wi-3.
		data, err := g.Build(items, Options{Period: PeriodWeekly, Anchor: fixtureBase}, now)
		require.NoError(t, err)

		assert.Equal(t, "Weekly Report", data.Title)
		assert.Equal(t, "Jun 29, 2025 - Jul 5, 2025", data.RangeLabel)
		assert.Equal(t, []string{"wi-1", "wi-2", "wi-3"}, itemIDs(data.Items))
	})

	t.Run("period anchor defaults to now", func(t *testing.T) {
		data, err := g.Build(items, Options{Period: PeriodDaily}, fixtureBase)
		require.NoError(t, err)

		assert.Equal(t, "Daily Report", data.Title)
		assert.Equal(t, []string{"wi-1"}, itemIDs(data.Items))
	})

	t.Run("filters compose with the period window", func(t *testing.T) {
		data, err := g.Build(items, Options{
			Period: PeriodWeekly,
			Anchor: fixtureBase,
			Filter: Filter{Categories: []models.Category{models.CategoryJob}},
		}, now)
		require.NoError(t, err)
		assert.Equal(t, []string{"wi-1", "wi-3"}, itemIDs(data.Items))
	})

	t.Run("no framing reports over the whole snapshot", func(t *testing.T) {
		data, err := g.Build(items, Options{}, now)
		require.NoError(t, err)

		assert.Equal(t, "Work Items Report", data.Title)
		assert.Empty(t, data.RangeLabel)
		assert.Equal(t, []string{"wi-1", "wi-2", "wi-3", "wi-4"}, itemIDs(data.Items))
		assert.Equal(t, 4, data.Summary.Total)
	})
}

func TestGeneratorGenerate(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	g := NewGenerator(logger)
	items := sampleItems()
	now := time.Date(2025, 7, 20, 18, 0, 0, 0, time.UTC)

	t.Run("defaults to a single PDF artifact", func(t *testing.T) {
		data, artifacts, err := g.Generate(items, Options{}, now)
		require.NoError(t, err)
		assert.Equal(t, "Work Items Report", data.Title)
		require.Len(t, artifacts, 1)

		a := artifacts[0]
		assert.Equal(t, "work-items-report-20250720-180000.pdf", a.Filename)
		assert.Equal(t, "application/pdf", a.ContentType())
		assert.True(t, bytes.HasPrefix(a.Content, []byte("%PDF-")))
	})

	t.Run("renders every requested format", func(t *testing.T) {
		data, artifacts, err := g.Generate(items, Options{
			Period:  PeriodWeekly,
			Anchor:  fixtureBase,
			Formats: []Format{FormatPDF, FormatXLSX},
		}, now)
		require.NoError(t, err)
		assert.Equal(t, "Weekly Report", data.Title)
		require.Len(t, artifacts, 2)

		assert.Equal(t, "weekly-report-20250720-180000.pdf", artifacts[0].Filename)
		assert.Equal(t, "weekly-report-20250720-180000.xlsx", artifacts[1].Filename)
		assert.True(t, bytes.HasPrefix(artifacts[1].Content, []byte("PK")), "xlsx is a zip container")
		assert.Equal(t,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			artifacts[1].ContentType())
	})

	t.Run("unknown format is rejected", func(t *testing.T) {
		_, _, err := g.Generate(items, Options{Formats: []Format{"csv"}}, now)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("build errors propagate", func(t *testing.T) {
		_, _, err := g.Generate(items, Options{SelectionMode: true}, now)
		assert.ErrorIs(t, err, models.ErrValidation)
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	assert.ErrorIs(t, err, models.ErrValidation)
}
