package report

import (
	"fmt"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"go.uber.org/zap"
)

// Generator turns an immutable work-item snapshot into rendered report
// artifacts: resolve the date framing, filter (or select by id), sort,
// aggregate, then render each requested format.
type Generator struct {
	pdf    *PDFRenderer
	excel  *ExcelRenderer
	logger *zap.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{
		pdf:    NewPDFRenderer(logger),
		excel:  NewExcelRenderer(logger),
		logger: logger,
	}
}

// Generate runs the pipeline over the snapshot and returns the resolved
// data alongside the rendered artifacts. The snapshot is treated as
// immutable; now anchors default periods and future-bound validation.
func (g *Generator) Generate(items []models.WorkItem, opts Options, now time.Time) (*Data, []Artifact, error) {
	data, err := g.Build(items, opts, now)
	if err != nil {
		return nil, nil, err
	}

	formats := opts.Formats
	if len(formats) == 0 {
		formats = []Format{FormatPDF}
	}

	artifacts := make([]Artifact, 0, len(formats))
	for _, format := range formats {
		var content []byte
		switch format {
		case FormatPDF:
			content, err = g.pdf.Render(data)
		case FormatXLSX:
			content, err = g.excel.Render(data)
		default:
			return nil, nil, fmt.Errorf("%w: unknown report format %q", models.ErrValidation, format)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("render %s report: %w", format, err)
		}
		artifacts = append(artifacts, Artifact{
			Filename: artifactFilename(data.Title, format, now),
			Content:  content,
		})
	}

	g.logger.Info("Report generated",
		zap.String("title", data.Title),
		zap.Int("item_count", len(data.Items)),
		zap.Int("artifact_count", len(artifacts)))

	return data, artifacts, nil
}

// Build resolves options against the snapshot without rendering: framing,
// filtering or selection, sorting and aggregation. Handlers use it directly
// for the dashboard list and summary views.
func (g *Generator) Build(items []models.WorkItem, opts Options, now time.Time) (*Data, error) {
	data := &Data{
		GeneratedAt:   now,
		IncludePrices: opts.IncludePrices,
	}

	if opts.SelectionMode {
		// An explicit id list overrides every filter criterion and the
		// period framing.
		if len(opts.Selection) == 0 {
			return nil, fmt.Errorf("%w: selection mode requires at least one selected item", models.ErrValidation)
		}
		data.Title = "Custom Data Report"
		data.Items = Sort(SelectByID(items, opts.Selection), opts.Sort)
		data.Summary = Aggregate(data.Items)
		return data, nil
	}

	filter := opts.Filter
	switch {
	case opts.Custom != nil:
		if err := opts.Custom.Validate(now); err != nil {
			return nil, err
		}
		filter.Range = opts.Custom
		data.Title = "Custom Range Report"
		data.RangeLabel = opts.Custom.Label()
	case opts.Period != "":
		anchor := opts.Anchor
		if anchor.IsZero() {
			anchor = now
		}
		rng, err := ResolvePeriod(opts.Period, anchor, now)
		if err != nil {
			return nil, err
		}
		filter.Range = &rng
		data.Title = periodTitle(opts.Period)
		data.RangeLabel = rng.Label()
	default:
		data.Title = "Work Items Report"
		if filter.Range != nil {
			data.RangeLabel = filter.Range.Label()
		}
	}

	data.Items = Sort(filter.Apply(items), opts.Sort)
	data.Summary = Aggregate(data.Items)
	return data, nil
}
