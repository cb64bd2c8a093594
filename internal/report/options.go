package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldline/workdesk/internal/models"
)

// Format selects a report output format.
type Format string

// Output formats
const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat converts a format token. Unknown tokens are a validation error.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown report format %q", models.ErrValidation, s)
	}
}

// Options configures a report generation run.
//
// Exactly one framing applies: selection mode when SelectionMode is set,
// else a custom range when Custom is non-nil, else a named period when
// Period is non-empty, else the filter as given. Selection mode overrides
// every filter criterion and suppresses period framing.
type Options struct {
	Period Period     `json:"period,omitempty"`
	Anchor time.Time  `json:"anchor,omitempty"` // zero means now
	Custom *DateRange `json:"custom,omitempty"`

	SelectionMode bool     `json:"selection_mode,omitempty"`
	Selection     []string `json:"selection,omitempty"`

	Filter        Filter   `json:"filter"`
	Sort          SortMode `json:"sort,omitempty"`
	IncludePrices bool     `json:"include_prices,omitempty"`
	Formats       []Format `json:"formats,omitempty"` // defaults to PDF
}

// Data is the resolved input both renderers consume: the filtered and
// sorted items plus their aggregates and header framing.
type Data struct {
	Title         string
	RangeLabel    string // empty in selection mode
	GeneratedAt   time.Time
	Items         []models.WorkItem
	Summary       Summary
	IncludePrices bool
}

// Artifact is a rendered report ready for delivery.
type Artifact struct {
	Filename string `json:"filename"`
	Content  []byte `json:"-"`
}

// ContentType returns the MIME type matching the artifact's extension.
func (a Artifact) ContentType() string {
	if strings.HasSuffix(a.Filename, ".xlsx") {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

func periodTitle(p Period) string {
	switch p {
	case PeriodDaily:
		return "Daily Report"
	case PeriodWeekly:
		return "Weekly Report"
	case PeriodMonthly:
		return "Monthly Report"
	case PeriodQuarterly:
		return "Quarterly Report"
	case PeriodYearly:
		return "Yearly Report"
	default:
		return "Work Items Report"
	}
}

func artifactFilename(title string, format Format, generatedAt time.Time) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", "-"))
	return fmt.Sprintf("%s-%s.%s", slug, generatedAt.Format("20060102-150405"), format)
}
