package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PDFRenderer emits the print-oriented tabular layout: a fixed-column item
// table with automatic pagination followed by a summary block. Column layout
// is static; cell text is truncated to its column, never reflowed.
type PDFRenderer struct {
	printer *message.Printer
	logger  *zap.Logger
}

// NewPDFRenderer creates a PDF renderer.
func NewPDFRenderer(logger *zap.Logger) *PDFRenderer {
	return &PDFRenderer{
		printer: message.NewPrinter(language.English),
		logger:  logger,
	}
}

type pdfColumn struct {
	header string
	width  float64
	align  string
	value  func(w *models.WorkItem) string
}

const (
	pdfMarginX   = 10.0
	pdfMarginTop = 12.0
	pdfRowHeight = 6.0
	pdfBreakAt   = 194.0 // landscape A4 is 210mm tall
)

// Render produces the PDF byte buffer for the resolved report data.
func (r *PDFRenderer) Render(data *Data) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMarginX, pdfMarginTop, pdfMarginX)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "", 7)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	columns := r.columns(data.IncludePrices)

	pdf.AddPage()
	r.writeHeader(pdf, tr, data)
	r.writeColumnHeader(pdf, tr, columns)

	if len(data.Items) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 10, "No work items matched this report.", "", 1, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 8)
	for i := range data.Items {
		if pdf.GetY()+pdfRowHeight > pdfBreakAt {
			pdf.AddPage()
			r.writeColumnHeader(pdf, tr, columns)
			pdf.SetFont("Helvetica", "", 8)
		}
		item := &data.Items[i]
		fill := i%2 == 1
		if fill {
			pdf.SetFillColor(245, 245, 245)
		}
		for _, col := range columns {
			text := r.fit(pdf, tr(col.value(item)), col.width)
			pdf.CellFormat(col.width, pdfRowHeight, text, "1", 0, col.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	r.writeSummary(pdf, tr, data)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	r.logger.Debug("PDF report rendered",
		zap.String("title", data.Title),
		zap.Int("item_count", len(data.Items)),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

func (r *PDFRenderer) columns(includePrices bool) []pdfColumn {
	date := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("2006-01-02")
	}

	if !includePrices {
		return []pdfColumn{
			{"Title", 52, "L", func(w *models.WorkItem) string { return w.Title }},
			{"Site", 44, "L", func(w *models.WorkItem) string { return w.Site }},
			{"Category", 20, "L", func(w *models.WorkItem) string { return string(w.Category) }},
			{"Status", 26, "L", func(w *models.WorkItem) string { return string(w.Status()) }},
			{"Priority", 20, "L", func(w *models.WorkItem) string { return string(w.Priority) }},
			{"Confirmed", 24, "L", func(w *models.WorkItem) string { return string(w.Confirmation) }},
			{"PO #", 22, "L", func(w *models.WorkItem) string { return w.PONumber }},
			{"Created", 23, "C", func(w *models.WorkItem) string { return w.CreatedAt.Format("2006-01-02") }},
			{"Initiated", 23, "C", func(w *models.WorkItem) string { return date(w.StartedAt) }},
			{"Completed", 23, "C", func(w *models.WorkItem) string { return date(w.CompletedAt) }},
		}
	}

	money := func(p *float64) string {
		if p == nil {
			return "-"
		}
		return r.money(*p)
	}
	return []pdfColumn{
		{"Title", 42, "L", func(w *models.WorkItem) string { return w.Title }},
		{"Site", 33, "L", func(w *models.WorkItem) string { return w.Site }},
		{"Category", 18, "L", func(w *models.WorkItem) string { return string(w.Category) }},
		{"Status", 24, "L", func(w *models.WorkItem) string { return string(w.Status()) }},
		{"Priority", 18, "L", func(w *models.WorkItem) string { return string(w.Priority) }},
		{"Confirmed", 22, "L", func(w *models.WorkItem) string { return string(w.Confirmation) }},
		{"PO #", 20, "L", func(w *models.WorkItem) string { return w.PONumber }},
		{"Created", 20, "C", func(w *models.WorkItem) string { return w.CreatedAt.Format("2006-01-02") }},
		{"Initiated", 20, "C", func(w *models.WorkItem) string { return date(w.StartedAt) }},
		{"Completed", 20, "C", func(w *models.WorkItem) string { return date(w.CompletedAt) }},
		{"Quoted", 20, "R", func(w *models.WorkItem) string { return money(w.QuotedPrice) }},
		{"Confirmed $", 20, "R", func(w *models.WorkItem) string { return money(w.ConfirmedPrice) }},
	}
}

func (r *PDFRenderer) writeHeader(pdf *fpdf.Fpdf, tr func(string) string, data *Data) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(data.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	if data.RangeLabel != "" {
		pdf.CellFormat(0, 5, tr(data.RangeLabel), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Generated "+data.GeneratedAt.Format("Jan 2, 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}

func (r *PDFRenderer) writeColumnHeader(pdf *fpdf.Fpdf, tr func(string) string, columns []pdfColumn) {
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(225, 225, 225)
	for _, col := range columns {
		pdf.CellFormat(col.width, pdfRowHeight, tr(col.header), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (r *PDFRenderer) writeSummary(pdf *fpdf.Fpdf, tr func(string) string, data *Data) {
	// Keep the heading and at least a few rows together on one page.
	if pdf.GetY()+40 > pdfBreakAt {
		pdf.AddPage()
	}
	s := data.Summary

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Summary", "", 1, "L", false, 0, "")

	rows := [][2]string{
		{"Total items", r.printer.Sprintf("%d", s.Total)},
		{"Status", r.breakdown(statusPairs(s))},
		{"Category", r.breakdown(categoryPairs(s))},
		{"Priority", r.breakdown(priorityPairs(s))},
		{"Confirmation", r.breakdown(confirmationPairs(s))},
		{"With PO number", r.printer.Sprintf("%d", s.WithPONumber)},
		{"Requiring material", r.printer.Sprintf("%d", s.RequiresMaterial)},
		{"Documents attached", r.printer.Sprintf("%d", s.DocumentCount)},
		{"Avg completion", fmt.Sprintf("%d days", s.AvgCompletionDays)},
	}
	if data.IncludePrices {
		rows = append(rows,
			[2]string{"Quoted total", r.money(s.QuotedTotal)},
			[2]string{"Confirmed total", r.money(s.ConfirmedTotal)},
		)
	}

	for _, row := range rows {
		if pdf.GetY()+5.5 > pdfBreakAt {
			pdf.AddPage()
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(48, 5.5, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5.5, tr(row[1]), "", 1, "L", false, 0, "")
	}
}

// breakdown joins labelled counts as "a 3 / b 2 / c 5".
func (r *PDFRenderer) breakdown(pairs []labelCount) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, r.printer.Sprintf("%s %d", p.label, p.count))
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " / "
		}
		out += p
	}
	return out
}

func (r *PDFRenderer) money(v float64) string {
	return r.printer.Sprintf("$%.2f", v)
}

// fit truncates s until it fits the column width, appending an ellipsis when
// anything was cut.
func (r *PDFRenderer) fit(pdf *fpdf.Fpdf, s string, width float64) string {
	avail := width - 2
	if pdf.GetStringWidth(s) <= avail {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if pdf.GetStringWidth(string(runes)+"...") <= avail {
			return string(runes) + "..."
		}
	}
	return ""
}

type labelCount struct {
	label string
	count int
}

func statusPairs(s Summary) []labelCount {
	out := make([]labelCount, 0, 3)
	for _, st := range models.AllStatuses() {
		out = append(out, labelCount{string(st), s.ByStatus[st]})
	}
	return out
}

func categoryPairs(s Summary) []labelCount {
	out := make([]labelCount, 0, 2)
	for _, c := range models.AllCategories() {
		out = append(out, labelCount{string(c), s.ByCategory[c]})
	}
	return out
}

func priorityPairs(s Summary) []labelCount {
	out := make([]labelCount, 0, 4)
	for _, p := range models.AllPriorities() {
		out = append(out, labelCount{string(p), s.ByPriority[p]})
	}
	return out
}

func confirmationPairs(s Summary) []labelCount {
	out := make([]labelCount, 0, 2)
	for _, c := range models.AllConfirmations() {
		out = append(out, labelCount{string(c), s.ByConfirmation[c]})
	}
	return out
}
