package report

import (
	"fmt"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	itemsSheet   = "Work Items"
	summarySheet = "Summary"
)

// ExcelRenderer emits the spreadsheet form of a report: one row per work
// item with every field carried (no truncation), plus a Summary sheet with
// the aggregate block.
type ExcelRenderer struct {
	logger *zap.Logger
}

// NewExcelRenderer creates a spreadsheet renderer.
func NewExcelRenderer(logger *zap.Logger) *ExcelRenderer {
	return &ExcelRenderer{logger: logger}
}

// Render produces the XLSX byte buffer for the resolved report data.
func (r *ExcelRenderer) Render(data *Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return nil, fmt.Errorf("rename items sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}

	if err := r.writeItems(f, data); err != nil {
		return nil, err
	}
	if err := r.writeSummary(f, data); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	r.logger.Debug("Excel report rendered",
		zap.String("title", data.Title),
		zap.Int("item_count", len(data.Items)),
		zap.Int("bytes", buf.Len()))

	return buf.Bytes(), nil
}

func (r *ExcelRenderer) writeItems(f *excelize.File, data *Data) error {
	headers := []interface{}{
		"Title", "Site", "Category", "Source", "Priority", "Status",
		"Confirmation", "PO Number", "Requires Material", "Material Status",
		"Material Description",
	}
	if data.IncludePrices {
		headers = append(headers, "Quoted Price", "Confirmed Price")
	}
	headers = append(headers, "Description", "Notes", "Documents",
		"Created By", "Created", "Initiated", "Completed")

	r.setRow(f, itemsSheet, 1, headers)

	for i := range data.Items {
		item := &data.Items[i]
		row := []interface{}{
			item.Title,
			item.Site,
			string(item.Category),
			string(item.SourceChannel),
			string(item.Priority),
			string(item.Status()),
			string(item.Confirmation),
			item.PONumber,
			yesNo(item.RequiresMaterial),
			string(item.MaterialStatus),
			item.MaterialDescription,
		}
		if data.IncludePrices {
			row = append(row, optFloat(item.QuotedPrice), optFloat(item.ConfirmedPrice))
		}
		row = append(row,
			item.Description,
			item.Notes,
			len(item.Documents),
			item.CreatedByName,
			item.CreatedAt.Format("2006-01-02"),
			optDate(item.StartedAt),
			optDate(item.CompletedAt),
		)
		r.setRow(f, itemsSheet, i+2, row)
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("resolve header range: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E8E8E8"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(itemsSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	// Title, site and the free-text columns need room; the rest stay default.
	r.setColWidth(f, itemsSheet, "A", "B", 32)
	r.setColWidth(f, itemsSheet, "K", "K", 28)
	if err := f.SetPanes(itemsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header row: %w", err)
	}
	return nil
}

func (r *ExcelRenderer) writeSummary(f *excelize.File, data *Data) error {
	s := data.Summary
	rows := [][]interface{}{
		{data.Title},
		{data.RangeLabel},
		{"Generated", data.GeneratedAt.Format("2006-01-02 15:04")},
		{},
		{"Total items", s.Total},
		{},
		{"By status"},
	}
	for _, st := range models.AllStatuses() {
		rows = append(rows, []interface{}{"  " + string(st), s.ByStatus[st]})
	}
	rows = append(rows, []interface{}{}, []interface{}{"By category"})
	for _, c := range models.AllCategories() {
		rows = append(rows, []interface{}{"  " + string(c), s.ByCategory[c]})
	}
	rows = append(rows, []interface{}{}, []interface{}{"By priority"})
	for _, p := range models.AllPriorities() {
		rows = append(rows, []interface{}{"  " + string(p), s.ByPriority[p]})
	}
	rows = append(rows, []interface{}{}, []interface{}{"By confirmation"})
	for _, c := range models.AllConfirmations() {
		rows = append(rows, []interface{}{"  " + string(c), s.ByConfirmation[c]})
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"With PO number", s.WithPONumber},
		[]interface{}{"Requiring material", s.RequiresMaterial},
		[]interface{}{"Documents attached", s.DocumentCount},
		[]interface{}{"Avg completion (days)", s.AvgCompletionDays},
	)
	if data.IncludePrices {
		rows = append(rows,
			[]interface{}{"Quoted total", s.QuotedTotal},
			[]interface{}{"Confirmed total", s.ConfirmedTotal},
		)
	}

	for i, row := range rows {
		r.setRow(f, summarySheet, i+1, row)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 13}})
	if err != nil {
		return fmt.Errorf("create title style: %w", err)
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A1", titleStyle); err != nil {
		return fmt.Errorf("apply title style: %w", err)
	}
	r.setColWidth(f, summarySheet, "A", "A", 26)
	return nil
}

// setRow writes one row starting at column A. Failures are logged rather
// than aborting the whole workbook.
func (r *ExcelRenderer) setRow(f *excelize.File, sheet string, row int, values []interface{}) {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		r.logger.Warn("Failed to resolve row cell",
			zap.String("sheet", sheet),
			zap.Int("row", row),
			zap.Error(err))
		return
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		r.logger.Warn("Failed to write row",
			zap.String("sheet", sheet),
			zap.Int("row", row),
			zap.Error(err))
	}
}

func (r *ExcelRenderer) setColWidth(f *excelize.File, sheet, from, to string, width float64) {
	if err := f.SetColWidth(sheet, from, to, width); err != nil {
		r.logger.Warn("Failed to set column width",
			zap.String("sheet", sheet),
			zap.Error(err))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func optFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func optDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
