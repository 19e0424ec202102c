// Package batch drives the component pipeline over a spreadsheet of HS
// codes and flattens the results to one output row per component.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/transition-cli/internal/model"
)

// Input column headers expected in the first row of the sheet.
const (
	colHSCode      = "hs_code_6d"
	colDescription = "full_description"
)

// Item is one HS code to analyze.
type Item struct {
	HSCode      string
	Description string
}

// ReadItems loads the HS code list from an xlsx sheet. Columns are located
// by header name, so extra columns and arbitrary ordering are fine; rows
// with a blank HS code are skipped.
func ReadItems(path string) ([]Item, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("batch: %s has no rows", path)
	}

	codeIdx, descIdx := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case colHSCode:
			codeIdx = i
		case colDescription:
			descIdx = i
		}
	}
	if codeIdx < 0 || descIdx < 0 {
		return nil, eris.Errorf("batch: %s is missing the %s or %s column", path, colHSCode, colDescription)
	}

	var items []Item
	for _, row := range rows[1:] {
		item := Item{HSCode: cellAt(row, codeIdx), Description: cellAt(row, descIdx)}
		if item.HSCode == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Analyzer runs the component pipeline for one HS code.
type Analyzer interface {
	Analyze(ctx context.Context, hsCode, description string) *model.PipelineRun
}

// Row is one flattened output record: one component of one HS code, or a
// single error marker when the whole run failed.
type Row struct {
	HSCode         string
	Description    string
	Component      string
	Function       string
	Subsystem      string
	Classification string
	Similarity     float64
	Tech           int
	Manufacturing  int
	SupplyChain    int
	Demand         int
	Value          int
	Regulatory     int
	TFS            int
	Timeline       string
	Status         string
	Error          string
}

// Flatten converts a finished run into output rows. Classifications and
// scores are joined to components by position; a failed run collapses to
// one ERROR row carrying the failure reason.
func Flatten(run *model.PipelineRun) []Row {
	if run.Status == model.RunStatusFailed || len(run.Components) == 0 {
		reason := run.FailureReason
		if reason == "" {
			reason = "no components extracted"
		}
		return []Row{{
			HSCode:      run.HSCode,
			Description: run.Description,
			Component:   "ERROR",
			Status:      string(model.RunStatusFailed),
			Error:       reason,
		}}
	}

	rows := make([]Row, 0, len(run.Components))
	for i, comp := range run.Components {
		row := Row{
			HSCode:      run.HSCode,
			Description: run.Description,
			Component:   comp.Name,
			Function:    comp.Function,
			Subsystem:   string(comp.Subsystem),
			Status:      string(run.Status),
		}
		if i < len(run.Classification) {
			row.Classification = string(run.Classification[i].Classification)
			row.Similarity = run.Classification[i].SimilarityOrZero()
		}
		if i < len(run.Scores) {
			s := run.Scores[i]
			row.Tech, row.Manufacturing, row.SupplyChain = s.Tech, s.Manufacturing, s.SupplyChain
			row.Demand, row.Value, row.Regulatory = s.Demand, s.Value, s.Regulatory
			if tfs, ok := s.TFS(); ok {
				row.TFS = tfs
			}
			row.Timeline = model.Timeline(row.TFS)
		}
		rows = append(rows, row)
	}
	return rows
}

// Run analyzes every item sequentially and collects the flattened rows.
// One HS code failing never stops the batch.
func Run(ctx context.Context, analyzer Analyzer, items []Item) ([]Row, error) {
	var rows []Row
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return rows, eris.Wrap(err, "batch: cancelled")
		}
		zap.L().Info("batch: processing item",
			zap.Int("index", i+1),
			zap.Int("total", len(items)),
			zap.String("hs_code", item.HSCode),
		)
		run := analyzer.Analyze(ctx, item.HSCode, item.Description)
		rows = append(rows, Flatten(run)...)
	}
	return rows, nil
}

var header = []string{
	"HS_Code", "Description", "Component", "Function", "Subsystem",
	"Classification", "Similarity",
	"Tech", "Manufacturing", "Supply_Chain", "Demand", "Value", "Regulatory",
	"TFS_Score", "Timeline", "Status", "Error",
}

// WriteRows saves the flattened rows as a single-sheet xlsx file.
func WriteRows(path string, rows []Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Results")
	if err != nil {
		return eris.Wrap(err, "batch: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.HSCode)
		row.AddCell().SetString(r.Description)
		row.AddCell().SetString(r.Component)
		row.AddCell().SetString(r.Function)
		row.AddCell().SetString(r.Subsystem)
		row.AddCell().SetString(r.Classification)
		row.AddCell().SetFloat(r.Similarity)
		row.AddCell().SetInt(r.Tech)
		row.AddCell().SetInt(r.Manufacturing)
		row.AddCell().SetInt(r.SupplyChain)
		row.AddCell().SetInt(r.Demand)
		row.AddCell().SetInt(r.Value)
		row.AddCell().SetInt(r.Regulatory)
		row.AddCell().SetInt(r.TFS)
		row.AddCell().SetString(r.Timeline)
		row.AddCell().SetString(r.Status)
		row.AddCell().SetString(r.Error)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "batch: save output")
	}
	return nil
}

// OutputPath names the result file for a draw: results_draw_NN_timestamp.xlsx.
func OutputPath(dir string, draw int, now time.Time) string {
	name := fmt.Sprintf("results_draw_%02d_%s.xlsx", draw, now.Format("20060102_150405"))
	return filepath.Join(dir, name)
}

// Summary tallies a finished batch for the closing log line.
type Summary struct {
	Items   int
	Rows    int
	Success int
	Partial int
	Failed  int
}

// Summarize counts row statuses. Success and Partial count distinct HS
// codes; Failed counts error rows.
func Summarize(items []Item, rows []Row) Summary {
	s := Summary{Items: len(items), Rows: len(rows)}
	seen := make(map[string]string, len(items))
	for _, r := range rows {
		seen[r.HSCode] = r.Status
	}
	for _, status := range seen {
		switch status {
		case string(model.RunStatusSuccess):
			s.Success++
		case string(model.RunStatusPartial):
			s.Partial++
		default:
			s.Failed++
		}
	}
	return s
}

// FormatSummary renders the closing summary for the console.
func FormatSummary(s Summary, elapsed time.Duration) string {
	return "processed " + strconv.Itoa(s.Items) + " HS codes (" +
		strconv.Itoa(s.Success) + " success, " +
		strconv.Itoa(s.Partial) + " partial, " +
		strconv.Itoa(s.Failed) + " failed) in " + elapsed.Round(time.Second).String()
}
