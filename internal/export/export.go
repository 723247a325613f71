// Package export writes period reports as XLSX workbooks and reads them
// back.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dapurasri/backoffice/internal/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Laporan"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	headers = []string{"Tanggal", "Keterangan", "Nominal"}
	widths  = []float64{14, 32, 16}
)

// FileName is laporan-<kind>-<from>-<to>.xlsx with dates as YYYY-MM-DD.
func FileName(kind model.ReportKind, from, to model.Date) string {
	return fmt.Sprintf("laporan-%s-%s-%s.xlsx", kind, from, to)
}

// Write renders the report rows. An empty report is rejected.
func Write(r model.Report) ([]byte, error) {
	if len(r.Rows) == 0 {
		return nil, model.Invalid("rows", "Tidak ada data untuk diexport")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	numFmt := "#,##0"
	nominal, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, err
	}

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		if err := f.SetCellStr(SheetName, cell, h); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, col, col, widths[i]); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", bold); err != nil {
		return nil, err
	}

	for i, row := range r.Rows {
		n := i + 2
		if err := f.SetCellStr(SheetName, fmt.Sprintf("A%d", n), row.Date.String()); err != nil {
			return nil, err
		}
		if err := f.SetCellStr(SheetName, fmt.Sprintf("B%d", n), row.Description); err != nil {
			return nil, err
		}
		cell := fmt.Sprintf("C%d", n)
		if err := f.SetCellFloat(SheetName, cell, row.Amount.InexactFloat64(), -1, 64); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, nominal); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Read parses a workbook written by Write back into report rows.
func Read(r io.Reader) ([]model.ReportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]model.ReportRow, 0, len(rows)-1)
	for i, cols := range rows[1:] {
		if len(cols) < 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", i+2, len(cols))
		}
		date, err := model.ParseDate(strings.TrimSpace(cols[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(cols[2]))
		if err != nil {
			return nil, fmt.Errorf("row %d: amount: %w", i+2, err)
		}
		out = append(out, model.ReportRow{Date: date, Description: cols[1], Amount: amount})
	}
	return out, nil
}
