package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"tablebook/pkg/model"

	"github.com/xuri/excelize/v2"
)

const (
	CSVContentType  = "text/csv"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	CSVFilename  = "bookings.csv"
	XLSXFilename = "bookings.xlsx"

	SheetName = "Bookings"
)

// Columns is the fixed column order of every export.
var Columns = []string{"firstName", "lastName", "phone", "email", "date", "time", "table"}

func row(b *model.Booking) []string {
	return []string{b.FirstName, b.LastName, b.Phone, b.Email, b.Date, b.Time, strconv.Itoa(b.Table)}
}

// CSV renders bookings as a header row plus one row per booking, in the
// order given.
func CSV(bookings []*model.Booking) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, b := range bookings {
		if err := w.Write(row(b)); err != nil {
			return nil, fmt.Errorf("failed to write csv row for booking %s: %w", b.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSX renders the same columns as CSV into a single "Bookings" sheet. The
// table column is written as a number.
func XLSX(bookings []*model.Booking) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write xlsx header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(Columns), 1)
		_ = f.SetCellStyle(SheetName, "A1", lastHeader, style)
	}

	for i, b := range bookings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{b.FirstName, b.LastName, b.Phone, b.Email, b.Date, b.Time, b.Table}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write xlsx row for booking %s: %w", b.ID, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "D", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
