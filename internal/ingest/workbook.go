package ingest

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"
)

// InterFailureColumn is the column the standalone reliability workbook must
// carry: inter-failure time in hours.
const InterFailureColumn = "Tempo entre falhas (h)"

// ReadWorkbook opens the main maintenance workbook and extracts the raw
// failure and indicator sheets. Both sheets are required.
func ReadWorkbook(r io.Reader) (failures, indicators RawSheet, err error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return RawSheet{}, RawSheet{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	failures, err = readSheet(f, SheetFailures)
	if err != nil {
		return RawSheet{}, RawSheet{}, err
	}
	indicators, err = readSheet(f, SheetIndicators)
	if err != nil {
		return RawSheet{}, RawSheet{}, err
	}
	return failures, indicators, nil
}

func readSheet(f *excelize.File, name string) (RawSheet, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return RawSheet{}, fmt.Errorf("%w: %q", ErrMissingSheet, name)
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return RawSheet{}, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	sheet := RawSheet{Name: name}
	if len(rows) > 0 {
		header := make([]string, len(rows[0]))
		for i, h := range rows[0] {
			header[i] = CleanText(h)
		}
		sheet.Header = header
		sheet.Rows = rows[1:]
	}
	return sheet, nil
}

// ReadInterFailureTimes opens the standalone reliability workbook and
// returns the numeric inter-failure samples from its first sheet.
// Non-numeric cells are skipped; schema errors are hard failures.
func ReadInterFailureTimes(r io.Reader) ([]float64, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMissingSheet)
	}
	sheet, err := readSheet(f, sheets[0])
	if err != nil {
		return nil, err
	}

	col := -1
	for i, h := range sheet.Header {
		if h == InterFailureColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, schemaError(sheet.Name, []string{InterFailureColumn})
	}

	var samples []float64
	for _, row := range sheet.Rows {
		if v, ok := parseNumeric(cell(row, col)); ok && !math.IsNaN(v) {
			samples = append(samples, v)
		}
	}
	return samples, nil
}
