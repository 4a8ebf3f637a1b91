package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseDurationHours converts a raw duration cell to hours. Accepted forms:
// plain numbers, comma decimal separators and a trailing "h" unit suffix
// ("12,5h" -> 12.5). Anything else, and negative or non-finite values,
// parses to NaN (missing).
func ParseDurationHours(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}
	s = strings.ReplaceAll(s, ",", ".")
	if i := strings.IndexAny(s, "hH"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) || v < 0 {
		return math.NaN()
	}
	return v
}

// timestampLayouts covers the formats seen in maintenance exports, most
// specific first.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	time.RFC3339,
}

// excel serial date epoch (with the historical 1900 leap-year offset baked
// into the -2 day correction).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseTimestamp parses permissively: unparseable values become the zero
// time rather than an error.
func ParseTimestamp(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	// Excel stores dates as fractional days since the 1900 epoch.
	if serial, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil && serial > 0 {
		days := math.Floor(serial)
		frac := serial - days
		return excelEpoch.AddDate(0, 0, int(days)).
			Add(time.Duration(frac * 24 * float64(time.Hour)))
	}
	return time.Time{}
}

// CleanText trims whitespace so integers, floats and blanks coming out of
// the spreadsheet produce a uniform string representation.
func CleanText(raw string) string {
	return strings.TrimSpace(raw)
}

func parseNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// CleanFailures validates the failure sheet contract and produces typed
// events. Rows missing a parseable start, end or duration are dropped and
// counted; rows whose start postdates their end are likewise invalid.
// A sheet that cleans down to zero rows is a terminal condition.
func CleanFailures(sheet RawSheet) ([]FailureEvent, CleanReport, error) {
	if missing := missingColumns(sheet.Header, RequiredFailureColumns); len(missing) > 0 {
		return nil, CleanReport{}, schemaError(sheet.Name, missing)
	}
	idx := columnIndex(sheet.Header)

	report := CleanReport{RowsIn: len(sheet.Rows)}
	events := make([]FailureEvent, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		ev := FailureEvent{
			Equipment:     CleanText(cell(row, idx[ColEquipment])),
			Fleet:         CleanText(cell(row, idx[ColFleet])),
			System:        CleanText(cell(row, idx[ColSystem])),
			Assembly:      CleanText(cell(row, idx[ColAssembly])),
			Item:          CleanText(cell(row, idx[ColItem])),
			Start:         ParseTimestamp(cell(row, idx[ColStart])),
			End:           ParseTimestamp(cell(row, idx[ColEnd])),
			DurationHours: ParseDurationHours(cell(row, idx[ColDuration])),
			Cause:         CleanText(cell(row, idx[ColCause])),
		}
		if ev.Start.IsZero() || ev.End.IsZero() || math.IsNaN(ev.DurationHours) || ev.End.Before(ev.Start) {
			report.RowsDropped++
			continue
		}
		events = append(events, ev)
	}
	report.RowsKept = len(events)

	if report.RowsKept == 0 {
		return nil, report, ErrNoValidRows
	}
	return events, report, nil
}

// NormalizeIndicatorColumn maps a raw indicator header to its canonical
// form: upper-cased, spaces to underscores, percent signs spelled out.
func NormalizeIndicatorColumn(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "%", "_PERCENT")
	return n
}

// CleanIndicators applies the timestamp and numeric rules to the indicator
// sheet. Indicators are best effort: rows are never dropped for missing
// values, but the equipment and fleet keys are mandatory for correlation.
// The second return lists expected columns that were absent.
func CleanIndicators(sheet RawSheet) ([]IndicatorRecord, []string, error) {
	header := make([]string, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = NormalizeIndicatorColumn(h)
	}

	if missing := missingColumns(header, []string{indEquipment, indFleet}); len(missing) > 0 {
		return nil, nil, schemaError(sheet.Name, missing)
	}
	absent := missingColumns(header, ExpectedIndicatorColumns)

	idx := columnIndex(header)
	records := make([]IndicatorRecord, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rec := IndicatorRecord{
			Equipment: CleanText(cell(row, idx[indEquipment])),
			Fleet:     CleanText(cell(row, idx[indFleet])),
			Metrics:   make(map[string]float64),
		}
		if i, ok := idx[indPeriodStart]; ok {
			rec.PeriodStart = ParseTimestamp(cell(row, i))
		}
		if i, ok := idx[indPeriodEnd]; ok {
			rec.PeriodEnd = ParseTimestamp(cell(row, i))
		}
		for _, col := range NumericIndicatorColumns {
			i, ok := idx[col]
			if !ok {
				continue
			}
			if v, ok := parseNumeric(cell(row, i)); ok {
				rec.Metrics[col] = v
			}
		}
		records = append(records, rec)
	}
	return records, absent, nil
}
