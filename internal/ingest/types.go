// Package ingest parses maintenance workbooks and normalizes their rows
// into typed records.
package ingest

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the schema and data-quality taxonomy. Handlers map
// these to user-visible section failures.
var (
	ErrMissingSheet  = errors.New("required sheet not found")
	ErrMissingColumn = errors.New("required column not found")
	ErrNoValidRows   = errors.New("no valid rows after cleaning")
)

// Failure sheet column names, as they appear in the uploaded workbook.
const (
	ColEquipment = "EQUIPAMENTO"
	ColFleet     = "FROTA"
	ColSystem    = "SISTEMA"
	ColAssembly  = "CONJUNTO"
	ColItem      = "ITEM"
	ColStart     = "DATA INICIAL"
	ColEnd       = "DATA FINAL"
	ColDuration  = "DURAÇÃO"
	ColCause     = "CAUSA"
)

// Sheet names expected in the main workbook.
const (
	SheetFailures   = "Falhas"
	SheetIndicators = "Indicadores"
)

// RequiredFailureColumns lists the columns the failure sheet must carry.
// Missing any of them is a hard schema error.
var RequiredFailureColumns = []string{
	ColEquipment, ColFleet, ColSystem, ColAssembly, ColItem,
	ColStart, ColEnd, ColDuration, ColCause,
}

// FailureEvent is one maintenance-stoppage record. Instances are produced
// only by CleanFailures and are immutable afterwards.
type FailureEvent struct {
	Equipment     string    `json:"equipment"`
	Fleet         string    `json:"fleet"`
	System        string    `json:"system"`
	Assembly      string    `json:"assembly"`
	Item          string    `json:"item"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
	Cause         string    `json:"cause"`
}

// IndicatorRecord is one periodic performance-indicator snapshot for an
// equipment/fleet pair. Metrics holds only the values that parsed to a
// finite number; a missing metric is an absent key.
type IndicatorRecord struct {
	Equipment   string             `json:"equipment"`
	Fleet       string             `json:"fleet"`
	PeriodStart time.Time          `json:"period_start"`
	PeriodEnd   time.Time          `json:"period_end"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Metric returns a named numeric indicator and whether it was present.
func (r IndicatorRecord) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	return v, ok
}

// Normalized indicator column names (upper-cased, spaces to underscores).
const (
	IndAvailability = "DISPONIBILIDADE_FISICA"
	IndUtilization  = "UTILIZACAO_FISICA"
	IndMTBF         = "MTBF"
	IndMTTR         = "MTTR"
	IndOEE          = "OEE"
	IndProductivity = "PRODUTIVIDADE"

	indEquipment   = "EQUIPAMENTO"
	indFleet       = "FROTA"
	indPeriodStart = "DATA_INICIAL"
	indPeriodEnd   = "DATA_FINAL"
)

// NumericIndicatorColumns enumerates every indicator column coerced to a
// number during cleaning. Values that fail to parse are left out of the
// record instead of dropping the row.
var NumericIndicatorColumns = []string{
	"HORAS_CALENDARIO", "HORAS_DE_MANUTENCAO", "HORA_DE_MANUTENÇÃO_CORRETIVA",
	"HORA_ACIDENTE", "HORA_DE_MANUTENÇÃO_PREVENTIVA",
	"HORA_DE_MANUTENÇÃO_PREVENTIVA_SISTEMÁTICA",
	"HORA_DE_MANUTENÇÃO_PREVENTIVA_NÃO_SISTEMÁTICA",
	"HORAS_DISPONIVÉIS", "HORA_OCIOSA", "HORA_OCIOSA_INTERNA",
	"HORA_OCIOSA_EXTERNA", "HORA_TRABALHADA", "HORA_TRABALHADA_PRODUTIVA",
	"HORA_EFETIVA", "HORA_DE_ATRASO_OPERACIONAL",
	"HORA_TRABALHADA_NÃO_PRODUTIVA", "HORA_TRABALHADA_DE_INFRA",
	"HORA_TRABALHADA_DIVERSA", IndAvailability, IndUtilization,
	"RENDIMENTO_OPERACIONAL", "DI_PERCENT", "EP", IndOEE,
	"NUMERO_DE_INTERVEÇÕES_CORRETIVAS", "IAO", "TON_HE", IndMTBF, IndMTTR,
	"MTBS", "MTTS", "NIM", "FMP", "PRODUÇÃO", IndProductivity,
	"PERCENT_IMPACTO_NO_PAI",
}

// ExpectedIndicatorColumns are reported back to the caller when absent;
// their absence degrades some analyses but is not a schema error.
var ExpectedIndicatorColumns = []string{
	indEquipment, indFleet, indPeriodStart, indPeriodEnd,
	IndAvailability, IndMTBF, IndMTTR, IndOEE, IndProductivity,
}

// CleanReport summarizes a cleaning pass over one sheet.
type CleanReport struct {
	RowsIn      int `json:"rows_in"`
	RowsKept    int `json:"rows_kept"`
	RowsDropped int `json:"rows_dropped"`
}

// RawSheet is an untyped sheet as read from the workbook: a header row and
// the data rows below it.
type RawSheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

func missingColumns(header []string, required []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

func schemaError(sheet string, missing []string) error {
	return fmt.Errorf("sheet %q: %w: %v", sheet, ErrMissingColumn, missing)
}
