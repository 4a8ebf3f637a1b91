// Package analyzer computes reliability and maintenance KPIs over the
// cleaned failure dataset. Every aggregation is a pure function of its
// inputs; nothing here mutates the dataset.
package analyzer

import (
	"errors"
	"time"
)

// ErrInsufficientData marks a section skipped because the filtered data
// is below an algorithm's minimum sample size.
var ErrInsufficientData = errors.New("insufficient data")

// Level selects the hierarchy level an aggregation groups by.
type Level string

const (
	LevelSystem   Level = "system"
	LevelAssembly Level = "assembly"
	LevelItem     Level = "item"
)

// ParseLevel validates a user-supplied hierarchy level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelSystem, LevelAssembly, LevelItem:
		return Level(s), nil
	}
	return "", errors.New("level must be one of: system, assembly, item")
}

// HierarchyKPI is one row of the hierarchical KPI table: the aggregate for
// a single group value at the chosen level.
type HierarchyKPI struct {
	Group          string  `json:"group"`
	MTTRHours      float64 `json:"mttr_hours"`
	TotalHours     float64 `json:"total_hours"`
	Occurrences    int     `json:"occurrences"`
	EquipmentCount int     `json:"equipment_count"`
}

// ParetoRow is one bar of a Pareto chart: group total plus the running
// cumulative share of the grand total.
type ParetoRow struct {
	Group         string  `json:"group"`
	TotalHours    float64 `json:"total_hours"`
	CumulativePct float64 `json:"cumulative_pct"`
}

// RiskLevel is the three-way next-failure risk label.
type RiskLevel string

const (
	RiskHigh      RiskLevel = "high"
	RiskLow       RiskLevel = "low"
	RiskNoHistory RiskLevel = "no-history"
)

// ReliabilityProfile is the per-item reliability record.
type ReliabilityProfile struct {
	Item                  string    `json:"item"`
	Occurrences           int       `json:"occurrences"`
	TotalDowntimeHours    float64   `json:"total_downtime_hours"`
	MTTRHours             float64   `json:"mttr_hours"`
	MTBFHours             float64   `json:"mtbf_hours"`
	LastFailure           time.Time `json:"last_failure"`
	HoursSinceLastFailure float64   `json:"hours_since_last_failure"`
	Risk                  RiskLevel `json:"risk"`
}

// CurvePoint is one sample of the fitted reliability curve R(t).
type CurvePoint struct {
	X float64 `json:"t_hours"`
	R float64 `json:"reliability"`
}

// WeibullFit is the result of fitting a two-parameter Weibull survival
// model to inter-failure times.
type WeibullFit struct {
	Shape          float64      `json:"shape"`
	Scale          float64      `json:"scale"`
	Samples        int          `json:"samples"`
	Curve          []CurvePoint `json:"curve"`
	Interpretation string       `json:"interpretation"`
	ScaleNote      string       `json:"scale_note"`
}

// AnomalyMark labels one failure event as anomalous or normal.
type AnomalyMark struct {
	Index         int       `json:"index"`
	Equipment     string    `json:"equipment"`
	Start         time.Time `json:"start"`
	DurationHours float64   `json:"duration_hours"`
	Score         float64   `json:"score"`
	Anomalous     bool      `json:"anomalous"`
}

// CriticalityScore is the per-equipment bad-actor record: four normalized
// sub-scores in [0,1] and their unweighted sum in [0,4].
type CriticalityScore struct {
	Equipment        string  `json:"equipment"`
	DowntimeHours    float64 `json:"downtime_hours"`
	Occurrences      int     `json:"occurrences"`
	MTTRHours        float64 `json:"mttr_hours"`
	MTBFHours        float64 `json:"mtbf_hours"`
	ScoreDowntime    float64 `json:"score_downtime"`
	ScoreOccurrences float64 `json:"score_occurrences"`
	ScoreMTTR        float64 `json:"score_mttr"`
	ScoreMTBF        float64 `json:"score_mtbf"`
	Composite        float64 `json:"composite"`
}

// EquipmentKPI is one row of the equipment comparison table.
type EquipmentKPI struct {
	Equipment     string  `json:"equipment"`
	Fleet         string  `json:"fleet"`
	DowntimeHours float64 `json:"downtime_hours"`
	Occurrences   int     `json:"occurrences"`
	MTTRHours     float64 `json:"mttr_hours"`
	MTBFHours     float64 `json:"mtbf_hours"`
}

// FleetKPI is one row of the fleet comparison table.
type FleetKPI struct {
	Fleet         string  `json:"fleet"`
	DowntimeHours float64 `json:"downtime_hours"`
	Occurrences   int     `json:"occurrences"`
	MTTRHours     float64 `json:"mttr_hours"`
	MTBFHours     float64 `json:"mtbf_hours"`
}

// TemporalPoint is one day of downtime for one equipment.
type TemporalPoint struct {
	Date          time.Time `json:"date"`
	Equipment     string    `json:"equipment"`
	DowntimeHours float64   `json:"downtime_hours"`
}

// HeatmapCell is one cell of a failure-pattern heatmap.
type HeatmapCell struct {
	X             string  `json:"x"`
	Y             string  `json:"y"`
	DowntimeHours float64 `json:"downtime_hours"`
	Failures      int     `json:"failures"`
}

// AvailabilityRow reports achieved physical availability per equipment:
// the indicator-sheet value when present, a downtime-derived estimate, and
// the gap against the target.
type AvailabilityRow struct {
	Equipment    string  `json:"equipment"`
	IndicatorDF  float64 `json:"indicator_df"`
	HasIndicator bool    `json:"has_indicator"`
	EstimatedDF  float64 `json:"estimated_df"`
	TargetDF     float64 `json:"target_df"`
	GapDF        float64 `json:"gap_df"`
}

// EquipmentCount pairs an equipment id with an occurrence count.
type EquipmentCount struct {
	Equipment string `json:"equipment"`
	Count     int    `json:"count"`
}

// CauseSummary is one of the top failure causes with its resolved
// recommendation and the equipment it hits hardest.
type CauseSummary struct {
	Cause          string           `json:"cause"`
	Occurrences    int              `json:"occurrences"`
	Recommendation string           `json:"recommendation"`
	TopEquipment   []EquipmentCount `json:"top_equipment"`
}

// MCSRow is one line of the motive/cause/solution detail table.
type MCSRow struct {
	Equipment      string  `json:"equipment"`
	Cause          string  `json:"cause"`
	DowntimeHours  float64 `json:"downtime_hours"`
	Occurrences    int     `json:"occurrences"`
	Recommendation string  `json:"recommendation"`
}
