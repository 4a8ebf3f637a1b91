// Package session holds the currently loaded dataset. One dataset is
// active at a time; an upload replaces it atomically.
package session

import (
	"sync"
	"time"

	"github.com/vigia-platform/vigia/internal/dataset"
	"github.com/vigia-platform/vigia/internal/ingest"
)

// Holder guards the active dataset. The zero value is empty and usable.
type Holder struct {
	mu       sync.RWMutex
	ds       *dataset.Dataset
	report   ingest.CleanReport
	missing  []string
	filename string
}

// Replace installs a freshly cleaned dataset as the active one.
func (h *Holder) Replace(ds *dataset.Dataset, report ingest.CleanReport, missing []string, filename string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ds = ds
	h.report = report
	h.missing = missing
	h.filename = filename
}

// Dataset returns the active dataset, or false when nothing is loaded.
func (h *Holder) Dataset() (*dataset.Dataset, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ds, h.ds != nil
}

// Status describes the active dataset for health and status endpoints.
type Status struct {
	Loaded            bool               `json:"loaded"`
	Filename          string             `json:"filename,omitempty"`
	LoadedAt          time.Time          `json:"loaded_at,omitempty"`
	Failures          int                `json:"failures"`
	Indicators        int                `json:"indicators"`
	CleanReport       ingest.CleanReport `json:"clean_report"`
	MissingIndicators []string           `json:"missing_indicator_columns,omitempty"`
}

// Status reports the holder's current state.
func (h *Holder) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.ds == nil {
		return Status{}
	}
	return Status{
		Loaded:            true,
		Filename:          h.filename,
		LoadedAt:          h.ds.LoadedAt,
		Failures:          len(h.ds.Failures),
		Indicators:        len(h.ds.Indicators),
		CleanReport:       h.report,
		MissingIndicators: h.missing,
	}
}
