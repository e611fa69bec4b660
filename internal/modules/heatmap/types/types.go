package types

import "time"

type LoadStatus string

const (
	LoadOK     LoadStatus = "ok"
	LoadFailed LoadStatus = "failed"
)

// DatasetStatus is the lifecycle of the single dataset load.
type DatasetStatus string

const (
	DatasetPending DatasetStatus = "pending"
	DatasetReady   DatasetStatus = "ready"
	DatasetFailed  DatasetStatus = "failed"
)

// LoadAttempt is the audit record of one dataset fetch. The dataset itself
// is never stored.
type LoadAttempt struct {
	ID              string     `json:"id"`
	SourceURL       string     `json:"sourceUrl"`
	StartedAt       time.Time  `json:"startedAt"`
	DurationMS      int64      `json:"durationMs"`
	Status          LoadStatus `json:"status"`
	RecordCount     int        `json:"recordCount"`
	BaseTemperature *float64   `json:"baseTemperature,omitempty"`
	MinVariance     *float64   `json:"minVariance,omitempty"`
	MaxVariance     *float64   `json:"maxVariance,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// LegendEntry is one color bucket of the chart legend.
type LegendEntry struct {
	Color string  `json:"color"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Label string  `json:"label"`
}
