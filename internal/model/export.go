package model

import "time"

// HistoryExport is the top-level JSON structure for history export.
type HistoryExport struct {
	ExportedAt time.Time          `json:"exported_at"`
	Count      int                `json:"count"`
	Average    float64            `json:"average"`
	Subjects   []SubjectAverage   `json:"subjects"`
	Entries    []TestHistoryEntry `json:"entries"`
}

// SubjectAverage is one row of the per-subject breakdown in an export.
type SubjectAverage struct {
	Subject string  `json:"subject"`
	Tests   int     `json:"tests"`
	Average float64 `json:"average"`
}
