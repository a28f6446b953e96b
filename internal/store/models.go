package store

import "time"

// CompileRecord is one entry in the compile history.
type CompileRecord struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ISRCount   int       `json:"isr_count"`
	RuleCount  int       `json:"rule_count"`
	OutputPath string    `json:"output_path,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
}
