// Package export renders compiled policy documents in the wire format
// the analysis engine reads. Pure formatting: the compiler's ordering is
// preserved and no decisions are made here.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/irqpolicy/irqpolicy/internal/policy"
)

const (
	// EngineName identifies the target analysis engine in the header.
	EngineName = "irqcheck-core"

	// FormatVersion is bumped whenever the document layout changes.
	FormatVersion = "1.0"
)

// NewMeta builds the document header. GeneratedAt is the only field
// that varies between otherwise identical exports.
func NewMeta(project, note string) policy.Meta {
	return policy.Meta{
		Project:     project,
		Engine:      EngineName,
		Version:     FormatVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Note:        note,
	}
}

// Render serializes the document as indented JSON with a trailing
// newline.
func Render(doc *policy.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal policy document: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile renders the document and writes it to path.
func WriteFile(path string, doc *policy.Document) (int, error) {
	data, err := Render(doc)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("write policy document: %w", err)
	}
	return len(data), nil
}
