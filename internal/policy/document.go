// Package policy compiles the ISR and control rule catalogs into the
// declarative document the external analysis engine consumes. The
// compiler is a pure function over catalog snapshots: deterministic,
// total over well-formed input, and safe to invoke concurrently.
package policy

// Document is the compiled policy: the ISR catalog projected 1:1 plus
// the resolved trigger/effect list, both in catalog order. Meta is
// filled by the serializer, not the compiler.
type Document struct {
	Meta             Meta           `json:"meta"`
	InterruptVectors []Vector       `json:"interrupt_vectors"`
	ControlRules     []CompiledRule `json:"control_rules"`
}

// Meta is the document header: project and target-engine identity,
// format version and generation timestamp. GeneratedAt is the only
// non-deterministic field in a rendered document.
type Meta struct {
	Project     string `json:"project"`
	Engine      string `json:"engine"`
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Vector is one projected ISR. HWID is an int when the catalog token is
// numeric, otherwise the symbolic token itself.
type Vector struct {
	Symbol   string `json:"symbol"`
	HWID     any    `json:"hw_id"`
	Priority int    `json:"priority"`
}

// CompiledRule pairs what the engine should watch for with what the
// occurrence means for the interrupt-masking model.
type CompiledRule struct {
	Trigger Trigger `json:"trigger"`
	Effect  Effect  `json:"effect"`
}

// Trigger describes the source-level operation to match.
type Trigger struct {
	Type   string `json:"type"` // "call" or "write"
	Symbol string `json:"symbol"`
	Match  Match  `json:"match"`
}

// Match is the pattern-specific payload. Exactly the fields meaningful
// for Type are set; pointer fields distinguish "absent" from zero.
type Match struct {
	Type         string  `json:"type"`
	Index        *int    `json:"index,omitempty"`
	Value        *string `json:"value,omitempty"`
	BitIndex     any     `json:"bit_index,omitempty"` // int, or "dynamic_shift"
	DisableValue *int    `json:"disable_value,omitempty"`
}

// Effect describes the masking consequence of a matched trigger.
// TargetHWID is present only for a resolved specific scope; an
// unresolved specific (stale or missing link) omits it and is still a
// valid, renderable state.
type Effect struct {
	Action     string `json:"action"` // "enable" or "disable"
	Scope      string `json:"scope"`  // "global", "specific" or "dynamic"
	TargetHWID any    `json:"target_hw_id,omitempty"`
}
