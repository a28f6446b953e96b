package catalog

import (
	"strconv"
	"strings"
)

// Mode says which kind of source-level operation a rule matches.
type Mode string

const (
	ModeFunctionCall  Mode = "FUNCTION_CALL"
	ModeRegisterWrite Mode = "REGISTER_WRITE"
)

// Pattern selects how an occurrence of the identifier is matched.
type Pattern string

const (
	PatternSimple        Pattern = "SIMPLE"
	PatternArgMatch      Pattern = "ARG_MATCH"
	PatternArgAsID       Pattern = "ARG_AS_ID"
	PatternWriteVal      Pattern = "WRITE_VAL"
	PatternBitwiseMask   Pattern = "BITWISE_MASK"
	PatternRegBitMapping Pattern = "REG_BIT_MAPPING"
)

// Allows reports whether the pattern is valid for this mode.
// Function calls match by argument; register writes match by value or bit.
func (m Mode) Allows(p Pattern) bool {
	switch m {
	case ModeFunctionCall:
		return p == PatternSimple || p == PatternArgMatch || p == PatternArgAsID
	case ModeRegisterWrite:
		return p == PatternRegBitMapping || p == PatternWriteVal || p == PatternBitwiseMask
	}
	return false
}

// BitMode says whether a bit-mapped register rule targets a fixed bit or
// one selected per write (e.g. by a shift amount).
type BitMode string

const (
	BitModeFixed   BitMode = "FIXED"
	BitModeDynamic BitMode = "DYNAMIC"
)

// Polarity says which bit value means "disabled" in a bit-mapped register.
type Polarity string

const (
	PolarityOneDisables  Polarity = "1_DISABLES"
	PolarityZeroDisables Polarity = "0_DISABLES"
)

// RuleAction is the declared goal of a control rule.
type RuleAction string

const (
	ActionEnable  RuleAction = "ENABLE"
	ActionDisable RuleAction = "DISABLE"
)

// Scope is the stored target scope of a control rule.
type Scope string

const (
	ScopeGlobal   Scope = "GLOBAL"
	ScopeSpecific Scope = "SPECIFIC"
)

// ISRDescriptor describes one interrupt service routine.
type ISRDescriptor struct {
	ID           string `json:"id" yaml:"id"`
	FunctionName string `json:"function_name" yaml:"function_name"`
	Priority     int    `json:"priority" yaml:"priority"`
	HardwareID   string `json:"hardware_id" yaml:"hardware_id"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
}

// CanonicalHardwareID returns the hardware vector as an int when the
// stored token parses as one (including the -1 "no vector" sentinel),
// otherwise the original symbolic token.
func (d ISRDescriptor) CanonicalHardwareID() any {
	return CanonicalToken(d.HardwareID)
}

// CanonicalToken converts a numeric token to an int, leaving symbolic
// tokens (macro names, hex-as-text) untouched.
func CanonicalToken(token string) any {
	if n, err := strconv.Atoi(strings.TrimSpace(token)); err == nil {
		return n
	}
	return token
}

// ControlRule declares that a function call or register write enables or
// disables one or all interrupt sources.
type ControlRule struct {
	ID         string  `json:"id" yaml:"id"`
	Mode       Mode    `json:"mode" yaml:"mode"`
	Identifier string  `json:"identifier" yaml:"identifier"`
	Pattern    Pattern `json:"pattern" yaml:"pattern"`

	// Pattern-specific fields. ArgIndex is used by ARG_MATCH and
	// ARG_AS_ID, MatchValue by ARG_MATCH, WRITE_VAL and BITWISE_MASK,
	// the reg_* fields by REG_BIT_MAPPING.
	ArgIndex    int      `json:"arg_index,omitempty" yaml:"arg_index,omitempty"`
	MatchValue  string   `json:"match_value,omitempty" yaml:"match_value,omitempty"`
	RegBitMode  BitMode  `json:"reg_bit_mode,omitempty" yaml:"reg_bit_mode,omitempty"`
	RegBitIndex int      `json:"reg_bit_index,omitempty" yaml:"reg_bit_index,omitempty"`
	RegPolarity Polarity `json:"reg_polarity,omitempty" yaml:"reg_polarity,omitempty"`

	Action      RuleAction `json:"action" yaml:"action"`
	TargetScope Scope      `json:"target_scope" yaml:"target_scope"`
	LinkedISRID string     `json:"linked_isr_id,omitempty" yaml:"linked_isr_id,omitempty"`
}

// DynamicScope reports whether the rule's effective scope is resolved per
// source occurrence by the analysis engine. When true the stored
// TargetScope and LinkedISRID are ignored at compile time.
func (r ControlRule) DynamicScope() bool {
	if r.Pattern == PatternArgAsID {
		return true
	}
	return r.Mode == ModeRegisterWrite && r.RegBitMode == BitModeDynamic
}

// DisableValue maps the polarity to the bit value the engine should read
// as "disabled": 1 for 1_DISABLES, 0 otherwise.
func (r ControlRule) DisableValue() int {
	if r.RegPolarity == PolarityOneDisables {
		return 1
	}
	return 0
}
