package policy

import (
	"strings"

	"github.com/irqpolicy/irqpolicy/internal/catalog"
)

// dynamicShift is the bit_index token for bit mappings whose bit is
// selected per write.
const dynamicShift = "dynamic_shift"

// Compile maps the catalogs to a policy document. Output order equals
// catalog insertion order; nothing is deduplicated or reordered. The
// inputs are never mutated.
func Compile(c *catalog.Catalogs) *Document {
	doc := &Document{
		InterruptVectors: make([]Vector, 0, len(c.ISRs)),
		ControlRules:     make([]CompiledRule, 0, len(c.Rules)),
	}
	for _, d := range c.ISRs {
		doc.InterruptVectors = append(doc.InterruptVectors, Vector{
			Symbol:   d.FunctionName,
			HWID:     d.CanonicalHardwareID(),
			Priority: d.Priority,
		})
	}
	for _, r := range c.Rules {
		doc.ControlRules = append(doc.ControlRules, CompileRule(r, c))
	}
	return doc
}

// CompileRule maps one control rule to its trigger/effect pair against
// the given ISR snapshot.
func CompileRule(r catalog.ControlRule, c *catalog.Catalogs) CompiledRule {
	return CompiledRule{
		Trigger: buildTrigger(r),
		Effect:  buildEffect(r, c),
	}
}

func buildTrigger(r catalog.ControlRule) Trigger {
	t := Trigger{
		Type:   "write",
		Symbol: r.Identifier,
		Match:  buildMatch(r),
	}
	if r.Mode == catalog.ModeFunctionCall {
		t.Type = "call"
	}
	return t
}

func buildMatch(r catalog.ControlRule) Match {
	switch r.Pattern {
	case catalog.PatternArgMatch:
		return Match{Type: "arg_eq", Index: intp(r.ArgIndex), Value: strp(r.MatchValue)}
	case catalog.PatternArgAsID:
		return Match{Type: "arg_is_id", Index: intp(r.ArgIndex)}
	case catalog.PatternWriteVal:
		return Match{Type: "val_eq", Value: strp(r.MatchValue)}
	case catalog.PatternBitwiseMask:
		return Match{Type: "mask_eq", Value: strp(r.MatchValue)}
	case catalog.PatternRegBitMapping:
		m := Match{Type: "bit_logic", DisableValue: intp(r.DisableValue())}
		if r.RegBitMode == catalog.BitModeDynamic {
			m.BitIndex = dynamicShift
		} else {
			m.BitIndex = r.RegBitIndex
		}
		return m
	default: // SIMPLE
		return Match{Type: "always"}
	}
}

func buildEffect(r catalog.ControlRule, c *catalog.Catalogs) Effect {
	e := Effect{Action: strings.ToLower(string(r.Action))}

	if r.DynamicScope() {
		// The concrete target is determined per occurrence by the
		// engine; stored scope and link are ignored.
		e.Scope = "dynamic"
		return e
	}

	e.Scope = strings.ToLower(string(r.TargetScope))
	if r.TargetScope != catalog.ScopeSpecific {
		return e
	}
	if d, ok := c.FindISR(r.LinkedISRID); ok {
		e.TargetHWID = d.CanonicalHardwareID()
	}
	// Stale or absent link: unresolved specific, target omitted.
	return e
}

func intp(n int) *int { return &n }

func strp(s string) *string { return &s }
