package policy

import (
	"fmt"

	"github.com/irqpolicy/irqpolicy/internal/catalog"
)

// DescribeMatch renders the rule's match condition in prose for human
// review. Purely informational; never feeds compilation.
func DescribeMatch(r catalog.ControlRule) string {
	switch r.Pattern {
	case catalog.PatternArgMatch:
		return fmt.Sprintf("when argument[%d] == %s", r.ArgIndex, r.MatchValue)
	case catalog.PatternArgAsID:
		return fmt.Sprintf("argument[%d] selects the vector", r.ArgIndex)
	case catalog.PatternWriteVal:
		return fmt.Sprintf("when written value == %s", r.MatchValue)
	case catalog.PatternBitwiseMask:
		return fmt.Sprintf("when written mask == %s", r.MatchValue)
	case catalog.PatternRegBitMapping:
		bit := fmt.Sprintf("bit %d", r.RegBitIndex)
		if r.RegBitMode == catalog.BitModeDynamic {
			bit = "bit selected by shift"
		}
		polarity := "1 enables"
		if r.RegPolarity == catalog.PolarityOneDisables {
			polarity = "1 disables"
		}
		return bit + ", " + polarity
	default:
		return "always"
	}
}

// DescribeRule renders a one-line summary of a rule: operation, match
// condition, goal and target.
func DescribeRule(r catalog.ControlRule, c *catalog.Catalogs) string {
	op := "write to"
	if r.Mode == catalog.ModeFunctionCall {
		op = "call to"
	}
	goal := "disables"
	if r.Action == catalog.ActionEnable {
		goal = "enables"
	}
	return fmt.Sprintf("%s %s (%s) %s %s", op, r.Identifier, DescribeMatch(r), goal, c.TargetDetail(r))
}

// Warning flags a catalog combination worth a reviewer's attention.
// Warnings never fail or alter compilation.
type Warning struct {
	RuleID  string
	Message string
}

// Lint scans the rule catalog for combinations a reviewer would want to
// double-check: patterns invalid for their mode, specific-scope rules
// with stale or missing links, and a declared goal that reads against
// the bit polarity. The engine interprets disable_value literally
// regardless of the stored action.
func Lint(c *catalog.Catalogs) []Warning {
	var warnings []Warning
	add := func(id, format string, args ...any) {
		warnings = append(warnings, Warning{RuleID: id, Message: fmt.Sprintf(format, args...)})
	}

	for _, r := range c.Rules {
		if !r.Mode.Allows(r.Pattern) {
			add(r.ID, "pattern %s is not valid for mode %s", r.Pattern, r.Mode)
		}
		if !r.DynamicScope() && r.TargetScope == catalog.ScopeSpecific {
			if r.LinkedISRID == "" {
				add(r.ID, "specific scope with no linked ISR; compiles without a target")
			} else if _, ok := c.FindISR(r.LinkedISRID); !ok {
				add(r.ID, "unknown ISR (%s); compiles without a target", r.LinkedISRID)
			}
		}
		if r.Pattern == catalog.PatternRegBitMapping {
			if r.Action == catalog.ActionEnable && r.RegPolarity == catalog.PolarityOneDisables {
				add(r.ID, "goal is ENABLE but polarity reads as 1 disables")
			}
			if r.Action == catalog.ActionDisable && r.RegPolarity == catalog.PolarityZeroDisables {
				add(r.ID, "goal is DISABLE but polarity reads as 1 enables")
			}
		}
	}
	return warnings
}
