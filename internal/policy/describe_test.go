package policy

import (
	"strings"
	"testing"

	"github.com/irqpolicy/irqpolicy/internal/catalog"
)

func TestDescribeMatch(t *testing.T) {
	tests := []struct {
		name string
		rule catalog.ControlRule
		want string
	}{
		{"simple", catalog.ControlRule{Pattern: catalog.PatternSimple}, "always"},
		{"arg match", catalog.ControlRule{Pattern: catalog.PatternArgMatch, ArgIndex: 2, MatchValue: "ENABLE"}, "when argument[2] == ENABLE"},
		{"arg as id", catalog.ControlRule{Pattern: catalog.PatternArgAsID, ArgIndex: 0}, "argument[0] selects the vector"},
		{"write val", catalog.ControlRule{Pattern: catalog.PatternWriteVal, MatchValue: "1"}, "when written value == 1"},
		{"mask", catalog.ControlRule{Pattern: catalog.PatternBitwiseMask, MatchValue: "0xF0"}, "when written mask == 0xF0"},
		{"fixed bit one disables", catalog.ControlRule{Pattern: catalog.PatternRegBitMapping, RegBitMode: catalog.BitModeFixed, RegBitIndex: 17, RegPolarity: catalog.PolarityOneDisables}, "bit 17, 1 disables"},
		{"dynamic bit one enables", catalog.ControlRule{Pattern: catalog.PatternRegBitMapping, RegBitMode: catalog.BitModeDynamic, RegPolarity: catalog.PolarityZeroDisables}, "bit selected by shift, 1 enables"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescribeMatch(tt.rule); got != tt.want {
				t.Fatalf("DescribeMatch() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribeRule_UnknownISR(t *testing.T) {
	c := &catalog.Catalogs{}
	r := catalog.ControlRule{
		Mode: catalog.ModeFunctionCall, Identifier: "HAL_UART_DisableIT",
		Pattern: catalog.PatternSimple, Action: catalog.ActionDisable,
		TargetScope: catalog.ScopeSpecific, LinkedISRID: "gone",
	}
	got := DescribeRule(r, c)
	if !strings.Contains(got, "unknown ISR (gone)") {
		t.Fatalf("expected unknown ISR surfaced in description, got %q", got)
	}
}

func TestLint_DanglingLink(t *testing.T) {
	c := &catalog.Catalogs{}
	c.AddRule(catalog.ControlRule{
		ID: "r1", Mode: catalog.ModeFunctionCall, Identifier: "f",
		Pattern: catalog.PatternSimple, Action: catalog.ActionDisable,
		TargetScope: catalog.ScopeSpecific, LinkedISRID: "gone",
	})
	warnings := Lint(c)
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if warnings[0].RuleID != "r1" || !strings.Contains(warnings[0].Message, "unknown ISR") {
		t.Fatalf("unexpected warning: %+v", warnings[0])
	}
}

func TestLint_PatternModeMismatch(t *testing.T) {
	c := &catalog.Catalogs{}
	c.AddRule(catalog.ControlRule{
		ID: "r1", Mode: catalog.ModeFunctionCall, Identifier: "f",
		Pattern: catalog.PatternWriteVal, MatchValue: "1",
		Action: catalog.ActionDisable, TargetScope: catalog.ScopeGlobal,
	})
	warnings := Lint(c)
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "not valid for mode") {
		t.Fatalf("expected mode/pattern warning, got %+v", warnings)
	}
}

func TestLint_GoalAgainstPolarity(t *testing.T) {
	c := &catalog.Catalogs{}
	c.AddRule(catalog.ControlRule{
		ID: "r1", Mode: catalog.ModeRegisterWrite, Identifier: "IMR",
		Pattern: catalog.PatternRegBitMapping, RegBitMode: catalog.BitModeFixed,
		RegBitIndex: 3, RegPolarity: catalog.PolarityOneDisables,
		Action: catalog.ActionEnable, TargetScope: catalog.ScopeGlobal,
	})
	warnings := Lint(c)
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "1 disables") {
		t.Fatalf("expected polarity warning, got %+v", warnings)
	}
}

func TestLint_CleanSeed(t *testing.T) {
	if warnings := Lint(catalog.Seed()); len(warnings) != 0 {
		t.Fatalf("seed catalogs must lint clean, got %+v", warnings)
	}
}

func TestLint_DynamicRuleSkipsLinkChecks(t *testing.T) {
	c := &catalog.Catalogs{}
	c.AddRule(catalog.ControlRule{
		ID: "r1", Mode: catalog.ModeFunctionCall, Identifier: "NVIC_EnableIRQ",
		Pattern: catalog.PatternArgAsID, Action: catalog.ActionEnable,
		TargetScope: catalog.ScopeSpecific,
	})
	if warnings := Lint(c); len(warnings) != 0 {
		t.Fatalf("dynamic rule must not warn about its stored link, got %+v", warnings)
	}
}
