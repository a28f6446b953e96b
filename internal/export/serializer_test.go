package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/irqpolicy/irqpolicy/internal/catalog"
	"github.com/irqpolicy/irqpolicy/internal/policy"
)

func compiled(t *testing.T) *policy.Document {
	t.Helper()
	c := &catalog.Catalogs{}
	if _, err := c.AddISR(catalog.ISRDescriptor{ID: "2", FunctionName: "USART1_IRQHandler", Priority: 5, HardwareID: "37"}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddRule(catalog.ControlRule{
		ID: "r1", Mode: catalog.ModeFunctionCall, Identifier: "HAL_UART_DisableIT",
		Pattern: catalog.PatternSimple, Action: catalog.ActionDisable,
		TargetScope: catalog.ScopeSpecific, LinkedISRID: "2",
	}); err != nil {
		t.Fatal(err)
	}
	doc := policy.Compile(c)
	doc.Meta = NewMeta("demo-firmware", "")
	return doc
}

func TestRender_WireShape(t *testing.T) {
	data, err := Render(compiled(t))
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		Meta struct {
			Project string `json:"project"`
			Engine  string `json:"engine"`
			Version string `json:"version"`
		} `json:"meta"`
		InterruptVectors []struct {
			Symbol   string          `json:"symbol"`
			HWID     json.RawMessage `json:"hw_id"`
			Priority int             `json:"priority"`
		} `json:"interrupt_vectors"`
		ControlRules []struct {
			Trigger struct {
				Type   string `json:"type"`
				Symbol string `json:"symbol"`
				Match  struct {
					Type string `json:"type"`
				} `json:"match"`
			} `json:"trigger"`
			Effect struct {
				Action     string          `json:"action"`
				Scope      string          `json:"scope"`
				TargetHWID json.RawMessage `json:"target_hw_id"`
			} `json:"effect"`
		} `json:"control_rules"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}

	if got.Meta.Project != "demo-firmware" || got.Meta.Engine != EngineName || got.Meta.Version != FormatVersion {
		t.Fatalf("unexpected meta: %+v", got.Meta)
	}
	if len(got.InterruptVectors) != 1 || got.InterruptVectors[0].Symbol != "USART1_IRQHandler" {
		t.Fatalf("unexpected vectors: %+v", got.InterruptVectors)
	}
	// Numeric hardware id must render as a JSON number, not a string.
	if string(got.InterruptVectors[0].HWID) != "37" {
		t.Fatalf("expected hw_id 37, got %s", got.InterruptVectors[0].HWID)
	}
	if string(got.ControlRules[0].Effect.TargetHWID) != "37" {
		t.Fatalf("expected target_hw_id 37, got %s", got.ControlRules[0].Effect.TargetHWID)
	}
	if got.ControlRules[0].Trigger.Type != "call" || got.ControlRules[0].Trigger.Match.Type != "always" {
		t.Fatalf("unexpected trigger: %+v", got.ControlRules[0].Trigger)
	}
}

func TestRender_UnresolvedTargetOmitted(t *testing.T) {
	c := &catalog.Catalogs{}
	c.AddRule(catalog.ControlRule{
		ID: "r1", Mode: catalog.ModeFunctionCall, Identifier: "HAL_UART_DisableIT",
		Pattern: catalog.PatternSimple, Action: catalog.ActionDisable,
		TargetScope: catalog.ScopeSpecific, LinkedISRID: "gone",
	})
	data, err := Render(policy.Compile(c))
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	rules := got["control_rules"].([]any)
	effect := rules[0].(map[string]any)["effect"].(map[string]any)
	if _, present := effect["target_hw_id"]; present {
		t.Fatal("unresolved specific must omit target_hw_id")
	}
	if effect["scope"] != "specific" {
		t.Fatalf("expected specific scope, got %v", effect["scope"])
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.json")

	n, err := WriteFile(path, compiled(t))
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != int64(n) {
		t.Fatalf("reported %d bytes, file has %d", n, info.Size())
	}
}

func TestRender_EmptyCatalogs(t *testing.T) {
	doc := policy.Compile(&catalog.Catalogs{})
	doc.Meta = NewMeta("empty", "")
	data, err := Render(doc)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["interrupt_vectors"] == nil || got["control_rules"] == nil {
		t.Fatal("empty catalogs must render empty arrays, not null")
	}
}
