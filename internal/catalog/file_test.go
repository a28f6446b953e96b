package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogs.yaml")
	os.WriteFile(path, []byte(`
version: "1"
isrs:
  - id: "2"
    function_name: USART1_IRQHandler
    priority: 5
    hardware_id: "37"
rules:
  - id: r1
    mode: FUNCTION_CALL
    identifier: HAL_UART_DisableIT
    pattern: SIMPLE
    action: DISABLE
    target_scope: SPECIFIC
    linked_isr_id: "2"
`), 0644)

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.ISRs) != 1 || len(c.Rules) != 1 {
		t.Fatalf("expected 1 isr and 1 rule, got %d/%d", len(c.ISRs), len(c.Rules))
	}
	if c.Rules[0].LinkedISRID != "2" {
		t.Fatalf("expected linked isr 2, got %q", c.Rules[0].LinkedISRID)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte(`{{{invalid`), 0644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EmptyIdentifierRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogs.yaml")
	os.WriteFile(path, []byte(`
version: "1"
rules:
  - id: r1
    mode: FUNCTION_CALL
    pattern: SIMPLE
    action: DISABLE
    target_scope: GLOBAL
`), 0644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for rule with empty identifier")
	}
}

func TestSaveLoad_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalogs.yaml")

	c := Seed()
	if err := Save(path, c); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Rules) != len(c.Rules) {
		t.Fatalf("expected %d rules, got %d", len(c.Rules), len(got.Rules))
	}
	for i := range c.Rules {
		if got.Rules[i].ID != c.Rules[i].ID {
			t.Fatalf("rule order changed at %d: %s != %s", i, got.Rules[i].ID, c.Rules[i].ID)
		}
	}
}
