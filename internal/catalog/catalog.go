// Package catalog holds the two user-edited tables the policy compiler
// consumes: the ISR catalog and the control rule catalog. Both are
// ordered, mutated only by add-one/delete-by-id operations, and apply a
// deliberately minimal guard policy (identifier non-emptiness only).
package catalog

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrEmptyIdentifier rejects ISRs without a function name and rules
// without a matched symbol before they enter a catalog.
var ErrEmptyIdentifier = errors.New("identifier must not be empty")

// Catalogs bundles both tables. The zero value is a valid empty pair.
type Catalogs struct {
	ISRs  []ISRDescriptor `json:"isrs" yaml:"isrs"`
	Rules []ControlRule   `json:"rules" yaml:"rules"`
}

// AddISR appends a descriptor, generating an id when none is given.
// The function name must be non-empty and the id unused.
func (c *Catalogs) AddISR(d ISRDescriptor) (ISRDescriptor, error) {
	if d.FunctionName == "" {
		return ISRDescriptor{}, fmt.Errorf("add isr: %w", ErrEmptyIdentifier)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, ok := c.FindISR(d.ID); ok {
		return ISRDescriptor{}, fmt.Errorf("add isr: id %q already in catalog", d.ID)
	}
	if d.HardwareID == "" {
		d.HardwareID = "-1"
	}
	c.ISRs = append(c.ISRs, d)
	return d, nil
}

// DeleteISR removes the descriptor with the given id and synchronously
// clears LinkedISRID on every rule that referenced it. The rules
// themselves are never deleted as a side effect. Returns false when the
// id is not in the catalog.
func (c *Catalogs) DeleteISR(id string) bool {
	idx := -1
	for i, d := range c.ISRs {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	c.ISRs = append(c.ISRs[:idx], c.ISRs[idx+1:]...)

	for i := range c.Rules {
		if c.Rules[i].LinkedISRID == id {
			c.Rules[i].LinkedISRID = ""
		}
	}
	return true
}

// FindISR looks a descriptor up by id.
func (c *Catalogs) FindISR(id string) (ISRDescriptor, bool) {
	if id == "" {
		return ISRDescriptor{}, false
	}
	for _, d := range c.ISRs {
		if d.ID == id {
			return d, true
		}
	}
	return ISRDescriptor{}, false
}

// AddRule appends a control rule, generating an id when none is given.
// The matched identifier must be non-empty; beyond that no schema
// validation happens on mutation — questionable combinations surface in
// review, not as errors.
func (c *Catalogs) AddRule(r ControlRule) (ControlRule, error) {
	if r.Identifier == "" {
		return ControlRule{}, fmt.Errorf("add rule: %w", ErrEmptyIdentifier)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if _, ok := c.FindRule(r.ID); ok {
		return ControlRule{}, fmt.Errorf("add rule: id %q already in catalog", r.ID)
	}
	c.Rules = append(c.Rules, r)
	return r, nil
}

// DeleteRule removes the rule with the given id. No other entry is
// touched. Returns false when the id is not in the catalog.
func (c *Catalogs) DeleteRule(id string) bool {
	for i, r := range c.Rules {
		if r.ID == id {
			c.Rules = append(c.Rules[:i], c.Rules[i+1:]...)
			return true
		}
	}
	return false
}

// FindRule looks a rule up by id.
func (c *Catalogs) FindRule(id string) (ControlRule, bool) {
	if id == "" {
		return ControlRule{}, false
	}
	for _, r := range c.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return ControlRule{}, false
}

// TargetDetail derives the human-readable target description for a rule.
// It is computed from the rule's current fields every time, never stored,
// and never feeds compilation.
func (c *Catalogs) TargetDetail(r ControlRule) string {
	if r.DynamicScope() {
		return "resolved per call site"
	}
	if r.TargetScope == ScopeGlobal {
		return "all interrupts"
	}
	if r.LinkedISRID == "" {
		return "unspecified target"
	}
	if d, ok := c.FindISR(r.LinkedISRID); ok {
		return "ISR " + d.FunctionName
	}
	return fmt.Sprintf("unknown ISR (%s)", r.LinkedISRID)
}

// Clone returns a deep copy, so a compile snapshot cannot be mutated by
// later catalog edits.
func (c *Catalogs) Clone() *Catalogs {
	out := &Catalogs{
		ISRs:  make([]ISRDescriptor, len(c.ISRs)),
		Rules: make([]ControlRule, len(c.Rules)),
	}
	copy(out.ISRs, c.ISRs)
	copy(out.Rules, c.Rules)
	return out
}
