package store

import (
	"context"

	"github.com/irqpolicy/irqpolicy/internal/catalog"
)

// Store is the persistence interface for the two catalogs and the
// compile history.
type Store interface {
	// LoadCatalogs reads both catalogs in insertion order.
	LoadCatalogs(ctx context.Context) (*catalog.Catalogs, error)

	// SaveCatalogs replaces the persisted catalogs with the given
	// snapshot, preserving order.
	SaveCatalogs(ctx context.Context, c *catalog.Catalogs) error

	// AddISR appends one descriptor.
	AddISR(ctx context.Context, d catalog.ISRDescriptor) error

	// DeleteISR removes a descriptor and clears linked_isr_id on every
	// rule that referenced it, in one transaction.
	DeleteISR(ctx context.Context, id string) (bool, error)

	// AddRule appends one control rule.
	AddRule(ctx context.Context, r catalog.ControlRule) error

	// DeleteRule removes a rule by id. Other rows are never touched.
	DeleteRule(ctx context.Context, id string) (bool, error)

	// RecordCompile appends a compile history entry.
	RecordCompile(ctx context.Context, rec *CompileRecord) error

	// History returns recent compiles, newest first.
	History(ctx context.Context, limit int) ([]CompileRecord, error)

	// Close closes the store.
	Close() error
}
