// Package cli holds the workspace bootstrap used by the init command.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/irqpolicy/irqpolicy/internal/catalog"
)

const (
	workspaceDirName = ".irqpolicy"

	// CatalogFileName is the user-edited tables file inside the workspace.
	CatalogFileName = "catalogs.yaml"

	// DatabaseFileName is the SQLite catalog store inside the workspace.
	DatabaseFileName = "irqpolicy.db"

	// PolicyFileName is the default compiled document destination.
	PolicyFileName = "policy.json"
)

// DefaultWorkspace returns (and creates) ~/.irqpolicy.
func DefaultWorkspace() string {
	home, _ := os.UserHomeDir()
	dir := filepath.Join(home, workspaceDirName)
	os.MkdirAll(dir, 0755)
	return dir
}

// RunInit prepares a workspace directory: creates it if needed and
// writes the seed catalogs file unless one already exists. Existing
// files are never overwritten.
func RunInit(dir string) error {
	fmt.Println("irqpolicy init")
	fmt.Println("==============")
	fmt.Println()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	fmt.Printf("Workspace: %s\n", dir)

	catalogPath := filepath.Join(dir, CatalogFileName)
	if _, err := os.Stat(catalogPath); err == nil {
		fmt.Printf("  %-14s exists, keeping\n", CatalogFileName)
	} else {
		if err := catalog.Save(catalogPath, catalog.Seed()); err != nil {
			return fmt.Errorf("write seed catalogs: %w", err)
		}
		seed := catalog.Seed()
		fmt.Printf("  %-14s created (%d ISRs, %d rules)\n", CatalogFileName, len(seed.ISRs), len(seed.Rules))
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Edit %s to describe your firmware's ISRs and control rules\n", catalogPath)
	fmt.Println("  2. Run 'irqpolicy compile' to produce the engine policy document")
	fmt.Println("  3. Run 'irqpolicy watch' to recompile on every edit")
	fmt.Println()
	return nil
}
