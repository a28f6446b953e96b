// Package store persists the catalogs and the compile history in
// SQLite so they survive between invocations. Catalog mutations are
// synchronous single-row transactions; a mutation is durable before the
// next read.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/irqpolicy/irqpolicy/internal/catalog"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database and applies the schema.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(2) // one for writer, one for readers
	db.SetMaxIdleConns(2)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// LoadCatalogs reads both catalogs in insertion order.
func (s *SQLiteStore) LoadCatalogs(ctx context.Context) (*catalog.Catalogs, error) {
	c := &catalog.Catalogs{}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, function_name, priority, hardware_id, description FROM isrs ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query isrs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d catalog.ISRDescriptor
		if err := rows.Scan(&d.ID, &d.FunctionName, &d.Priority, &d.HardwareID, &d.Description); err != nil {
			return nil, fmt.Errorf("scan isr: %w", err)
		}
		c.ISRs = append(c.ISRs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ruleRows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, identifier, pattern, arg_index, match_value, reg_bit_mode,
		        reg_bit_index, reg_polarity, action, target_scope, linked_isr_id
		 FROM control_rules ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer ruleRows.Close()
	for ruleRows.Next() {
		r, err := scanRule(ruleRows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		c.Rules = append(c.Rules, r)
	}
	return c, ruleRows.Err()
}

// SaveCatalogs replaces the persisted catalogs with the snapshot in one
// transaction, preserving order through the position column.
func (s *SQLiteStore) SaveCatalogs(ctx context.Context, c *catalog.Catalogs) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM isrs"); err != nil {
		return fmt.Errorf("clear isrs: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM control_rules"); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}

	isrStmt, err := tx.Prepare(
		"INSERT INTO isrs (id, position, function_name, priority, hardware_id, description) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare isr insert: %w", err)
	}
	defer isrStmt.Close()
	for i, d := range c.ISRs {
		if _, err := isrStmt.Exec(d.ID, i, d.FunctionName, d.Priority, d.HardwareID, d.Description); err != nil {
			return fmt.Errorf("insert isr %s: %w", d.ID, err)
		}
	}

	ruleStmt, err := tx.Prepare(
		`INSERT INTO control_rules (id, position, mode, identifier, pattern, arg_index, match_value,
		 reg_bit_mode, reg_bit_index, reg_polarity, action, target_scope, linked_isr_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare rule insert: %w", err)
	}
	defer ruleStmt.Close()
	for i, r := range c.Rules {
		if _, err := ruleStmt.Exec(r.ID, i, string(r.Mode), r.Identifier, string(r.Pattern),
			r.ArgIndex, r.MatchValue, string(r.RegBitMode), r.RegBitIndex, string(r.RegPolarity),
			string(r.Action), string(r.TargetScope), nilIfEmpty(r.LinkedISRID)); err != nil {
			return fmt.Errorf("insert rule %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// AddISR appends one descriptor after the current last position.
func (s *SQLiteStore) AddISR(ctx context.Context, d catalog.ISRDescriptor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO isrs (id, position, function_name, priority, hardware_id, description)
		 VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM isrs), ?, ?, ?, ?)`,
		d.ID, d.FunctionName, d.Priority, d.HardwareID, d.Description)
	if err != nil {
		return fmt.Errorf("insert isr: %w", err)
	}
	return nil
}

// DeleteISR removes a descriptor and clears linked_isr_id on every rule
// that referenced it, in one transaction. The rules stay.
func (s *SQLiteStore) DeleteISR(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM isrs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete isr: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	res, err = tx.Exec("UPDATE control_rules SET linked_isr_id = NULL WHERE linked_isr_id = ?", id)
	if err != nil {
		return false, fmt.Errorf("clear links: %w", err)
	}
	if cleared, _ := res.RowsAffected(); cleared > 0 {
		s.logger.Debug("cleared stale rule links", "isr", id, "rules", cleared)
	}
	return true, tx.Commit()
}

// AddRule appends one control rule after the current last position.
func (s *SQLiteStore) AddRule(ctx context.Context, r catalog.ControlRule) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO control_rules (id, position, mode, identifier, pattern, arg_index, match_value,
		 reg_bit_mode, reg_bit_index, reg_polarity, action, target_scope, linked_isr_id)
		 VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM control_rules), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Mode), r.Identifier, string(r.Pattern), r.ArgIndex, r.MatchValue,
		string(r.RegBitMode), r.RegBitIndex, string(r.RegPolarity),
		string(r.Action), string(r.TargetScope), nilIfEmpty(r.LinkedISRID))
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

// DeleteRule removes a rule by id.
func (s *SQLiteStore) DeleteRule(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM control_rules WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete rule: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RecordCompile appends a compile history entry.
func (s *SQLiteStore) RecordCompile(ctx context.Context, rec *CompileRecord) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO compiles (timestamp, isr_count, rule_count, output_path, size_bytes) VALUES (?, ?, ?, ?, ?)",
		rec.Timestamp.Format(time.RFC3339Nano), rec.ISRCount, rec.RuleCount, rec.OutputPath, rec.SizeBytes)
	if err != nil {
		return fmt.Errorf("insert compile record: %w", err)
	}
	return nil
}

// History returns recent compiles, newest first.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]CompileRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, timestamp, isr_count, rule_count, output_path, size_bytes FROM compiles ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []CompileRecord
	for rows.Next() {
		var rec CompileRecord
		var ts string
		if err := rows.Scan(&rec.ID, &ts, &rec.ISRCount, &rec.RuleCount, &rec.OutputPath, &rec.SizeBytes); err != nil {
			return nil, fmt.Errorf("scan compile record: %w", err)
		}
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRule(rows *sql.Rows) (catalog.ControlRule, error) {
	var r catalog.ControlRule
	var mode, pattern, bitMode, polarity, action, scope string
	var linked sql.NullString

	err := rows.Scan(&r.ID, &mode, &r.Identifier, &pattern, &r.ArgIndex, &r.MatchValue,
		&bitMode, &r.RegBitIndex, &polarity, &action, &scope, &linked)
	if err != nil {
		return r, err
	}
	r.Mode = catalog.Mode(mode)
	r.Pattern = catalog.Pattern(pattern)
	r.RegBitMode = catalog.BitMode(bitMode)
	r.RegPolarity = catalog.Polarity(polarity)
	r.Action = catalog.RuleAction(action)
	r.TargetScope = catalog.Scope(scope)
	r.LinkedISRID = linked.String
	return r, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
