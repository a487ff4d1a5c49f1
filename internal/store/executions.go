package store

import (
	"context"
	"fmt"
)

// Execution outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Execution is one entry of the append-only execution log.
//
// Every submitted command is recorded, whether it succeeded or not. Seq is the
// host's logical clock and orders the log; ID is unique but carries no order.
type Execution struct {
	ID          string `db:"id" json:"id"`
	Seq         int64  `db:"seq" json:"seq"`
	Command     string `db:"command" json:"command"`
	Outcome     string `db:"outcome" json:"outcome"`
	Code        string `db:"code" json:"code,omitempty"`
	Message     string `db:"message" json:"message,omitempty"`
	PayloadHash string `db:"payload_hash" json:"payload_hash"`
	ReceiptHash string `db:"receipt_hash" json:"receipt_hash"`
}

// writeExecution uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate
// IDs are silently ignored. A reused seq is still an error.
func writeExecution(ctx context.Context, db queryer, e Execution) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO executions
		(id, seq, command, outcome, code, message, payload_hash, receipt_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Seq,
		e.Command,
		e.Outcome,
		e.Code,
		e.Message,
		e.PayloadHash,
		e.ReceiptHash,
	)
	if err != nil {
		return fmt.Errorf("write execution: %w", err)
	}
	return nil
}

// WriteExecution appends e to the execution log.
func (s *Store) WriteExecution(ctx context.Context, e Execution) error {
	return writeExecution(ctx, s.db, e)
}

// WriteExecution is Store.WriteExecution inside the transaction.
func (t *Tx) WriteExecution(ctx context.Context, e Execution) error {
	return writeExecution(ctx, t.tx, e)
}

// ListExecutions returns the most recent executions, newest first.
// limit <= 0 returns the whole log.
func (s *Store) ListExecutions(ctx context.Context, limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	var execs []Execution
	err := s.db.SelectContext(ctx, &execs, `
		SELECT id, seq, command, outcome, code, message, payload_hash, receipt_hash
		FROM executions
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	return execs, nil
}

// MaxSeq returns the highest recorded seq, or 0 for an empty log.
// The host resumes its logical clock from this value.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.GetContext(ctx, &seq, `SELECT COALESCE(MAX(seq), 0) FROM executions`); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq, nil
}
