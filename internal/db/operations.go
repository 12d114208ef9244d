package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultAuditLimit = 100

// InsertAudit stores e, filling in ID and CreatedAt when unset.
func (s *Store) InsertAudit(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx, InsertAudit,
		e.ID, e.RequestID, e.Action, e.Printer, e.Document, e.Selector, e.DataType,
		e.Bytes, e.Affected, e.Outcome, e.ErrorCode, e.Message, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func scanAudit(rows *sql.Rows) (AuditEntry, error) {
	var e AuditEntry
	err := rows.Scan(
		&e.ID, &e.RequestID, &e.Action, &e.Printer, &e.Document, &e.Selector, &e.DataType,
		&e.Bytes, &e.Affected, &e.Outcome, &e.ErrorCode, &e.Message, &e.CreatedAt)
	return e, err
}

func collectAudit(rows *sql.Rows) ([]AuditEntry, error) {
	defer rows.Close()

	entries := []AuditEntry{}
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListAudit returns the newest entries first.
func (s *Store) ListAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Printer != "" {
		where = append(where, "printer = ? COLLATE NOCASE")
		args = append(args, f.Printer)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	query := selectAuditColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return collectAudit(rows)
}

// AuditBefore returns up to limit entries created before cutoff, oldest first.
func (s *Store) AuditBefore(ctx context.Context, cutoff time.Time, limit int) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, ListAuditBefore, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return collectAudit(rows)
}

// DeleteAudit removes the given entries in one transaction.
func (s *Store) DeleteAudit(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, DeleteAuditByID, id); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to delete audit entry %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit delete: %w", err)
	}
	return nil
}

func (s *Store) CountAudit(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, CountAudit).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return n, nil
}

func (s *Store) RecordArchiveBatch(ctx context.Context, b *ArchiveBatch) error {
	result, err := s.db.ExecContext(ctx, InsertArchiveBatch, b.ArchiveFile, b.RowCount, b.Cutoff.UTC())
	if err != nil {
		return fmt.Errorf("failed to record archive batch: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get archive batch id: %w", err)
	}
	b.ID = id
	return nil
}

func (s *Store) ListArchiveBatches(ctx context.Context) ([]ArchiveBatch, error) {
	rows, err := s.db.QueryContext(ctx, ListArchiveBatches)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive batches: %w", err)
	}
	defer rows.Close()

	batches := []ArchiveBatch{}
	for rows.Next() {
		var b ArchiveBatch
		if err := rows.Scan(&b.ID, &b.ArchiveFile, &b.RowCount, &b.Cutoff, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive batch: %w", err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
