package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperengineering/labbook/internal/types"
	"github.com/hyperengineering/labbook/internal/validation"
)

const insertChangeLogSQL = `
	INSERT INTO change_log (batch_id, entity_kind, entity_id, operation, observed_at, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?)`

// HistoryFilter selects change log entries.
type HistoryFilter struct {
	// AfterSeq returns entries with sequence > AfterSeq.
	AfterSeq int64
	// Limit caps the number of entries; zero means DefaultHistoryLimit.
	Limit int
	// BatchID restricts results to one write batch when set.
	BatchID string
}

// DefaultHistoryLimit is the page size used when HistoryFilter.Limit is zero.
const DefaultHistoryLimit = 100

// appendChangeLog records one journaled write inside the caller's transaction.
func appendChangeLog(ctx context.Context, q dbtx, e types.ChangeLogEntry) error {
	var observedAt any
	if e.ObservedAt != nil {
		observedAt = e.ObservedAt.String()
	}
	_, err := q.ExecContext(ctx, insertChangeLogSQL,
		e.BatchID, string(e.EntityKind), e.EntityID, e.Operation, observedAt, e.RecordedAt)
	if err != nil {
		return fmt.Errorf("append change log: %w", err)
	}
	return nil
}

// History returns journaled writes in sequence order.
func (s *SQLiteStore) History(ctx context.Context, filter HistoryFilter) ([]types.ChangeLogEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT sequence, batch_id, entity_kind, entity_id, operation, observed_at, recorded_at
		FROM change_log
		WHERE sequence > ?`
	args := []any{filter.AfterSeq}
	if filter.BatchID != "" {
		if verr := validation.ValidateULID("batch_id", filter.BatchID); verr != nil {
			return nil, validation.Errors{*verr}
		}
		query += ` AND batch_id = ?`
		args = append(args, filter.BatchID)
	}
	query += ` ORDER BY sequence ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query change log: %w", err)
	}
	defer rows.Close()

	entries := make([]types.ChangeLogEntry, 0)
	for rows.Next() {
		var e types.ChangeLogEntry
		var kind string
		var observedAt sql.NullString
		if err := rows.Scan(&e.Sequence, &e.BatchID, &kind, &e.EntityID, &e.Operation, &observedAt, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan change log entry: %w", err)
		}
		e.EntityKind = types.Kind(kind)
		if observedAt.Valid {
			d := parseStoredDate("change_log", "observed_at", observedAt.String)
			e.ObservedAt = &d
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
