package store

import (
	"context"
	"fmt"

	"github.com/hyperengineering/labbook/internal/types"
)

// countCreatedOn counts creation records of kind dated exactly day.
func countCreatedOn(ctx context.Context, q dbtx, kind types.Kind, day types.Date) (int, error) {
	t, err := tablesFor(kind)
	if err != nil {
		return 0, err
	}
	var n int
	err = q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE created_on = ?`, t.entity),
		day.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s created on %s: %w", t.entity, day, err)
	}
	return n, nil
}

// allocate returns the next sequence number and display name for kind on day.
// It must run in the same transaction as the insert that consumes it.
func allocate(ctx context.Context, q dbtx, kind types.Kind, day types.Date) (int, string, error) {
	n, err := countCreatedOn(ctx, q, kind, day)
	if err != nil {
		return 0, "", err
	}
	seq := n + 1
	return seq, types.DisplayName(kind, day, seq), nil
}

// CountCreatedOn returns the number of entities of kind created on day.
func (s *SQLiteStore) CountCreatedOn(ctx context.Context, kind types.Kind, day types.Date) (int, error) {
	return countCreatedOn(ctx, s.db, kind, day)
}

// NextSequence returns the sequence number the next entity of kind created on
// day would receive. It is a preview: the number is allocated again inside
// the creating transaction.
func (s *SQLiteStore) NextSequence(ctx context.Context, kind types.Kind, day types.Date) (int, error) {
	n, err := countCreatedOn(ctx, s.db, kind, day)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// PreviewName returns the display name the next entity of kind created on day
// would receive.
func (s *SQLiteStore) PreviewName(ctx context.Context, kind types.Kind, day types.Date) (string, error) {
	seq, err := s.NextSequence(ctx, kind, day)
	if err != nil {
		return "", err
	}
	return types.DisplayName(kind, day, seq), nil
}
