package store

import (
	"context"
	"fmt"
	"time"
)

// AllocateCustomerNumber returns the next customer number in the
// month scope of scopeDate, formatted K{year}{month}{seq}. The counter
// row is created on first use; the read-increment-write happens inside
// a single transaction so concurrent allocations never collide.
func (s *SQLiteStore) AllocateCustomerNumber(
	ctx context.Context,
	scopeDate time.Time,
) (string, error) {
	year := scopeDate.Year()
	month := int(scopeDate.Month())
	scope := fmt.Sprintf("customers_%d_%02d", year, month)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning allocation transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int
	err = tx.GetContext(ctx, &seq, `
		INSERT INTO counters (scope, value) VALUES (?, 1)
		ON CONFLICT(scope) DO UPDATE SET value = value + 1
		RETURNING value`, scope)
	if err != nil {
		return "", fmt.Errorf("incrementing counter %s: %w", scope, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing allocation for %s: %w", scope, err)
	}

	return fmt.Sprintf("K%d%02d%03d", year, month, seq), nil
}
