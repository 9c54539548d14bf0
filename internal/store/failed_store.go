package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/relocato/leadimport/internal/model"
)

const failedImportColumns = `
	id, email, reason, parsed_data,
	resolved, resolved_at, new_customer_id, created_at`

// CreateFailedImport inserts a rejected lead record. An empty ID is
// filled in with a new UUID.
func (s *SQLiteStore) CreateFailedImport(ctx context.Context, f model.FailedImport) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	email, err := json.Marshal(f.Email)
	if err != nil {
		return fmt.Errorf("marshaling failed email %s: %w", f.ID, err)
	}
	parsed, err := json.Marshal(f.ParsedLead)
	if err != nil {
		return fmt.Errorf("marshaling parsed lead %s: %w", f.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO failed_imports (`+failedImportColumns+`
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, string(email), string(f.Reason), string(parsed),
		boolToInt(f.Resolved), nullTime(f.ResolvedAt), f.NewCustomerID, f.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating failed import %s: %w", f.ID, err)
	}

	return nil
}

// GetFailedImport retrieves a single failed import by ID.
func (s *SQLiteStore) GetFailedImport(
	ctx context.Context,
	id string,
) (*model.FailedImport, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT "+failedImportColumns+" FROM failed_imports WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying failed import %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying failed import %s: %w", id, err)
		}
		return nil, ErrNotFound
	}

	f, err := scanFailedImport(rows)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetUnresolvedFailedImports retrieves up to limit unresolved failed
// imports, oldest first.
func (s *SQLiteStore) GetUnresolvedFailedImports(
	ctx context.Context,
	limit int,
) ([]model.FailedImport, error) {
	query := "SELECT " + failedImportColumns + ` FROM failed_imports
		WHERE resolved = 0 ORDER BY created_at`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying unresolved failed imports: %w", err)
	}
	defer rows.Close()

	var failed []model.FailedImport
	for rows.Next() {
		f, err := scanFailedImport(rows)
		if err != nil {
			return nil, err
		}
		failed = append(failed, f)
	}

	return failed, rows.Err()
}

// ResolveFailedImport marks a failed import as resolved by the given
// customer. The conditional update guarantees at-most-once resolution.
func (s *SQLiteStore) ResolveFailedImport(ctx context.Context, id, newCustomerID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE failed_imports
		SET resolved = 1, resolved_at = ?, new_customer_id = ?
		WHERE id = ? AND resolved = 0`,
		time.Now().UTC(), newCustomerID, id,
	)
	if err != nil {
		return fmt.Errorf("resolving failed import %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolving failed import %s: %w", id, err)
	}
	if affected > 0 {
		return nil
	}

	var resolved int
	err = s.db.GetContext(ctx, &resolved,
		"SELECT resolved FROM failed_imports WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("resolving failed import %s: %w", id, err)
	}
	return ErrAlreadyResolved
}

// StripFailedImportBodies removes retained message bodies from failed
// imports created before cutoff. Envelope fields stay intact so the
// records remain identifiable.
func (s *SQLiteStore) StripFailedImportBodies(
	ctx context.Context,
	cutoff time.Time,
) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE failed_imports
		SET email = json_remove(email, '$.textBody', '$.htmlBody')
		WHERE created_at < ?
		  AND (json_extract(email, '$.textBody') IS NOT NULL
		    OR json_extract(email, '$.htmlBody') IS NOT NULL)`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("stripping failed import bodies: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stripping failed import bodies: %w", err)
	}
	return affected, nil
}

// scanFailedImport scans a failed import row from a sqlx.Rows result set.
func scanFailedImport(rows *sqlx.Rows) (model.FailedImport, error) {
	var (
		f          model.FailedImport
		email      string
		reason     string
		parsed     string
		resolved   int
		resolvedAt sql.NullTime
	)

	err := rows.Scan(
		&f.ID, &email, &reason, &parsed,
		&resolved, &resolvedAt, &f.NewCustomerID, &f.CreatedAt,
	)
	if err != nil {
		return model.FailedImport{}, fmt.Errorf("scanning failed import row: %w", err)
	}

	f.Reason = model.FailureReason(reason)
	f.Resolved = resolved != 0
	if resolvedAt.Valid {
		t := resolvedAt.Time
		f.ResolvedAt = &t
	}

	if email != "" {
		if err := json.Unmarshal([]byte(email), &f.Email); err != nil {
			return model.FailedImport{}, fmt.Errorf("unmarshaling failed email: %w", err)
		}
	}
	if parsed != "" && parsed != "null" {
		if err := json.Unmarshal([]byte(parsed), &f.ParsedLead); err != nil {
			return model.FailedImport{}, fmt.Errorf("unmarshaling parsed lead: %w", err)
		}
	}

	return f, nil
}
