package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/relocato/leadimport/internal/model"
)

const customerColumns = `
	customer_number, name, first_name, last_name, phone, email,
	move_date, from_address, to_address, apartment, services,
	distance_km, notes, source, lead_source,
	imported_at, import_source, email_message_id,
	original_failure_reason, retried_at, lenient_mode,
	created_at, updated_at`

// CreateCustomer inserts a new customer record. The customer number
// must already be allocated; it is never generated here.
func (s *SQLiteStore) CreateCustomer(ctx context.Context, c model.Customer) error {
	if c.CustomerNumber == "" {
		return errors.New("customer number is required")
	}

	apartment, err := json.Marshal(c.Apartment)
	if err != nil {
		return fmt.Errorf("marshaling apartment for %s: %w", c.CustomerNumber, err)
	}
	services, err := json.Marshal(c.Services)
	if err != nil {
		return fmt.Errorf("marshaling services for %s: %w", c.CustomerNumber, err)
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO customers (`+customerColumns+`
		) VALUES (
			?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?,
			?, ?
		)`,
		c.CustomerNumber, c.Name, c.FirstName, c.LastName, c.Phone, c.Email,
		nullTime(c.MoveDate), c.FromAddress, c.ToAddress, string(apartment), string(services),
		c.DistanceKm, c.Notes, string(c.Source), c.LeadSource,
		c.ImportedAt.UTC(), c.ImportSource, c.EmailMessageID,
		c.OriginalFailureReason, nullTime(c.RetriedAt), boolToInt(c.LenientMode),
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating customer %s: %w", c.CustomerNumber, err)
	}

	return nil
}

// GetCustomerByNumber retrieves a single customer by its number.
func (s *SQLiteStore) GetCustomerByNumber(
	ctx context.Context,
	number string,
) (*model.Customer, error) {
	return s.getCustomer(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE customer_number = ?", number)
}

// FindCustomerByEmail returns the oldest customer with an exactly
// matching, non-empty email address.
func (s *SQLiteStore) FindCustomerByEmail(
	ctx context.Context,
	email string,
) (*model.Customer, error) {
	if email == "" {
		return nil, ErrNotFound
	}
	return s.getCustomer(ctx,
		"SELECT "+customerColumns+` FROM customers
		WHERE email = ? ORDER BY created_at LIMIT 1`, email)
}

// FindCustomerByPhone returns the oldest customer with an exactly
// matching, non-empty phone number.
func (s *SQLiteStore) FindCustomerByPhone(
	ctx context.Context,
	phone string,
) (*model.Customer, error) {
	if phone == "" {
		return nil, ErrNotFound
	}
	return s.getCustomer(ctx,
		"SELECT "+customerColumns+` FROM customers
		WHERE phone = ? ORDER BY created_at LIMIT 1`, phone)
}

// FindCustomersByName returns at most limit customers whose name
// matches exactly, oldest first.
func (s *SQLiteStore) FindCustomersByName(
	ctx context.Context,
	name string,
	limit int,
) ([]model.Customer, error) {
	if name == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryxContext(ctx,
		"SELECT "+customerColumns+` FROM customers
		WHERE name = ? ORDER BY created_at LIMIT ?`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("querying customers by name: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}

	return customers, rows.Err()
}

func (s *SQLiteStore) getCustomer(
	ctx context.Context,
	query string,
	args ...interface{},
) (*model.Customer, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying customer: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying customer: %w", err)
		}
		return nil, ErrNotFound
	}

	c, err := scanCustomer(rows)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanCustomer scans a customer row from a sqlx.Rows result set.
func scanCustomer(rows *sqlx.Rows) (model.Customer, error) {
	var (
		c           model.Customer
		source      string
		apartment   string
		services    string
		moveDate    sql.NullTime
		retriedAt   sql.NullTime
		lenientMode int
	)

	err := rows.Scan(
		&c.CustomerNumber, &c.Name, &c.FirstName, &c.LastName, &c.Phone, &c.Email,
		&moveDate, &c.FromAddress, &c.ToAddress, &apartment, &services,
		&c.DistanceKm, &c.Notes, &source, &c.LeadSource,
		&c.ImportedAt, &c.ImportSource, &c.EmailMessageID,
		&c.OriginalFailureReason, &retriedAt, &lenientMode,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return model.Customer{}, fmt.Errorf("scanning customer row: %w", err)
	}

	c.Source = model.LeadSource(source)
	c.LenientMode = lenientMode != 0
	if moveDate.Valid {
		t := moveDate.Time
		c.MoveDate = &t
	}
	if retriedAt.Valid {
		t := retriedAt.Time
		c.RetriedAt = &t
	}

	if apartment != "" {
		if err := json.Unmarshal([]byte(apartment), &c.Apartment); err != nil {
			return model.Customer{}, fmt.Errorf("unmarshaling apartment: %w", err)
		}
	}
	if services != "" {
		if err := json.Unmarshal([]byte(services), &c.Services); err != nil {
			return model.Customer{}, fmt.Errorf("unmarshaling services: %w", err)
		}
	}

	return c, nil
}

// nullTime converts an optional time into a driver-friendly value.
func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
