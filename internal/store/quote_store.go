package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/relocato/leadimport/internal/model"
)

// quoteIDAlphabet matches the uppercased base36 suffix of legacy quote ids.
const quoteIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewQuoteID builds a quote id of the form Q{unix-millis}_{RAND5}.
func NewQuoteID(now time.Time) string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = quoteIDAlphabet[rand.IntN(len(quoteIDAlphabet))]
	}
	return fmt.Sprintf("Q%d_%s", now.UnixMilli(), suffix)
}

const quoteColumns = `
	id, customer_id,
	base_price, floor_surcharge, distance_surcharge,
	packing_price, furniture_price, subtotal, vat, total,
	status, move_date, from_address, to_address, services,
	comment, created_by, created_at, updated_at`

// CreateQuote inserts a new quote. An empty ID is filled in with a
// freshly generated one.
func (s *SQLiteStore) CreateQuote(ctx context.Context, q model.Quote) error {
	now := time.Now()
	if q.ID == "" {
		q.ID = NewQuoteID(now)
	}
	if q.Status == "" {
		q.Status = model.QuoteStatusDraft
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	if q.UpdatedAt.IsZero() {
		q.UpdatedAt = now
	}

	services, err := json.Marshal(q.Services)
	if err != nil {
		return fmt.Errorf("marshaling services for quote %s: %w", q.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quotes (`+quoteColumns+`
		) VALUES (
			?, ?,
			?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?
		)`,
		q.ID, q.CustomerID,
		q.BasePrice, q.FloorSurcharge, q.DistanceSurcharge,
		q.PackingPrice, q.FurniturePrice, q.Subtotal, q.VAT, q.Total,
		string(q.Status), nullTime(q.MoveDate), q.FromAddress, q.ToAddress, string(services),
		q.Comment, q.CreatedBy, q.CreatedAt.UTC(), q.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating quote %s: %w", q.ID, err)
	}

	return nil
}

// GetQuotesForCustomer retrieves all quotes for a customer, newest first.
func (s *SQLiteStore) GetQuotesForCustomer(
	ctx context.Context,
	customerID string,
) ([]model.Quote, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT "+quoteColumns+` FROM quotes
		WHERE customer_id = ? ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("querying quotes for %s: %w", customerID, err)
	}
	defer rows.Close()

	var quotes []model.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}

	return quotes, rows.Err()
}

// scanQuote scans a quote row from a sqlx.Rows result set.
func scanQuote(rows *sqlx.Rows) (model.Quote, error) {
	var (
		q        model.Quote
		status   string
		moveDate sql.NullTime
		services string
	)

	err := rows.Scan(
		&q.ID, &q.CustomerID,
		&q.BasePrice, &q.FloorSurcharge, &q.DistanceSurcharge,
		&q.PackingPrice, &q.FurniturePrice, &q.Subtotal, &q.VAT, &q.Total,
		&status, &moveDate, &q.FromAddress, &q.ToAddress, &services,
		&q.Comment, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return model.Quote{}, fmt.Errorf("scanning quote row: %w", err)
	}

	q.Status = model.QuoteStatus(status)
	if moveDate.Valid {
		t := moveDate.Time
		q.MoveDate = &t
	}
	if services != "" {
		if err := json.Unmarshal([]byte(services), &q.Services); err != nil {
			return model.Quote{}, fmt.Errorf("unmarshaling quote services: %w", err)
		}
	}

	return q, nil
}
