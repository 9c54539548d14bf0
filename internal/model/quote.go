package model

import "time"

// QuoteStatus is the lifecycle state of a quote.
type QuoteStatus string

const (
	QuoteStatusDraft QuoteStatus = "draft"
	QuoteStatusSent  QuoteStatus = "sent"
)

// QuoteBreakdown holds every intermediate pricing term so the UI can
// display and audit how a total was reached.
type QuoteBreakdown struct {
	BasePrice         int `json:"basePrice" db:"base_price"`
	FloorSurcharge    int `json:"floorSurcharge" db:"floor_surcharge"`
	DistanceSurcharge int `json:"distanceSurcharge" db:"distance_surcharge"`
	PackingPrice      int `json:"packingPrice" db:"packing_price"`
	FurniturePrice    int `json:"furniturePrice" db:"furniture_price"`
	Subtotal          int `json:"subtotal" db:"subtotal"`
	VAT               int `json:"vat" db:"vat"`
	Total             int `json:"total" db:"total"`
}

// Quote is the persisted price offer attached to a customer. Duplicate
// leads still produce a fresh Quote against the existing customer.
type Quote struct {
	// ID has the form Q{unix-millis}_{RAND5}; it is shown to users.
	ID         string `db:"id"`
	CustomerID string `db:"customer_id"`

	QuoteBreakdown

	Status      QuoteStatus `db:"status"`
	MoveDate    *time.Time  `db:"move_date"`
	FromAddress string      `db:"from_address"`
	ToAddress   string      `db:"to_address"`
	Services    []string    `db:"-"`
	Comment     string      `db:"comment"`
	CreatedBy   string      `db:"created_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}
