package model

import "time"

// Customer is the persisted record created from an accepted lead.
// The field names are a contract with the web UI and the retry tool.
type Customer struct {
	// CustomerNumber has the form K{year}{month}{seq3} and doubles as
	// the record id. Numbers are never reused.
	CustomerNumber string `db:"customer_number"`

	Name        string     `db:"name"`
	FirstName   string     `db:"first_name"`
	LastName    string     `db:"last_name"`
	Phone       string     `db:"phone"`
	Email       string     `db:"email"`
	MoveDate    *time.Time `db:"move_date"`
	FromAddress string     `db:"from_address"`
	ToAddress   string     `db:"to_address"`

	Apartment  Apartment `db:"-"`
	Services   []string  `db:"-"`
	DistanceKm float64   `db:"distance_km"`
	Notes      string    `db:"notes"`

	Source     LeadSource `db:"source"`
	LeadSource string     `db:"lead_source"`

	ImportedAt     time.Time `db:"imported_at"`
	ImportSource   string    `db:"import_source"`
	EmailMessageID string    `db:"email_message_id"`

	// Retry provenance, set only when the customer was created by a
	// lenient re-import of a FailedImport.
	OriginalFailureReason string     `db:"original_failure_reason"`
	RetriedAt             *time.Time `db:"retried_at"`
	LenientMode           bool       `db:"lenient_mode"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Import source markers stored on Customer.ImportSource.
const (
	ImportSourceAutomatic = "automatic_import"
	ImportSourceManual    = "manual_import"
	ImportSourceRetry     = "retry_import"
	ImportSourceCSV       = "csv_import"
	ImportSourceICS       = "ics_import"
)
