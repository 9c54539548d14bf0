package model

import "time"

// LeadSource identifies the portal a lead email originated from.
type LeadSource string

const (
	LeadSourceImmoScout24 LeadSource = "ImmoScout24"
	LeadSourceUmzug365    LeadSource = "Umzug365"
	LeadSourceUnknown     LeadSource = "Unknown"
)

// Floor sentinel values used by the lexical floor map.
const (
	FloorGround   = 0
	FloorBasement = -1
	FloorAttic    = 99
)

// RawEmailMessage is the flattened form of one fetched MIME message.
// It is ephemeral: only sanitized copies (without bodies) are ever
// persisted, on the failed-import path.
type RawEmailMessage struct {
	MessageID   string
	From        string
	To          string
	Subject     string
	Date        time.Time
	TextBody    string
	HTMLBody    string
	Attachments []AttachmentInfo
}

// AttachmentInfo holds attachment metadata only; content is never kept.
type AttachmentInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Apartment describes the dwelling at the origin end of a move.
type Apartment struct {
	Type        string  `json:"type" db:"-"`
	Floor       int     `json:"floor" db:"-"`
	Rooms       float64 `json:"rooms" db:"-"`
	Area        int     `json:"area" db:"-"`
	HasElevator bool    `json:"hasElevator" db:"-"`
}

// ParsedLead is the structured candidate extracted from one message.
// Fields default to their zero value when the source email omits them;
// only the acceptance rules decide whether the lead becomes a Customer.
type ParsedLead struct {
	Source      LeadSource
	RequestID   string
	Name        string
	FirstName   string
	LastName    string
	Phone       string
	Email       string
	MoveDate    *time.Time
	FromAddress string
	ToAddress   string
	Apartment   Apartment
	Services    []string
	DistanceKm  float64
	Notes       string
	LeadSource  string
}

// HasName reports whether the parser found a usable customer name.
func (l *ParsedLead) HasName() bool {
	return l.Name != "" && l.Name != "Unbekannt"
}

// HasContact reports whether the lead carries at least one contact field.
func (l *ParsedLead) HasContact() bool {
	return l.Email != "" || l.Phone != ""
}
