package model

import "time"

// FailureReason classifies why a lead was rejected.
type FailureReason string

const (
	// FailureNoName takes precedence over FailureNoContactInfo when
	// both conditions hold.
	FailureNoName        FailureReason = "NoName"
	FailureNoContactInfo FailureReason = "NoContactInfo"
	FailureParseError    FailureReason = "ParseException"
)

// FailedEmail is the sanitized copy of a rejected message kept for the
// retry workflow. The body is retained only for the initial retry
// window; long-term storage strips it.
type FailedEmail struct {
	MessageID string    `json:"messageId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Date      time.Time `json:"date"`
	TextBody  string    `json:"textBody,omitempty"`
	HTMLBody  string    `json:"htmlBody,omitempty"`
}

// FailedImport is the persisted record of a rejected lead.
// A FailedImport resolves at most once.
type FailedImport struct {
	ID            string        `db:"id"`
	Email         FailedEmail   `db:"-"`
	Reason        FailureReason `db:"reason"`
	ParsedLead    *ParsedLead   `db:"-"`
	Resolved      bool          `db:"resolved"`
	ResolvedAt    *time.Time    `db:"resolved_at"`
	NewCustomerID string        `db:"new_customer_id"`
	CreatedAt     time.Time     `db:"created_at"`
}
