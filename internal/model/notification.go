package model

import "time"

// Notification kinds written by the import pipeline.
const (
	NotificationImportSuccess = "import_success"
	NotificationImportError   = "import_error"
	NotificationWelcome       = "customer_welcome"
)

// Notification represents an alert surfaced to back-office users
// about import activity. The UI consumes these; this pipeline only
// writes them.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Type is one of the Notification* constants.
	Type string `json:"type"`

	// Title is the short heading shown in the UI.
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Details holds an optional serialized payload (e.g. run stats).
	Details string `json:"details,omitempty"`

	// Read indicates whether a user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`
}
