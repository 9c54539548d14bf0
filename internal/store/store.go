package store

import (
	"context"
	"errors"
	"time"

	"github.com/relocato/leadimport/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyResolved is returned when resolving a FailedImport that a
// previous retry already resolved.
var ErrAlreadyResolved = errors.New("failed import already resolved")

// Store defines the persistence interface for customers, quotes,
// failed imports, the customer number counter, and import run state.
type Store interface {
	CreateCustomer(ctx context.Context, c model.Customer) error
	GetCustomerByNumber(ctx context.Context, number string) (*model.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*model.Customer, error)
	FindCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error)

	// FindCustomersByName returns at most limit customers whose name
	// matches exactly, for the name-plus-address duplicate check.
	FindCustomersByName(ctx context.Context, name string, limit int) ([]model.Customer, error)

	CreateQuote(ctx context.Context, q model.Quote) error
	GetQuotesForCustomer(ctx context.Context, customerID string) ([]model.Quote, error)

	CreateFailedImport(ctx context.Context, f model.FailedImport) error
	GetFailedImport(ctx context.Context, id string) (*model.FailedImport, error)
	GetUnresolvedFailedImports(ctx context.Context, limit int) ([]model.FailedImport, error)

	// ResolveFailedImport marks the record resolved exactly once; a
	// second call returns ErrAlreadyResolved.
	ResolveFailedImport(ctx context.Context, id, newCustomerID string) error

	// StripFailedImportBodies removes retained body text from failed
	// imports created before cutoff and reports how many were changed.
	StripFailedImportBodies(ctx context.Context, cutoff time.Time) (int64, error)

	// AllocateCustomerNumber returns the next K{year}{month}{seq}
	// number for the year and month of scopeDate. Concurrent callers
	// in the same scope never observe the same sequence value.
	AllocateCustomerNumber(ctx context.Context, scopeDate time.Time) (string, error)

	GetWatermark(ctx context.Context, folder string) (time.Time, error)
	SetWatermark(ctx context.Context, folder string, t time.Time) error
	RecordRun(ctx context.Context, run model.ImportRun) error

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	Close() error
}
