package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/relocato/leadimport/internal/model"
	"github.com/relocato/leadimport/internal/store"
)

// Notifier delivers the welcome notice for a newly created customer.
// Delivery is fire-and-forget; the import run never fails on a
// notification error.
type Notifier interface {
	CustomerCreated(ctx context.Context, customer model.Customer, q model.Quote) error
}

// SetNotifier replaces the welcome notice delivery. The default
// records a notification row for the back-office UI.
func (im *Importer) SetNotifier(n Notifier) {
	im.notifier = n
}

// notificationRecorder is the store-backed Notifier. It writes the
// welcome notice as an unread notification row.
type notificationRecorder struct {
	store store.Store
}

func (r *notificationRecorder) CustomerCreated(ctx context.Context, c model.Customer, q model.Quote) error {
	n := model.Notification{
		Type:  model.NotificationWelcome,
		Title: "Neuer Kunde angelegt",
		Message: fmt.Sprintf("Willkommens-E-Mail für %s (%s) vorgemerkt, Angebot %s über %d €",
			c.Name, c.CustomerNumber, q.ID, q.Total),
	}
	return r.store.CreateNotification(ctx, n)
}

// notifyWelcome hands a new customer and their first quote to the
// Notifier. Customers without an email address get no welcome notice.
func (im *Importer) notifyWelcome(ctx context.Context, c model.Customer, q model.Quote, log *slog.Logger) {
	if !im.cfg.Import.Notify || c.Email == "" {
		return
	}
	if err := im.notifier.CustomerCreated(ctx, c, q); err != nil {
		log.Error("sending welcome notification", "customer", c.CustomerNumber, "error", err)
	}
}
