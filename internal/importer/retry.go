package importer

import (
	"context"
	"errors"
	"time"

	"github.com/relocato/leadimport/internal/model"
	"github.com/relocato/leadimport/internal/store"
)

// Retry re-imports previously failed leads. Each id is processed
// independently; per-item failures land in the result, never as a
// batch error. Lenient mode relaxes the acceptance rules and derives
// missing identity fields from the stored From header.
func (im *Importer) Retry(ctx context.Context, ids []string, lenient bool) (*model.RetryResult, error) {
	result := &model.RetryResult{}
	log := im.log.With("run_type", "retry", "lenient", lenient)
	log.Info("starting retry batch", "count", len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++

		item := im.retryOne(ctx, id, lenient)
		if item.Error == "" {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Items = append(result.Items, item)
	}

	log.Info("retry batch finished",
		"processed", result.Processed,
		"successful", result.Successful,
		"failed", result.Failed,
	)
	return result, nil
}

func (im *Importer) retryOne(ctx context.Context, id string, lenient bool) model.RetryItemResult {
	item := model.RetryItemResult{ID: id}
	log := im.log.With("failed_import", id)

	f, err := im.store.GetFailedImport(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		item.Error = "failed import not found"
		return item
	}
	if err != nil {
		item.Error = err.Error()
		return item
	}
	if f.Resolved {
		item.Error = "already resolved"
		return item
	}

	lead := f.ParsedLead
	if lead == nil {
		// Parse failures stored no lead; re-run the parser over what
		// was retained.
		msg := reconstructMessage(f.Email)
		lead = im.router.Parse(&msg)
	}

	if lenient {
		if err := applyLenient(lead, f.Email.From); err != nil {
			item.Error = err.Error()
			return item
		}
	} else if verr := validateLead(lead); verr != nil {
		item.Error = verr.Error()
		return item
	}

	match, err := im.dedup.FindExisting(ctx, lead)
	if err != nil {
		item.Error = err.Error()
		return item
	}

	var (
		customerID  string
		newCustomer *model.Customer
	)
	if match != nil {
		customerID = match.Customer.CustomerNumber
		log.Info("retry matched existing customer", "customer", customerID, "matched_on", match.Field)
	} else {
		number, err := im.store.AllocateCustomerNumber(ctx, time.Now())
		if err != nil {
			item.Error = err.Error()
			return item
		}

		customer := buildCustomer(lead, number, f.Email.MessageID, model.ImportSourceRetry)
		now := time.Now()
		customer.OriginalFailureReason = string(f.Reason)
		customer.RetriedAt = &now
		customer.LenientMode = lenient

		if err := im.store.CreateCustomer(ctx, customer); err != nil {
			item.Error = err.Error()
			return item
		}
		customerID = number
		newCustomer = &customer
	}

	q := buildQuote(lead, customerID, model.ImportSourceRetry)
	if err := im.store.CreateQuote(ctx, q); err != nil {
		item.Error = err.Error()
		return item
	}
	if newCustomer != nil {
		im.notifyWelcome(ctx, *newCustomer, q, log)
	}

	if err := im.store.ResolveFailedImport(ctx, id, customerID); err != nil {
		// A concurrent retry won the race; the record stays resolved.
		item.Error = err.Error()
		return item
	}

	log.Info("failed import resolved", "customer", customerID, "quote", q.ID)
	item.CustomerID = customerID
	return item
}

// reconstructMessage rebuilds a message from its sanitized stored form.
func reconstructMessage(e model.FailedEmail) model.RawEmailMessage {
	return model.RawEmailMessage{
		MessageID: e.MessageID,
		From:      e.From,
		To:        e.To,
		Subject:   e.Subject,
		Date:      e.Date,
		TextBody:  e.TextBody,
		HTMLBody:  e.HTMLBody,
	}
}
