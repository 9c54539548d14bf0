// Package importer orchestrates import runs: it pulls referral emails
// from the mailbox, routes them through the format parsers, applies
// duplicate detection, and persists customers, quotes, and failures.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/relocato/leadimport/internal/dedup"
	"github.com/relocato/leadimport/internal/mailbox"
	"github.com/relocato/leadimport/internal/model"
	"github.com/relocato/leadimport/internal/parser"
	"github.com/relocato/leadimport/internal/quote"
	"github.com/relocato/leadimport/internal/store"
)

// ErrOutsideBusinessHours is returned when a scheduled run fires
// outside the configured import window.
var ErrOutsideBusinessHours = errors.New("outside business hours")

// Importer runs the lead import pipeline.
type Importer struct {
	cfg      *model.AppConfig
	store    store.Store
	dedup    *dedup.Checker
	router   *parser.Router
	notifier Notifier
	log      *slog.Logger
}

// New wires an Importer. The mailbox password in cfg must already be
// resolved; credential lookup happens at the command layer.
func New(cfg *model.AppConfig, st store.Store, log *slog.Logger) *Importer {
	return &Importer{
		cfg:      cfg,
		store:    st,
		dedup:    dedup.NewChecker(st),
		router:   parser.NewRouter(),
		notifier: &notificationRecorder{store: st},
		log:      log,
	}
}

// Options controls a single import run.
type Options struct {
	// Folder overrides the configured mailbox folder.
	Folder string

	// Limit caps the number of messages processed; 0 means all.
	Limit int

	// Scheduled marks a timer-triggered run, which is gated to the
	// configured business hours. Manual runs are never gated.
	Scheduled bool

	// Lenient relaxes the acceptance rules the way a retry does.
	Lenient bool
}

// Run executes one import run against the mailbox. The returned stats
// are also appended to the run history.
func (im *Importer) Run(ctx context.Context, opts Options) (*model.ImportStats, error) {
	now := time.Now()
	if opts.Scheduled && !im.withinBusinessHours(now) {
		im.log.Info("skipping scheduled run", "reason", "outside business hours", "hour", now.Hour())
		return nil, ErrOutsideBusinessHours
	}

	runType := "manual"
	if opts.Scheduled {
		runType = "scheduled"
	}
	folder := opts.Folder
	if folder == "" {
		folder = im.cfg.Mailbox.Folder
	}

	stats := &model.ImportStats{
		BySource:  make(map[string]int),
		StartedAt: now,
	}

	log := im.log.With("run_type", runType, "folder", folder)
	log.Info("starting import run")

	usedFolder, runErr := im.runMailbox(ctx, folder, opts, stats, log)
	stats.FinishedAt = time.Now()
	stats.ProcessingTime = stats.FinishedAt.Sub(stats.StartedAt)

	im.finishRun(ctx, runType, usedFolder, stats, runErr, log)
	if runErr != nil {
		return stats, runErr
	}
	return stats, nil
}

// runMailbox drives one mailbox session. It returns the folder that
// was actually imported, which differs from the requested one when the
// fallback folder was used.
func (im *Importer) runMailbox(
	ctx context.Context,
	folder string,
	opts Options,
	stats *model.ImportStats,
	log *slog.Logger,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, im.cfg.Import.RunTimeout())
	defer cancel()

	mb := im.cfg.Mailbox
	client := mailbox.NewClient(mb.Host, mb.Port, mb.Username, mb.Password, mb.ConnectTimeout())

	session, err := client.Connect(ctx)
	if err != nil {
		return folder, err
	}
	defer session.Close()

	// Expiry of the run deadline drops the connection so a blocked
	// network read cannot outlive the run.
	stop := context.AfterFunc(ctx, func() {
		session.ForceClose()
	})
	defer stop()

	if _, err := session.SelectFolder(folder, false); err != nil {
		if !mailbox.IsFolderError(err) || mb.FallbackFolder == "" || mb.FallbackFolder == folder {
			return folder, err
		}
		log.Warn("folder not found, using fallback",
			"folder", folder, "fallback", mb.FallbackFolder)
		folder = mb.FallbackFolder
		if _, err := session.SelectFolder(folder, false); err != nil {
			return folder, err
		}
	}

	watermark, err := im.store.GetWatermark(ctx, folder)
	if err != nil {
		return folder, err
	}

	uids, err := session.Search(mailbox.Criteria{Since: watermark})
	if err != nil {
		return folder, err
	}
	stats.TotalMessages = len(uids)
	if opts.Limit > 0 && len(uids) > opts.Limit {
		uids = uids[:opts.Limit]
	}
	if len(uids) == 0 {
		log.Info("no new messages")
		return folder, nil
	}

	iter := session.Fetch(uids, mailbox.FetchOptions{IncludeBody: true, MarkSeen: true})
	defer iter.Close()

	importSource := model.ImportSourceManual
	if opts.Scheduled {
		importSource = model.ImportSourceAutomatic
	}

	workers := im.cfg.Import.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		maxSeen = watermark
		jobs    = make(chan *model.RawEmailMessage)
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range jobs {
				res := im.processMessage(ctx, msg, importSource, opts.Lenient, log)
				mu.Lock()
				res.apply(stats)
				if msg.Date.After(maxSeen) {
					maxSeen = msg.Date
				}
				mu.Unlock()
			}
		}()
	}

	var feedErr error
feed:
	for {
		raw, err := iter.Next()
		if err != nil {
			var perr *mailbox.ParseError
			if errors.As(err, &perr) {
				im.recordParseFailure(ctx, perr, log)
				mu.Lock()
				stats.Errors++
				mu.Unlock()
				continue
			}
			feedErr = err
			break
		}
		if raw == nil {
			break
		}

		// SINCE is date-granular on the wire; re-check the exact
		// watermark here so a same-day rerun does not reprocess.
		if !watermark.IsZero() && !raw.Msg.Date.After(watermark) {
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			continue
		}

		select {
		case jobs <- raw.Msg:
		case <-ctx.Done():
			feedErr = ctx.Err()
			break feed
		}
	}

	close(jobs)
	wg.Wait()

	if maxSeen.After(watermark) {
		if err := im.store.SetWatermark(context.WithoutCancel(ctx), folder, maxSeen); err != nil {
			log.Error("advancing watermark failed", "error", err)
		}
	}

	return folder, feedErr
}

// ImportMessages runs the parse-dedupe-persist pipeline over messages
// that did not come from the mailbox, such as CSV or calendar exports.
func (im *Importer) ImportMessages(
	ctx context.Context,
	msgs []model.RawEmailMessage,
	importSource string,
) (*model.ImportStats, error) {
	stats := &model.ImportStats{
		BySource:      make(map[string]int),
		StartedAt:     time.Now(),
		TotalMessages: len(msgs),
	}

	log := im.log.With("import_source", importSource)
	for i := range msgs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		res := im.processMessage(ctx, &msgs[i], importSource, false, log)
		res.apply(stats)
	}

	stats.FinishedAt = time.Now()
	stats.ProcessingTime = stats.FinishedAt.Sub(stats.StartedAt)
	im.finishRun(ctx, importSource, "", stats, nil, log)
	return stats, nil
}

// result is the per-message outcome folded into the run stats.
type result struct {
	newCustomer bool
	duplicate   bool
	failed      bool
	errored     bool
	source      string
}

func (r result) apply(stats *model.ImportStats) {
	stats.Processed++
	if r.source != "" {
		stats.BySource[r.source]++
	}
	switch {
	case r.newCustomer:
		stats.NewCustomers++
	case r.duplicate:
		stats.Duplicates++
	case r.failed, r.errored:
		stats.Errors++
	}
}

// processMessage turns one message into a customer and quote, a quote
// on an existing customer, or a failed-import record. Storage errors
// count against the run but never abort it.
func (im *Importer) processMessage(
	ctx context.Context,
	msg *model.RawEmailMessage,
	importSource string,
	lenient bool,
	log *slog.Logger,
) result {
	lead := im.router.Parse(msg)
	res := result{source: string(lead.Source)}

	log = log.With("message_id", msg.MessageID, "lead_source", lead.LeadSource)

	if lenient {
		if err := applyLenient(lead, msg.From); err != nil {
			res.failed = true
			im.recordFailedLead(ctx, msg, lead, model.FailureNoName, log)
			return res
		}
	} else if verr := validateLead(lead); verr != nil {
		res.failed = true
		im.recordFailedLead(ctx, msg, lead, verr.Reason, log)
		return res
	}

	match, err := im.dedup.FindExisting(ctx, lead)
	if err != nil {
		log.Error("duplicate check failed", "error", err)
		res.errored = true
		return res
	}

	if match != nil {
		// Duplicates still get a fresh quote on the existing customer.
		q := buildQuote(lead, match.Customer.CustomerNumber, importSource)
		if err := im.store.CreateQuote(ctx, q); err != nil {
			log.Error("creating quote for duplicate failed", "error", err)
			res.errored = true
			return res
		}
		log.Info("duplicate lead",
			"customer", match.Customer.CustomerNumber, "matched_on", match.Field, "quote", q.ID)
		res.duplicate = true
		return res
	}

	// The customer number is scoped to the month the lead arrived,
	// not the month of the run, so backfills stay in their period.
	scopeDate := msg.Date
	if scopeDate.IsZero() {
		scopeDate = time.Now()
	}
	number, err := im.store.AllocateCustomerNumber(ctx, scopeDate)
	if err != nil {
		log.Error("allocating customer number failed", "error", err)
		res.errored = true
		return res
	}

	customer := buildCustomer(lead, number, msg.MessageID, importSource)
	if err := im.store.CreateCustomer(ctx, customer); err != nil {
		log.Error("creating customer failed", "customer", number, "error", err)
		res.errored = true
		return res
	}

	q := buildQuote(lead, number, importSource)
	if err := im.store.CreateQuote(ctx, q); err != nil {
		log.Error("creating quote failed", "customer", number, "error", err)
		res.errored = true
		return res
	}

	im.notifyWelcome(ctx, customer, q, log)

	log.Info("customer created", "customer", number, "quote", q.ID, "total", q.Total)
	res.newCustomer = true
	return res
}

// recordFailedLead persists a rejected lead for the retry workflow.
func (im *Importer) recordFailedLead(
	ctx context.Context,
	msg *model.RawEmailMessage,
	lead *model.ParsedLead,
	reason model.FailureReason,
	log *slog.Logger,
) {
	f := model.FailedImport{
		Email:      sanitizeEmail(msg),
		Reason:     reason,
		ParsedLead: lead,
	}
	if err := im.store.CreateFailedImport(ctx, f); err != nil {
		log.Error("recording failed import", "error", err)
		return
	}
	log.Warn("lead rejected", "reason", reason)
}

// recordParseFailure persists a message whose MIME structure could not
// be decoded. Only envelope data is available at this point.
func (im *Importer) recordParseFailure(ctx context.Context, perr *mailbox.ParseError, log *slog.Logger) {
	f := model.FailedImport{
		Email: model.FailedEmail{
			MessageID: perr.MessageID,
			Subject:   perr.Subject,
			Date:      time.Now(),
		},
		Reason: model.FailureParseError,
	}
	if err := im.store.CreateFailedImport(ctx, f); err != nil {
		log.Error("recording parse failure", "error", err)
		return
	}
	log.Warn("message not parseable", "message_id", perr.MessageID, "error", perr.Err)
}

func (im *Importer) withinBusinessHours(t time.Time) bool {
	h := t.Hour()
	return h >= im.cfg.Import.BusinessHoursStart && h < im.cfg.Import.BusinessHoursEnd
}

// sanitizeEmail copies the fields of a message that may be persisted.
// Bodies are kept for the retry window; attachments never are.
func sanitizeEmail(msg *model.RawEmailMessage) model.FailedEmail {
	return model.FailedEmail{
		MessageID: msg.MessageID,
		From:      msg.From,
		To:        msg.To,
		Subject:   msg.Subject,
		Date:      msg.Date,
		TextBody:  msg.TextBody,
		HTMLBody:  msg.HTMLBody,
	}
}

// buildCustomer maps an accepted lead onto a customer record.
func buildCustomer(lead *model.ParsedLead, number, messageID, importSource string) model.Customer {
	now := time.Now()
	return model.Customer{
		CustomerNumber: number,
		Name:           lead.Name,
		FirstName:      lead.FirstName,
		LastName:       lead.LastName,
		Phone:          lead.Phone,
		Email:          lead.Email,
		MoveDate:       lead.MoveDate,
		FromAddress:    lead.FromAddress,
		ToAddress:      lead.ToAddress,
		Apartment:      lead.Apartment,
		Services:       lead.Services,
		DistanceKm:     lead.DistanceKm,
		Notes:          lead.Notes,
		Source:         lead.Source,
		LeadSource:     lead.LeadSource,
		ImportedAt:     now,
		ImportSource:   importSource,
		EmailMessageID: messageID,
	}
}

// buildQuote prices a lead and shapes the draft quote.
func buildQuote(lead *model.ParsedLead, customerID, importSource string) model.Quote {
	b := quote.Calculate(quote.Input{
		AreaSqm:           lead.Apartment.Area,
		Rooms:             lead.Apartment.Rooms,
		FromFloor:         lead.Apartment.Floor,
		FromHasElevator:   lead.Apartment.HasElevator,
		DistanceKm:        lead.DistanceKm,
		PackingService:    containsService(lead.Services, "Einpackservice"),
		FurnitureAssembly: containsService(lead.Services, "Möbelmontage"),
		CustomerType:      quote.CustomerPrivate,
	})

	return model.Quote{
		CustomerID: customerID,
		QuoteBreakdown: model.QuoteBreakdown{
			BasePrice:         b.BasePrice,
			FloorSurcharge:    b.FloorSurcharge,
			DistanceSurcharge: b.DistanceSurcharge,
			PackingPrice:      b.PackingPrice,
			FurniturePrice:    b.FurniturePrice,
			Subtotal:          b.Subtotal,
			VAT:               b.VAT,
			Total:             b.Total,
		},
		Status:      model.QuoteStatusDraft,
		MoveDate:    lead.MoveDate,
		FromAddress: lead.FromAddress,
		ToAddress:   lead.ToAddress,
		Services:    lead.Services,
		Comment:     "Automatisch aus E-Mail-Anfrage erstellt",
		CreatedBy:   importSource,
	}
}

func containsService(services []string, want string) bool {
	for _, s := range services {
		if s == want {
			return true
		}
	}
	return false
}

// finishRun appends the run history entry and surfaces notifications.
// Bookkeeping runs on a detached context so it survives run expiry.
func (im *Importer) finishRun(
	ctx context.Context,
	runType, folder string,
	stats *model.ImportStats,
	runErr error,
	log *slog.Logger,
) {
	ctx = context.WithoutCancel(ctx)

	run := model.ImportRun{
		Type:       runType,
		Folder:     folder,
		Stats:      *stats,
		StartedAt:  stats.StartedAt,
		FinishedAt: stats.FinishedAt,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := im.store.RecordRun(ctx, run); err != nil {
		log.Error("recording import run", "error", err)
	}

	switch {
	case runErr != nil:
		im.notifyRunError(ctx, runErr, log)
	case stats.Processed > 0:
		im.notifyRunSuccess(ctx, stats, log)
	}

	log.Info("import run finished",
		"total", stats.TotalMessages,
		"processed", stats.Processed,
		"new_customers", stats.NewCustomers,
		"duplicates", stats.Duplicates,
		"errors", stats.Errors,
		"skipped", stats.Skipped,
		"duration", stats.ProcessingTime,
	)
}

func (im *Importer) notifyRunSuccess(ctx context.Context, stats *model.ImportStats, log *slog.Logger) {
	details, _ := json.Marshal(stats)
	n := model.Notification{
		Type:  model.NotificationImportSuccess,
		Title: "E-Mail-Import abgeschlossen",
		Message: fmt.Sprintf("%d neue Kunden, %d Duplikate, %d Fehler",
			stats.NewCustomers, stats.Duplicates, stats.Errors),
		Details: string(details),
	}
	if err := im.store.CreateNotification(ctx, n); err != nil {
		log.Error("creating run notification", "error", err)
	}
}

func (im *Importer) notifyRunError(ctx context.Context, runErr error, log *slog.Logger) {
	n := model.Notification{
		Type:    model.NotificationImportError,
		Title:   "E-Mail-Import fehlgeschlagen",
		Message: runErr.Error(),
	}
	if err := im.store.CreateNotification(ctx, n); err != nil {
		log.Error("creating error notification", "error", err)
	}
}
