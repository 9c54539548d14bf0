package store_test

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relocato/leadimport/internal/model"
	"github.com/relocato/leadimport/internal/store"
	"github.com/relocato/leadimport/tests/testutil"
)

func testCustomer(number string) model.Customer {
	moveDate := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	return model.Customer{
		CustomerNumber: number,
		Name:           "Max Mustermann",
		FirstName:      "Max",
		LastName:       "Mustermann",
		Phone:          "+491711234567",
		Email:          "max@example.com",
		MoveDate:       &moveDate,
		FromAddress:    "Musterstraße 12, 33605 Bielefeld",
		ToAddress:      "Zielweg 7, 80331 München",
		Apartment: model.Apartment{
			Type:  "Mehrfamilienhaus",
			Floor: 2,
			Rooms: 3,
			Area:  85,
		},
		Services:       []string{"Umzug", "Einpackservice"},
		DistanceKm:     598,
		Notes:          "Abrechnung über: ImmoScout24",
		Source:         model.LeadSourceImmoScout24,
		LeadSource:     "immoscout24-email",
		ImportedAt:     time.Now().UTC(),
		ImportSource:   model.ImportSourceAutomatic,
		EmailMessageID: "<msg-1@example.com>",
	}
}

func TestCustomerRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	want := testCustomer("K202504001")
	require.NoError(t, s.CreateCustomer(ctx, want))

	got, err := s.GetCustomerByNumber(ctx, "K202504001")
	require.NoError(t, err)

	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Phone, got.Phone)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.FromAddress, got.FromAddress)
	assert.Equal(t, want.ToAddress, got.ToAddress)
	assert.Equal(t, want.Apartment, got.Apartment)
	assert.Equal(t, want.Services, got.Services)
	assert.Equal(t, want.DistanceKm, got.DistanceKm)
	assert.Equal(t, want.Source, got.Source)
	assert.Equal(t, want.ImportSource, got.ImportSource)
	assert.Equal(t, want.EmailMessageID, got.EmailMessageID)
	require.NotNil(t, got.MoveDate)
	assert.WithinDuration(t, *want.MoveDate, *got.MoveDate, time.Second)
	assert.False(t, got.LenientMode)
	assert.Nil(t, got.RetriedAt)
}

func TestCustomerNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetCustomerByNumber(ctx, "K202501001")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindCustomerByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.FindCustomerByEmail(ctx, "")
	assert.ErrorIs(t, err, store.ErrNotFound, "empty email must never match")

	_, err = s.FindCustomerByPhone(ctx, "")
	assert.ErrorIs(t, err, store.ErrNotFound, "empty phone must never match")
}

func TestFindCustomerByEmailAndPhone(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCustomer(ctx, testCustomer("K202504001")))

	byEmail, err := s.FindCustomerByEmail(ctx, "max@example.com")
	require.NoError(t, err)
	assert.Equal(t, "K202504001", byEmail.CustomerNumber)

	byPhone, err := s.FindCustomerByPhone(ctx, "+491711234567")
	require.NoError(t, err)
	assert.Equal(t, "K202504001", byPhone.CustomerNumber)
}

func TestFindCustomersByNameBounded(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		c := testCustomer(fmt.Sprintf("K202504%03d", i+1))
		c.Email = fmt.Sprintf("max%d@example.com", i)
		c.Phone = fmt.Sprintf("+4917100000%02d", i)
		require.NoError(t, s.CreateCustomer(ctx, c))
	}

	got, err := s.FindCustomersByName(ctx, "Max Mustermann", 10)
	require.NoError(t, err)
	assert.Len(t, got, 10)

	got, err = s.FindCustomersByName(ctx, "Unbekannt", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuoteCreateGeneratesID(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCustomer(ctx, testCustomer("K202504001")))
	require.NoError(t, s.CreateQuote(ctx, model.Quote{
		CustomerID: "K202504001",
		QuoteBreakdown: model.QuoteBreakdown{
			BasePrice: 749, Subtotal: 1381, VAT: 262, Total: 1643,
		},
		Services: []string{"Umzug"},
	}))

	quotes, err := s.GetQuotesForCustomer(ctx, "K202504001")
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	assert.Regexp(t, regexp.MustCompile(`^Q\d+_[0-9A-Z]{5}$`), quotes[0].ID)
	assert.Equal(t, model.QuoteStatusDraft, quotes[0].Status)
	assert.Equal(t, 1643, quotes[0].Total)
	assert.Equal(t, []string{"Umzug"}, quotes[0].Services)
}

func TestFailedImportResolveOnce(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	f := model.FailedImport{
		ID: "fail-1",
		Email: model.FailedEmail{
			MessageID: "<msg-2@example.com>",
			From:      "lead@example.com",
			Subject:   "Anfrage",
			Date:      time.Now().UTC(),
			TextBody:  "Hallo",
		},
		Reason:     model.FailureNoName,
		ParsedLead: &model.ParsedLead{Name: "Unbekannt", Phone: "+491234567890"},
	}
	require.NoError(t, s.CreateFailedImport(ctx, f))

	got, err := s.GetFailedImport(ctx, "fail-1")
	require.NoError(t, err)
	assert.Equal(t, model.FailureNoName, got.Reason)
	assert.Equal(t, "lead@example.com", got.Email.From)
	require.NotNil(t, got.ParsedLead)
	assert.Equal(t, "+491234567890", got.ParsedLead.Phone)
	assert.False(t, got.Resolved)

	require.NoError(t, s.ResolveFailedImport(ctx, "fail-1", "K202504001"))

	got, err = s.GetFailedImport(ctx, "fail-1")
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.Equal(t, "K202504001", got.NewCustomerID)
	assert.NotNil(t, got.ResolvedAt)

	err = s.ResolveFailedImport(ctx, "fail-1", "K202504002")
	assert.ErrorIs(t, err, store.ErrAlreadyResolved)

	err = s.ResolveFailedImport(ctx, "missing", "K202504002")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetUnresolvedFailedImports(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateFailedImport(ctx, model.FailedImport{
			ID:     fmt.Sprintf("fail-%d", i),
			Reason: model.FailureNoContactInfo,
		}))
	}
	require.NoError(t, s.ResolveFailedImport(ctx, "fail-1", "K202504001"))

	open, err := s.GetUnresolvedFailedImports(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	open, err = s.GetUnresolvedFailedImports(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestStripFailedImportBodies(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	old := model.FailedImport{
		ID: "fail-old",
		Email: model.FailedEmail{
			From:     "alt@example.com",
			Subject:  "Alte Anfrage",
			TextBody: "Inhalt",
			HTMLBody: "<p>Inhalt</p>",
		},
		Reason:    model.FailureParseError,
		CreatedAt: time.Now().Add(-100 * 24 * time.Hour),
	}
	recent := model.FailedImport{
		ID:     "fail-new",
		Email:  model.FailedEmail{From: "neu@example.com", TextBody: "Inhalt"},
		Reason: model.FailureParseError,
	}
	require.NoError(t, s.CreateFailedImport(ctx, old))
	require.NoError(t, s.CreateFailedImport(ctx, recent))

	n, err := s.StripFailedImportBodies(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetFailedImport(ctx, "fail-old")
	require.NoError(t, err)
	assert.Empty(t, got.Email.TextBody)
	assert.Empty(t, got.Email.HTMLBody)
	assert.Equal(t, "alt@example.com", got.Email.From, "envelope fields survive stripping")

	got, err = s.GetFailedImport(ctx, "fail-new")
	require.NoError(t, err)
	assert.Equal(t, "Inhalt", got.Email.TextBody)
}

func TestAllocateCustomerNumberFormat(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	jan := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

	n1, err := s.AllocateCustomerNumber(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, "K202501001", n1)

	n2, err := s.AllocateCustomerNumber(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, "K202501002", n2)

	n3, err := s.AllocateCustomerNumber(ctx, feb)
	require.NoError(t, err)
	assert.Equal(t, "K202502001", n3, "each month scope counts independently")
}

func TestAllocateCustomerNumberConcurrent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	scope := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	const n = 25
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool)
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := s.AllocateCustomerNumber(ctx, scope)
			assert.NoError(t, err)
			mu.Lock()
			numbers[num] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, n, "concurrent allocations must never collide")
	for i := 1; i <= n; i++ {
		assert.True(t, numbers[fmt.Sprintf("K202503%03d", i)], "sequence must be gapless")
	}
}

func TestWatermark(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	got, err := s.GetWatermark(ctx, "INBOX")
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "unknown folder yields the zero time")

	first := time.Date(2025, 4, 1, 10, 30, 0, 0, time.UTC)
	require.NoError(t, s.SetWatermark(ctx, "INBOX", first))

	got, err = s.GetWatermark(ctx, "INBOX")
	require.NoError(t, err)
	assert.WithinDuration(t, first, got, time.Second)

	second := first.Add(48 * time.Hour)
	require.NoError(t, s.SetWatermark(ctx, "INBOX", second))

	got, err = s.GetWatermark(ctx, "INBOX")
	require.NoError(t, err)
	assert.WithinDuration(t, second, got, time.Second)

	other, err := s.GetWatermark(ctx, "Anfragen")
	require.NoError(t, err)
	assert.True(t, other.IsZero(), "watermarks are per folder")
}

func TestRecordRun(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	run := model.ImportRun{
		Type:       "manual",
		Folder:     "INBOX",
		Stats:      model.ImportStats{Processed: 3, NewCustomers: 2, Duplicates: 1},
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
	}
	assert.NoError(t, s.RecordRun(ctx, run))
}

func TestNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNotification(ctx, model.Notification{
		Type:    model.NotificationImportSuccess,
		Title:   "E-Mail-Import abgeschlossen",
		Message: "2 neue Kunden",
	}))

	unread, err := s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.NotEmpty(t, unread[0].ID)
	assert.Equal(t, model.NotificationImportSuccess, unread[0].Type)

	require.NoError(t, s.MarkNotificationRead(ctx, unread[0].ID))

	unread, err = s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
