package mailbox

import (
	"errors"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMIME = "From: Hans Beispiel <hans@example.com>\r\n" +
	"To: anfragen@relocato.example\r\n" +
	"Subject: Umzugsanfrage\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=frontier\r\n" +
	"\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Hallo, wir ziehen um.\r\n" +
	"--frontier\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Hallo, wir ziehen um.</p>\r\n" +
	"--frontier\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"grundriss.pdf\"\r\n" +
	"\r\n" +
	"PDFBYTES\r\n" +
	"--frontier--\r\n"

func fetchBuffer(env *imap.Envelope, section *imap.FetchItemBodySection, raw string) *imapclient.FetchMessageBuffer {
	buf := &imapclient.FetchMessageBuffer{UID: 7, Envelope: env}
	if section != nil {
		buf.BodySection = []imapclient.FetchBodySectionBuffer{
			{Section: section, Bytes: []byte(raw)},
		}
	}
	return buf
}

func TestNormalize(t *testing.T) {
	sent := time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)
	env := &imap.Envelope{
		Date:      sent,
		Subject:   "Umzugsanfrage",
		MessageID: "<abc@example.com>",
		From:      []imap.Address{{Name: "Hans Beispiel", Mailbox: "hans", Host: "example.com"}},
		To:        []imap.Address{{Mailbox: "anfragen", Host: "relocato.example"}},
	}
	section := &imap.FetchItemBodySection{}

	raw, err := normalize(fetchBuffer(env, section, sampleMIME), section, time.Now())
	require.NoError(t, err)

	assert.Equal(t, imap.UID(7), raw.UID)
	msg := raw.Msg
	assert.Equal(t, "<abc@example.com>", msg.MessageID)
	assert.Equal(t, "Umzugsanfrage", msg.Subject)
	assert.Equal(t, "Hans Beispiel <hans@example.com>", msg.From)
	assert.Equal(t, "anfragen@relocato.example", msg.To)
	assert.Equal(t, sent, msg.Date, "envelope date wins over fetch time")

	assert.Equal(t, "Hallo, wir ziehen um.", msg.TextBody)
	assert.Equal(t, "<p>Hallo, wir ziehen um.</p>", msg.HTMLBody)

	require.Len(t, msg.Attachments, 1)
	att := msg.Attachments[0]
	assert.Equal(t, "grundriss.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, int64(len("PDFBYTES")), att.Size)
}

func TestNormalizeMissingDateDefaultsToFetchTime(t *testing.T) {
	fetchTime := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	env := &imap.Envelope{
		Subject: "ohne Datum",
		From:    []imap.Address{{Mailbox: "info", Host: "example.com"}},
	}

	raw, err := normalize(fetchBuffer(env, nil, ""), nil, fetchTime)
	require.NoError(t, err)

	assert.Equal(t, fetchTime, raw.Msg.Date)
	assert.Equal(t, "info@example.com", raw.Msg.From, "bare address when no display name")
	assert.Empty(t, raw.Msg.TextBody)
}

func TestNormalizeMalformedMIME(t *testing.T) {
	env := &imap.Envelope{
		Subject:   "kaputt",
		MessageID: "<broken@example.com>",
	}
	section := &imap.FetchItemBodySection{}
	malformed := "this line is not a header\r\n\r\nbody\r\n"

	_, err := normalize(fetchBuffer(env, section, malformed), section, time.Now())
	require.Error(t, err)
	require.True(t, IsParseError(err))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "<broken@example.com>", perr.MessageID, "envelope context survives the failure")
	assert.Equal(t, "kaputt", perr.Subject)
}

func TestCriteriaBuild(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty means all", func(t *testing.T) {
		crit := Criteria{}.build()
		assert.Equal(t, &imap.SearchCriteria{}, crit)
	})

	t.Run("since", func(t *testing.T) {
		crit := Criteria{Since: since}.build()
		assert.Equal(t, since, crit.Since)
		assert.Empty(t, crit.Header)
		assert.Empty(t, crit.Or)
	})

	t.Run("single from", func(t *testing.T) {
		crit := Criteria{From: []string{"immobilienscout24.de"}}.build()
		require.Len(t, crit.Header, 1)
		assert.Equal(t, "From", crit.Header[0].Key)
		assert.Equal(t, "immobilienscout24.de", crit.Header[0].Value)
		assert.Empty(t, crit.Or)
	})

	t.Run("two from folded into or", func(t *testing.T) {
		crit := Criteria{From: []string{"a.example", "b.example"}}.build()
		assert.Empty(t, crit.Header)
		require.Len(t, crit.Or, 1)
		assert.Equal(t, "a.example", crit.Or[0][0].Header[0].Value)
		assert.Equal(t, "b.example", crit.Or[0][1].Header[0].Value)
	})

	t.Run("three from nests the fold", func(t *testing.T) {
		crit := Criteria{From: []string{"a.example", "b.example", "c.example"}}.build()
		require.Len(t, crit.Or, 1)
		inner := crit.Or[0][0]
		require.Len(t, inner.Or, 1)
		assert.Equal(t, "a.example", inner.Or[0][0].Header[0].Value)
		assert.Equal(t, "b.example", inner.Or[0][1].Header[0].Value)
		assert.Equal(t, "c.example", crit.Or[0][1].Header[0].Value)
	})
}
