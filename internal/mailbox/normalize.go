package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/relocato/leadimport/internal/model"
)

// Raw couples a normalized message with its mailbox UID.
type Raw struct {
	UID imap.UID
	Msg *model.RawEmailMessage
}

// normalize flattens a fetched message buffer into a RawEmailMessage.
// Malformed MIME yields a *ParseError carrying the envelope context so
// the caller can log and skip just this message. A missing date
// defaults to fetchTime, never to zero.
func normalize(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection, fetchTime time.Time) (*Raw, error) {
	msg := &model.RawEmailMessage{Date: fetchTime}

	if env := buf.Envelope; env != nil {
		msg.MessageID = env.MessageID
		msg.Subject = env.Subject
		if !env.Date.IsZero() {
			msg.Date = env.Date
		}
		if len(env.From) > 0 {
			msg.From = formatAddress(env.From[0])
		}
		if len(env.To) > 0 {
			msg.To = env.To[0].Addr()
		}
	}

	if section != nil {
		raw := buf.FindBodySection(section)
		if raw != nil {
			if err := parseMIMEBody(raw, msg); err != nil {
				return nil, &ParseError{MessageID: msg.MessageID, Subject: msg.Subject, Err: err}
			}
		}
	}

	return &Raw{UID: buf.UID, Msg: msg}, nil
}

// formatAddress renders an envelope address as "Name <addr>" when a
// display name is present, matching what the source detector and the
// generic parser expect from a From header.
func formatAddress(addr imap.Address) string {
	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", addr.Name, addr.Addr())
	}
	return addr.Addr()
}

// parseMIMEBody parses a raw RFC 2822 message using go-message and
// fills in the text/plain body, text/html body, and attachment
// metadata. Attachment content is read only to determine size.
func parseMIMEBody(raw []byte, msg *model.RawEmailMessage) error {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("creating MIME reader: %w", err)
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading MIME part: %w", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				msg.TextBody = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				msg.HTMLBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			size, readErr := io.Copy(io.Discard, part.Body)
			if readErr != nil {
				continue
			}

			msg.Attachments = append(msg.Attachments, model.AttachmentInfo{
				Filename:    filename,
				ContentType: contentType,
				Size:        size,
			})
		}
	}

	return nil
}
