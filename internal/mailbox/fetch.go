package mailbox

import (
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// FetchOptions controls how messages are fetched.
type FetchOptions struct {
	// IncludeBody fetches the full MIME body; otherwise only the
	// envelope is retrieved.
	IncludeBody bool

	// MarkSeen sets the \Seen flag as a side effect of the fetch.
	// When false the body section uses PEEK.
	MarkSeen bool
}

// Fetch streams raw messages for the given UIDs. Messages are yielded
// in server order; the iterator must be closed.
func (s *Session) Fetch(uids []imap.UID, opts FetchOptions) *MessageIter {
	fetchOpts := &imap.FetchOptions{
		Envelope: true,
		UID:      true,
	}

	var section *imap.FetchItemBodySection
	if opts.IncludeBody {
		section = &imap.FetchItemBodySection{Peek: !opts.MarkSeen}
		fetchOpts.BodySection = []*imap.FetchItemBodySection{section}
	}

	cmd := s.client.Fetch(imap.UIDSetNum(uids...), fetchOpts)

	return &MessageIter{
		cmd:     cmd,
		section: section,
		now:     time.Now,
	}
}

// MessageIter yields normalized messages from one fetch command.
type MessageIter struct {
	cmd     *imapclient.FetchCommand
	section *imap.FetchItemBodySection
	now     func() time.Time
}

// Next returns the next message. It returns (nil, nil) when the fetch
// is exhausted. A *ParseError return covers only the current message;
// the iterator stays usable, matching the skip-and-continue rule.
func (it *MessageIter) Next() (*Raw, error) {
	msg := it.cmd.Next()
	if msg == nil {
		return nil, nil
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	return normalize(buf, it.section, it.now())
}

// Close releases the fetch command. Always call it, also after errors.
func (it *MessageIter) Close() error {
	return it.cmd.Close()
}
