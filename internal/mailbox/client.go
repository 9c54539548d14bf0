package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Client holds the IMAP connection settings for the referral mailbox.
type Client struct {
	host     string
	port     string
	username string
	password string
	timeout  time.Duration
}

// NewClient creates a new IMAP client configuration. timeout bounds
// both the TCP dial and the login exchange.
func NewClient(host, port, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		host:     host,
		port:     port,
		username: username,
		password: password,
		timeout:  timeout,
	}
}

// Connect dials the server over IMAPS, authenticates, and returns an
// open session. The caller owns the session exclusively and must call
// Close on every exit path. Transport and auth failures are returned
// as *ConnectionError.
func (c *Client) Connect(ctx context.Context) (*Session, error) {
	addr := c.host + ":" + c.port

	dialer := &net.Dialer{Timeout: c.timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: c.host})
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}

	client := imapclient.New(conn, nil)

	loginDone := make(chan error, 1)
	go func() {
		loginDone <- client.Login(c.username, c.password).Wait()
	}()

	select {
	case err = <-loginDone:
	case <-time.After(c.timeout):
		err = fmt.Errorf("login timed out after %s", c.timeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		_ = client.Close()
		return nil, &ConnectionError{Addr: addr, Err: fmt.Errorf("authenticating %s: %w", c.username, err)}
	}

	return &Session{client: client}, nil
}

// Session is one authenticated IMAP session. A session is owned by a
// single import run; commands are never interleaved across callers.
type Session struct {
	client *imapclient.Client
}

// SelectFolder opens the named folder and returns its message count.
// Unknown folders yield a *FolderError so callers can fall back to a
// default folder.
func (s *Session) SelectFolder(name string, readOnly bool) (uint32, error) {
	opts := &imap.SelectOptions{ReadOnly: readOnly}
	data, err := s.client.Select(name, opts).Wait()
	if err != nil {
		return 0, &FolderError{Folder: name, Err: err}
	}
	return data.NumMessages, nil
}

// Search runs the given criteria against the selected folder and
// returns matching UIDs in mailbox order.
func (s *Session) Search(crit Criteria) ([]imap.UID, error) {
	data, err := s.client.UIDSearch(crit.build(), nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	return data.AllUIDs(), nil
}

// Close terminates the session. It is safe to call on a session whose
// connection already died.
func (s *Session) Close() error {
	if err := s.client.Logout().Wait(); err != nil {
		// Logout needs a live connection; fall back to closing the socket.
		return s.client.Close()
	}
	return nil
}

// ForceClose drops the connection without a clean logout. Used when a
// run's wall-clock timeout expires.
func (s *Session) ForceClose() error {
	return s.client.Close()
}

// Criteria describes a mailbox search: ALL, SINCE a date, substring
// FROM matches, or an OR combination of FROM substrings.
type Criteria struct {
	Since time.Time
	From  []string
}

// build translates Criteria into a go-imap search. An empty Criteria
// means ALL.
func (c Criteria) build() *imap.SearchCriteria {
	crit := &imap.SearchCriteria{}
	if !c.Since.IsZero() {
		crit.Since = c.Since
	}

	switch len(c.From) {
	case 0:
	case 1:
		crit.Header = append(crit.Header, imap.SearchCriteriaHeaderField{
			Key: "From", Value: c.From[0],
		})
	default:
		// Fold the FROM substrings into a chain of OR pairs.
		or := imap.SearchCriteria{Header: []imap.SearchCriteriaHeaderField{
			{Key: "From", Value: c.From[0]},
		}}
		for _, from := range c.From[1:] {
			next := imap.SearchCriteria{Header: []imap.SearchCriteriaHeaderField{
				{Key: "From", Value: from},
			}}
			or = imap.SearchCriteria{Or: [][2]imap.SearchCriteria{{or, next}}}
		}
		crit.Or = or.Or
		crit.Header = or.Header
	}

	return crit
}
