// Package dedup decides whether a parsed lead matches an existing
// customer. Checks run in a fixed precedence order: exact email,
// exact phone, then name with a matching address.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/relocato/leadimport/internal/model"
	"github.com/relocato/leadimport/internal/store"
)

// nameCandidateLimit bounds the candidate set for the name check so a
// common name cannot turn the lookup into a table scan.
const nameCandidateLimit = 10

// Match fields, in precedence order.
const (
	MatchEmail       = "email"
	MatchPhone       = "phone"
	MatchNameAddress = "name+address"
)

// Match reports which existing customer a lead collided with and on
// which field.
type Match struct {
	Customer *model.Customer
	Field    string
}

// Checker runs duplicate detection against the customer store.
type Checker struct {
	store store.Store
}

// NewChecker returns a Checker backed by st.
func NewChecker(st store.Store) *Checker {
	return &Checker{store: st}
}

// FindExisting returns the first customer the lead matches, or nil
// when the lead is new. Empty lead fields never match anything.
func (c *Checker) FindExisting(ctx context.Context, lead *model.ParsedLead) (*Match, error) {
	if lead.Email != "" {
		cust, err := c.store.FindCustomerByEmail(ctx, lead.Email)
		if err == nil {
			return &Match{Customer: cust, Field: MatchEmail}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("checking email duplicate: %w", err)
		}
	}

	if lead.Phone != "" {
		cust, err := c.store.FindCustomerByPhone(ctx, lead.Phone)
		if err == nil {
			return &Match{Customer: cust, Field: MatchPhone}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("checking phone duplicate: %w", err)
		}
	}

	// The address check uses whichever end of the move the lead
	// carries and matches it against either end of the candidate's,
	// since portals disagree on which address they report.
	addr := lead.FromAddress
	if addr == "" {
		addr = lead.ToAddress
	}
	if lead.HasName() && addr != "" {
		candidates, err := c.store.FindCustomersByName(ctx, lead.Name, nameCandidateLimit)
		if err != nil {
			return nil, fmt.Errorf("checking name duplicate: %w", err)
		}
		for i := range candidates {
			if sameAddress(candidates[i].FromAddress, addr) || sameAddress(candidates[i].ToAddress, addr) {
				return &Match{Customer: &candidates[i], Field: MatchNameAddress}, nil
			}
		}
	}

	return nil, nil
}

// IsDuplicate reports whether the lead matches any existing customer.
func (c *Checker) IsDuplicate(ctx context.Context, lead *model.ParsedLead) (bool, error) {
	m, err := c.FindExisting(ctx, lead)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

func sameAddress(a, b string) bool {
	a = strings.ToLower(strings.Join(strings.Fields(a), " "))
	b = strings.ToLower(strings.Join(strings.Fields(b), " "))
	return a != "" && a == b
}
