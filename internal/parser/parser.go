// Package parser turns normalized referral emails into structured
// leads. Each portal format has its own parser; an ordered rule list
// routes a message to the first matching one, falling back to a
// generic heuristic parser that never fails.
package parser

import (
	"strings"

	"github.com/relocato/leadimport/internal/model"
)

// Parser extracts a lead from one message. Parsers tolerate missing
// fields: absent values default to empty/0/false instead of failing.
type Parser interface {
	Name() string
	Parse(msg *model.RawEmailMessage) *model.ParsedLead
}

// rule matches a message to a parser. Evaluation order: sender domain
// token, subject token, then the content fingerprint.
type rule struct {
	senderTokens  []string
	subjectTokens []string
	contentTokens []string
	fingerprint   func(content string) bool
	parser        Parser
}

func (r *rule) matches(from, subject, content string) bool {
	for _, tok := range r.senderTokens {
		if strings.Contains(from, tok) {
			return true
		}
	}
	for _, tok := range r.subjectTokens {
		if strings.Contains(subject, tok) {
			return true
		}
	}
	for _, tok := range r.contentTokens {
		if strings.Contains(content, tok) {
			return true
		}
	}
	return r.fingerprint != nil && r.fingerprint(content)
}

// Router classifies messages into parsers. The zero rule set routes
// everything to the generic parser, so routing never fails.
type Router struct {
	rules    []rule
	fallback Parser
}

// NewRouter builds the default router with the known portal formats.
func NewRouter() *Router {
	return &Router{
		rules: []rule{
			{
				senderTokens:  []string{"immoscout24", "immobilienscout24"},
				subjectTokens: []string{"immoscout24"},
				contentTokens: []string{"Immobilien Scout GmbH"},
				fingerprint: func(content string) bool {
					return strings.Contains(content, "Anfrage #") &&
						strings.Contains(content, "Auszug") &&
						strings.Contains(content, "Einzug")
				},
				parser: &immoScoutParser{},
			},
			{
				senderTokens:  []string{"umzug365", "umzug-365"},
				subjectTokens: []string{"umzug365"},
				contentTokens: []string{"umzug365.de"},
				fingerprint: func(content string) bool {
					return strings.Contains(content, "Voraussichtlicher Umzugstag:") &&
						strings.Contains(content, "Von:") &&
						strings.Contains(content, "Nach:")
				},
				parser: &umzug365Parser{},
			},
		},
		fallback: &genericParser{},
	}
}

// Detect returns the parser responsible for msg. First match wins;
// unmatched messages go to the generic fallback.
func (r *Router) Detect(msg *model.RawEmailMessage) Parser {
	from := strings.ToLower(msg.From)
	subject := strings.ToLower(msg.Subject)
	content := textContent(msg)

	for i := range r.rules {
		if r.rules[i].matches(from, subject, content) {
			return r.rules[i].parser
		}
	}
	return r.fallback
}

// Parse routes and parses msg in one step.
func (r *Router) Parse(msg *model.RawEmailMessage) *model.ParsedLead {
	return r.Detect(msg).Parse(msg)
}
