package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relocato/leadimport/internal/model"
)

// noteExcerptLen bounds the diagnostic body excerpt the generic
// parser attaches to every lead it produces.
const noteExcerptLen = 500

// genericParser is the last-resort fallback for messages no vendor
// rule matched. It applies weak heuristics and never fails; the
// resulting lead may still be rejected by the acceptance rules.
type genericParser struct{}

var genNameRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Name:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)Kunde:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)Absender:\s*([^\n]+)`),
	regexp.MustCompile(`(?i)Von:\s*([^\n]+)`),
	regexp.MustCompile(`Herr\s+([A-ZÄÖÜ][a-zäöüß]+\s+[A-ZÄÖÜ][a-zäöüß]+)`),
	regexp.MustCompile(`Frau\s+([A-ZÄÖÜ][a-zäöüß]+\s+[A-ZÄÖÜ][a-zäöüß]+)`),
}

var genPhoneRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Telefon:\s*([\d\s+\-()/]+)`),
	regexp.MustCompile(`(?i)Tel\.?:\s*([\d\s+\-()/]+)`),
	regexp.MustCompile(`(?i)Handy:\s*([\d\s+\-()/]+)`),
	regexp.MustCompile(`(?i)Mobile:\s*([\d\s+\-()/]+)`),
	regexp.MustCompile(`\+49[\d\s\-()/]{10,}`),
	regexp.MustCompile(`0[\d\s\-()/]{9,}`),
}

var genDateRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Umzug.*?(\d{1,2}\.\d{1,2}\.\d{4})`),
	regexp.MustCompile(`(?i)Termin.*?(\d{1,2}\.\d{1,2}\.\d{4})`),
	regexp.MustCompile(`(?i)Datum.*?(\d{1,2}\.\d{1,2}\.\d{4})`),
	regexp.MustCompile(`(\d{1,2}\.\d{1,2}\.\d{4})`),
}

var genDistanceRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Entfernung.*?:\s*(.+?)\s*km`),
	regexp.MustCompile(`(?i)Distanz.*?:\s*(.+?)\s*km`),
	regexp.MustCompile(`(?i)Strecke.*?:\s*(.+?)\s*km`),
	regexp.MustCompile(`(?i)(\d+)\s*km`),
}

// genAddressRe matches German street addresses of the shape
// "Musterstraße 12, 33605 Bielefeld". The first two occurrences are
// assumed to be origin and destination.
var genAddressRe = regexp.MustCompile(`([A-ZÄÖÜ][a-zäöüß]+(?:straße|str\.|weg|platz|allee|gasse))\s+(\d+\w?),?\s*(\d{5})\s+([A-ZÄÖÜ][a-zäöüß]+)`)

func (p *genericParser) Name() string { return "generic" }

func (p *genericParser) Parse(msg *model.RawEmailMessage) *model.ParsedLead {
	content := textContent(msg)

	lead := &model.ParsedLead{
		Source:     model.LeadSourceUnknown,
		LeadSource: "unknown-email",
		Name:       "Unbekannt",
		Services:   []string{"Umzug"},
	}

	for _, re := range genNameRes {
		if name := matchLine(re, content); name != "" {
			lead.Name = name
			break
		}
	}
	lead.FirstName, lead.LastName = splitName(lead.Name)

	if m := emailAddrRe.FindString(content); m != "" {
		lead.Email = m
	} else if msg.From != "" {
		if m := fromHeaderRe.FindStringSubmatch(msg.From); m != nil {
			lead.Email = m[1]
		}
	}

	for _, re := range genPhoneRes {
		m := re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if len(m) > 1 {
			lead.Phone = NormalizePhone(m[1])
		} else {
			lead.Phone = NormalizePhone(m[0])
		}
		break
	}

	addrs := genAddressRe.FindAllStringSubmatch(content, 2)
	if len(addrs) > 0 {
		lead.FromAddress = formatGenericAddress(addrs[0])
	}
	if len(addrs) > 1 {
		lead.ToAddress = formatGenericAddress(addrs[1])
	}

	for _, re := range genDateRes {
		if m := re.FindStringSubmatch(content); m != nil {
			lead.MoveDate = ParseGermanDate(m[1])
			break
		}
	}

	for _, re := range genDistanceRes {
		if m := re.FindStringSubmatch(content); m != nil {
			lead.DistanceKm = parseFloat(m[1])
			break
		}
	}

	lead.Notes = fmt.Sprintf(
		"E-Mail konnte nicht automatisch geparst werden.\n\nOriginal-Betreff: %s\n\nInhalt:\n%s",
		msg.Subject, excerpt(content, noteExcerptLen),
	)

	return lead
}

func formatGenericAddress(m []string) string {
	return fmt.Sprintf("%s %s, %s %s", m[1], m[2], m[3], m[4])
}

// excerpt truncates s to at most n runes, marking the cut.
func excerpt(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
