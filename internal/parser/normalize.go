package parser

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/relocato/leadimport/internal/model"
)

var (
	nonPhoneRe      = regexp.MustCompile(`[^0-9+]`)
	germanDateRe    = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	firstNumberRe   = regexp.MustCompile(`\d+`)
	emailAddrRe     = regexp.MustCompile(`[\w.\-]+@[\w.\-]+\.\w+`)
	fromHeaderRe    = regexp.MustCompile(`<?([\w.\-]+@[\w.\-]+\.\w+)>?`)
	markdownLinkRe  = regexp.MustCompile(`\s*\[[^\]]*\]\([^)]*\)`)
	locationNoteRe  = regexp.MustCompile(`\s*\(Standort auf[^)]*\)`)
	mapsNoteRe      = regexp.MustCompile(`\s*\(Google Maps[^)]*\)`)
	bareURLRe       = regexp.MustCompile(`https?://\S+`)
	wwwURLRe        = regexp.MustCompile(`www\.\S+`)
	mapsGoogleRe    = regexp.MustCompile(`maps\.google\.\S+`)
	googleMapsURLRe = regexp.MustCompile(`google\.com/maps\S+`)
	emptyParenRe    = regexp.MustCompile(`\s*\(\s*\)`)
	emptyBracketRe  = regexp.MustCompile(`\s*\[\s*\]`)
	htmlBreakRe     = regexp.MustCompile(`(?i)<br\s*/?>|</(?:p|div|tr|li|h[1-6])>`)
	htmlTagRe       = regexp.MustCompile(`<[^>]*>`)
)

// floorNames maps lexical floor descriptions to their numeric value.
// Attic uses the 99 sentinel.
var floorNames = map[string]int{
	"erdgeschoss":  0,
	"eg":           0,
	"parterre":     0,
	"souterrain":   -1,
	"keller":       -1,
	"dachgeschoss": 99,
	"dg":           99,
}

// NormalizePhone canonicalizes a phone number to E.164 with a German
// default country code. The function is idempotent:
// NormalizePhone(NormalizePhone(x)) == NormalizePhone(x).
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}

	normalized := nonPhoneRe.ReplaceAllString(phone, "")

	switch {
	case strings.HasPrefix(normalized, "+"):
		return normalized
	case strings.HasPrefix(normalized, "0"):
		return "+49" + normalized[1:]
	case strings.HasPrefix(normalized, "49"):
		return "+" + normalized
	case len(normalized) >= 10:
		return "+49" + normalized
	}

	return normalized
}

// ParseFloor maps a floor description to its numeric value: known
// lexical names first, then the first embedded integer, else 0.
func ParseFloor(s string) int {
	if s == "" {
		return 0
	}

	if v, ok := floorNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}

	if m := firstNumberRe.FindString(s); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			return n
		}
	}

	return 0
}

// ParseGermanDate parses a DD.MM.YYYY date. Unparsable or absent
// input yields nil.
func ParseGermanDate(s string) *time.Time {
	m := germanDateRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject rolled-over dates like 32.01. or 15.13.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return nil
	}
	return &t
}

// CleanAddress strips link markup, map-service fragments, and bare
// URLs from address-adjacent text, then collapses whitespace.
func CleanAddress(s string) string {
	if s == "" {
		return s
	}

	s = markdownLinkRe.ReplaceAllString(s, "")
	s = locationNoteRe.ReplaceAllString(s, "")
	s = mapsNoteRe.ReplaceAllString(s, "")
	s = bareURLRe.ReplaceAllString(s, "")
	s = wwwURLRe.ReplaceAllString(s, "")
	s = mapsGoogleRe.ReplaceAllString(s, "")
	s = googleMapsURLRe.ReplaceAllString(s, "")
	s = emptyParenRe.ReplaceAllString(s, "")
	s = emptyBracketRe.ReplaceAllString(s, "")

	return strings.Join(strings.Fields(s), " ")
}

// textContent returns the plain-text body of a message. When only an
// HTML body exists, block boundaries become newlines and the remaining
// tags are stripped so the line-oriented patterns keep working.
func textContent(msg *model.RawEmailMessage) string {
	if msg.TextBody != "" {
		return msg.TextBody
	}
	s := htmlBreakRe.ReplaceAllString(msg.HTMLBody, "\n")
	s = htmlTagRe.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

// splitName divides a full name into first and last parts. The last
// name takes every word after the first.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// matchLine extracts the first capture of re applied to content,
// trimmed. Returns "" when the pattern does not match.
func matchLine(re *regexp.Regexp, content string) string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseFloat parses a decimal that may use a German comma separator.
func parseFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseInt extracts a leading integer, ignoring trailing units.
func parseInt(s string) int {
	m := firstNumberRe.FindString(s)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

// ExtractEmailAddress pulls the first address out of a header value
// such as "Max Mustermann <max@example.com>".
func ExtractEmailAddress(header string) string {
	m := fromHeaderRe.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	return m[1]
}

// SplitName divides a display name into first and last parts.
func SplitName(name string) (first, last string) {
	return splitName(name)
}
