package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/relocato/leadimport/internal/model"
)

// csv column headers recognized by ReadCSVLeads, lowercased.
var csvColumns = map[string]string{
	"subject":      "subject",
	"betreff":      "subject",
	"start date":   "date",
	"datum":        "date",
	"location":     "location",
	"ort":          "location",
	"description":  "description",
	"beschreibung": "description",
}

// ReadCSVLeads converts a calendar CSV export into messages for the
// import pipeline. The first row must name the columns; unrecognized
// columns are ignored.
func ReadCSVLeads(r io.Reader) ([]model.RawEmailMessage, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	fields := make(map[string]int)
	for i, col := range header {
		if name, ok := csvColumns[strings.ToLower(strings.TrimSpace(col))]; ok {
			fields[name] = i
		}
	}
	if _, ok := fields["subject"]; !ok {
		return nil, fmt.Errorf("csv header has no subject column")
	}

	var msgs []model.RawEmailMessage
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}

		get := func(name string) string {
			i, ok := fields[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		subject := get("subject")
		if subject == "" {
			continue
		}

		msg := model.RawEmailMessage{
			MessageID: fmt.Sprintf("csv-%d-%s", line, subject),
			Subject:   subject,
			TextBody:  buildEntryBody(get("description"), get("location"), get("date")),
		}
		if t := parseEntryDate(get("date")); t != nil {
			msg.Date = *t
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// buildEntryBody shapes a calendar entry so the generic parser can
// pick out contact and address lines.
func buildEntryBody(description, location, date string) string {
	var b strings.Builder
	b.WriteString(description)
	if location != "" {
		b.WriteString("\nOrt: ")
		b.WriteString(location)
	}
	if date != "" {
		b.WriteString("\nUmzugstermin: ")
		b.WriteString(date)
	}
	return b.String()
}

var entryDateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
	"01/02/2006",
}

func parseEntryDate(s string) *time.Time {
	for _, layout := range entryDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
