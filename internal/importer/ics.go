package importer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/relocato/leadimport/internal/model"
)

// ReadICSLeads converts the VEVENTs of an iCalendar export into
// messages for the import pipeline. Folded lines are unfolded first;
// properties other than SUMMARY, DTSTART, LOCATION, and DESCRIPTION
// are ignored.
func ReadICSLeads(r io.Reader) ([]model.RawEmailMessage, error) {
	lines, err := unfoldICS(r)
	if err != nil {
		return nil, err
	}

	var (
		msgs    []model.RawEmailMessage
		current map[string]string
	)

	for _, line := range lines {
		switch {
		case line == "BEGIN:VEVENT":
			current = make(map[string]string)
		case line == "END:VEVENT":
			if current != nil {
				if msg, ok := eventToMessage(current, len(msgs)); ok {
					msgs = append(msgs, msg)
				}
			}
			current = nil
		case current != nil:
			name, value, ok := splitICSProperty(line)
			if ok {
				current[name] = value
			}
		}
	}

	return msgs, nil
}

// unfoldICS reads the stream and joins folded continuation lines,
// which start with a space or tab.
func unfoldICS(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ics: %w", err)
	}
	return lines, nil
}

// splitICSProperty breaks "NAME;PARAM=X:value" into name and value.
func splitICSProperty(line string) (name, value string, ok bool) {
	colon := strings.Index(line, ":")
	if colon < 0 {
		return "", "", false
	}
	name = line[:colon]
	value = line[colon+1:]
	if semi := strings.Index(name, ";"); semi >= 0 {
		name = name[:semi]
	}
	return strings.ToUpper(name), unescapeICS(value), true
}

func unescapeICS(s string) string {
	replacer := strings.NewReplacer(
		`\n`, "\n",
		`\N`, "\n",
		`\,`, ",",
		`\;`, ";",
		`\\`, `\`,
	)
	return replacer.Replace(s)
}

func eventToMessage(props map[string]string, index int) (model.RawEmailMessage, bool) {
	summary := props["SUMMARY"]
	if summary == "" {
		return model.RawEmailMessage{}, false
	}

	msg := model.RawEmailMessage{
		MessageID: fmt.Sprintf("ics-%d-%s", index+1, summary),
		Subject:   summary,
		TextBody:  buildEntryBody(props["DESCRIPTION"], props["LOCATION"], ""),
	}
	if t := parseICSDate(props["DTSTART"]); t != nil {
		msg.Date = *t
	}
	return msg, true
}

var icsDateLayouts = []string{
	"20060102T150405Z",
	"20060102T150405",
	"20060102",
}

func parseICSDate(s string) *time.Time {
	for _, layout := range icsDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
