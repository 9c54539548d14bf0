package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"leading zero", "0171 1234567", "+491711234567"},
		{"already international", "+49 171 1234567", "+491711234567"},
		{"country code without plus", "491711234567", "+491711234567"},
		{"bare long number", "1711234567", "+491711234567"},
		{"short number kept", "12345", "12345"},
		{"punctuation stripped", "(0521) 123-456", "+49521123456"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizePhone(tc.in))
		})
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	inputs := []string{"0171 1234567", "+49 171 1234567", "49521987654", "0521/123456"}
	for _, in := range inputs {
		once := NormalizePhone(in)
		assert.Equal(t, once, NormalizePhone(once), "input %q", in)
	}
}

func TestParseFloor(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"Erdgeschoss", 0},
		{"EG", 0},
		{"Parterre", 0},
		{"Souterrain", -1},
		{"Keller", -1},
		{"Dachgeschoss", 99},
		{"DG", 99},
		{"3. Etage", 3},
		{"2", 2},
		{"unbekannt", 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseFloor(tc.in), "input %q", tc.in)
	}
}

func TestParseGermanDate(t *testing.T) {
	got := ParseGermanDate("15.03.2025")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), *got)

	assert.Nil(t, ParseGermanDate("32.01.2025"), "day out of range must not roll over")
	assert.Nil(t, ParseGermanDate("15.13.2025"), "month out of range must not roll over")
	assert.Nil(t, ParseGermanDate("kein Datum"))
	assert.Nil(t, ParseGermanDate(""))
}

func TestCleanAddress(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Musterstraße 12", "Musterstraße 12"},
		{"markdown link", "Musterstraße 12 [Karte](https://maps.google.com/?q=x)", "Musterstraße 12"},
		{"location note", "Hauptstr. 5 (Standort auf der Karte)", "Hauptstr. 5"},
		{"bare url", "Zielweg 7 https://maps.google.com/abc", "Zielweg 7"},
		{"whitespace collapsed", "  Alte   Gasse \n 3 ", "Alte Gasse 3"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CleanAddress(tc.in))
		})
	}
}

func TestExtractEmailAddress(t *testing.T) {
	assert.Equal(t, "max@example.com", ExtractEmailAddress("Max Mustermann <max@example.com>"))
	assert.Equal(t, "max@example.com", ExtractEmailAddress("max@example.com"))
	assert.Equal(t, "", ExtractEmailAddress("kein absender"))
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("Max Mustermann")
	assert.Equal(t, "Max", first)
	assert.Equal(t, "Mustermann", last)

	first, last = SplitName("Maria von und zu Guttenberg")
	assert.Equal(t, "Maria", first)
	assert.Equal(t, "von und zu Guttenberg", last)

	first, last = SplitName("lead")
	assert.Equal(t, "lead", first)
	assert.Equal(t, "", last)
}
