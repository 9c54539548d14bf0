package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relocato/leadimport/internal/model"
)

func TestRouterDetect(t *testing.T) {
	router := NewRouter()

	cases := []struct {
		name string
		msg  model.RawEmailMessage
		want string
	}{
		{
			name: "immoscout by sender",
			msg:  model.RawEmailMessage{From: "ImmoScout24 <no-reply@immobilienscout24.de>"},
			want: "immoscout24",
		},
		{
			name: "immoscout by content fingerprint",
			msg: model.RawEmailMessage{
				From:     "weiterleitung@relocato.example",
				TextBody: "Anfrage #77 vom 01.01.2025 um 10:00\nAuszug\nEinzug\n",
			},
			want: "immoscout24",
		},
		{
			name: "umzug365 by sender",
			msg:  model.RawEmailMessage{From: "anfragen@umzug365.de"},
			want: "umzug365",
		},
		{
			name: "umzug365 by content token",
			msg: model.RawEmailMessage{
				From:     "weiterleitung@relocato.example",
				TextBody: "Diese Preisanfrage wurde über umzug365.de gestellt.",
			},
			want: "umzug365",
		},
		{
			name: "unknown sender falls back to generic",
			msg:  model.RawEmailMessage{From: "info@anderes-portal.example", TextBody: "Hallo"},
			want: "generic",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, router.Detect(&tc.msg).Name())
		})
	}
}

func TestRouterFirstMatchWins(t *testing.T) {
	router := NewRouter()

	// A message carrying both fingerprints routes to the first rule.
	msg := model.RawEmailMessage{
		From:     "no-reply@immobilienscout24.de",
		TextBody: "Diese Preisanfrage wurde über umzug365.de gestellt.",
	}
	assert.Equal(t, "immoscout24", router.Detect(&msg).Name())
}

func TestRouterParseNeverNil(t *testing.T) {
	router := NewRouter()

	lead := router.Parse(&model.RawEmailMessage{})
	assert.NotNil(t, lead)
	assert.Equal(t, model.LeadSourceUnknown, lead.Source)
}
