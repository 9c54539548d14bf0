package importer

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relocato/leadimport/internal/model"
)

func TestValidateLead(t *testing.T) {
	tests := []struct {
		name string
		lead model.ParsedLead
		want model.FailureReason
	}{
		{
			name: "complete",
			lead: model.ParsedLead{Name: "Max Mustermann", Email: "max@example.com"},
		},
		{
			name: "phone is enough contact",
			lead: model.ParsedLead{Name: "Max Mustermann", Phone: "+491711234567"},
		},
		{
			name: "missing name",
			lead: model.ParsedLead{Email: "max@example.com"},
			want: model.FailureNoName,
		},
		{
			name: "placeholder name counts as missing",
			lead: model.ParsedLead{Name: "Unbekannt", Email: "max@example.com"},
			want: model.FailureNoName,
		},
		{
			name: "missing contact",
			lead: model.ParsedLead{Name: "Max Mustermann"},
			want: model.FailureNoContactInfo,
		},
		{
			// The name check runs first so a fully empty lead is
			// recorded as NoName.
			name: "missing everything",
			lead: model.ParsedLead{},
			want: model.FailureNoName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLead(&tt.lead)
			if tt.want == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Reason)
		})
	}
}

func TestApplyLenient(t *testing.T) {
	t.Run("derives email and name from sender", func(t *testing.T) {
		lead := model.ParsedLead{Name: "Unbekannt"}
		require.NoError(t, applyLenient(&lead, "Webformular <anna.schmidt@example.com>"))

		assert.Equal(t, "anna.schmidt@example.com", lead.Email)
		assert.Equal(t, "anna.schmidt", lead.Name)
		assert.Equal(t, "anna.schmidt", lead.FirstName)
	})

	t.Run("keeps parsed fields over derived ones", func(t *testing.T) {
		lead := model.ParsedLead{Name: "Max Mustermann", Phone: "+491711234567"}
		require.NoError(t, applyLenient(&lead, "noreply@portal.example"))

		assert.Empty(t, lead.Email, "contact already present, nothing is derived")
		assert.Equal(t, "Max Mustermann", lead.Name)
	})

	t.Run("fails when sender has no address", func(t *testing.T) {
		lead := model.ParsedLead{}
		err := applyLenient(&lead, "Kontaktformular")
		require.Error(t, err)
	})
}

func TestWithinBusinessHours(t *testing.T) {
	cfg := &model.AppConfig{
		Import: model.ImportConfig{BusinessHoursStart: 8, BusinessHoursEnd: 18},
	}
	im := New(cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	day := func(hour int) time.Time {
		return time.Date(2025, 3, 10, hour, 30, 0, 0, time.Local)
	}

	assert.False(t, im.withinBusinessHours(day(7)))
	assert.True(t, im.withinBusinessHours(day(8)), "window start is inclusive")
	assert.True(t, im.withinBusinessHours(day(17)))
	assert.False(t, im.withinBusinessHours(day(18)), "window end is exclusive")
	assert.False(t, im.withinBusinessHours(day(23)))
}
