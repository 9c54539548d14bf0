package importer

import (
	"fmt"
	"strings"

	"github.com/relocato/leadimport/internal/model"
	"github.com/relocato/leadimport/internal/parser"
)

// ValidationError rejects a lead with a persisted failure reason.
type ValidationError struct {
	Reason model.FailureReason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lead rejected: %s", e.Reason)
}

// validateLead applies the acceptance rules. The name check runs
// first; a lead missing both name and contact info is recorded as
// NoName, not NoContactInfo.
func validateLead(lead *model.ParsedLead) *ValidationError {
	if !lead.HasName() {
		return &ValidationError{Reason: model.FailureNoName}
	}
	if !lead.HasContact() {
		return &ValidationError{Reason: model.FailureNoContactInfo}
	}
	return nil
}

// applyLenient fills gaps in a lead using the stored From header so a
// retry can accept records the strict rules rejected. It returns an
// error only when no usable identity can be derived at all.
func applyLenient(lead *model.ParsedLead, fromHeader string) error {
	if !lead.HasContact() {
		if addr := parser.ExtractEmailAddress(fromHeader); addr != "" {
			lead.Email = addr
		}
	}
	if !lead.HasName() {
		if local := localPart(lead.Email); local != "" {
			lead.Name = local
			lead.FirstName, lead.LastName = parser.SplitName(local)
		}
	}

	if !lead.HasName() && !lead.HasContact() {
		return fmt.Errorf("no name or contact info derivable")
	}
	return nil
}

func localPart(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return ""
	}
	return email[:at]
}
