package parser

import (
	"fmt"
	"regexp"

	"github.com/relocato/leadimport/internal/model"
)

// immoScoutParser handles the ImmoScout24 referral format: an
// "Anfrage #" header, labeled contact lines, and "Auszug" / "Einzug"
// sub-blocks for the two ends of the move.
type immoScoutParser struct{}

var (
	isRequestRe    = regexp.MustCompile(`Anfrage #(\d+)\s+vom\s+(\d{2}\.\d{2}\.\d{4})\s+um\s+(\d{2}:\d{2})`)
	isNameRe       = regexp.MustCompile(`Name:\s*([^\n]+)`)
	isPhoneRe      = regexp.MustCompile(`Telefon:\s*([^\n]+)`)
	isEmailRe      = regexp.MustCompile(`E-Mail:\s*([\w.\-]+@[\w.\-]+)`)
	isBillingRe    = regexp.MustCompile(`Abrechnung über:\s*([^\n]+)`)
	isMoveOutRe    = regexp.MustCompile(`(?s)(Auszug.*?)(?:Einzug|Details zur Anfrage|Bei Fragen)`)
	isMoveInRe     = regexp.MustCompile(`(?s)(Einzug.*?)(?:Details zur Anfrage|Bei Fragen|Immobilien Scout GmbH)`)
	isDateRe       = regexp.MustCompile(`am:\s*(\d{2}\.\d{2}\.\d{4})`)
	isStreetRe     = regexp.MustCompile(`Straße:\s*([^\n]+)`)
	isPostalCityRe = regexp.MustCompile(`PLZ / Ort:\s*([^\n]+)`)
	isBuildingRe   = regexp.MustCompile(`Gebäude:\s*([^\n]+)`)
	isFloorRe      = regexp.MustCompile(`Etage:\s*([^\n]+)`)
	isRoomsRe      = regexp.MustCompile(`Zimmer:\s*([^\n]+)`)
	isAreaRe       = regexp.MustCompile(`Fläche:\s*([^\n]+)`)
	isElevatorRe   = regexp.MustCompile(`Aufzug im Haus:\s*(Ja|Nein)`)
	isDistanceRe   = regexp.MustCompile(`Entfernung vom Auszugsort zum Einzugsort:\s*(.+?)\s*km`)
)

// moveOutServiceFlags maps "…: Ja" flags in the Auszug block to the
// named services they book.
var moveOutServiceFlags = []struct {
	re      *regexp.Regexp
	service string
}{
	{regexp.MustCompile(`Einpacken:\s*Ja`), "Einpackservice"},
	{regexp.MustCompile(`Möbel Abbau:\s*Ja`), "Möbelmontage"},
	{regexp.MustCompile(`Küche Abbau:\s*Ja`), "Küchenmontage"},
	{regexp.MustCompile(`Halteverbot beantragen:\s*Ja`), "Halteverbot"},
	{regexp.MustCompile(`Keller/ Dachboden:\s*Ja`), "Keller/Dachboden"},
}

var moveInServiceFlags = []struct {
	re       *regexp.Regexp
	service  string
	excludes string // skip when this service was already booked
}{
	{regexp.MustCompile(`Auspacken:\s*Ja`), "Auspackservice", "Einpackservice"},
	{regexp.MustCompile(`Möbel Aufbau:\s*Ja`), "Möbelmontage", "Möbelmontage"},
	{regexp.MustCompile(`Küche Aufbau:\s*Ja`), "Küchenmontage", "Küchenmontage"},
	{regexp.MustCompile(`Möbel einlagern:\s*Ja`), "Einlagerung", ""},
}

func (p *immoScoutParser) Name() string { return "immoscout24" }

func (p *immoScoutParser) Parse(msg *model.RawEmailMessage) *model.ParsedLead {
	content := textContent(msg)

	lead := &model.ParsedLead{
		Source:     model.LeadSourceImmoScout24,
		LeadSource: "immoscout24-email",
		Name:       "Unbekannt",
	}

	if m := isRequestRe.FindStringSubmatch(content); m != nil {
		lead.RequestID = m[1]
	}

	if name := matchLine(isNameRe, content); name != "" {
		lead.Name = name
	}
	lead.FirstName, lead.LastName = splitName(lead.Name)

	if phone := matchLine(isPhoneRe, content); phone != "" {
		lead.Phone = NormalizePhone(phone)
	}
	lead.Email = matchLine(isEmailRe, content)

	if m := isMoveOutRe.FindStringSubmatch(content); m != nil {
		p.parseMoveOut(m[1], lead)
	}
	if m := isMoveInRe.FindStringSubmatch(content); m != nil {
		p.parseMoveIn(m[1], lead)
	}

	if d := matchLine(isDistanceRe, content); d != "" {
		lead.DistanceKm = parseFloat(d)
	}

	if billing := matchLine(isBillingRe, content); billing != "" {
		lead.Notes = fmt.Sprintf("Abrechnung über: %s", billing)
	}

	if len(lead.Services) == 0 {
		lead.Services = []string{"Umzug"}
	}

	return lead
}

// parseMoveOut fills the origin address, move date, apartment details,
// and booked services from the Auszug block.
func (p *immoScoutParser) parseMoveOut(block string, lead *model.ParsedLead) {
	if d := matchLine(isDateRe, block); d != "" {
		lead.MoveDate = ParseGermanDate(d)
	}

	street := matchLine(isStreetRe, block)
	postalCity := matchLine(isPostalCityRe, block)
	if street != "" && postalCity != "" {
		lead.FromAddress = CleanAddress(street) + ", " + CleanAddress(postalCity)
	}

	lead.Apartment = model.Apartment{
		Type:        matchLine(isBuildingRe, block),
		Floor:       ParseFloor(matchLine(isFloorRe, block)),
		Rooms:       parseFloat(matchLine(isRoomsRe, block)),
		Area:        parseInt(matchLine(isAreaRe, block)),
		HasElevator: matchLine(isElevatorRe, block) == "Ja",
	}

	for _, f := range moveOutServiceFlags {
		if f.re.MatchString(block) {
			lead.Services = append(lead.Services, f.service)
		}
	}
}

// parseMoveIn fills the destination address and the services only the
// Einzug block announces.
func (p *immoScoutParser) parseMoveIn(block string, lead *model.ParsedLead) {
	street := matchLine(isStreetRe, block)
	postalCity := matchLine(isPostalCityRe, block)
	if street != "" && postalCity != "" {
		lead.ToAddress = CleanAddress(street) + ", " + CleanAddress(postalCity)
	}

	for _, f := range moveInServiceFlags {
		if !f.re.MatchString(block) {
			continue
		}
		if f.excludes != "" && containsService(lead.Services, f.excludes) {
			continue
		}
		lead.Services = append(lead.Services, f.service)
	}
}

func containsService(services []string, name string) bool {
	for _, s := range services {
		if s == name {
			return true
		}
	}
	return false
}
