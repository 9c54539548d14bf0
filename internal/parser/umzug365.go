package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relocato/leadimport/internal/model"
)

// umzug365Parser handles the Umzug365 referral format: a
// "Voraussichtlicher Umzugstag:" header with "Von:" / "Nach:" address
// blocks and a "Details:" trailer.
type umzug365Parser struct{}

var (
	u365MoveDayRe    = regexp.MustCompile(`Voraussichtlicher Umzugstag:\s*([^\n]+)`)
	u365RoomsRe      = regexp.MustCompile(`Zimmer:\s*(\d+)`)
	u365NameRe       = regexp.MustCompile(`Name:\s*([^\n]+)`)
	u365PhoneRe      = regexp.MustCompile(`Telefon:\s*([\d\s+\-()]+)`)
	u365EmailRe      = regexp.MustCompile(`E-Mail:\s*([\w.\-]+@[\w.\-]+)`)
	u365FromBlockRe  = regexp.MustCompile(`(?s)Von:(.*?)(?:Nach:|$)`)
	u365ToBlockRe    = regexp.MustCompile(`(?s)Nach:(.*?)(?:Details:|$)`)
	u365DetailsRe    = regexp.MustCompile(`(?s)Details:(.*?)(?:Diese Preisanfrage|$)`)
	u365StreetRe     = regexp.MustCompile(`Straße/\s*Nr\.:\s*([^\n]+)`)
	u365PostalRe     = regexp.MustCompile(`Postleitzahl:\s*(\d{5})`)
	u365CityRe       = regexp.MustCompile(`Ort:\s*([^\n]+)`)
	u365PropertyRe   = regexp.MustCompile(`Immobilie:\s*([^\n]+)`)
	u365FloorRe      = regexp.MustCompile(`Etage:\s*([^\n]+)`)
	u365ElevatorRe   = regexp.MustCompile(`Aufzug vorhanden:\s*(Ja|Nein)`)
	u365AreaRe       = regexp.MustCompile(`Fläche\s*\(m²\):\s*(\d+)`)
	u365CategoryRe   = regexp.MustCompile(`Kategorie:\s*([^\n]+)`)
	u365RequestIDRe  = regexp.MustCompile(`Anfrage ID:\s*([^\n]+)`)
	u365RegionRe     = regexp.MustCompile(`Region:\s*([^\n]+)`)
	u365DistanceRe   = regexp.MustCompile(`(?i)Entfernung.*?:\s*(.+?)\s*km`)
	u365CityThreeRe  = regexp.MustCompile(`^(\d{5})\s+([^\d]+?)\s+(.+)$`)
	u365StreetCityRe = regexp.MustCompile(`^(.+?),\s*(\d{5})\s+(.+)$`)
	u365FromPostalRe = regexp.MustCompile(`, (\d{5}) ([^,]+)$`)
)

func (p *umzug365Parser) Name() string { return "umzug365" }

func (p *umzug365Parser) Parse(msg *model.RawEmailMessage) *model.ParsedLead {
	content := textContent(msg)

	lead := &model.ParsedLead{
		Source:     model.LeadSourceUmzug365,
		LeadSource: "umzug365-email",
		Name:       "Unbekannt",
		Services:   []string{"Umzug"},
	}

	if d := matchLine(u365MoveDayRe, content); d != "" {
		lead.MoveDate = ParseGermanDate(d)
	}

	if name := matchLine(u365NameRe, content); name != "" {
		lead.Name = name
	}
	lead.FirstName, lead.LastName = splitName(lead.Name)

	if phone := matchLine(u365PhoneRe, content); phone != "" {
		// The portal appends a "Geprüft" verification marker.
		phone = strings.TrimSpace(strings.ReplaceAll(phone, "Geprüft", ""))
		lead.Phone = NormalizePhone(phone)
	}
	lead.Email = matchLine(u365EmailRe, content)

	rooms := parseInt(matchLine(u365RoomsRe, content))

	if m := u365FromBlockRe.FindStringSubmatch(content); m != nil {
		p.parseFromBlock(m[1], rooms, lead)
	}
	if m := u365ToBlockRe.FindStringSubmatch(content); m != nil {
		p.parseToBlock(m[1], lead)
	}
	if m := u365DetailsRe.FindStringSubmatch(content); m != nil {
		p.parseDetails(m[1], lead)
	}

	if d := matchLine(u365DistanceRe, content); d != "" {
		lead.DistanceKm = parseFloat(d)
	}

	return lead
}

func (p *umzug365Parser) parseFromBlock(block string, rooms int, lead *model.ParsedLead) {
	if street := matchLine(u365StreetRe, block); street != "" {
		street = CleanAddress(street)
		postal := matchLine(u365PostalRe, block)
		city := CleanAddress(matchLine(u365CityRe, block))
		if postal != "" && city != "" {
			lead.FromAddress = fmt.Sprintf("%s, %s %s", street, postal, city)
		} else {
			lead.FromAddress = street
		}
	}

	lead.Apartment = model.Apartment{
		Type:        matchLine(u365PropertyRe, block),
		Floor:       ParseFloor(matchLine(u365FloorRe, block)),
		Rooms:       float64(rooms),
		Area:        parseInt(matchLine(u365AreaRe, block)),
		HasElevator: matchLine(u365ElevatorRe, block) == "Ja",
	}
}

// parseToBlock handles the destination, which the portal emits in
// several shapes: a separate street field, or one combined Ort field
// holding "PLZ Ort Straße", "Straße, PLZ Ort", or only a street.
func (p *umzug365Parser) parseToBlock(block string, lead *model.ParsedLead) {
	if street := matchLine(u365StreetRe, block); street != "" {
		street = CleanAddress(street)
		postal := matchLine(u365PostalRe, block)
		city := CleanAddress(matchLine(u365CityRe, block))
		if postal != "" && city != "" {
			lead.ToAddress = fmt.Sprintf("%s, %s %s", street, postal, city)
		} else {
			lead.ToAddress = street
		}
		return
	}

	combined := CleanAddress(matchLine(u365CityRe, block))
	if combined == "" {
		return
	}

	if m := u365CityThreeRe.FindStringSubmatch(combined); m != nil {
		lead.ToAddress = fmt.Sprintf("%s, %s %s", m[3], m[1], strings.TrimSpace(m[2]))
		return
	}
	if u365StreetCityRe.MatchString(combined) {
		lead.ToAddress = combined
		return
	}

	// Only a street: borrow postal code and city from the origin.
	if !strings.Contains(combined, ",") && lead.FromAddress != "" {
		if m := u365FromPostalRe.FindStringSubmatch(lead.FromAddress); m != nil {
			lead.ToAddress = fmt.Sprintf("%s, %s %s", combined, m[1], m[2])
			return
		}
	}

	lead.ToAddress = combined
}

func (p *umzug365Parser) parseDetails(block string, lead *model.ParsedLead) {
	lead.RequestID = matchLine(u365RequestIDRe, block)

	category := matchLine(u365CategoryRe, block)
	region := matchLine(u365RegionRe, block)
	if category != "" {
		lead.Notes = fmt.Sprintf("Kategorie: %s\nRegion: %s", category, region)
	}
}
