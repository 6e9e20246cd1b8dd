package ddtpdf

import (
	"fmt"
	"strings"

	"ddt-backend/internal/models"
	"ddt-backend/internal/textcase"
)

// TextBlock: party data printed inside a box. Lines start 40pt below the top
// of a box Height tall, anchored to the bottom of the box it is drawn in.
type TextBlock struct {
	Lines  []string
	Height float64
}

func (b TextBlock) firstBaseline(box Rect) float64 {
	return box.Bottom() - pt(5) - b.Height + pt(40)
}

const blockLineStep = 12 // pt

type address struct {
	Name, Street, City, PostalCode, Province, VAT, TaxCode string
}

// cityLine is "City (cap) PROV", each part when present.
func cityLine(city, postalCode, province string) string {
	s := textcase.Apply(textcase.Name, city)
	if postalCode != "" {
		s += fmt.Sprintf(" (%s)", postalCode)
	}
	if province != "" {
		s += " " + textcase.Apply(textcase.Code, province)
	}
	return s
}

func entityBlock(a address) TextBlock {
	var lines []string
	if a.Name != "" {
		lines = append(lines, textcase.Apply(textcase.Name, a.Name))
	}
	if a.Street != "" {
		lines = append(lines, textcase.Apply(textcase.Name, a.Street))
	}
	if a.City != "" {
		lines = append(lines, cityLine(a.City, a.PostalCode, a.Province))
	}
	if a.VAT != "" {
		lines = append(lines, "P.IVA: "+textcase.Apply(textcase.Code, a.VAT))
	}
	if a.TaxCode != "" {
		lines = append(lines, "CF: "+textcase.Apply(textcase.Code, a.TaxCode))
	}
	return TextBlock{Lines: lines, Height: partyBoxHeight}
}

func SenderBlock(s *models.Sender) TextBlock {
	if s == nil {
		return TextBlock{Height: partyBoxHeight}
	}
	return entityBlock(address{Name: s.Name, VAT: s.VATNumber, TaxCode: s.TaxCode})
}

func RecipientBlock(r *models.Recipient) TextBlock {
	if r == nil {
		return TextBlock{Height: partyBoxHeight}
	}
	return entityBlock(address{
		Name:       r.Name,
		Street:     r.Address,
		City:       r.City,
		PostalCode: r.PostalCode,
		Province:   r.Province,
		VAT:        r.VATNumber,
		TaxCode:    r.TaxCode,
	})
}

// SiteBlock prints the sender company with the address and stall code of one of its sites.
func SiteBlock(site *models.SenderSite, sender *models.Sender) TextBlock {
	var lines []string
	if sender != nil && sender.Name != "" {
		lines = append(lines, textcase.Apply(textcase.Name, sender.Name))
	}
	if site.Address != "" {
		lines = append(lines, textcase.Apply(textcase.Name, site.Address))
	}
	lines = append(lines, cityLine(site.City, site.PostalCode, site.Province))
	if sender != nil && sender.VATNumber != "" {
		lines = append(lines, "P.IVA: "+textcase.Apply(textcase.Code, sender.VATNumber))
	}
	if site.StallCode != "" {
		lines = append(lines, "Codice Stalla: "+textcase.Apply(textcase.Code, site.StallCode))
	}
	return TextBlock{Lines: lines, Height: partyBoxHeight}
}

// DestinationBlock prints the recipient with the stall code of the delivery location.
func DestinationBlock(d *models.Destination, r *models.Recipient) TextBlock {
	var lines []string
	if r != nil {
		if r.Name != "" {
			lines = append(lines, textcase.Apply(textcase.Name, r.Name))
		}
		if r.Address != "" {
			lines = append(lines, textcase.Apply(textcase.Name, r.Address))
		}
		if city := cityLine(r.City, r.PostalCode, r.Province); city != "" {
			lines = append(lines, city)
		}
		if r.VATNumber != "" {
			lines = append(lines, "P.IVA: "+textcase.Apply(textcase.Code, r.VATNumber))
		}
	}
	if d.StallCode != "" {
		lines = append(lines, "Codice Stalla: "+textcase.Apply(textcase.Code, d.StallCode))
	}
	return TextBlock{Lines: lines, Height: partyBoxHeight}
}

// CarrierBlock prints the carrier with driver and up to two plates on one line.
func CarrierBlock(c *models.Carrier, plate, secondPlate *models.VehiclePlate, driver *models.Driver) TextBlock {
	var lines []string
	if c.Name != "" {
		lines = append(lines, textcase.Apply(textcase.Name, c.Name))
	}
	if c.Address != "" {
		lines = append(lines, textcase.Apply(textcase.Name, c.Address))
	}
	if c.City != "" {
		lines = append(lines, cityLine(c.City, c.PostalCode, c.Province))
	}
	if c.VATNumber != "" {
		lines = append(lines, "P.IVA: "+textcase.Apply(textcase.Code, c.VATNumber))
	}
	if c.License != "" {
		lines = append(lines, "Licenza: "+textcase.Apply(textcase.Code, c.License))
	}
	if driver != nil {
		name := textcase.Apply(textcase.Name, driver.FirstName) + " " + textcase.Apply(textcase.Name, driver.LastName)
		lines = append(lines, "Autista: "+name)
		if driver.LicenseNumber != "" {
			lines = append(lines, "Patente: "+textcase.Apply(textcase.Code, driver.LicenseNumber))
		}
	}

	var plates []string
	for _, p := range []*models.VehiclePlate{plate, secondPlate} {
		if p != nil && p.Plate != "" {
			plates = append(plates, textcase.Apply(textcase.Code, p.Plate))
		}
	}
	if len(plates) > 0 {
		lines = append(lines, "Targhe: "+strings.Join(plates, ", "))
	}
	return TextBlock{Lines: lines, Height: footerPartyHeight}
}

const stallMarker = "Codice Stalla:"

// PlaceLines turns the destination-place text into printable lines: split on
// newlines, trimmed, deduplicated, cased. A single line holding a stall code
// or a street is split on those markers.
func PlaceLines(text string) []string {
	var lines []string
	seen := make(map[string]bool)
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		lines = append(lines, l)
	}

	if len(lines) == 1 && (strings.Contains(lines[0], stallMarker) || strings.Contains(lines[0], "Via")) {
		lines = splitPlaceLine(lines[0])
	}

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, casePlaceLine(l))
	}
	return out
}

func appendTrimmed(parts []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(parts, s)
	}
	return parts
}

// splitPlaceLine: "Name Codice Stalla: X Via Y" becomes three lines. Only the
// first occurrence of each marker splits, the remainder up to the next marker
// is kept as-is.
func splitPlaceLine(text string) []string {
	var parts []string
	if before, after, ok := strings.Cut(text, stallMarker); ok {
		parts = appendTrimmed(parts, before)
		after, _, _ = strings.Cut(after, stallMarker)
		if strings.TrimSpace(after) == "" {
			return parts
		}
		if code, street, ok := strings.Cut(after, "Via"); ok {
			street, _, _ = strings.Cut(street, "Via")
			if code = strings.TrimSpace(code); code != "" {
				parts = append(parts, stallMarker+code)
			}
			parts = appendTrimmed(parts, "Via"+street)
		} else {
			parts = append(parts, stallMarker+strings.TrimSpace(after))
		}
		return parts
	}

	before, street, _ := strings.Cut(text, "Via")
	street, _, _ = strings.Cut(street, "Via")
	parts = appendTrimmed(parts, before)
	return appendTrimmed(parts, "Via"+street)
}

func casePlaceLine(l string) string {
	if !strings.Contains(l, stallMarker) {
		return textcase.Apply(textcase.Name, l)
	}
	parts := strings.Split(l, stallMarker)
	if len(parts) != 2 {
		return textcase.Apply(textcase.Name, l)
	}
	before := textcase.Apply(textcase.Name, strings.TrimSpace(parts[0]))
	after := textcase.Apply(textcase.Code, strings.TrimSpace(parts[1]))
	if before == "" {
		return stallMarker + " " + after
	}
	return before + " " + stallMarker + " " + after
}

// DestinationPlace is the default destination-place text of a delivery location.
func DestinationPlace(d *models.Destination) string {
	if d == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(d.Name)
	if d.StallCode != "" {
		b.WriteString("\n" + stallMarker + " " + d.StallCode)
	}
	if d.Address != "" {
		b.WriteString("\n" + d.Address)
	}
	return b.String()
}
