package ddtpdf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ddt-backend/internal/models"
)

func TestPlaceLines(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "multi line, duplicates dropped",
			in:   "stalla nord\n\n  via po 1 \nstalla nord",
			want: []string{"Stalla Nord", "Via Po 1"},
		},
		{
			name: "stall code upper-cased",
			in:   "azienda verdi Codice Stalla: it001mi\nvia roma 3",
			want: []string{"Azienda Verdi Codice Stalla: IT001MI", "Via Roma 3"},
		},
		{
			name: "single line split on markers",
			in:   "Cascina Bassa Codice Stalla: 012ab Via dei Mille 4",
			want: []string{"Cascina Bassa", "Codice Stalla: 012AB", "Via Dei Mille 4"},
		},
		{
			name: "single line split on street only",
			in:   "CASCINA ALTA Via Emilia 12",
			want: []string{"Cascina Alta", "Via Emilia 12"},
		},
		{
			name: "plain single line",
			in:   "magazzino centrale",
			want: []string{"Magazzino Centrale"},
		},
		{
			name: "empty",
			in:   " \n ",
			want: []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PlaceLines(tc.in)
			if len(tc.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDestinationPlace(t *testing.T) {
	d := &models.Destination{Name: "Stalla Nord", StallCode: "IT001", Address: "Via Po 1"}
	assert.Equal(t, "Stalla Nord\nCodice Stalla: IT001\nVia Po 1", DestinationPlace(d))

	assert.Equal(t, "Deposito", DestinationPlace(&models.Destination{Name: "Deposito"}))
	assert.Equal(t, "", DestinationPlace(nil))

	// round trip through the printed form
	assert.Equal(t, []string{"Stalla Nord", "Codice Stalla: IT001", "Via Po 1"}, PlaceLines(DestinationPlace(d)))
}

func TestRecipientBlock(t *testing.T) {
	r := &models.Recipient{
		Name:       "macelleria BIANCHI srl",
		Address:    "via garibaldi 10",
		City:       "parma",
		PostalCode: "43121",
		Province:   "pr",
		VATNumber:  "01234567890",
		TaxCode:    "bncmra80a01g337x",
	}
	b := RecipientBlock(r)
	assert.Equal(t, []string{
		"Macelleria Bianchi Srl",
		"Via Garibaldi 10",
		"Parma (43121) PR",
		"P.IVA: 01234567890",
		"CF: BNCMRA80A01G337X",
	}, b.Lines)
	assert.Equal(t, partyBoxHeight, b.Height)

	assert.Equal(t, []string{"Solo Nome"}, RecipientBlock(&models.Recipient{Name: "solo nome"}).Lines)
}

func TestSiteBlock(t *testing.T) {
	sender := &models.Sender{Name: "azienda agricola rossi", VATNumber: "09876543210"}
	site := &models.SenderSite{Address: "strada provinciale 5", City: "lodi", PostalCode: "26900", Province: "lo", StallCode: "it045lo"}

	assert.Equal(t, []string{
		"Azienda Agricola Rossi",
		"Strada Provinciale 5",
		"Lodi (26900) LO",
		"P.IVA: 09876543210",
		"Codice Stalla: IT045LO",
	}, SiteBlock(site, sender).Lines)
}

func TestDestinationBlock(t *testing.T) {
	r := &models.Recipient{Name: "bianchi", PostalCode: "43121", Province: "pr"}
	d := &models.Destination{StallCode: "it9"}

	// no city: the cap and province still print
	assert.Equal(t, []string{"Bianchi", " (43121) PR", "Codice Stalla: IT9"}, DestinationBlock(d, r).Lines)
}

func TestCarrierBlock(t *testing.T) {
	c := &models.Carrier{Name: "trasporti veloci", City: "cremona", License: "bdn-77"}
	driver := &models.Driver{FirstName: "luca", LastName: "VERDI", LicenseNumber: "cr1234567x"}
	plate := &models.VehiclePlate{Plate: "ab123cd"}
	second := &models.VehiclePlate{Plate: "xy987zw"}

	b := CarrierBlock(c, plate, second, driver)
	assert.Equal(t, []string{
		"Trasporti Veloci",
		"Cremona",
		"Licenza: BDN-77",
		"Autista: Luca Verdi",
		"Patente: CR1234567X",
		"Targhe: AB123CD, XY987ZW",
	}, b.Lines)
	assert.Equal(t, float64(footerPartyHeight), b.Height)

	bare := CarrierBlock(&models.Carrier{Name: "solo"}, nil, nil, nil)
	assert.Equal(t, []string{"Solo"}, bare.Lines)
}

func TestTextBlockBaseline(t *testing.T) {
	box := Rect{X: 1, Y: 3.5, W: 9.45, H: 4.3}
	b := TextBlock{Height: partyBoxHeight}
	assert.InDelta(t, box.Y+pt(35), b.firstBaseline(box), eps)

	// a 4.3 block drawn in the 4 cm party box starts 0.3 cm higher
	party := Rect{X: 10.1, Y: 21.7, W: 9.9, H: 4}
	assert.InDelta(t, party.Y+pt(35)-0.3, b.firstBaseline(party), eps)
	assert.InDelta(t, party.Y+pt(35), TextBlock{Height: footerPartyHeight}.firstBaseline(party), eps)
}
