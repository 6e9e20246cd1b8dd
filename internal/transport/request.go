package transport

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"ddt-backend/internal/models"
)

const dateLayout = "2006-01-02"

type ItemRequest struct {
	ArticleID   uint            `json:"article_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Description string          `json:"description"`
	Order       *int            `json:"order"`
}

// RecordRequest is the body of create and update. Dates are YYYY-MM-DD.
type RecordRequest struct {
	Number       string `json:"number"`
	DocumentDate string `json:"document_date"`
	PickupDate   string `json:"pickup_date"`

	SenderID      uint  `json:"sender_id"`
	SenderSiteID  *uint `json:"sender_site_id"`
	RecipientID   uint  `json:"recipient_id"`
	DestinationID uint  `json:"destination_id"`
	ReasonID      uint  `json:"reason_id"`

	DestinationPlace string               `json:"destination_place"`
	TransportMode    models.TransportMode `json:"transport_mode"`

	CarrierID     *uint `json:"carrier_id"`
	PlateID       *uint `json:"plate_id"`
	SecondPlateID *uint `json:"second_plate_id"`
	DriverID      *uint `json:"driver_id"`

	Annotations  string        `json:"annotations"`
	CentralNotes string        `json:"central_notes"`
	Items        []ItemRequest `json:"items"`
}

func parseDate(value string, fallback time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, !fallback.IsZero()
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

// toRecord validates the request and builds the record. today fills a
// missing document date; a missing pickup date is the document date.
func (r RecordRequest) toRecord(today time.Time) (*models.TransportRecord, error) {
	number := strings.TrimSpace(r.Number)
	if len(number) > 50 {
		return nil, badRequest("Il numero del documento non può superare 50 caratteri")
	}

	docDate, ok := parseDate(r.DocumentDate, today)
	if !ok {
		return nil, badRequest("Data documento non valida (formato AAAA-MM-GG)")
	}
	pickup, ok := parseDate(r.PickupDate, docDate)
	if !ok {
		return nil, badRequest("Data di ritiro non valida (formato AAAA-MM-GG)")
	}

	if !r.TransportMode.Valid() {
		return nil, badRequest("Trasporto a mezzo non valido: mittente, vettore o destinatario")
	}
	switch {
	case r.SenderID == 0:
		return nil, badRequest("Il mittente è obbligatorio")
	case r.RecipientID == 0:
		return nil, badRequest("Il destinatario è obbligatorio")
	case r.DestinationID == 0:
		return nil, badRequest("La destinazione è obbligatoria")
	case r.ReasonID == 0:
		return nil, badRequest("La causale è obbligatoria")
	}
	if r.TransportMode == models.TransportByCarrier && r.CarrierID == nil {
		return nil, badRequest("Il vettore è obbligatorio per il trasporto a mezzo vettore")
	}
	if r.CarrierID == nil && (r.PlateID != nil || r.SecondPlateID != nil || r.DriverID != nil) {
		return nil, badRequest("Targhe e autista richiedono un vettore")
	}

	centralNotes := strings.TrimSpace(r.CentralNotes)
	if len(r.Items) == 0 && centralNotes == "" {
		return nil, badRequest("Inserire almeno un articolo o le note centrali")
	}

	items := make([]models.LineItem, 0, len(r.Items))
	for i, it := range r.Items {
		if it.ArticleID == 0 {
			return nil, badRequest("Ogni riga deve avere un articolo")
		}
		if !it.Quantity.IsPositive() {
			return nil, badRequest("La quantità deve essere maggiore di zero")
		}
		order := i + 1
		if it.Order != nil {
			order = *it.Order
		}
		items = append(items, models.LineItem{
			ArticleID:   it.ArticleID,
			Quantity:    it.Quantity.Round(2),
			Description: strings.TrimSpace(it.Description),
			Order:       order,
		})
	}

	return &models.TransportRecord{
		Number:           number,
		DocumentDate:     docDate,
		PickupDate:       pickup,
		SenderID:         r.SenderID,
		SenderSiteID:     r.SenderSiteID,
		RecipientID:      r.RecipientID,
		DestinationID:    r.DestinationID,
		ReasonID:         r.ReasonID,
		DestinationPlace: strings.TrimSpace(r.DestinationPlace),
		TransportMode:    r.TransportMode,
		CarrierID:        r.CarrierID,
		PlateID:          r.PlateID,
		SecondPlateID:    r.SecondPlateID,
		DriverID:         r.DriverID,
		Annotations:      strings.TrimSpace(r.Annotations),
		CentralNotes:     centralNotes,
		Items:            items,
	}, nil
}
