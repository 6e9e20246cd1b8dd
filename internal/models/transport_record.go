package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransportMode: who performs the transport (trasporto a mezzo)
type TransportMode string

const (
	TransportBySender    TransportMode = "mittente"
	TransportByCarrier   TransportMode = "vettore"
	TransportByRecipient TransportMode = "destinatario"
)

func (m TransportMode) Valid() bool {
	switch m {
	case TransportBySender, TransportByCarrier, TransportByRecipient:
		return true
	}
	return false
}

// TransportRecord: the DDT (Documento Di Trasporto)
type TransportRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Number       string    `gorm:"size:50;not null;uniqueIndex" json:"number"`
	DocumentDate time.Time `gorm:"index;not null" json:"document_date"`
	PickupDate   time.Time `gorm:"not null" json:"pickup_date"`

	SenderID     uint        `gorm:"index;not null" json:"sender_id"`
	Sender       Sender      `gorm:"constraint:OnDelete:RESTRICT" json:"sender"`
	SenderSiteID *uint       `gorm:"index" json:"sender_site_id"`
	SenderSite   *SenderSite `gorm:"constraint:OnDelete:RESTRICT" json:"sender_site,omitempty"`

	RecipientID   uint        `gorm:"index;not null" json:"recipient_id"`
	Recipient     Recipient   `gorm:"constraint:OnDelete:RESTRICT" json:"recipient"`
	DestinationID uint        `gorm:"index;not null" json:"destination_id"`
	Destination   Destination `gorm:"constraint:OnDelete:RESTRICT" json:"destination"`

	ReasonID uint            `gorm:"index;not null" json:"reason_id"`
	Reason   TransportReason `gorm:"constraint:OnDelete:RESTRICT" json:"reason"`

	// Free text printed in the "luogo di destinazione" box, one component per line
	DestinationPlace string        `gorm:"size:300" json:"destination_place"`
	TransportMode    TransportMode `gorm:"size:20;not null" json:"transport_mode"`

	CarrierID     *uint         `gorm:"index" json:"carrier_id"`
	Carrier       *Carrier      `gorm:"constraint:OnDelete:RESTRICT" json:"carrier,omitempty"`
	PlateID       *uint         `json:"plate_id"`
	Plate         *VehiclePlate `gorm:"foreignKey:PlateID;constraint:OnDelete:RESTRICT" json:"plate,omitempty"`
	SecondPlateID *uint         `json:"second_plate_id"`
	SecondPlate   *VehiclePlate `gorm:"foreignKey:SecondPlateID;constraint:OnDelete:RESTRICT" json:"second_plate,omitempty"`
	DriverID      *uint         `json:"driver_id"`
	Driver        *Driver       `gorm:"constraint:OnDelete:RESTRICT" json:"driver,omitempty"`

	Annotations  string `gorm:"type:text" json:"annotations"`
	CentralNotes string `gorm:"type:text" json:"central_notes"` // replaces the product table when there are no line items

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []LineItem `gorm:"foreignKey:TransportRecordID;constraint:OnDelete:CASCADE" json:"items"`
}

// LineItem: one row of the product table
type LineItem struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	TransportRecordID uint            `gorm:"index;not null" json:"transport_record_id"`
	ArticleID         uint            `gorm:"index;not null" json:"article_id"`
	Article           Article         `gorm:"constraint:OnDelete:RESTRICT" json:"article"`
	Quantity          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"quantity"`
	Description       string          `gorm:"type:text" json:"description"`
	Order             int             `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (r *TransportRecord) HasLineItems() bool {
	return len(r.Items) > 0
}

// UsesCentralNotes reports whether the central-note block replaces the product rows.
// Line items always win over notes.
func (r *TransportRecord) UsesCentralNotes() bool {
	return strings.TrimSpace(r.CentralNotes) != "" && !r.HasLineItems()
}

// SortedItems returns the line items by ascending Order; equal orders keep insertion order
// (ID, then slice position for unsaved rows).
func (r *TransportRecord) SortedItems() []LineItem {
	items := make([]LineItem, len(r.Items))
	copy(items, r.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		if items[i].ID != 0 && items[j].ID != 0 {
			return items[i].ID < items[j].ID
		}
		return false
	})
	return items
}

func (r *TransportRecord) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.Quantity)
	}
	return total
}

func (r *TransportRecord) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.Quantity.Mul(it.Article.UnitPrice))
	}
	return total
}
