package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Article struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:200;not null" json:"name"`
	Category  string          `gorm:"size:100" json:"category"`
	Unit      string          `gorm:"size:10;not null" json:"unit"` // kg, pz, capi...
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"unit_price"`
	Notes     string          `gorm:"type:text" json:"notes"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TransportReason: causale di trasporto (VEN - Vendita, ...)
type TransportReason struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:10;not null;uniqueIndex" json:"code"`
	Description string    `gorm:"size:200;not null" json:"description"`
	Active      bool      `gorm:"default:true" json:"active"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
