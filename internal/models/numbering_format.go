package models

import "time"

type NumberingKind string

const (
	NumberingYear      NumberingKind = "aaaa-num" // 2024-0001
	NumberingPlain     NumberingKind = "num"      // -0001
	NumberingMonthYear NumberingKind = "mmaa-num" // 1224-0001
	NumberingShortYear NumberingKind = "aa-num"   // 24-0001
	NumberingCustom    NumberingKind = "custom"   // template with {anno} {mese} {numero}
)

func (k NumberingKind) Valid() bool {
	switch k {
	case NumberingYear, NumberingPlain, NumberingMonthYear, NumberingShortYear, NumberingCustom:
		return true
	}
	return false
}

// NumberingFormat: document numbering scheme. At most one row is active
// (partial unique index, see database.Migrate).
type NumberingFormat struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Kind           NumberingKind `gorm:"size:20;not null;default:'aaaa-num'" json:"kind"`
	CustomTemplate string        `gorm:"size:100" json:"custom_template"`
	InitialValue   int           `gorm:"not null" json:"initial_value"`
	Width          int           `gorm:"not null" json:"width"` // zero padding of the sequence
	Active         bool          `gorm:"not null;default:false" json:"active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
