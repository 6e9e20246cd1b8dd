package models

import "time"

// Carrier: the haulage company (vettore)
type Carrier struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:200;not null" json:"name"`
	Address    string    `gorm:"size:300" json:"address"`
	PostalCode string    `gorm:"size:5" json:"postal_code"`
	City       string    `gorm:"size:100" json:"city"`
	Province   string    `gorm:"size:2" json:"province"`
	VATNumber  string    `gorm:"size:11" json:"vat_number"`
	TaxCode    string    `gorm:"size:16" json:"tax_code"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Email      string    `gorm:"size:100" json:"email"`
	License    string    `gorm:"size:100" json:"license"` // licenza BDN, live animal transport
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Plates  []VehiclePlate `gorm:"foreignKey:CarrierID;constraint:OnDelete:CASCADE" json:"plates,omitempty"`
	Drivers []Driver       `gorm:"foreignKey:CarrierID;constraint:OnDelete:CASCADE" json:"drivers,omitempty"`
}

type VehiclePlate struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CarrierID   uint      `gorm:"index;not null" json:"carrier_id"`
	Plate       string    `gorm:"size:10;not null" json:"plate"`
	VehicleType string    `gorm:"size:50" json:"vehicle_type"`
	Active      bool      `gorm:"default:true" json:"active"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Driver struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CarrierID     uint      `gorm:"index;not null" json:"carrier_id"`
	FirstName     string    `gorm:"size:100;not null" json:"first_name"`
	LastName      string    `gorm:"size:100;not null" json:"last_name"`
	LicenseNumber string    `gorm:"size:20" json:"license_number"` // patente
	Active        bool      `gorm:"default:true" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
