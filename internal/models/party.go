package models

import "time"

// Sender: the company issuing the transport document (mittente)
type Sender struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	VATNumber string    `gorm:"size:11" json:"vat_number"` // P.IVA
	TaxCode   string    `gorm:"size:16" json:"tax_code"`   // Codice Fiscale
	Phone     string    `gorm:"size:20" json:"phone"`
	Email     string    `gorm:"size:100" json:"email"`
	PEC       string    `gorm:"size:100" json:"pec"`
	LogoPath  string    `gorm:"size:255" json:"logo_path"` // optional, drawn in the sender box
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sites []SenderSite `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sites,omitempty"`
}

// SenderSite: an operating site of a sender, with its own address and stall code
type SenderSite struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"index;not null" json:"sender_id"`
	Sender     *Sender   `json:"sender,omitempty"`
	Name       string    `gorm:"size:200;not null" json:"name"`
	Address    string    `gorm:"size:300;not null" json:"address"`
	PostalCode string    `gorm:"size:5" json:"postal_code"` // CAP
	City       string    `gorm:"size:100;not null" json:"city"`
	Province   string    `gorm:"size:2" json:"province"`
	StallCode  string    `gorm:"size:50" json:"stall_code"`       // Codice Stalla
	Registered bool      `gorm:"default:false" json:"registered"` // sede legale
	Active     bool      `gorm:"default:true" json:"active"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Recipient: the party receiving the goods (destinatario)
type Recipient struct {
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
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Destinations []Destination `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"destinations,omitempty"`
}

// Destination: a delivery location of a recipient, distinct from its registered address
type Destination struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RecipientID uint       `gorm:"index;not null" json:"recipient_id"`
	Recipient   *Recipient `json:"recipient,omitempty"`
	Name        string     `gorm:"size:200;not null" json:"name"`
	Address     string     `gorm:"size:300;not null" json:"address"`
	StallCode   string     `gorm:"size:50" json:"stall_code"`
	Notes       string     `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
