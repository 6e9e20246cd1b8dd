package registry

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"ddt-backend/internal/audit"
	"ddt-backend/internal/models"
)

func nameSearch(column string) func(*gorm.DB, string) *gorm.DB {
	return func(db *gorm.DB, q string) *gorm.DB {
		return db.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(q)+"%")
	}
}

var senders = resource[models.Sender]{
	entity:  audit.EntitySender,
	label:   "Mittente",
	order:   "name ASC",
	preload: []string{"Sites"},
	id:      func(s *models.Sender) uint { return s.ID },
	setID:   func(s *models.Sender, id uint) { s.ID = id },
	validate: func(s *models.Sender) error {
		s.Name = strings.TrimSpace(s.Name)
		var postal, province string
		return firstErr(
			required(s.Name, "nome"),
			addressFields(&postal, &province, &s.VATNumber, &s.TaxCode),
		)
	},
	search: nameSearch("name"),
}

var senderSites = resource[models.SenderSite]{
	entity:       audit.EntitySender,
	label:        "Sede",
	order:        "name ASC",
	id:           func(s *models.SenderSite) uint { return s.ID },
	setID:        func(s *models.SenderSite, id uint) { s.ID = id },
	parentColumn: "sender_id",
	newParent:    func() any { return &models.Sender{} },
	setParent:    func(s *models.SenderSite, id uint) { s.SenderID = id; s.Sender = nil },
	validate: func(s *models.SenderSite) error {
		var vat, taxCode string
		s.StallCode = strings.ToUpper(strings.TrimSpace(s.StallCode))
		return firstErr(
			required(s.Name, "nome"),
			required(s.Address, "indirizzo"),
			required(s.City, "città"),
			addressFields(&s.PostalCode, &s.Province, &vat, &taxCode),
		)
	},
}

var recipients = resource[models.Recipient]{
	entity:  audit.EntityRecipient,
	label:   "Destinatario",
	order:   "name ASC",
	preload: []string{"Destinations"},
	id:      func(r *models.Recipient) uint { return r.ID },
	setID:   func(r *models.Recipient, id uint) { r.ID = id },
	validate: func(r *models.Recipient) error {
		r.Name = strings.TrimSpace(r.Name)
		return firstErr(
			required(r.Name, "nome"),
			addressFields(&r.PostalCode, &r.Province, &r.VATNumber, &r.TaxCode),
		)
	},
	search: nameSearch("name"),
}

var destinations = resource[models.Destination]{
	entity:       audit.EntityRecipient,
	label:        "Destinazione",
	order:        "name ASC",
	id:           func(d *models.Destination) uint { return d.ID },
	setID:        func(d *models.Destination, id uint) { d.ID = id },
	parentColumn: "recipient_id",
	newParent:    func() any { return &models.Recipient{} },
	setParent:    func(d *models.Destination, id uint) { d.RecipientID = id; d.Recipient = nil },
	validate: func(d *models.Destination) error {
		d.StallCode = strings.ToUpper(strings.TrimSpace(d.StallCode))
		return firstErr(
			required(d.Name, "nome"),
			required(d.Address, "indirizzo"),
		)
	},
}

var carriers = resource[models.Carrier]{
	entity:  audit.EntityCarrier,
	label:   "Vettore",
	order:   "name ASC",
	preload: []string{"Plates", "Drivers"},
	id:      func(c *models.Carrier) uint { return c.ID },
	setID:   func(c *models.Carrier, id uint) { c.ID = id },
	validate: func(c *models.Carrier) error {
		c.Name = strings.TrimSpace(c.Name)
		return firstErr(
			required(c.Name, "nome"),
			addressFields(&c.PostalCode, &c.Province, &c.VATNumber, &c.TaxCode),
		)
	},
	search: nameSearch("name"),
}

var plates = resource[models.VehiclePlate]{
	entity:       audit.EntityCarrier,
	label:        "Targa",
	order:        "plate ASC",
	id:           func(p *models.VehiclePlate) uint { return p.ID },
	setID:        func(p *models.VehiclePlate, id uint) { p.ID = id },
	parentColumn: "carrier_id",
	newParent:    func() any { return &models.Carrier{} },
	setParent:    func(p *models.VehiclePlate, id uint) { p.CarrierID = id },
	validate: func(p *models.VehiclePlate) error {
		p.Plate = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(p.Plate), " ", ""))
		return required(p.Plate, "targa")
	},
}

var drivers = resource[models.Driver]{
	entity:       audit.EntityCarrier,
	label:        "Autista",
	order:        "last_name ASC, first_name ASC",
	id:           func(d *models.Driver) uint { return d.ID },
	setID:        func(d *models.Driver, id uint) { d.ID = id },
	parentColumn: "carrier_id",
	newParent:    func() any { return &models.Carrier{} },
	setParent:    func(d *models.Driver, id uint) { d.CarrierID = id },
	validate: func(d *models.Driver) error {
		d.LicenseNumber = strings.ToUpper(strings.TrimSpace(d.LicenseNumber))
		return firstErr(
			required(d.FirstName, "nome"),
			required(d.LastName, "cognome"),
		)
	},
}

var articles = resource[models.Article]{
	entity: audit.EntityArticle,
	label:  "Articolo",
	order:  "name ASC",
	id:     func(a *models.Article) uint { return a.ID },
	setID:  func(a *models.Article, id uint) { a.ID = id },
	validate: func(a *models.Article) error {
		a.Name = strings.TrimSpace(a.Name)
		a.Unit = strings.TrimSpace(a.Unit)
		if a.UnitPrice.IsNegative() {
			return badRequest("Il prezzo unitario non può essere negativo")
		}
		return firstErr(
			required(a.Name, "nome"),
			required(a.Unit, "unità di misura"),
		)
	},
	search: func(db *gorm.DB, q string) *gorm.DB {
		like := "%" + strings.ToLower(q) + "%"
		return db.Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ?", like, like)
	},
}

var reasons = resource[models.TransportReason]{
	entity: audit.EntityReason,
	label:  "Causale",
	order:  "code ASC",
	id:     func(r *models.TransportReason) uint { return r.ID },
	setID:  func(r *models.TransportReason, id uint) { r.ID = id },
	validate: func(r *models.TransportReason) error {
		r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
		return firstErr(
			required(r.Code, "codice"),
			required(r.Description, "descrizione"),
		)
	},
}

// Register mounts the master-data routes. Reads are open to every
// authenticated user, writes take the mutate middlewares (role checks).
func Register(api fiber.Router, mutate ...fiber.Handler) {
	mount(api, "/senders", senders, mutate)
	mount(api, "/senders/:id/sites", senderSites, mutate)
	mount(api, "/recipients", recipients, mutate)
	mount(api, "/recipients/:id/destinations", destinations, mutate)
	mount(api, "/carriers", carriers, mutate)
	mount(api, "/carriers/:id/plates", plates, mutate)
	mount(api, "/carriers/:id/drivers", drivers, mutate)
	mount(api, "/articles", articles, mutate)
	mount(api, "/reasons", reasons, mutate)
}

func mount[T any](api fiber.Router, path string, r resource[T], mutate []fiber.Handler) {
	item := path + "/:" + r.itemParam()
	with := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, mutate...), h)
	}

	api.Get(path, r.List())
	api.Get(item, r.Get())
	api.Post(path, with(r.Create())...)
	api.Put(item, with(r.Update())...)
	api.Delete(item, with(r.Delete())...)
}
