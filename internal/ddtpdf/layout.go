package ddtpdf

// All distances are in centimeters, origin at the top-left corner of the page.

const pointsPerCM = 72 / 2.54

// pt converts typographic points to centimeters.
func pt(v float64) float64 {
	return v / pointsPerCM
}

type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Page is the sheet and its margins.
type Page struct {
	Width, Height float64

	MarginLeft, MarginRight float64
	MarginTop, MarginBottom float64
}

var A4 = Page{
	Width:        21.0,
	Height:       29.7,
	MarginLeft:   1,
	MarginRight:  1,
	MarginTop:    1,
	MarginBottom: 1.5,
}

func (p Page) UsableWidth() float64  { return p.Width - p.MarginLeft - p.MarginRight }
func (p Page) UsableHeight() float64 { return p.Height - p.MarginTop - p.MarginBottom }

const (
	titleHeight    = 1.5
	titleGap       = 1.0 // between the title band and the first boxes
	boxGap         = 0.1
	columnGutter   = 0.05
	partyBoxHeight = 4.3
	shortBoxHeight = 1.8
	placeHeight    = 2.5

	tableHeaderHeight = 1.2
	TableRows         = 10
	RowHeight         = 0.8
	descriptionShare  = 0.75
	unitShare         = 0.125

	noteWidth  = 6
	noteHeight = 4

	footerPartyHeight = 4
	signatureHeight   = 2
	logoSize          = 2.5
)

type Region string

const (
	RegionTitle         Region = "title"
	RegionSender        Region = "sender"
	RegionLogo          Region = "logo"
	RegionReason        Region = "reason"
	RegionNumber        Region = "number"
	RegionRecipient     Region = "recipient"
	RegionPlace         Region = "place"
	RegionTableHeader   Region = "table_header"
	RegionTableBody     Region = "table_body"
	RegionCentralNote   Region = "central_note"
	RegionMode          Region = "mode"
	RegionPickup        Region = "pickup"
	RegionParty         Region = "party"
	RegionAnnotations   Region = "annotations"
	RegionSignSender    Region = "sign_sender"
	RegionSignCarrier   Region = "sign_carrier"
	RegionSignRecipient Region = "sign_recipient"
)

type region struct {
	id    Region
	label string
	place func(p Page, at map[Region]Rect) Rect
}

// regions is the page, top to bottom. A region may only refer to the ones
// listed before it.
var regions = []region{
	{RegionTitle, "DOCUMENTO DI TRASPORTO", func(p Page, _ map[Region]Rect) Rect {
		return Rect{p.MarginLeft, p.MarginTop, p.UsableWidth(), titleHeight}
	}},
	{RegionSender, "MITTENTE", func(p Page, at map[Region]Rect) Rect {
		return Rect{p.MarginLeft, at[RegionTitle].Bottom() + titleGap, halfWidth(p), partyBoxHeight}
	}},
	{RegionLogo, "", func(_ Page, at map[Region]Rect) Rect {
		s := at[RegionSender]
		return Rect{s.Right() - logoSize - pt(5), s.Y + pt(5), logoSize, logoSize}
	}},
	{RegionReason, "CAUSALE DI TRASPORTO", func(p Page, at map[Region]Rect) Rect {
		return Rect{p.MarginLeft, at[RegionSender].Bottom() + boxGap, halfWidth(p), shortBoxHeight}
	}},
	{RegionNumber, "NUMERO E DATA DOCUMENTO", func(p Page, at map[Region]Rect) Rect {
		return Rect{at[RegionSender].Right() + 2*columnGutter, at[RegionTitle].Bottom() + titleGap, halfWidth(p), shortBoxHeight}
	}},
	{RegionRecipient, "DESTINATARIO", func(p Page, at map[Region]Rect) Rect {
		n := at[RegionNumber]
		return Rect{n.X, n.Bottom() + boxGap, n.W, partyBoxHeight}
	}},
	{RegionPlace, "LUOGO DI DESTINAZIONE", func(p Page, at map[Region]Rect) Rect {
		return Rect{p.MarginLeft, at[RegionReason].Bottom() + boxGap, p.UsableWidth(), placeHeight}
	}},
	{RegionTableHeader, "", func(p Page, at map[Region]Rect) Rect {
		return Rect{p.MarginLeft, at[RegionPlace].Bottom() + boxGap, p.UsableWidth(), tableHeaderHeight}
	}},
	{RegionTableBody, "", func(p Page, at map[Region]Rect) Rect {
		return Rect{p.MarginLeft, at[RegionTableHeader].Bottom(), p.UsableWidth(), TableRows * RowHeight}
	}},
	{RegionCentralNote, "", func(p Page, at map[Region]Rect) Rect {
		body := at[RegionTableBody]
		// centered on the description column, its bottom 2.7 rows above the body bottom, less 0.3
		bottom := body.Bottom() - 2.7*RowHeight + 0.3
		return Rect{body.X + (body.W*descriptionShare-noteWidth)/2, bottom - noteHeight, noteWidth, noteHeight}
	}},
	{RegionMode, "TRASPORTO A MEZZO", func(p Page, at map[Region]Rect) Rect {
		return Rect{p.MarginLeft, at[RegionTableBody].Bottom() + boxGap, quarterWidth(p), shortBoxHeight}
	}},
	{RegionPickup, "DATA RITIRO", func(p Page, at map[Region]Rect) Rect {
		m := at[RegionMode]
		return Rect{m.Right(), m.Y, quarterWidth(p), shortBoxHeight}
	}},
	{RegionParty, "TRASPORTO:", func(p Page, at map[Region]Rect) Rect {
		m, d := at[RegionMode], at[RegionPickup]
		return Rect{d.Right(), m.Y, p.UsableWidth() - m.W - d.W, footerPartyHeight}
	}},
	{RegionAnnotations, "ANNOTAZIONI", func(p Page, at map[Region]Rect) Rect {
		m, d, party := at[RegionMode], at[RegionPickup], at[RegionParty]
		return Rect{p.MarginLeft, m.Bottom(), m.W + d.W, party.H - m.H}
	}},
	{RegionSignSender, "FIRMA MITTENTE", func(p Page, at map[Region]Rect) Rect {
		return signature(p, at, 0)
	}},
	{RegionSignCarrier, "FIRMA VETTORE", func(p Page, at map[Region]Rect) Rect {
		return signature(p, at, 1)
	}},
	{RegionSignRecipient, "FIRMA DESTINATARIO", func(p Page, at map[Region]Rect) Rect {
		return signature(p, at, 2)
	}},
}

func halfWidth(p Page) float64    { return p.UsableWidth()/2 - columnGutter }
func quarterWidth(p Page) float64 { return p.UsableWidth()/4 - 0.2 }

func signature(p Page, at map[Region]Rect, i int) Rect {
	w := p.UsableWidth() / 3
	return Rect{p.MarginLeft + float64(i)*w, at[RegionAnnotations].Bottom(), w, signatureHeight}
}

// Layout is the computed position of every region on one page.
type Layout struct {
	Page   Page
	rects  map[Region]Rect
	labels map[Region]string
}

func NewLayout(p Page) Layout {
	l := Layout{
		Page:   p,
		rects:  make(map[Region]Rect, len(regions)),
		labels: make(map[Region]string, len(regions)),
	}
	for _, r := range regions {
		l.rects[r.id] = r.place(p, l.rects)
		l.labels[r.id] = r.label
	}
	return l
}

func (l Layout) Rect(id Region) Rect    { return l.rects[id] }
func (l Layout) Label(id Region) string { return l.labels[id] }

// Row is the i-th body row of the product table, counted from the top.
func (l Layout) Row(i int) Rect {
	body := l.rects[RegionTableBody]
	return Rect{body.X, body.Y + float64(i)*RowHeight, body.W, RowHeight}
}

// Columns returns the widths of the description, unit and quantity columns.
func (l Layout) Columns() (desc, unit, qty float64) {
	w := l.rects[RegionTableBody].W
	return w * descriptionShare, w * unitShare, w * unitShare
}
