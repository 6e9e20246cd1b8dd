// Package ddtpdf draws the one-page transport document.
//
// Geometry lives in layout.go as a table of named regions; the renderer walks
// it on a Canvas, so tests can assert on rectangles and recorded draw calls
// without decoding a PDF.
package ddtpdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ddt-backend/internal/models"
	"ddt-backend/internal/textcase"
)

var ErrRender = errors.New("generazione del documento non riuscita")

const (
	dateLayout = "02/01/2006"

	titleLetterSpacing = 7 // pt after every non-space letter

	descriptionBudget = 60
	noteLines         = 6
	noteBudget        = 50
	annotationLines   = 8
	annotationBudget  = 60
	ellipsis          = "..."
)

type Options struct {
	// DefaultLogoPath is used when neither the sender site's company nor the
	// sender has a logo.
	DefaultLogoPath string
	Logger          *zap.Logger
}

type Renderer struct {
	layout   Layout
	logoPath string
	logger   *zap.Logger
	readFile func(string) ([]byte, error)
}

func NewRenderer(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		layout:   NewLayout(A4),
		logoPath: opts.DefaultLogoPath,
		logger:   logger,
		readFile: os.ReadFile,
	}
}

func (r *Renderer) Layout() Layout { return r.layout }

// Render writes the PDF of rec to w.
func (r *Renderer) Render(rec *models.TransportRecord, w io.Writer) error {
	c := NewPDFCanvas(r.layout.Page)
	c.SetMetadata("DDT "+rec.Number, rec.Sender.Name)
	r.Draw(c, rec)
	if err := c.Output(w); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// RenderBytes is Render into memory.
func (r *Renderer) RenderBytes(rec *models.TransportRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(rec, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderFile renders rec and writes it to path with WriteFile.
func (r *Renderer) RenderFile(rec *models.TransportRecord, path string) error {
	data, err := r.RenderBytes(rec)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// WriteFile writes data to path through a temporary file in the same
// directory. On failure nothing is left at path.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}

	tmp := filepath.Join(dir, "."+uuid.NewString()+".pdf.tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

// AttachmentName is the download file name of a document number.
// Separators, quotes and control characters become "_" so the name is safe
// inside a quoted Content-Disposition filename.
func AttachmentName(number string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == '"', r == ';', unicode.IsControl(r):
			return '_'
		}
		return r
	}, number)
	return "DDT_" + safe + ".pdf"
}

// Draw runs the page pipeline: header, info boxes, product table or central
// note, footer, signatures.
func (r *Renderer) Draw(c Canvas, rec *models.TransportRecord) {
	r.drawTitle(c)
	r.drawInfoBoxes(c, rec)
	r.drawTable(c)
	if rec.UsesCentralNotes() {
		r.drawCentralNote(c, rec.CentralNotes)
	} else {
		r.drawRows(c, rec.SortedItems())
	}
	r.drawFooter(c, rec)
	r.drawSignatures(c)
}

func (r *Renderer) drawTitle(c Canvas) {
	band := r.layout.Rect(RegionTitle)
	c.FillRect(band, 0.2)

	text := r.layout.Label(RegionTitle)
	total := 0.0
	for _, ch := range text {
		total += c.TextWidth(string(ch), fontTitle)
		if ch != ' ' {
			total += pt(titleLetterSpacing)
		}
	}

	x := band.X + (band.W-total)/2
	y := band.Bottom() - (band.H-pt(14))/2
	for _, ch := range text {
		s := string(ch)
		c.Text(x, y, s, fontTitle)
		x += c.TextWidth(s, fontTitle)
		if ch != ' ' {
			x += pt(titleLetterSpacing)
		}
	}
}

// box frames a region and prints its label in the top-left corner.
func (r *Renderer) box(c Canvas, id Region, label string) Rect {
	rect := r.layout.Rect(id)
	c.StrokeRect(rect, defaultLineWidth)
	if label != "" {
		c.Text(rect.X+pt(5), rect.Y+pt(12), label, fontLabel)
	}
	return rect
}

func (r *Renderer) drawBlock(c Canvas, in Rect, b TextBlock) {
	y := b.firstBaseline(in)
	for _, line := range b.Lines {
		c.Text(in.X+pt(5), y, line, fontBody)
		y += pt(blockLineStep)
	}
}

func (r *Renderer) drawInfoBoxes(c Canvas, rec *models.TransportRecord) {
	sender := r.box(c, RegionSender, r.layout.Label(RegionSender))
	r.drawLogo(c, rec)
	if rec.SenderSite != nil {
		r.drawBlock(c, sender, SiteBlock(rec.SenderSite, siteCompany(rec)))
	} else {
		r.drawBlock(c, sender, SenderBlock(&rec.Sender))
	}

	reason := r.box(c, RegionReason, r.layout.Label(RegionReason))
	if rec.Reason.Code != "" || rec.Reason.Description != "" {
		text := rec.Reason.Code + " - " + rec.Reason.Description
		c.Text(reason.X+pt(5), reason.Bottom()-pt(5), text, fontBody)
	}

	number := r.box(c, RegionNumber, r.layout.Label(RegionNumber))
	if rec.Number != "" {
		text := "DDT N° " + strings.TrimLeft(rec.Number, "-")
		if !rec.DocumentDate.IsZero() {
			text += " - Data: " + rec.DocumentDate.Format(dateLayout)
		}
		c.Text(number.X+pt(5), number.Bottom()-pt(8), text, fontBody)
	}

	recipient := r.box(c, RegionRecipient, r.layout.Label(RegionRecipient))
	if rec.DestinationID != 0 || rec.Destination.Name != "" {
		r.drawBlock(c, recipient, DestinationBlock(&rec.Destination, &rec.Recipient))
	} else {
		r.drawBlock(c, recipient, RecipientBlock(&rec.Recipient))
	}

	place := r.box(c, RegionPlace, r.layout.Label(RegionPlace))
	y := place.Y + pt(40)
	for _, line := range PlaceLines(rec.DestinationPlace) {
		c.Text(place.X+pt(5), y, line, fontBody)
		y += pt(blockLineStep)
	}
}

// siteCompany is the owner of the sender site, the record's sender when the
// site was loaded without it.
func siteCompany(rec *models.TransportRecord) *models.Sender {
	if rec.SenderSite != nil && rec.SenderSite.Sender != nil {
		return rec.SenderSite.Sender
	}
	return &rec.Sender
}

func (r *Renderer) logoSource(rec *models.TransportRecord) string {
	if rec.SenderSite != nil && rec.SenderSite.Sender != nil && rec.SenderSite.Sender.LogoPath != "" {
		return rec.SenderSite.Sender.LogoPath
	}
	if rec.Sender.LogoPath != "" {
		return rec.Sender.LogoPath
	}
	return r.logoPath
}

func (r *Renderer) drawLogo(c Canvas, rec *models.TransportRecord) {
	rect := r.layout.Rect(RegionLogo)
	path := r.logoSource(rec)

	err := errors.New("nessun logo configurato")
	if path != "" {
		var data []byte
		if data, err = r.readFile(path); err == nil {
			err = c.Image(rect, path, data)
		}
	}
	if err == nil {
		return
	}

	r.logger.Debug("logo not drawn, using placeholder", zap.String("path", path), zap.Error(err))
	c.FillRect(rect, 0.9)
	c.Text(rect.X+pt(10), rect.Y+rect.H/2, "LOGO", fontLabel)
}

func (r *Renderer) drawTable(c Canvas) {
	header := r.layout.Rect(RegionTableHeader)
	desc, unit, _ := r.layout.Columns()
	c.StrokeRect(header, defaultLineWidth)
	c.Line(header.X+desc, header.Y, header.X+desc, header.Bottom())
	c.Line(header.X+desc+unit, header.Y, header.X+desc+unit, header.Bottom())

	y := header.Bottom() - (header.H-pt(fontLabel.Size))/2
	columns := []struct {
		label string
		x, w  float64
	}{
		{"DESCRIZIONE DEI BENI", header.X, desc},
		{"U.M.", header.X + desc, unit},
		{"QUANTITÀ", header.X + desc + unit, unit},
	}
	for _, col := range columns {
		w := c.TextWidth(col.label, fontLabel)
		c.Text(col.x+(col.w-w)/2, y, col.label, fontLabel)
	}

	for i := 0; i < TableRows; i++ {
		row := r.layout.Row(i)
		c.StrokeRect(row, defaultLineWidth)
		c.Line(row.X+desc, row.Y, row.X+desc, row.Bottom())
		c.Line(row.X+desc+unit, row.Y, row.X+desc+unit, row.Bottom())
	}
}

// RowDescription is the text of the description column of one line item.
func RowDescription(item models.LineItem) string {
	text := textcase.Apply(textcase.Name, item.Article.Name)
	if item.Description != "" {
		text += " - " + textcase.Apply(textcase.Text, item.Description)
	}
	return textcase.Truncate(text, descriptionBudget, ellipsis)
}

func (r *Renderer) drawRows(c Canvas, items []models.LineItem) {
	desc, unit, _ := r.layout.Columns()
	for i, item := range items {
		if i >= TableRows {
			break
		}
		row := r.layout.Row(i)
		y := row.Bottom() - pt(5)
		c.Text(row.X+pt(5), y, RowDescription(item), fontBody)
		c.Text(row.X+desc+pt(5), y, textcase.Apply(textcase.Code, item.Article.Unit), fontBody)
		c.Text(row.X+desc+unit+pt(5), y, item.Quantity.StringFixed(2), fontBody)
	}
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

func (r *Renderer) drawCentralNote(c Canvas, notes string) {
	rect := r.layout.Rect(RegionCentralNote)
	c.FillRect(rect, 1)
	c.StrokeRect(rect, 3)

	lines := splitLines(notes)
	if len(lines) > noteLines {
		lines = lines[:noteLines]
	}
	y := rect.Y + pt(15)
	for _, line := range lines {
		if y >= rect.Bottom()-pt(10) {
			break
		}
		text := textcase.Truncate(textcase.Apply(textcase.Text, line), noteBudget, "")
		c.Text(rect.X+pt(10), y, text, fontNote)
		y += pt(12)
	}
}

// partyLabel is the label of the footer party box for a transport mode.
func partyLabel(mode models.TransportMode) string {
	switch mode {
	case models.TransportByCarrier:
		return "VETTORE:"
	case models.TransportBySender:
		return "MITTENTE:"
	case models.TransportByRecipient:
		return "DESTINATARIO:"
	default:
		return "TRASPORTO:"
	}
}

func (r *Renderer) drawFooter(c Canvas, rec *models.TransportRecord) {
	mode := r.box(c, RegionMode, r.layout.Label(RegionMode))
	if rec.TransportMode != "" {
		c.Text(mode.X+pt(5), mode.Bottom()-pt(5), textcase.Apply(textcase.Name, string(rec.TransportMode)), fontBody)
	}

	pickup := r.box(c, RegionPickup, r.layout.Label(RegionPickup))
	if !rec.PickupDate.IsZero() {
		c.Text(pickup.X+pt(5), pickup.Bottom()-pt(5), rec.PickupDate.Format(dateLayout), fontBody)
	}

	party := r.box(c, RegionParty, partyLabel(rec.TransportMode))
	switch rec.TransportMode {
	case models.TransportByCarrier:
		if rec.Carrier != nil {
			r.drawBlock(c, party, CarrierBlock(rec.Carrier, rec.Plate, rec.SecondPlate, rec.Driver))
		}
	case models.TransportBySender:
		if rec.SenderSite != nil {
			r.drawBlock(c, party, SiteBlock(rec.SenderSite, siteCompany(rec)))
		} else {
			r.drawBlock(c, party, SenderBlock(&rec.Sender))
		}
	case models.TransportByRecipient:
		r.drawBlock(c, party, DestinationBlock(&rec.Destination, &rec.Recipient))
	}

	notes := r.box(c, RegionAnnotations, r.layout.Label(RegionAnnotations))
	if strings.TrimSpace(rec.Annotations) == "" {
		return
	}
	lines := splitLines(rec.Annotations)
	if len(lines) > annotationLines {
		lines = lines[:annotationLines]
	}
	y := notes.Y + pt(25)
	for _, line := range lines {
		if y >= notes.Bottom()-pt(5) {
			break
		}
		text := textcase.Truncate(textcase.Apply(textcase.Text, line), annotationBudget, "")
		c.Text(notes.X+pt(5), y, text, fontBody)
		y += pt(10)
	}
}

func (r *Renderer) drawSignatures(c Canvas) {
	for _, id := range []Region{RegionSignSender, RegionSignCarrier, RegionSignRecipient} {
		r.box(c, id, r.layout.Label(id))
	}
}
