package ddtpdf

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Font: family, style ("" or "B"), size in points and text gray level (0 black, 1 white).
type Font struct {
	Family string
	Style  string
	Size   float64
	Gray   float64
}

var (
	fontLabel = Font{Family: "Times", Style: "B", Size: 8}
	fontTitle = Font{Family: "Times", Style: "B", Size: 18, Gray: 1}
	fontBody  = Font{Family: "Times", Size: 10}
	fontNote  = Font{Family: "Times", Size: 12}
)

// Canvas is the drawing surface of one page. Coordinates are in centimeters
// from the top-left corner; Text draws with y on the baseline.
type Canvas interface {
	FillRect(r Rect, gray float64)
	StrokeRect(r Rect, lineWidth float64)
	Line(x1, y1, x2, y2 float64)
	Text(x, y float64, s string, f Font)
	TextWidth(s string, f Font) float64
	// Image draws an encoded PNG/JPEG/GIF. A decoding failure leaves the
	// canvas usable.
	Image(r Rect, name string, data []byte) error
}

const defaultLineWidth = 1 // pt

// PDFCanvas draws on a single A4 page with fpdf.
type PDFCanvas struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
}

func NewPDFCanvas(p Page) *PDFCanvas {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "cm",
		Size:           fpdf.SizeType{Wd: p.Width, Ht: p.Height},
	})
	pdf.SetMargins(p.MarginLeft, p.MarginTop, p.MarginRight)
	pdf.SetAutoPageBreak(false, p.MarginBottom)
	pdf.SetCatalogSort(true)
	pdf.AddPage()
	pdf.SetLineWidth(pt(defaultLineWidth))
	pdf.SetDrawColor(0, 0, 0)

	return &PDFCanvas{
		pdf:       pdf,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func gray255(g float64) int {
	switch {
	case g <= 0:
		return 0
	case g >= 1:
		return 255
	default:
		return int(g*255 + 0.5)
	}
}

func (c *PDFCanvas) FillRect(r Rect, gray float64) {
	v := gray255(gray)
	c.pdf.SetFillColor(v, v, v)
	c.pdf.Rect(r.X, r.Y, r.W, r.H, "F")
}

func (c *PDFCanvas) StrokeRect(r Rect, lineWidth float64) {
	c.pdf.SetLineWidth(pt(lineWidth))
	c.pdf.Rect(r.X, r.Y, r.W, r.H, "D")
	c.pdf.SetLineWidth(pt(defaultLineWidth))
}

func (c *PDFCanvas) Line(x1, y1, x2, y2 float64) {
	c.pdf.Line(x1, y1, x2, y2)
}

func (c *PDFCanvas) setFont(f Font) {
	c.pdf.SetFont(f.Family, f.Style, f.Size)
	v := gray255(f.Gray)
	c.pdf.SetTextColor(v, v, v)
}

func (c *PDFCanvas) Text(x, y float64, s string, f Font) {
	c.setFont(f)
	c.pdf.Text(x, y, c.translate(s))
}

func (c *PDFCanvas) TextWidth(s string, f Font) float64 {
	c.setFont(f)
	return c.pdf.GetStringWidth(c.translate(s))
}

func (c *PDFCanvas) Image(r Rect, name string, data []byte) error {
	opts := fpdf.ImageOptions{ImageType: imageType(name, data)}
	if opts.ImageType == "" {
		return fmt.Errorf("formato immagine non supportato: %s", name)
	}

	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if c.pdf.Err() {
		err := c.pdf.Error()
		c.pdf.ClearError()
		return err
	}
	c.pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, opts, 0, "")
	if c.pdf.Err() {
		err := c.pdf.Error()
		c.pdf.ClearError()
		return err
	}
	return nil
}

func imageType(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	}
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}

func (c *PDFCanvas) PageCount() int {
	return c.pdf.PageCount()
}

// Output finalizes the document into w.
func (c *PDFCanvas) Output(w io.Writer) error {
	if c.pdf.Err() {
		return c.pdf.Error()
	}
	return c.pdf.Output(w)
}

func (c *PDFCanvas) SetMetadata(title, author string) {
	c.pdf.SetTitle(title, true)
	c.pdf.SetAuthor(author, true)
	c.pdf.SetCreator("ddt-backend", true)
}
