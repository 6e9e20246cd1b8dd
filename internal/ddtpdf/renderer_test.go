package ddtpdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddt-backend/internal/models"
)

type textOp struct {
	X, Y float64
	S    string
	Font Font
}

// recorder is a Canvas that keeps every call.
type recorder struct {
	texts   []textOp
	fills   []Rect
	strokes []Rect
	lines   int
	images  []string
	failImg error
}

func (r *recorder) FillRect(rect Rect, _ float64)   { r.fills = append(r.fills, rect) }
func (r *recorder) StrokeRect(rect Rect, _ float64) { r.strokes = append(r.strokes, rect) }
func (r *recorder) Line(_, _, _, _ float64)         { r.lines++ }
func (r *recorder) Text(x, y float64, s string, f Font) {
	r.texts = append(r.texts, textOp{x, y, s, f})
}
func (r *recorder) TextWidth(s string, f Font) float64 {
	return float64(len([]rune(s))) * pt(f.Size) * 0.5
}
func (r *recorder) Image(_ Rect, name string, _ []byte) error {
	if r.failImg != nil {
		return r.failImg
	}
	r.images = append(r.images, name)
	return nil
}

func (r *recorder) has(s string) bool {
	for _, t := range r.texts {
		if t.S == s {
			return true
		}
	}
	return false
}

func (r *recorder) containing(sub string) []textOp {
	var out []textOp
	for _, t := range r.texts {
		if strings.Contains(t.S, sub) {
			out = append(out, t)
		}
	}
	return out
}

func (r *recorder) inside(rect Rect) []textOp {
	var out []textOp
	for _, t := range r.texts {
		if t.X >= rect.X && t.X <= rect.Right() && t.Y >= rect.Y && t.Y <= rect.Bottom() {
			out = append(out, t)
		}
	}
	return out
}

func (r *recorder) filled(rect Rect) bool {
	for _, f := range r.fills {
		if f == rect {
			return true
		}
	}
	return false
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	r := NewRenderer(Options{})
	r.readFile = func(string) ([]byte, error) { return nil, os.ErrNotExist }
	return r
}

func baseRecord() *models.TransportRecord {
	return &models.TransportRecord{
		Number:        "2024-0007",
		DocumentDate:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		PickupDate:    time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		Sender:        models.Sender{ID: 1, Name: "azienda agricola rossi", VATNumber: "09876543210"},
		Recipient:     models.Recipient{ID: 2, Name: "macelleria bianchi", City: "parma"},
		DestinationID: 3,
		Destination:   models.Destination{ID: 3, Name: "stalla nord", Address: "via po 1", StallCode: "it001"},
		Reason:        models.TransportReason{Code: "VEN", Description: "Vendita"},
		TransportMode: models.TransportBySender,
	}
}

func item(order int, name string) models.LineItem {
	return models.LineItem{
		Order:    order,
		Quantity: decimal.NewFromInt(int64(order)),
		Article:  models.Article{Name: name, Unit: "capi"},
	}
}

func TestDraw_LineItemsWinOverCentralNotes(t *testing.T) {
	rec := baseRecord()
	rec.CentralNotes = "vitelli da ingrasso"
	rec.Items = []models.LineItem{item(1, "vitello")}

	c := &recorder{}
	r := testRenderer(t)
	r.Draw(c, rec)

	assert.True(t, c.has("Vitello"))
	assert.Empty(t, c.containing("Ingrasso"))
	assert.False(t, c.filled(r.Layout().Rect(RegionCentralNote)))
}

func TestDraw_CentralNotesWithoutItems(t *testing.T) {
	rec := baseRecord()
	rec.CentralNotes = "vitelli da ingrasso\nlotto 42"

	c := &recorder{}
	r := testRenderer(t)
	r.Draw(c, rec)

	note := r.Layout().Rect(RegionCentralNote)
	assert.True(t, c.filled(note))
	got := c.inside(note)
	require.Len(t, got, 2)
	assert.Equal(t, "Vitelli Da Ingrasso", got[0].S)
	assert.Equal(t, "Lotto 42", got[1].S)
	assert.Equal(t, fontNote, got[0].Font)

	// the empty grid still has its header and ten framed rows
	for i := 0; i < TableRows; i++ {
		assert.Contains(t, c.strokes, r.Layout().Row(i))
	}
}

func TestDraw_EmptyTableGrid(t *testing.T) {
	c := &recorder{}
	r := testRenderer(t)
	r.Draw(c, baseRecord())

	assert.Contains(t, c.strokes, r.Layout().Rect(RegionTableHeader))
	for i := 0; i < TableRows; i++ {
		assert.Contains(t, c.strokes, r.Layout().Row(i))
	}
	assert.Empty(t, c.inside(r.Layout().Rect(RegionTableBody)))
	assert.False(t, c.filled(r.Layout().Rect(RegionCentralNote)))
}

func TestDraw_FirstTenItemsByOrder(t *testing.T) {
	rec := baseRecord()
	for i := 15; i >= 1; i-- {
		rec.Items = append(rec.Items, item(i, fmt.Sprintf("articolo%02d", i)))
	}

	c := &recorder{}
	r := testRenderer(t)
	r.Draw(c, rec)

	for i := 1; i <= 10; i++ {
		name := fmt.Sprintf("Articolo%02d", i)
		ops := c.containing(name)
		require.Len(t, ops, 1, name)
		// row i-1 from the top
		assert.InDelta(t, r.Layout().Row(i-1).Bottom()-pt(5), ops[0].Y, eps)
	}
	for i := 11; i <= 15; i++ {
		assert.Empty(t, c.containing(fmt.Sprintf("Articolo%02d", i)))
	}
	assert.True(t, c.has("CAPI"))
	assert.True(t, c.has("10.00"))
	assert.False(t, c.has("11.00"))
}

func TestRowDescription_Truncation(t *testing.T) {
	long := models.LineItem{Article: models.Article{Name: strings.Repeat("a", 80)}}
	got := RowDescription(long)
	assert.Len(t, []rune(got), 60)
	assert.True(t, strings.HasSuffix(got, "..."))

	short := models.LineItem{Article: models.Article{Name: "Bovini Adulti Razza"}, Description: ""}
	assert.Equal(t, "Bovini Adulti Razza", RowDescription(short))

	withDesc := models.LineItem{Article: models.Article{Name: "bovino"}, Description: "razza frisona"}
	assert.Equal(t, "Bovino - Razza Frisona", RowDescription(withDesc))
}

func TestDraw_TruncatedDescriptionInOutput(t *testing.T) {
	rec := baseRecord()
	rec.Items = []models.LineItem{
		{Order: 1, Quantity: decimal.NewFromInt(1), Article: models.Article{Name: strings.Repeat("b", 80), Unit: "kg"}},
		{Order: 2, Quantity: decimal.NewFromInt(1), Article: models.Article{Name: strings.Repeat("c", 20), Unit: "kg"}},
	}

	c := &recorder{}
	testRenderer(t).Draw(c, rec)

	assert.True(t, c.has("B"+strings.Repeat("b", 56)+"..."))
	assert.True(t, c.has("C"+strings.Repeat("c", 19)))
}

func TestDraw_OptionalFieldsMissing(t *testing.T) {
	rec := baseRecord()
	rec.TransportMode = models.TransportByCarrier
	rec.Carrier = nil

	c := &recorder{}
	r := testRenderer(t)
	r.Draw(c, rec)

	assert.True(t, c.has("VETTORE:"))
	party := r.Layout().Rect(RegionParty)
	for _, op := range c.inside(party) {
		assert.Equal(t, "VETTORE:", op.S)
	}

	logo := r.Layout().Rect(RegionLogo)
	assert.True(t, c.filled(logo))
	assert.True(t, c.has("LOGO"))
	assert.Empty(t, c.images)
}

func TestDraw_LogoFallbackChain(t *testing.T) {
	rec := baseRecord()
	rec.Sender.LogoPath = "sender.png"
	site := &models.SenderSite{Address: "via roma 1", City: "lodi", Sender: &models.Sender{Name: "rossi", LogoPath: "site-owner.png"}}

	r := NewRenderer(Options{DefaultLogoPath: "default.png"})
	r.readFile = func(string) ([]byte, error) { return []byte("img"), nil }

	c := &recorder{}
	r.Draw(c, rec)
	assert.Equal(t, []string{"sender.png"}, c.images)

	rec.SenderSite = site
	c = &recorder{}
	r.Draw(c, rec)
	assert.Equal(t, []string{"site-owner.png"}, c.images)

	rec.SenderSite = nil
	rec.Sender.LogoPath = ""
	c = &recorder{}
	r.Draw(c, rec)
	assert.Equal(t, []string{"default.png"}, c.images)

	// an undecodable image falls back to the placeholder
	c = &recorder{failImg: errors.New("bad png")}
	r.Draw(c, rec)
	assert.True(t, c.has("LOGO"))
}

func TestDraw_PartyBoxFollowsTransportMode(t *testing.T) {
	rec := baseRecord()
	rec.TransportMode = models.TransportByCarrier
	rec.Carrier = &models.Carrier{Name: "trasporti veloci"}
	rec.Plate = &models.VehiclePlate{Plate: "ab123cd"}
	rec.Driver = &models.Driver{FirstName: "luca", LastName: "verdi"}

	c := &recorder{}
	r := testRenderer(t)
	r.Draw(c, rec)
	assert.True(t, c.has("VETTORE:"))
	assert.True(t, c.has("Vettore"))
	assert.True(t, c.has("Autista: Luca Verdi"))
	assert.True(t, c.has("Targhe: AB123CD"))

	rec.TransportMode = models.TransportByRecipient
	c = &recorder{}
	r.Draw(c, rec)
	assert.True(t, c.has("DESTINATARIO:"))
	party := c.inside(r.Layout().Rect(RegionParty))
	var texts []string
	for _, op := range party {
		texts = append(texts, op.S)
	}
	assert.Contains(t, texts, "Codice Stalla: IT001")

	rec.TransportMode = models.TransportBySender
	c = &recorder{}
	r.Draw(c, rec)
	assert.True(t, c.has("MITTENTE:"))
}

func TestDraw_NumberAndDates(t *testing.T) {
	rec := baseRecord()
	rec.Number = "-0003"

	c := &recorder{}
	testRenderer(t).Draw(c, rec)

	assert.True(t, c.has("DDT N° 0003 - Data: 15/03/2024"))
	assert.True(t, c.has("16/03/2024"))
	assert.True(t, c.has("VEN - Vendita"))
}

func TestDraw_AnnotationsFitTheBox(t *testing.T) {
	rec := baseRecord()
	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("nota %d", i))
	}
	rec.Annotations = strings.Join(lines, "\n")

	c := &recorder{}
	r := testRenderer(t)
	r.Draw(c, rec)

	box := r.Layout().Rect(RegionAnnotations)
	got := c.containing("Nota ")
	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), annotationLines)
	for _, op := range got {
		assert.Less(t, op.Y, box.Bottom()-pt(5))
	}
	assert.Equal(t, "Nota 1", got[0].S)
}

func TestDraw_TitleIsCentered(t *testing.T) {
	c := &recorder{}
	r := testRenderer(t)
	r.Draw(c, baseRecord())

	band := r.Layout().Rect(RegionTitle)
	var letters []textOp
	for _, op := range c.texts {
		if op.Font == fontTitle {
			letters = append(letters, op)
		}
	}
	require.Len(t, letters, len("DOCUMENTO DI TRASPORTO"))

	last := letters[len(letters)-1]
	end := last.X + c.TextWidth(last.S, fontTitle) + pt(titleLetterSpacing)
	assert.InDelta(t, band.X+band.W/2, (letters[0].X+end)/2, 1e-6)
}

var pageObject = regexp.MustCompile(`/Type /Page\b[^s]`)

func TestRender_SinglePagePDF(t *testing.T) {
	rec := baseRecord()
	rec.TransportMode = models.TransportByCarrier
	rec.Items = []models.LineItem{item(1, "vitello")}
	rec.Destination.Name = "Città di Castello"

	r := NewRenderer(Options{DefaultLogoPath: filepath.Join(t.TempDir(), "missing.png")})
	var buf bytes.Buffer
	require.NoError(t, r.Render(rec, &buf))

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Len(t, pageObject.FindAll(out, -1), 1)
}

var corruptImages = map[string][]byte{
	"logo.png": append([]byte("\x89PNG\r\n\x1a\n"), []byte("not really a png")...),
	"logo.jpg": append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte("truncated jpeg")...),
}

func TestPDFCanvas_CorruptImage(t *testing.T) {
	for name, data := range corruptImages {
		t.Run(name, func(t *testing.T) {
			c := NewPDFCanvas(A4)
			err := c.Image(Rect{X: 1, Y: 1, W: 3, H: 2}, name, data)
			assert.Error(t, err)

			var buf bytes.Buffer
			require.NoError(t, c.Output(&buf))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
		})
	}
}

func TestRender_CorruptLogoFile(t *testing.T) {
	for name, data := range corruptImages {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, data, 0o644))

			r := NewRenderer(Options{DefaultLogoPath: path})
			out, err := r.RenderBytes(baseRecord())
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
			assert.Len(t, pageObject.FindAll(out, -1), 1)
		})
	}
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", AttachmentName("2024/0007"))

	r := testRenderer(t)
	require.NoError(t, r.RenderFile(baseRecord(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestRenderFile_UnwritableTarget(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// a regular file where a directory is expected
	err := testRenderer(t).RenderFile(baseRecord(), filepath.Join(blocker, "DDT_1.pdf"))
	assert.ErrorIs(t, err, ErrRender)
	_, statErr := os.Stat(filepath.Join(blocker, "DDT_1.pdf"))
	assert.Error(t, statErr)
}

func TestAttachmentName(t *testing.T) {
	assert.Equal(t, "DDT_2024-0001.pdf", AttachmentName("2024-0001"))
	assert.Equal(t, "DDT_2024_03_001.pdf", AttachmentName("2024/03/001"))
	assert.Equal(t, "DDT_A_B.pdf", AttachmentName(`A\B`))
	assert.Equal(t, "DDT_7_ x_.pdf", AttachmentName("7\" x;"))
	assert.Equal(t, "DDT_1_2_3.pdf", AttachmentName("1\r2\t3"))
}
