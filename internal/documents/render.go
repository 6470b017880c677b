package documents

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	margin      = 15.0
	footerSpace = 22.0
	lineHeight  = 4.5
	minRowH     = 8.0
	logoName    = "company-logo"
)

type rgb struct{ r, g, b int }

var (
	slate900 = rgb{15, 23, 42}
	slate500 = rgb{100, 116, 139}
	slate200 = rgb{226, 232, 240}
	slate50  = rgb{248, 250, 252}
	blue600  = rgb{37, 99, 235}
	muted    = rgb{150, 150, 150}
)

// fixed widths for Qty, Vol and Amount; Description takes the rest.
const (
	qtyW    = 20.0
	volW    = 30.0
	amountW = 40.0
)

// Render writes doc as a paginated A4 PDF.
func Render(doc *Document, w io.Writer) error {
	pdf, err := renderPDF(doc)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type renderer struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	doc   *Document
	pageW float64
	pageH float64
	descW float64
}

func renderPDF(doc *Document) (*fpdf.Fpdf, error) {
	if doc == nil || len(doc.Items) == 0 {
		return nil, ErrNoItems
	}

	r := newRenderer(doc)
	r.pdf.AddPage()

	r.header()
	y := r.parties()
	y = r.meta(y)
	y = r.table(y)
	r.closing(y)

	if r.pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", r.pdf.Error())
	}
	return r.pdf, nil
}

func newRenderer(doc *Document) *renderer {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.Title()+" "+doc.ReferenceID, true)
	pdf.SetCreator(doc.Company.Name, true)
	if !doc.IssuedAt.IsZero() {
		pdf.SetCreationDate(doc.IssuedAt)
	}
	pdf.AliasNbPages("")

	pageW, pageH := pdf.GetPageSize()
	r := &renderer{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		doc:   doc,
		pageW: pageW,
		pageH: pageH,
		descW: pageW - 2*margin - qtyW - volW - amountW,
	}
	pdf.SetFooterFunc(r.pageFooter)
	return r
}

func (r *renderer) limit() float64 { return r.pageH - footerSpace }

func (r *renderer) font(style string, size float64, c rgb) {
	r.pdf.SetFont("Helvetica", style, size)
	r.pdf.SetTextColor(c.r, c.g, c.b)
}

func (r *renderer) text(x, y float64, s string) {
	r.pdf.Text(x, y, r.tr(s))
}

func (r *renderer) rightText(y float64, s string) {
	t := r.tr(s)
	r.pdf.Text(r.pageW-margin-r.pdf.GetStringWidth(t), y, t)
}

// wrap splits s into lines no wider than w using the current font.
func (r *renderer) wrap(s string, w float64) []string {
	t := r.tr(strings.TrimSpace(s))
	if t == "" {
		return nil
	}
	var out []string
	for _, line := range r.pdf.SplitLines([]byte(t), w) {
		out = append(out, string(line))
	}
	return out
}

func (r *renderer) header() {
	r.logo()

	r.font("B", 20, slate900)
	r.rightText(22, r.doc.Title())

	ref := r.doc.ReferenceID
	if strings.TrimSpace(ref) == "" {
		ref = "DRAFT"
	}
	r.font("", 10, slate500)
	r.rightText(28, "Reference #"+ref)
	r.rightText(33, "Date: "+r.doc.IssuedAt.Format("2 January 2006"))
}

// logo draws the company logo from a data URL. Anything that cannot be
// decoded gets a filled placeholder square instead.
func (r *renderer) logo() {
	src := strings.TrimSpace(r.doc.Company.Logo)
	if src == "" {
		return
	}
	data, imgType, ok := decodeDataURL(src)
	if ok {
		r.pdf.RegisterImageOptionsReader(logoName, fpdf.ImageOptions{ImageType: imgType}, bytes.NewReader(data))
		if !r.pdf.Err() {
			r.pdf.ImageOptions(logoName, margin, margin, 30, 0, false, fpdf.ImageOptions{ImageType: imgType}, 0, "")
		}
		if !r.pdf.Err() {
			return
		}
		r.pdf.ClearError()
	}
	r.pdf.SetFillColor(blue600.r, blue600.g, blue600.b)
	r.pdf.Rect(margin, margin, 10, 10, "F")
}

func decodeDataURL(s string) ([]byte, string, bool) {
	if !strings.HasPrefix(s, "data:image/") {
		return nil, "", false
	}
	meta, payload, found := strings.Cut(strings.TrimPrefix(s, "data:image/"), ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return nil, "", false
	}
	imgType := strings.ToLower(strings.TrimSuffix(meta, ";base64"))
	switch imgType {
	case "png", "gif", "jpg":
	case "jpeg":
		imgType = "jpg"
	default:
		return nil, "", false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, "", false
	}
	return data, imgType, true
}

// parties draws the issuer on the left and the consignee on the right and
// returns the y below the taller of the two.
func (r *renderer) parties() float64 {
	const top = 50.0
	c := r.doc.Company

	r.font("B", 14, slate900)
	r.text(margin, top, c.Name)
	r.font("", 9, slate500)
	left := top + 6
	for _, line := range r.wrap(c.Address, 80) {
		r.pdf.Text(margin, left, line)
		left += 4
	}
	for _, s := range []string{c.Email, c.Phone} {
		if strings.TrimSpace(s) != "" {
			r.text(margin, left, s)
			left += 5
		}
	}

	r.font("B", 9, slate500)
	r.rightText(top, "BILL TO")
	r.font("B", 11, slate900)
	r.rightText(top+6, r.doc.Consignee.Name)
	r.font("", 9, slate500)
	right := top + 11
	if p := strings.TrimSpace(r.doc.Consignee.Phone); p != "" {
		r.rightText(right, p)
		right += 5
	}
	for _, line := range r.wrap(r.doc.Consignee.Address, 80) {
		r.pdf.Text(r.pageW-margin-r.pdf.GetStringWidth(line), right, line)
		right += 4
	}

	return math.Max(top+30, math.Max(left, right)+6)
}

func (r *renderer) meta(y float64) float64 {
	r.pdf.SetFillColor(slate50.r, slate50.g, slate50.b)
	r.pdf.SetDrawColor(slate200.r, slate200.g, slate200.b)
	r.pdf.Rect(margin, y, r.pageW-2*margin, 18, "FD")

	cells := []struct {
		label, value, empty string
		x                   float64
	}{
		{"ORIGIN", r.doc.Origin, "-", 20},
		{"DESTINATION", r.doc.Destination, "-", 60},
		{"MODE", r.doc.Mode, "-", 100},
		{"CONTAINER ID", r.doc.ContainerID, "N/A", 140},
	}
	for _, c := range cells {
		value := strings.TrimSpace(c.value)
		if value == "" {
			value = c.empty
		}
		r.font("B", 8, slate500)
		r.text(c.x, y+6, c.label)
		r.font("", 9, slate900)
		r.text(c.x, y+12, value)
	}
	return y + 25
}

func (r *renderer) tableHeader(y float64) float64 {
	r.font("B", 9, slate500)
	r.pdf.SetXY(margin, y)
	r.pdf.CellFormat(r.descW, minRowH, "Description", "", 0, "LM", false, 0, "")
	r.pdf.CellFormat(qtyW, minRowH, "Qty", "", 0, "CM", false, 0, "")
	r.pdf.CellFormat(volW, minRowH, "Vol (CBM)", "", 0, "RM", false, 0, "")
	r.pdf.CellFormat(amountW, minRowH, fmt.Sprintf("Amount (%s)", r.doc.Currency), "", 0, "RM", false, 0, "")
	r.pdf.SetDrawColor(slate200.r, slate200.g, slate200.b)
	r.pdf.SetLineWidth(0.5)
	r.pdf.Line(margin, y+minRowH, r.pageW-margin, y+minRowH)
	r.pdf.SetLineWidth(0.1)
	return y + minRowH
}

// table draws every line item, starting a new page with a repeated header
// whenever the next row would cross the bottom limit.
func (r *renderer) table(y float64) float64 {
	y = r.tableHeader(y)
	for _, it := range r.doc.Items {
		r.font("", 9, slate900)
		lines := r.wrap(it.Description, r.descW)
		if len(lines) == 0 {
			lines = []string{r.tr(fallbackDescription)}
		}
		h := math.Max(minRowH, float64(len(lines))*lineHeight+3.5)
		if y+h > r.limit() {
			r.pdf.AddPage()
			y = r.tableHeader(margin)
			r.font("", 9, slate900)
		}

		for i, line := range lines {
			r.pdf.Text(margin+1, y+5+float64(i)*lineHeight, line)
		}
		r.pdf.SetXY(margin+r.descW, y)
		r.pdf.CellFormat(qtyW, h, fmt.Sprint(it.Quantity), "", 0, "CM", false, 0, "")
		r.pdf.CellFormat(volW, h, fmt.Sprintf("%.3f", it.CBM), "", 0, "RM", false, 0, "")
		r.font("B", 9, slate900)
		r.pdf.CellFormat(amountW, h, r.tr(formatMoneyPDF(it.Amount, r.doc.Currency)), "", 0, "RM", false, 0, "")
		r.pdf.Line(margin, y+h, r.pageW-margin, y+h)
		y += h
	}

	if y+minRowH > r.limit() {
		r.pdf.AddPage()
		y = r.tableHeader(margin)
	}
	r.pdf.SetFillColor(slate50.r, slate50.g, slate50.b)
	r.font("B", 9, slate900)
	r.pdf.SetXY(margin, y)
	r.pdf.CellFormat(r.descW, minRowH, "Total", "", 0, "RM", true, 0, "")
	r.pdf.CellFormat(qtyW, minRowH, fmt.Sprint(len(r.doc.Items)), "", 0, "CM", true, 0, "")
	r.pdf.CellFormat(volW, minRowH, fmt.Sprintf("%.3f", r.doc.TotalVolume()), "", 0, "RM", true, 0, "")
	r.pdf.CellFormat(amountW, minRowH, r.tr(formatMoneyPDF(r.doc.Subtotal(), r.doc.Currency)), "", 0, "RM", true, 0, "")
	return y + minRowH
}

// closingText wraps the terms and footer text to the printable width in the
// small closing font.
func (r *renderer) closingText() (terms, footer []string) {
	r.font("", 8, muted)
	w := r.pageW - 2*margin
	return r.wrap(r.doc.Company.Terms, w), r.wrap(r.doc.Company.FooterText, w)
}

// closing draws, in order: payment details, total due, signature block, terms
// and footer text. The whole block moves to a new page if it does not fit.
func (r *renderer) closing(y float64) {
	c := r.doc.Company
	terms, footer := r.closingText()
	needed := 24.0 + 22.0 + float64(len(terms)+len(footer))*3.5 + 10.0

	y += 12
	if y+needed > r.limit() {
		r.pdf.AddPage()
		y = margin + 5
	}

	r.font("B", 9, slate900)
	r.text(margin, y, "Payment Details")
	r.font("", 9, slate500)
	r.text(margin, y+6, c.BankName)
	r.text(margin, y+11, "Account Name: "+c.AccountName)
	r.text(margin, y+16, "Account No: "+c.AccountNumber)

	r.font("B", 10, slate500)
	r.rightText(y, "Total Due")
	r.pdf.SetFont("Helvetica", "B", 16)
	r.pdf.SetTextColor(blue600.r, blue600.g, blue600.b)
	r.rightText(y+8, formatMoneyPDF(r.doc.Subtotal(), r.doc.Currency))
	y += 24

	r.pdf.SetDrawColor(slate500.r, slate500.g, slate500.b)
	r.pdf.Line(margin, y+10, margin+60, y+10)
	r.font("", 8, slate500)
	r.text(margin, y+14, "Authorized Signature")
	r.text(margin, y+18, "For "+c.Name)
	y += 22

	r.font("", 8, muted)
	for _, line := range terms {
		r.pdf.Text(margin, y, line)
		y += 3.5
	}
	y += 3
	for _, line := range footer {
		r.pdf.Text(margin, y, line)
		y += 3.5
	}
}

func (r *renderer) pageFooter() {
	r.pdf.SetY(-12)
	r.font("", 8, muted)
	r.pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", r.pdf.PageNo()), "", 0, "C", false, 0, "")
}
