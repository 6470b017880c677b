// Package documents builds invoices and manifests from shipments and container
// groups and renders them as PDF.
package documents

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jaybesin/logistics-console/internal/models"
)

// DocType selects the title and purpose of a document.
type DocType string

const (
	Invoice      DocType = "INVOICE"
	BillOfLading DocType = "BILL_OF_LADING"
	PackingList  DocType = "PACKING_LIST"
	Manifest     DocType = "MANIFEST"
)

var titles = map[DocType]string{
	Invoice:      "COMMERCIAL INVOICE",
	BillOfLading: "BILL OF LADING",
	PackingList:  "PACKING LIST",
	Manifest:     "CONTAINER MANIFEST",
}

// ParseDocType accepts the code or the title in any case. Empty means Invoice.
func ParseDocType(s string) (DocType, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if key == "" {
		return Invoice, nil
	}
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if _, ok := titles[DocType(key)]; ok {
		return DocType(key), nil
	}
	for dt, title := range titles {
		if strings.ReplaceAll(title, " ", "_") == key {
			return dt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDocType, s)
}

// Title is the heading printed on the document.
func (d DocType) Title() string {
	return titles[d]
}

// Party is a named counterparty on a document.
type Party struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Company is the issuer snapshot taken from settings at build time.
type Company struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Logo          string `json:"-"`
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	Terms         string `json:"terms"`
	FooterText    string `json:"footer_text"`
}

// LineItem is one priced row. TotalCost is in USD; Amount is in the document currency.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Weight      float64         `json:"weight"`
	CBM         float64         `json:"cbm"`
	Rate        decimal.Decimal `json:"rate"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	Amount      decimal.Decimal `json:"amount"`
}

// Document is a transient invoice or manifest. It is never persisted.
type Document struct {
	DocType      DocType         `json:"doc_type"`
	ReferenceID  string          `json:"reference_id"`
	Consignee    Party           `json:"consignee"`
	Origin       string          `json:"origin"`
	Destination  string          `json:"destination"`
	Mode         string          `json:"mode"`
	ContainerID  string          `json:"container_id"`
	Items        []LineItem      `json:"items"`
	Currency     Currency        `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	IssuedAt     time.Time       `json:"issued_at"`
	Company      Company         `json:"company"`
}

// Title is the heading for the document type.
func (d *Document) Title() string { return d.DocType.Title() }

// Subtotal sums line amounts in the document currency.
func (d *Document) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range d.Items {
		sum = sum.Add(it.Amount)
	}
	return sum
}

// SubtotalUSD sums line costs before conversion.
func (d *Document) SubtotalUSD() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range d.Items {
		sum = sum.Add(it.TotalCost)
	}
	return sum
}

// TotalVolume sums line CBM.
func (d *Document) TotalVolume() float64 {
	var v float64
	for _, it := range d.Items {
		v += it.CBM
	}
	return v
}

// Build assembles a document from src. The exchange rate is copied out of
// settings now, so later settings changes do not alter this document.
func Build(src Source, docType DocType, currency Currency, settings models.Settings, now time.Time) (*Document, error) {
	if _, ok := titles[docType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocType, docType)
	}
	if currency != USD && currency != GHS {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, currency)
	}
	if err := checkSettings(settings, currency); err != nil {
		return nil, err
	}

	data := src.describe()
	if len(data.items) == 0 {
		return nil, ErrNoItems
	}

	rate := decimal.NewFromInt(1)
	if currency == GHS {
		rate = dec(settings.CurrencyRate)
	}

	items := make([]LineItem, len(data.items))
	for i, it := range data.items {
		it.Amount = Convert(it.TotalCost, currency, rate)
		items[i] = it
	}

	return &Document{
		DocType:      docType,
		ReferenceID:  data.reference,
		Consignee:    data.consignee,
		Origin:       data.origin,
		Destination:  data.destination,
		Mode:         data.mode,
		ContainerID:  data.containerID,
		Items:        items,
		Currency:     currency,
		ExchangeRate: rate,
		IssuedAt:     now,
		Company: Company{
			Name:          settings.CompanyName,
			Address:       settings.CompanyAddress,
			Email:         settings.CompanyEmail,
			Phone:         settings.CompanyPhone,
			Logo:          settings.Logo,
			BankName:      settings.BankName,
			AccountName:   settings.AccountName,
			AccountNumber: settings.AccountNumber,
			Terms:         settings.TermsAndConditions,
			FooterText:    settings.FooterText,
		},
	}, nil
}

func checkSettings(s models.Settings, currency Currency) error {
	var missing []string
	required := []struct {
		field string
		value string
	}{
		{"company_name", s.CompanyName},
		{"bank_name", s.BankName},
		{"account_name", s.AccountName},
		{"account_number", s.AccountNumber},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if currency == GHS && !(s.CurrencyRate > 0) {
		missing = append(missing, "currency_rate")
	}
	if len(missing) > 0 {
		return &MissingSettingsError{Fields: missing}
	}
	return nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is "{TITLE_WITH_UNDERSCORES}_{reference}.pdf".
func FileName(d *Document) string {
	ref := unsafeFileChars.ReplaceAllString(strings.TrimSpace(d.ReferenceID), "-")
	if ref == "" {
		ref = "DRAFT"
	}
	return strings.ReplaceAll(d.Title(), " ", "_") + "_" + ref + ".pdf"
}
