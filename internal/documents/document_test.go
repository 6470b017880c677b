package documents

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaybesin/logistics-console/internal/containers"
	"github.com/jaybesin/logistics-console/internal/models"
)

var issued = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func sampleShipment() models.Shipment {
	return models.Shipment{
		TrackingNumber:   "JB-CN-100203",
		ConsigneeName:    "Ama Mensah",
		ConsigneePhone:   "+233 20 000 0000",
		ConsigneeAddress: "East Legon, Accra",
		Origin:           "Guangzhou, China",
		Destination:      "Accra, Ghana",
		Mode:             "Sea Freight",
		ContainerID:      "CN-001",
		RatePerCBM:       450,
		ShippingFee:      50,
		Items: []models.CargoItem{
			{Description: "Shoes", Quantity: 4, CBM: 1.5},
			{Description: "", Quantity: 2, CBM: 2.0},
		},
	}
}

func TestBuild_ScenarioE(t *testing.T) {
	s := models.Shipment{
		TrackingNumber: "JB-CN-555555",
		ConsigneeName:  "Kofi",
		RatePerCBM:     100,
		Items:          []models.CargoItem{{Description: "Crate", Quantity: 1, CBM: 1}},
	}
	settings := models.DefaultSettings()
	settings.CurrencyRate = 15.8

	doc, err := Build(ShipmentSource{Shipment: s}, Invoice, GHS, settings, issued)
	require.NoError(t, err)
	assert.Equal(t, "1,580.00", FormatAmount(doc.Subtotal()))
	assert.True(t, doc.SubtotalUSD().Equal(decimal.NewFromInt(100)))
	assert.True(t, doc.ExchangeRate.Equal(decimal.NewFromFloat(15.8)))
}

func TestBuild_ShipmentLines(t *testing.T) {
	s := sampleShipment()
	doc, err := Build(ShipmentSource{Shipment: s}, Invoice, USD, models.DefaultSettings(), issued)
	require.NoError(t, err)

	require.Len(t, doc.Items, 3)
	assert.Equal(t, "Shoes", doc.Items[0].Description)
	assert.Equal(t, "General Cargo", doc.Items[1].Description)
	assert.Equal(t, "Shipping & Handling", doc.Items[2].Description)
	assert.True(t, doc.Items[0].TotalCost.Equal(decimal.NewFromInt(675)))
	assert.True(t, doc.Items[2].Amount.Equal(decimal.NewFromInt(50)))

	s.RefreshTotals()
	assert.Equal(t, FormatAmount(decimal.NewFromFloat(s.TotalCost)), FormatAmount(doc.Subtotal()),
		"document subtotal must equal the shipment total")
	assert.Equal(t, "1,625.00", FormatAmount(doc.Subtotal()))

	assert.Equal(t, "JB-CN-100203", doc.ReferenceID)
	assert.Equal(t, "Ama Mensah", doc.Consignee.Name)
	assert.Equal(t, "CN-001", doc.ContainerID)
	assert.Equal(t, models.DefaultSettings().BankName, doc.Company.BankName)
	assert.Equal(t, issued, doc.IssuedAt)
}

func TestBuild_ItemRateOverridesShipmentRate(t *testing.T) {
	s := sampleShipment()
	s.Items = []models.CargoItem{
		{Description: "Machine", Quantity: 1, CBM: 2, Rate: 500},
		{Description: "Spares", Quantity: 3, CBM: 1},
	}
	s.RefreshTotals()
	assert.InDelta(t, 1500.0, s.TotalCost, 1e-9)

	doc, err := Build(ShipmentSource{Shipment: s}, Invoice, USD, models.DefaultSettings(), issued)
	require.NoError(t, err)
	require.Len(t, doc.Items, 3)
	assert.True(t, doc.Items[0].TotalCost.Equal(decimal.NewFromInt(1000)))
	assert.True(t, doc.Items[1].TotalCost.Equal(decimal.NewFromInt(450)))
	assert.Equal(t, FormatAmount(decimal.NewFromFloat(s.TotalCost)), FormatAmount(doc.Subtotal()))

	group, err := containers.Find([]models.Shipment{s}, "CN-001")
	require.NoError(t, err)
	manifest, err := Build(ContainerSource{Group: group}, Manifest, USD, models.DefaultSettings(), issued)
	require.NoError(t, err)
	assert.Equal(t, FormatAmount(doc.Subtotal()), FormatAmount(manifest.Subtotal()))
}

func TestBuild_Container(t *testing.T) {
	a := sampleShipment()
	b := sampleShipment()
	b.TrackingNumber = "JB-CN-100204"
	b.ConsigneeName = "Kwame"
	b.Mode = "Air Freight"
	group, err := containers.Find([]models.Shipment{a, b}, "CN-001")
	require.NoError(t, err)

	doc, err := Build(ContainerSource{Group: group}, Manifest, USD, models.DefaultSettings(), issued)
	require.NoError(t, err)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, "JB-CN-100203 — Ama Mensah", doc.Items[0].Description)
	assert.Equal(t, 6, doc.Items[0].Quantity)
	assert.InDelta(t, 3.5, doc.Items[0].CBM, 1e-9)
	assert.Equal(t, "Container Manifest", doc.Consignee.Name)
	assert.Equal(t, "Logistics Terminal Port", doc.Consignee.Address)
	assert.Equal(t, "CN-001", doc.ReferenceID)
	assert.Equal(t, "Guangzhou, China", doc.Origin)
	assert.Equal(t, "Multiple", doc.Mode)
	assert.Equal(t, "3,250.00", FormatAmount(doc.Subtotal()))
	assert.Equal(t, "CONTAINER MANIFEST", doc.Title())
}

func TestBuild_Errors(t *testing.T) {
	empty := sampleShipment()
	empty.Items = nil

	noBank := models.DefaultSettings()
	noBank.BankName = ""
	noBank.AccountNumber = " "

	noRate := models.DefaultSettings()
	noRate.CurrencyRate = 0

	tests := []struct {
		name     string
		src      Source
		docType  DocType
		currency Currency
		settings models.Settings
		want     error
	}{
		{"no items", ShipmentSource{Shipment: empty}, Invoice, USD, models.DefaultSettings(), ErrNoItems},
		{"missing bank", ShipmentSource{Shipment: sampleShipment()}, Invoice, USD, noBank, ErrMissingSettings},
		{"GHS without rate", ShipmentSource{Shipment: sampleShipment()}, Invoice, GHS, noRate, ErrMissingSettings},
		{"unknown doc type", ShipmentSource{Shipment: sampleShipment()}, DocType("RECEIPT"), USD, models.DefaultSettings(), ErrUnknownDocType},
		{"unknown currency", ShipmentSource{Shipment: sampleShipment()}, Invoice, Currency("EUR"), models.DefaultSettings(), ErrUnsupportedCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Build(tt.src, tt.docType, tt.currency, tt.settings, issued)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsStructural(err))
		})
	}
}

func TestBuild_MissingSettingsListsFields(t *testing.T) {
	settings := models.DefaultSettings()
	settings.CompanyName = ""
	settings.AccountName = ""

	_, err := Build(ShipmentSource{Shipment: sampleShipment()}, Invoice, USD, settings, issued)
	var missing *MissingSettingsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"company_name", "account_name"}, missing.Fields)
	assert.Contains(t, err.Error(), "company_name, account_name")
}

func TestBuild_SnapshotsExchangeRate(t *testing.T) {
	settings := models.DefaultSettings()
	doc, err := Build(ShipmentSource{Shipment: sampleShipment()}, Invoice, GHS, settings, issued)
	require.NoError(t, err)
	before := doc.Subtotal()

	settings.CurrencyRate = 99
	assert.True(t, doc.Subtotal().Equal(before))
	assert.True(t, doc.ExchangeRate.Equal(decimal.NewFromFloat(15.8)))
}

func TestConvert_RoundTrip(t *testing.T) {
	amounts := []float64{0.01, 1, 99.99, 1625, 123456.78}
	rates := []float64{0.5, 1, 12.345, 15.8}
	for _, a := range amounts {
		for _, r := range rates {
			usd := decimal.NewFromFloat(a)
			rate := decimal.NewFromFloat(r)
			ghs := Convert(usd, GHS, rate)
			back := ghs.Div(rate)
			assert.True(t, back.Sub(usd).Abs().LessThan(decimal.NewFromFloat(0.005)),
				"amount %v rate %v came back as %s", a, r, back)
		}
	}
	assert.True(t, Convert(decimal.NewFromInt(10), USD, decimal.NewFromInt(15)).Equal(decimal.NewFromInt(10)))
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   float64
		currency Currency
		want     string
	}{
		{1625, USD, "$1,625.00"},
		{1580, GHS, "GH₵1,580.00"},
		{0, USD, "$0.00"},
		{1234567.891, USD, "$1,234,567.89"},
		{0.005, USD, "$0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.NewFromFloat(tt.amount), tt.currency))
		})
	}
	assert.Equal(t, "GHS 1,580.00", formatMoneyPDF(decimal.NewFromInt(1580), GHS))
}

func TestParseDocType(t *testing.T) {
	tests := []struct {
		in   string
		want DocType
		err  bool
	}{
		{"", Invoice, false},
		{"invoice", Invoice, false},
		{"bill-of-lading", BillOfLading, false},
		{"PACKING_LIST", PackingList, false},
		{"Container Manifest", Manifest, false},
		{"commercial invoice", Invoice, false},
		{"receipt", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDocType(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnknownDocType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("ghs")
	require.NoError(t, err)
	assert.Equal(t, GHS, c)

	c, err = ParseCurrency("")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = ParseCurrency("EUR")
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "COMMERCIAL_INVOICE_JB-CN-100203.pdf", FileName(&Document{DocType: Invoice, ReferenceID: "JB-CN-100203"}))
	assert.Equal(t, "CONTAINER_MANIFEST_CN-001.pdf", FileName(&Document{DocType: Manifest, ReferenceID: "CN-001"}))
	assert.Equal(t, "BILL_OF_LADING_DRAFT.pdf", FileName(&Document{DocType: BillOfLading}))
	assert.Equal(t, "PACKING_LIST_CN-01-A.pdf", FileName(&Document{DocType: PackingList, ReferenceID: "CN/01 A"}))
}

func TestNewManualSource(t *testing.T) {
	now := time.UnixMilli(1709985123456)
	src := NewManualSource(now)
	assert.Equal(t, "MAN-123456", src.ReferenceID)
	require.Len(t, src.Items, 1)

	src.Consignee.Name = "Walk-in"
	src.Items = []ManualItem{{Description: "Consolidation", Quantity: 3, CBM: 2, Rate: 120}}
	doc, err := Build(src, Invoice, USD, models.DefaultSettings(), now)
	require.NoError(t, err)
	assert.Equal(t, "240.00", FormatAmount(doc.Subtotal()))
	assert.Equal(t, "China Hub", doc.Origin)

	src.Items = nil
	_, err = Build(src, Invoice, USD, models.DefaultSettings(), now)
	assert.ErrorIs(t, err, ErrNoItems)
}
