package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name       string
		items      []CargoItem
		rate       float64
		fee        float64
		wantVolume float64
		wantCost   float64
	}{
		{"two items with fee", []CargoItem{{CBM: 1.5}, {CBM: 2.0}}, 450, 50, 3.5, 1625},
		{"no items", nil, 450, 50, 0, 50},
		{"negative cbm ignored", []CargoItem{{CBM: -3}, {CBM: 1}}, 100, 0, 1, 100},
		{"nan cbm ignored", []CargoItem{{CBM: math.NaN()}, {CBM: 0.25}}, 400, 0, 0.25, 100},
		{"negative rate treated as zero", []CargoItem{{CBM: 2}}, -10, 5, 2, 5},
		{"item rate overrides", []CargoItem{{CBM: 2, Rate: 500}, {CBM: 1}}, 450, 10, 3, 1460},
		{"negative item rate falls back", []CargoItem{{CBM: 2, Rate: -1}}, 450, 0, 2, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.items, tt.rate, tt.fee)
			assert.InDelta(t, tt.wantVolume, got.TotalVolume, 1e-9)
			assert.InDelta(t, tt.wantCost, got.TotalCost, 1e-9)
		})
	}
}

func TestComputeTotals_SumsExactly(t *testing.T) {
	items := []CargoItem{{CBM: 0.1}, {CBM: 0.2}, {CBM: 0.3}, {CBM: 1.234}}
	got := ComputeTotals(items, 333.33, 12.5)
	assert.InDelta(t, 1.834, got.TotalVolume, 1e-9)
	assert.InDelta(t, got.TotalVolume*333.33+12.5, got.TotalCost, 1e-9)
}

func TestTotals_Display(t *testing.T) {
	got := Totals{TotalVolume: 1.23456, TotalCost: 99.995}.Display()
	assert.Equal(t, 1.23, got.TotalVolume)
	assert.Equal(t, 100.0, got.TotalCost)
}

func TestShipment_RefreshTotals(t *testing.T) {
	s := Shipment{
		RatePerCBM:  450,
		ShippingFee: 50,
		Items:       []CargoItem{{CBM: 1.5}, {CBM: 2.0}},
		TotalVolume: 99,
		TotalCost:   1,
	}
	s.RefreshTotals()
	assert.InDelta(t, 3.5, s.TotalVolume, 1e-9)
	assert.InDelta(t, 1625.0, s.TotalCost, 1e-9)
}

func TestCargoItem_TotalCost(t *testing.T) {
	assert.InDelta(t, 900.0, CargoItem{CBM: 2}.TotalCost(450), 1e-9)
	assert.InDelta(t, 200.0, CargoItem{CBM: 2, Rate: 100}.TotalCost(450), 1e-9)
}

func TestShipment_Quantity(t *testing.T) {
	s := Shipment{Items: []CargoItem{{Quantity: 3}, {Quantity: -1}, {Quantity: 2}}}
	assert.Equal(t, 5, s.Quantity())
}
