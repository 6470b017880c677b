package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShipmentSchemaVersion is stamped on every shipment written by this service.
const ShipmentSchemaVersion = 1

// CargoItem is one line of cargo inside a shipment.
type CargoItem struct {
	Description string  `json:"description" bson:"description"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	Weight      float64 `json:"weight" bson:"weight"` // in kilograms
	CBM         float64 `json:"cbm" bson:"cbm"`       // cubic meters
	Rate        float64 `json:"rate,omitempty" bson:"rate,omitempty"`
}

// TotalCost is cbm × rate. A zero item rate falls back to fallbackRate.
func (i CargoItem) TotalCost(fallbackRate float64) float64 {
	rate := i.Rate
	if rate <= 0 {
		rate = fallbackRate
	}
	return safeAmount(i.CBM) * safeAmount(rate)
}

// Shipment represents a consignee's cargo moving from origin to destination.
type Shipment struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TrackingNumber   string             `json:"tracking_number" bson:"tracking_number"`
	DateReceived     string             `json:"date_received" bson:"date_received"` // YYYY-MM-DD
	Status           string             `json:"status" bson:"status"`
	Origin           string             `json:"origin" bson:"origin"`
	Destination      string             `json:"destination" bson:"destination"`
	Mode             string             `json:"mode" bson:"mode"` // "Sea Freight", "Air Freight"
	ConsigneeName    string             `json:"consignee_name" bson:"consignee_name"`
	ConsigneePhone   string             `json:"consignee_phone" bson:"consignee_phone"`
	ConsigneeAddress string             `json:"consignee_address" bson:"consignee_address"`
	ContainerID      string             `json:"container_id" bson:"container_id"`
	RatePerCBM       float64            `json:"rate_per_cbm" bson:"rate_per_cbm"`
	ShippingFee      float64            `json:"shipping_fee" bson:"shipping_fee"`
	Items            []CargoItem        `json:"items" bson:"items"`
	// TotalVolume and TotalCost are cached at write time and refreshed on read.
	TotalVolume   float64   `json:"total_volume" bson:"total_volume"`
	TotalCost     float64   `json:"total_cost" bson:"total_cost"`
	SchemaVersion int       `json:"schema_version" bson:"schema_version"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	LastUpdated   time.Time `json:"last_updated" bson:"last_updated"`
}

// Totals recomputes volume and cost from the current items and rates.
func (s *Shipment) Totals() Totals {
	return ComputeTotals(s.Items, s.RatePerCBM, s.ShippingFee)
}

// RefreshTotals overwrites the cached totals with freshly computed values.
func (s *Shipment) RefreshTotals() {
	t := s.Totals()
	s.TotalVolume = t.TotalVolume
	s.TotalCost = t.TotalCost
}

// Quantity is the number of packages across all items.
func (s *Shipment) Quantity() int {
	n := 0
	for _, it := range s.Items {
		if it.Quantity > 0 {
			n += it.Quantity
		}
	}
	return n
}

// Totals holds the derived volume and cost of a shipment at full precision.
type Totals struct {
	TotalVolume float64 `json:"total_volume"`
	TotalCost   float64 `json:"total_cost"`
}

// Display rounds both values to two decimals.
func (t Totals) Display() Totals {
	return Totals{TotalVolume: round2(t.TotalVolume), TotalCost: round2(t.TotalCost)}
}

// ComputeTotals sums item volume and prices each item at its own rate, or at
// ratePerCBM when it has none, plus the flat fee. Invalid or negative inputs
// count as zero.
func ComputeTotals(items []CargoItem, ratePerCBM, shippingFee float64) Totals {
	var vol, cost float64
	for _, it := range items {
		vol += safeAmount(it.CBM)
		cost += it.TotalCost(ratePerCBM)
	}
	return Totals{
		TotalVolume: vol,
		TotalCost:   cost + safeAmount(shippingFee),
	}
}

func safeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
