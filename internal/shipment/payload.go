// Package shipment turns admin form input into sanitized shipment records.
package shipment

import (
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/stages"
)

const (
	DefaultOrigin        = "China"
	DefaultDestination   = "Ghana"
	DefaultMode          = "Sea Freight"
	DefaultConsigneeName = "Unknown Client"

	dateLayout = "2006-01-02"
)

// ItemForm is one cargo row as submitted by the admin console.
type ItemForm struct {
	Description string `json:"description"`
	Quantity    Number `json:"quantity"`
	Weight      Number `json:"weight"`
	CBM         Number `json:"cbm"`
	Rate        Number `json:"rate"`
}

// Form is the raw manifest form. Every field is optional until Validate.
type Form struct {
	TrackingNumber   string     `json:"tracking_number"`
	DateReceived     string     `json:"date_received"`
	Status           string     `json:"status"`
	Origin           string     `json:"origin"`
	Destination      string     `json:"destination"`
	Mode             string     `json:"mode"`
	ConsigneeName    string     `json:"consignee_name"`
	ConsigneePhone   string     `json:"consignee_phone"`
	ConsigneeAddress string     `json:"consignee_address"`
	ContainerID      string     `json:"container_id"`
	RatePerCBM       Number     `json:"rate_per_cbm"`
	ShippingFee      Number     `json:"shipping_fee"`
	Items            []ItemForm `json:"items"`
}

// FormFromShipment pre-fills a form for editing an existing record.
func FormFromShipment(s models.Shipment) Form {
	f := Form{
		TrackingNumber:   s.TrackingNumber,
		DateReceived:     s.DateReceived,
		Status:           s.Status,
		Origin:           s.Origin,
		Destination:      s.Destination,
		Mode:             s.Mode,
		ConsigneeName:    s.ConsigneeName,
		ConsigneePhone:   s.ConsigneePhone,
		ConsigneeAddress: s.ConsigneeAddress,
		ContainerID:      s.ContainerID,
		RatePerCBM:       Number(s.RatePerCBM),
		ShippingFee:      Number(s.ShippingFee),
		Items:            make([]ItemForm, 0, len(s.Items)),
	}
	for _, it := range s.Items {
		f.Items = append(f.Items, ItemForm{
			Description: it.Description,
			Quantity:    Number(it.Quantity),
			Weight:      Number(it.Weight),
			CBM:         Number(it.CBM),
			Rate:        Number(it.Rate),
		})
	}
	return f
}

// Overlay applies the fields set in patch on top of base. Blank strings and
// zero numbers keep the base value. Items are replaced only when patch
// carries an items list, which may be empty.
func Overlay(base, patch Form) Form {
	out := base
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&out.TrackingNumber, patch.TrackingNumber},
		{&out.DateReceived, patch.DateReceived},
		{&out.Status, patch.Status},
		{&out.Origin, patch.Origin},
		{&out.Destination, patch.Destination},
		{&out.Mode, patch.Mode},
		{&out.ConsigneeName, patch.ConsigneeName},
		{&out.ConsigneePhone, patch.ConsigneePhone},
		{&out.ConsigneeAddress, patch.ConsigneeAddress},
		{&out.ContainerID, patch.ContainerID},
	} {
		if strings.TrimSpace(f.src) != "" {
			*f.dst = f.src
		}
	}
	if patch.RatePerCBM.Float() != 0 {
		out.RatePerCBM = patch.RatePerCBM
	}
	if patch.ShippingFee.Float() != 0 {
		out.ShippingFee = patch.ShippingFee
	}
	if patch.Items != nil {
		out.Items = patch.Items
	}
	return out
}

// BuildShipmentPayload defaults every absent field, clamps negative numbers to
// zero and recomputes the cached totals. It never fails; call Validate first
// when the input must be rejected instead of repaired.
func BuildShipmentPayload(form Form, now time.Time) models.Shipment {
	s := models.Shipment{
		TrackingNumber:   strings.ToUpper(strings.TrimSpace(form.TrackingNumber)),
		DateReceived:     orDefault(form.DateReceived, now.Format(dateLayout)),
		Status:           orDefault(form.Status, stages.First()),
		Origin:           orDefault(form.Origin, DefaultOrigin),
		Destination:      orDefault(form.Destination, DefaultDestination),
		Mode:             orDefault(form.Mode, DefaultMode),
		ConsigneeName:    orDefault(form.ConsigneeName, DefaultConsigneeName),
		ConsigneePhone:   strings.TrimSpace(form.ConsigneePhone),
		ConsigneeAddress: strings.TrimSpace(form.ConsigneeAddress),
		ContainerID:      strings.TrimSpace(form.ContainerID),
		RatePerCBM:       form.RatePerCBM.NonNegative(),
		ShippingFee:      form.ShippingFee.NonNegative(),
		Items:            make([]models.CargoItem, 0, len(form.Items)),
		SchemaVersion:    models.ShipmentSchemaVersion,
		CreatedAt:        now,
		LastUpdated:      now,
	}
	for _, it := range form.Items {
		s.Items = append(s.Items, models.CargoItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    quantity(it.Quantity),
			Weight:      it.Weight.NonNegative(),
			CBM:         it.CBM.NonNegative(),
			Rate:        it.Rate.NonNegative(),
		})
	}
	s.RefreshTotals()
	return s
}

// UpdateFields lists the fields an edit may overwrite. Identity and creation
// time are left out so a merge never rewrites them.
func UpdateFields(s models.Shipment) bson.M {
	return bson.M{
		"tracking_number":   s.TrackingNumber,
		"date_received":     s.DateReceived,
		"status":            s.Status,
		"origin":            s.Origin,
		"destination":       s.Destination,
		"mode":              s.Mode,
		"consignee_name":    s.ConsigneeName,
		"consignee_phone":   s.ConsigneePhone,
		"consignee_address": s.ConsigneeAddress,
		"container_id":      s.ContainerID,
		"rate_per_cbm":      s.RatePerCBM,
		"shipping_fee":      s.ShippingFee,
		"items":             s.Items,
		"total_volume":      s.TotalVolume,
		"total_cost":        s.TotalCost,
		"schema_version":    s.SchemaVersion,
		"last_updated":      s.LastUpdated,
	}
}

// quantity clamps to [0, MaxInt32] so the int conversion cannot wrap.
func quantity(n Number) int {
	return int(math.Min(math.Floor(n.NonNegative()), math.MaxInt32))
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
