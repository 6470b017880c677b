package documents

import (
	"fmt"
	"strings"
	"time"

	"github.com/jaybesin/logistics-console/internal/containers"
	"github.com/jaybesin/logistics-console/internal/models"
)

const (
	fallbackDescription = "General Cargo"
	fallbackConsignee   = "Cash Customer"
	shippingLine        = "Shipping & Handling"
	manifestConsignee   = "Container Manifest"
	manifestAddress     = "Logistics Terminal Port"
	mixedValue          = "Multiple"
)

// Source is what a document can be built from: ShipmentSource,
// ContainerSource or ManualSource.
type Source interface {
	describe() sourceData
}

type sourceData struct {
	reference   string
	consignee   Party
	origin      string
	destination string
	mode        string
	containerID string
	items       []LineItem
}

// ShipmentSource bills a single shipment, one line per cargo item.
type ShipmentSource struct {
	Shipment models.Shipment
}

func (s ShipmentSource) describe() sourceData {
	sh := s.Shipment
	name := sh.ConsigneeName
	if strings.TrimSpace(name) == "" {
		name = fallbackConsignee
	}
	data := sourceData{
		reference:   sh.TrackingNumber,
		consignee:   Party{Name: name, Phone: sh.ConsigneePhone, Address: sh.ConsigneeAddress},
		origin:      sh.Origin,
		destination: sh.Destination,
		mode:        sh.Mode,
		containerID: sh.ContainerID,
	}
	for _, it := range sh.Items {
		rate := it.Rate
		if rate <= 0 {
			rate = sh.RatePerCBM
		}
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			desc = fallbackDescription
		}
		data.items = append(data.items, LineItem{
			Description: desc,
			Quantity:    it.Quantity,
			Weight:      it.Weight,
			CBM:         it.CBM,
			Rate:        dec(rate),
			TotalCost:   dec(it.CBM).Mul(dec(rate)),
		})
	}
	if len(data.items) > 0 && sh.ShippingFee > 0 {
		data.items = append(data.items, LineItem{
			Description: shippingLine,
			Quantity:    1,
			TotalCost:   dec(sh.ShippingFee),
		})
	}
	return data
}

// ContainerSource bills a container group, one line per shipment.
type ContainerSource struct {
	Group containers.Group
}

func (c ContainerSource) describe() sourceData {
	g := c.Group
	data := sourceData{
		reference:   g.ID,
		consignee:   Party{Name: manifestConsignee, Address: manifestAddress},
		containerID: g.ID,
	}
	var origins, destinations, modes []string
	for _, s := range g.Items {
		s.RefreshTotals()
		data.items = append(data.items, LineItem{
			Description: fmt.Sprintf("%s — %s", s.TrackingNumber, s.ConsigneeName),
			Quantity:    s.Quantity(),
			CBM:         s.TotalVolume,
			Rate:        dec(s.RatePerCBM),
			TotalCost:   dec(s.TotalCost),
		})
		origins = append(origins, s.Origin)
		destinations = append(destinations, s.Destination)
		modes = append(modes, s.Mode)
	}
	data.origin = common(origins)
	data.destination = common(destinations)
	data.mode = common(modes)
	return data
}

// common returns the shared value, or mixedValue when they differ.
func common(values []string) string {
	out := ""
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if out == "" {
			out = v
		} else if out != v {
			return mixedValue
		}
	}
	return out
}

// ManualItem is a free-form priced row.
type ManualItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	CBM         float64 `json:"cbm"`
	Rate        float64 `json:"rate"`
}

// ManualSource is an invoice typed in by an admin with no backing shipment.
type ManualSource struct {
	ReferenceID string       `json:"reference_id"`
	Consignee   Party        `json:"consignee"`
	Origin      string       `json:"origin"`
	Destination string       `json:"destination"`
	Mode        string       `json:"mode"`
	ContainerID string       `json:"container_id"`
	Items       []ManualItem `json:"items"`
}

// NewManualSource returns a blank manual invoice with a MAN-###### reference
// taken from the last six digits of the millisecond clock.
func NewManualSource(now time.Time) ManualSource {
	return ManualSource{
		ReferenceID: fmt.Sprintf("MAN-%06d", now.UnixMilli()%1000000),
		Origin:      "China Hub",
		Destination: "Ghana Terminal",
		Mode:        "Sea Freight",
		Items:       []ManualItem{{Quantity: 1}},
	}
}

func (m ManualSource) describe() sourceData {
	data := sourceData{
		reference:   m.ReferenceID,
		consignee:   m.Consignee,
		origin:      m.Origin,
		destination: m.Destination,
		mode:        m.Mode,
		containerID: m.ContainerID,
	}
	if strings.TrimSpace(data.consignee.Name) == "" {
		data.consignee.Name = fallbackConsignee
	}
	for _, it := range m.Items {
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			desc = fallbackDescription
		}
		qty := it.Quantity
		if qty < 0 {
			qty = 0
		}
		data.items = append(data.items, LineItem{
			Description: desc,
			Quantity:    qty,
			CBM:         it.CBM,
			Rate:        dec(it.Rate),
			TotalCost:   dec(it.CBM).Mul(dec(it.Rate)),
		})
	}
	return data
}
