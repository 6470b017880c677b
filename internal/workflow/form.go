package workflow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/shipment"
	"github.com/jaybesin/logistics-console/internal/stages"
)

// EntityType selects which record a form edits.
type EntityType string

const (
	EntityManifest EntityType = "manifest"
	EntityProduct  EntityType = "product"
	EntityVehicle  EntityType = "vehicle"
)

// Mode is create or edit.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Defaults for a fresh manifest.
const (
	NewManifestOrigin      = "Guangzhou, China"
	NewManifestDestination = "Accra, Ghana"
	NewManifestRate        = 450
)

// ProductForm is the shop product editor.
type ProductForm struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	Image        string `json:"image"`
	Category     string `json:"category"`
	IsLandedCost bool   `json:"is_landed_cost"`
}

// VehicleForm is the vehicle listing editor.
type VehicleForm struct {
	Name          string   `json:"name"`
	VIN           string   `json:"vin"`
	Engine        string   `json:"engine"`
	Year          string   `json:"year"`
	Price         string   `json:"price"`
	Shipping      string   `json:"shipping"`
	Documentation string   `json:"documentation"`
	Description   string   `json:"description"`
	Images        []string `json:"images"`
	Category      string   `json:"category"`
	Fuel          string   `json:"fuel"`
	Condition     string   `json:"condition"`
}

// Form is an open editor. Exactly one of Manifest, Product or Vehicle is set,
// matching Type. ID is set in edit mode.
type Form struct {
	Type     EntityType     `json:"type"`
	Mode     Mode           `json:"mode"`
	ID       string         `json:"id,omitempty"`
	Manifest *shipment.Form `json:"manifest,omitempty"`
	Product  *ProductForm   `json:"product,omitempty"`
	Vehicle  *VehicleForm   `json:"vehicle,omitempty"`
}

// OpenForm prepares an editor. In edit mode existing must be the stored
// record (a models.Shipment, models.Product or models.Vehicle, by value or
// pointer) or a raw db.Document.
func (c *Controller) OpenForm(entity EntityType, mode Mode, existing interface{}) (Form, error) {
	switch mode {
	case ModeCreate, ModeEdit:
	default:
		return Form{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	f := Form{Type: entity, Mode: mode}

	if mode == ModeCreate {
		switch entity {
		case EntityManifest:
			f.Manifest = &shipment.Form{
				TrackingNumber: c.trackingNumber(),
				Status:         stages.First(),
				Origin:         NewManifestOrigin,
				Destination:    NewManifestDestination,
				RatePerCBM:     NewManifestRate,
				Items:          []shipment.ItemForm{{Quantity: 1}},
			}
		case EntityProduct:
			f.Product = &ProductForm{}
		case EntityVehicle:
			f.Vehicle = &VehicleForm{
				Year:      strconv.Itoa(c.now().Year()),
				Category:  "SUV",
				Fuel:      "Gasoline",
				Condition: "Brand New",
				Images:    []string{},
			}
		default:
			return Form{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
		}
		return f, nil
	}

	if existing == nil {
		return Form{}, &ValidationError{Field: "id", Message: "edit requires an existing record"}
	}
	switch entity {
	case EntityManifest:
		s, err := asRecord[models.Shipment](existing)
		if err != nil {
			return Form{}, err
		}
		mf := shipment.FormFromShipment(s)
		f.ID, f.Manifest = s.ID.Hex(), &mf
	case EntityProduct:
		p, err := asRecord[models.Product](existing)
		if err != nil {
			return Form{}, err
		}
		f.ID = p.ID.Hex()
		f.Product = &ProductForm{
			Name: p.Name, Description: p.Description, Price: p.Price,
			Image: p.Image, Category: p.Category, IsLandedCost: p.IsLandedCost,
		}
	case EntityVehicle:
		v, err := asRecord[models.Vehicle](existing)
		if err != nil {
			return Form{}, err
		}
		f.ID = v.ID.Hex()
		f.Vehicle = &VehicleForm{
			Name: v.Name, VIN: v.VIN, Engine: v.Engine, Year: v.Year, Price: v.Price,
			Shipping: v.Shipping, Documentation: v.Documentation, Description: v.Description,
			Images: append([]string(nil), v.Images...), Category: v.Category, Fuel: v.Fuel,
			Condition: v.Condition,
		}
	default:
		return Form{}, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return f, nil
}

func asRecord[T any](v interface{}) (T, error) {
	switch r := v.(type) {
	case T:
		return r, nil
	case *T:
		if r != nil {
			return *r, nil
		}
	case db.Document:
		return db.DecodeOne[T](r)
	}
	var zero T
	return zero, fmt.Errorf("%w: cannot edit %T", ErrUnknownEntity, v)
}

func (p ProductForm) record() models.Product {
	return models.Product{
		Name:         orDefault(p.Name, "Untitled"),
		Description:  strings.TrimSpace(p.Description),
		Price:        orDefault(p.Price, "0"),
		Image:        strings.TrimSpace(p.Image),
		Category:     orDefault(strings.ToUpper(p.Category), "Uncategorized"),
		IsLandedCost: p.IsLandedCost,
	}
}

func (v VehicleForm) record() models.Vehicle {
	images := make([]string, 0, len(v.Images))
	for _, img := range v.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	return models.Vehicle{
		Name:          strings.TrimSpace(v.Name),
		VIN:           strings.ToUpper(strings.TrimSpace(v.VIN)),
		Engine:        strings.TrimSpace(v.Engine),
		Year:          strings.TrimSpace(v.Year),
		Price:         orDefault(v.Price, "0"),
		Shipping:      strings.TrimSpace(v.Shipping),
		Documentation: strings.TrimSpace(v.Documentation),
		Description:   strings.TrimSpace(v.Description),
		Images:        images,
		Category:      orDefault(v.Category, "SUV"),
		Fuel:          orDefault(v.Fuel, "Gasoline"),
		Condition:     orDefault(v.Condition, "Used"),
	}
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

// dateOnly formats t the way date fields are stored.
func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}
