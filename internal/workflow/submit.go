package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/events"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/shipment"
	"github.com/jaybesin/logistics-console/internal/stages"
)

// SubmitResult describes a persisted form.
type SubmitResult struct {
	ID       string           `json:"id"`
	Type     EntityType       `json:"type"`
	Created  bool             `json:"created"`
	Shipment *models.Shipment `json:"shipment,omitempty"`
	Product  *models.Product  `json:"product,omitempty"`
	Vehicle  *models.Vehicle  `json:"vehicle,omitempty"`
	// Notice and WhatsAppURL are set after creating a shipment whose
	// consignee phone has digits.
	Notice      string `json:"notice,omitempty"`
	WhatsAppURL string `json:"whatsapp_url,omitempty"`
}

// Submit validates, sanitizes and persists a form.
func (c *Controller) Submit(ctx context.Context, form Form) (*SubmitResult, error) {
	switch form.Mode {
	case ModeCreate:
	case ModeEdit:
		if strings.TrimSpace(form.ID) == "" {
			return nil, &ValidationError{Field: "id", Message: "edit requires an id"}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, form.Mode)
	}

	switch form.Type {
	case EntityManifest:
		if form.Manifest == nil {
			return nil, &ValidationError{Field: "manifest", Message: "manifest form is missing"}
		}
		return c.submitManifest(ctx, form)
	case EntityProduct:
		if form.Product == nil {
			return nil, &ValidationError{Field: "product", Message: "product form is missing"}
		}
		return c.submitProduct(ctx, form)
	case EntityVehicle:
		if form.Vehicle == nil {
			return nil, &ValidationError{Field: "vehicle", Message: "vehicle form is missing"}
		}
		return c.submitVehicle(ctx, form)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, form.Type)
	}
}

func (c *Controller) submitManifest(ctx context.Context, form Form) (*SubmitResult, error) {
	if form.Mode == ModeEdit {
		return c.editManifest(ctx, form.ID, *form.Manifest)
	}
	if err := shipment.Validate(*form.Manifest); err != nil {
		return nil, err
	}
	now := c.now()
	s := shipment.BuildShipmentPayload(*form.Manifest, now)

	tn, err := c.allocateTrackingNumber(ctx, s.TrackingNumber)
	if err != nil {
		return nil, err
	}
	s.TrackingNumber = tn

	id, err := c.store.Create(ctx, db.Shipments, s)
	if err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	setHex(&s.ID, id)
	log.WithFields(log.Fields{"id": id, "tracking_number": s.TrackingNumber}).Info("Shipment created")

	res := &SubmitResult{ID: id, Type: EntityManifest, Created: true, Shipment: &s}
	if phone := digitsOnly(s.ConsigneePhone); phone != "" {
		res.Notice = ShipmentNotice(s, c.settings.Settings().TrackingDomain)
		res.WhatsAppURL = WhatsAppLink(phone, res.Notice)
		c.notifier.Notify(events.NotificationJob{
			TrackingNumber: s.TrackingNumber,
			ConsigneeName:  s.ConsigneeName,
			Phone:          phone,
			Message:        res.Notice,
			WhatsAppURL:    res.WhatsAppURL,
			CreatedAt:      now,
		})
	}
	c.broadcast(s)
	return res, nil
}

// editManifest overlays patch on the stored shipment, so fields the patch
// leaves blank keep their current values.
func (c *Controller) editManifest(ctx context.Context, id string, patch shipment.Form) (*SubmitResult, error) {
	existing, err := c.loadShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := shipment.Overlay(shipment.FormFromShipment(existing), patch)
	if err := shipment.Validate(merged); err != nil {
		return nil, err
	}
	if strings.TrimSpace(merged.TrackingNumber) == "" {
		return nil, &ValidationError{Field: "tracking_number", Message: "tracking number is required"}
	}

	s := shipment.BuildShipmentPayload(merged, c.now())
	if err := c.checkTrackingOwner(ctx, s.TrackingNumber, id); err != nil {
		return nil, err
	}
	if err := c.store.Update(ctx, db.Shipments, id, shipment.UpdateFields(s)); err != nil {
		return nil, fmt.Errorf("update shipment: %w", err)
	}
	s.ID, s.CreatedAt = existing.ID, existing.CreatedAt
	c.broadcast(s)
	log.WithFields(log.Fields{"id": id, "tracking_number": s.TrackingNumber}).Info("Shipment updated")
	return &SubmitResult{ID: id, Type: EntityManifest, Shipment: &s}, nil
}

// allocateTrackingNumber keeps want when it is free and otherwise draws new
// numbers, giving up after maxTrackingAttempts.
func (c *Controller) allocateTrackingNumber(ctx context.Context, want string) (string, error) {
	tn := want
	if tn == "" {
		tn = c.trackingNumber()
	}
	for attempt := 1; attempt <= maxTrackingAttempts; attempt++ {
		taken, err := c.trackingTaken(ctx, tn)
		if err != nil {
			return "", err
		}
		if !taken {
			return tn, nil
		}
		log.WithFields(log.Fields{"tracking_number": tn, "attempt": attempt}).Warn("Tracking number already in use")
		tn = c.trackingNumber()
	}
	return "", ErrTrackingCollision
}

func (c *Controller) trackingTaken(ctx context.Context, tn string) (bool, error) {
	_, err := c.store.FindOne(ctx, db.Shipments, "tracking_number", tn)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, db.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check tracking number: %w", err)
	}
}

// checkTrackingOwner rejects an edit that would reuse another shipment's number.
func (c *Controller) checkTrackingOwner(ctx context.Context, tn, id string) error {
	if tn == "" {
		return nil
	}
	doc, err := c.store.FindOne(ctx, db.Shipments, "tracking_number", tn)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check tracking number: %w", err)
	}
	if db.IDString(doc) != id {
		return &ValidationError{Field: "tracking_number", Message: fmt.Sprintf("%s belongs to another shipment", tn)}
	}
	return nil
}

func (c *Controller) submitProduct(ctx context.Context, form Form) (*SubmitResult, error) {
	p := form.Product.record()
	if form.Mode == ModeEdit {
		if err := c.store.Update(ctx, db.Products, form.ID, productFields(p)); err != nil {
			return nil, fmt.Errorf("update product: %w", err)
		}
		setHex(&p.ID, form.ID)
		return &SubmitResult{ID: form.ID, Type: EntityProduct, Product: &p}, nil
	}

	p.CreatedAt = c.now()
	id, err := c.store.Create(ctx, db.Products, p)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	setHex(&p.ID, id)
	return &SubmitResult{ID: id, Type: EntityProduct, Created: true, Product: &p}, nil
}

func (c *Controller) submitVehicle(ctx context.Context, form Form) (*SubmitResult, error) {
	v := form.Vehicle.record()
	if v.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "vehicle name is required"}
	}
	if form.Mode == ModeEdit {
		if err := c.store.Update(ctx, db.Vehicles, form.ID, vehicleFields(v)); err != nil {
			return nil, fmt.Errorf("update vehicle: %w", err)
		}
		setHex(&v.ID, form.ID)
		return &SubmitResult{ID: form.ID, Type: EntityVehicle, Vehicle: &v}, nil
	}

	v.CreatedAt = c.now()
	id, err := c.store.Create(ctx, db.Vehicles, v)
	if err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	setHex(&v.ID, id)
	return &SubmitResult{ID: id, Type: EntityVehicle, Created: true, Vehicle: &v}, nil
}

func productFields(p models.Product) bson.M {
	return bson.M{
		"name":           p.Name,
		"description":    p.Description,
		"price":          p.Price,
		"image":          p.Image,
		"category":       p.Category,
		"is_landed_cost": p.IsLandedCost,
	}
}

func vehicleFields(v models.Vehicle) bson.M {
	return bson.M{
		"name":          v.Name,
		"vin":           v.VIN,
		"engine":        v.Engine,
		"year":          v.Year,
		"price":         v.Price,
		"shipping":      v.Shipping,
		"documentation": v.Documentation,
		"description":   v.Description,
		"images":        v.Images,
		"category":      v.Category,
		"fuel":          v.Fuel,
		"condition":     v.Condition,
	}
}

func setHex(dst *primitive.ObjectID, id string) {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		*dst = oid
	}
}

func (c *Controller) broadcast(s models.Shipment) {
	c.notifier.BroadcastStatus(events.StatusEvent{
		TrackingNumber: s.TrackingNumber,
		Status:         s.Status,
		StageIndex:     stages.Index(s.Status),
		Progress:       stages.ProgressPercent(s.Status),
		UpdatedAt:      s.LastUpdated,
	})
}
