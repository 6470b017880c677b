package workflow

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/stages"
)

func checkStage(status string) error {
	if !stages.Valid(status) {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown stage %q", status)}
	}
	return nil
}

// BulkApply moves every shipment in ids to status in one all-or-none write
// and returns how many distinct shipments it moved.
func (c *Controller) BulkApply(ctx context.Context, ids []string, status string) (int, error) {
	status = strings.TrimSpace(status)
	if err := checkStage(status); err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(ids))
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" && !seen[id] {
			seen[id] = true
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return 0, &ValidationError{Field: "ids", Message: "select at least one shipment"}
	}

	fields := bson.M{"status": status, "last_updated": c.now()}
	if err := c.store.BulkUpdate(ctx, db.Shipments, cleaned, fields); err != nil {
		return 0, fmt.Errorf("bulk status update: %w", err)
	}
	log.WithFields(log.Fields{"count": len(cleaned), "status": status}).Info("Bulk status applied")

	for _, id := range cleaned {
		s, err := c.loadShipment(ctx, id)
		if err != nil {
			log.WithField("id", id).WithError(err).Warn("Skipping status broadcast")
			continue
		}
		c.broadcast(s)
	}
	return len(cleaned), nil
}

// UpdateStatus moves one shipment to status and returns the updated record.
func (c *Controller) UpdateStatus(ctx context.Context, id, status string) (*models.Shipment, error) {
	status = strings.TrimSpace(status)
	if err := checkStage(status); err != nil {
		return nil, err
	}
	fields := bson.M{"status": status, "last_updated": c.now()}
	if err := c.store.Update(ctx, db.Shipments, id, fields); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	s, err := c.loadShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	c.broadcast(s)
	return &s, nil
}

// DeleteShipment removes a shipment.
func (c *Controller) DeleteShipment(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, db.Shipments, id); err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}
	log.WithField("id", id).Info("Shipment deleted")
	return nil
}

func (c *Controller) loadShipment(ctx context.Context, id string) (models.Shipment, error) {
	doc, err := c.store.Get(ctx, db.Shipments, id)
	if err != nil {
		return models.Shipment{}, fmt.Errorf("load shipment: %w", err)
	}
	return db.DecodeShipment(doc)
}
