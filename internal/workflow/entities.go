package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/quote"
	"github.com/jaybesin/logistics-console/internal/shipment"
)

const (
	messageUnread      = "unread"
	messageRead        = "read"
	agentPendingReview = "Pending Review"
)

// AddCategory stores name upper-cased. An existing category is returned as is.
func (c *Controller) AddCategory(ctx context.Context, name string) (string, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "category name is required"}
	}
	doc, err := c.store.FindOne(ctx, db.Categories, "name", name)
	if err == nil {
		return db.IDString(doc), nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("find category: %w", err)
	}
	id, err := c.store.Create(ctx, db.Categories, models.Category{Name: name})
	if err != nil {
		return "", fmt.Errorf("create category: %w", err)
	}
	return id, nil
}

// DeleteCategory removes a category. Products keep their category label.
func (c *Controller) DeleteCategory(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, db.Categories, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// DeleteProduct removes a shop product.
func (c *Controller) DeleteProduct(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, db.Products, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// DeleteVehicle removes a vehicle listing.
func (c *Controller) DeleteVehicle(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, db.Vehicles, id); err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	return nil
}

// MessageForm is the public contact form.
type MessageForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SubmitMessage files a contact message as unread.
func (c *Controller) SubmitMessage(ctx context.Context, f MessageForm) (string, error) {
	m := models.Message{
		Name:      strings.TrimSpace(f.Name),
		Email:     strings.TrimSpace(f.Email),
		Subject:   strings.TrimSpace(f.Subject),
		Message:   strings.TrimSpace(f.Message),
		Status:    messageUnread,
		CreatedAt: c.now(),
	}
	switch {
	case m.Name == "":
		return "", &ValidationError{Field: "name", Message: "name is required"}
	case !validEmail(m.Email):
		return "", &ValidationError{Field: "email", Message: "a valid email is required"}
	case m.Message == "":
		return "", &ValidationError{Field: "message", Message: "message is required"}
	}
	id, err := c.store.Create(ctx, db.Messages, m)
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}
	log.WithFields(log.Fields{"id": id, "subject": m.Subject}).Info("Contact message received")
	return id, nil
}

// MarkMessageRead flags an inbox message as handled.
func (c *Controller) MarkMessageRead(ctx context.Context, id string) error {
	if err := c.store.Update(ctx, db.Messages, id, bson.M{"status": messageRead}); err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}

// AgentForm is the agent network application.
type AgentForm struct {
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	City   string          `json:"city"`
	Focus  string          `json:"focus"`
	Volume shipment.Number `json:"volume"`
}

// SubmitAgent files an application with its projected monthly commission.
func (c *Controller) SubmitAgent(ctx context.Context, f AgentForm) (*models.Agent, error) {
	now := c.now()
	a := models.Agent{
		Name:      strings.TrimSpace(f.Name),
		Email:     strings.TrimSpace(f.Email),
		City:      strings.TrimSpace(f.City),
		Focus:     strings.TrimSpace(f.Focus),
		Volume:    f.Volume.NonNegative(),
		Date:      dateOnly(now),
		Status:    agentPendingReview,
		CreatedAt: now,
	}
	if a.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	if !validEmail(a.Email) {
		return nil, &ValidationError{Field: "email", Message: "a valid email is required"}
	}
	a.ProjectedCommission = quote.Commission(a.Volume)

	id, err := c.store.Create(ctx, db.Agents, a)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	setHex(&a.ID, id)
	return &a, nil
}

// SaveSettings merges the named fields into the stored settings.
func (c *Controller) SaveSettings(ctx context.Context, patch models.SettingsPatch) error {
	if err := patch.Validate(); err != nil {
		return &ValidationError{Field: "settings", Message: err.Error()}
	}
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil
	}
	if err := c.store.MergeSettings(ctx, fields); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	log.WithField("fields", len(fields)).Info("Settings saved")
	return nil
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
