package events

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// NotificationTopic carries WhatsApp notice jobs for the messaging worker.
	NotificationTopic = "notification-jobs"
	statusTopicFormat = "jaybesin/shipments/%s/status"
)

// Publisher is the interface used by the console to publish events.
type Publisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// Noop discards everything. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                       { return nil }

// NotificationJob asks the messaging worker to send a shipment notice.
type NotificationJob struct {
	TrackingNumber string    `json:"tracking_number"`
	ConsigneeName  string    `json:"consignee_name"`
	Phone          string    `json:"phone"`
	Message        string    `json:"message"`
	WhatsAppURL    string    `json:"whatsapp_url"`
	CreatedAt      time.Time `json:"created_at"`
}

// StatusEvent is the retained payload on a shipment's status topic.
type StatusEvent struct {
	TrackingNumber string    `json:"tracking_number"`
	Status         string    `json:"status"`
	StageIndex     int       `json:"stage_index"`
	Progress       int       `json:"progress"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StatusTopic returns the MQTT topic for a tracking number.
func StatusTopic(trackingNumber string) string {
	tn := strings.ToUpper(strings.TrimSpace(trackingNumber))
	// wildcards and separators are not allowed inside a topic level
	tn = strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(tn)
	return fmt.Sprintf(statusTopicFormat, tn)
}
