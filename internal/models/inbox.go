package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a contact form submission.
type Message struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Subject   string             `json:"subject" bson:"subject"`
	Message   string             `json:"message" bson:"message"`
	Status    string             `json:"status" bson:"status"` // "unread", "read"
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Agent is an affiliate network application.
type Agent struct {
	ID                  primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name                string             `json:"name" bson:"name"`
	Email               string             `json:"email" bson:"email"`
	City                string             `json:"city" bson:"city"`
	Focus               string             `json:"focus" bson:"focus"`
	Volume              float64            `json:"volume" bson:"volume"` // estimated monthly CBM
	ProjectedCommission float64            `json:"projected_commission" bson:"projected_commission"`
	Date                string             `json:"date" bson:"date"`
	Status              string             `json:"status" bson:"status"` // "Pending Review", "Approved"
	CreatedAt           time.Time          `json:"created_at" bson:"created_at"`
}
