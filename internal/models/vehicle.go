package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Vehicle represents a car listed in the vehicle sourcing catalog.
type Vehicle struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	VIN           string             `bson:"vin" json:"vin"`
	Engine        string             `bson:"engine" json:"engine"`
	Year          string             `bson:"year" json:"year"`
	Price         string             `bson:"price" json:"price"`
	Shipping      string             `bson:"shipping" json:"shipping"`
	Documentation string             `bson:"documentation" json:"documentation"`
	Description   string             `bson:"description" json:"description"`
	Images        []string           `bson:"images" json:"images"`
	Category      string             `bson:"category" json:"category"`   // "SUV", "Sedan", "Truck"
	Fuel          string             `bson:"fuel" json:"fuel"`           // "Gasoline", "Diesel", "Electric"
	Condition     string             `bson:"condition" json:"condition"` // "Brand New" or "Used"
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}
