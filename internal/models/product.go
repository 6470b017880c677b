package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents an item in the sourcing shop.
type Product struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Description  string             `json:"description" bson:"description"`
	Price        string             `json:"price" bson:"price"`
	Image        string             `json:"image" bson:"image"`
	Category     string             `json:"category" bson:"category"`
	IsLandedCost bool               `json:"is_landed_cost" bson:"is_landed_cost"` // price already includes shipping and duties
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// Category is a product category, stored upper-cased.
type Category struct {
	ID   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name string             `json:"name" bson:"name"`
}

// DefaultCategories is what readers see while the collection is empty.
var DefaultCategories = []string{"ELECTRONICS", "FASHION", "INDUSTRIAL", "HOME"}
