package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	RichDescription string             `bson:"richDescription,omitempty" json:"richDescription,omitempty"`
	Image           string             `bson:"image,omitempty" json:"image,omitempty"`
	Images          []string           `bson:"images,omitempty" json:"images,omitempty"`
	Brand           string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Price           float64            `bson:"price" json:"price"`
	Category        primitive.ObjectID `bson:"category" json:"category"`
	CountInStock    int                `bson:"countInStock" json:"countInStock"`
	Rating          float64            `bson:"rating,omitempty" json:"rating,omitempty"`
	NumReviews      int                `bson:"numReviews,omitempty" json:"numReviews,omitempty"`
	IsFeatured      bool               `bson:"isFeatured" json:"isFeatured"`
	DateCreated     time.Time          `bson:"dateCreated" json:"dateCreated"`
}

// PopulatedProduct replaces the category reference with the category document.
type PopulatedProduct struct {
	Product
	Category *Category `json:"category,omitempty"`
}
