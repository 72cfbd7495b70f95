package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Order struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OrderItems       []primitive.ObjectID `bson:"orderItems" json:"orderItems"`
	ShippingAddress1 string               `bson:"shippingAddress1,omitempty" json:"shippingAddress1,omitempty"`
	ShippingAddress2 string               `bson:"shippingAddress2,omitempty" json:"shippingAddress2,omitempty"`
	City             string               `bson:"city,omitempty" json:"city,omitempty"`
	Zip              string               `bson:"zip,omitempty" json:"zip,omitempty"`
	Country          string               `bson:"country,omitempty" json:"country,omitempty"`
	Phone            string               `bson:"phone,omitempty" json:"phone,omitempty"`
	Status           string               `bson:"status" json:"status"`
	TotalPrice       float64              `bson:"totalPrice" json:"totalPrice"`
	User             primitive.ObjectID   `bson:"user" json:"user"`
	DateCreated      time.Time            `bson:"dateCreated" json:"dateCreated"`
}

// OrderItem is created only as part of order placement and removed only as
// part of order deletion. Price is a snapshot of the product's unit price at
// creation time, so later product price changes do not rewrite history.
type OrderItem struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    float64            `bson:"price" json:"price"`
}

// PopulatedOrder is the read-side shape: order items carry their resolved
// product (and the product its category), and the owning user is embedded
// with credentials stripped.
type PopulatedOrder struct {
	ID               primitive.ObjectID `json:"id"`
	OrderItems       []PopulatedItem    `json:"orderItems"`
	ShippingAddress1 string             `json:"shippingAddress1,omitempty"`
	ShippingAddress2 string             `json:"shippingAddress2,omitempty"`
	City             string             `json:"city,omitempty"`
	Zip              string             `json:"zip,omitempty"`
	Country          string             `json:"country,omitempty"`
	Phone            string             `json:"phone,omitempty"`
	Status           string             `json:"status"`
	TotalPrice       float64            `json:"totalPrice"`
	User             *User              `json:"user,omitempty"`
	DateCreated      time.Time          `json:"dateCreated"`
}

type PopulatedItem struct {
	ID       primitive.ObjectID `json:"id"`
	Product  *PopulatedProduct  `json:"product,omitempty"`
	Quantity int                `json:"quantity"`
	Price    float64            `json:"price"`
}
