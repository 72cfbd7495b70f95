package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User's PasswordHash is stored but never serialized to JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Street       string             `bson:"street,omitempty" json:"street,omitempty"`
	Apartment    string             `bson:"apartment,omitempty" json:"apartment,omitempty"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	Country      string             `bson:"country,omitempty" json:"country,omitempty"`
	Zip          string             `bson:"zip,omitempty" json:"zip,omitempty"`
	IsAdmin      bool               `bson:"isAdmin" json:"isAdmin"`
	DateCreated  time.Time          `bson:"dateCreated" json:"dateCreated"`
}
