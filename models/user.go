package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered account
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Username     string             `bson:"username,omitempty" json:"username,omitempty"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}

// Watchlist holds the set of symbols a user follows
type Watchlist struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Email  string             `bson:"email" json:"email"`
	Stocks []string           `bson:"stocks" json:"stocks"`
}
