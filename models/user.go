package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash *string            `bson:"passwordHash,omitempty" json:"-"`
	AuthProvider string             `bson:"authProvider" json:"-"` // email, google
	Username     string             `bson:"username" json:"username"`
	Name         string             `bson:"name" json:"name"`
	Avatar       string             `bson:"avatar" json:"avatar"`
	Bio          string             `bson:"bio" json:"bio"`
	Link         string             `bson:"link" json:"link"`
	Private      bool               `bson:"private" json:"private"`
	CreatedAt    int64              `bson:"createdAt" json:"createdAt"`
	LastSeen     int64              `bson:"lastSeen" json:"lastSeen"`
}
