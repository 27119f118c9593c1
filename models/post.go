package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Content   string             `bson:"content" json:"content"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}
