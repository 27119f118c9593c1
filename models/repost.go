package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Repost struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	PostID    primitive.ObjectID `bson:"postId" json:"postId"`
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}
