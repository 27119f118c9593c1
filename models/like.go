package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Like associates a user with exactly one of a post or a comment. A partial
// unique index on (userId, postId) and (userId, commentId) keeps at most one
// row per pair, so toggling is a plain delete-then-insert.
type Like struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"userId" json:"userId"`
	PostID    *primitive.ObjectID `bson:"postId,omitempty" json:"postId,omitempty"`
	CommentID *primitive.ObjectID `bson:"commentId,omitempty" json:"commentId,omitempty"`
	CreatedAt int64               `bson:"createdAt" json:"createdAt"`
}
