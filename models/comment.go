package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Comment is a reply to a post. ParentID is nil for top-level comments and
// points at another comment of the same post for nested replies.
type Comment struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID  `bson:"postId" json:"postId"`
	UserID    primitive.ObjectID  `bson:"userId" json:"userId"`
	ParentID  *primitive.ObjectID `bson:"parentId,omitempty" json:"parentId,omitempty"`
	Content   string              `bson:"content" json:"content"`
	CreatedAt int64               `bson:"createdAt" json:"createdAt"`
}
