package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Notification types rendered as canned sentences by clients.
const (
	NotifyLike        = "like"
	NotifyComment     = "comment"
	NotifyFollow      = "follow"
	NotifyReply       = "reply"
	NotifyLikeComment = "like cmt"
)

type Notification struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type        string              `bson:"type" json:"type"`
	ActorID     primitive.ObjectID  `bson:"actorId" json:"actorId"`
	RecipientID primitive.ObjectID  `bson:"recipientId" json:"recipientId"`
	PostID      *primitive.ObjectID `bson:"postId,omitempty" json:"postId,omitempty"`
	CommentID   *primitive.ObjectID `bson:"commentId,omitempty" json:"commentId,omitempty"`
	IsRead      bool                `bson:"isRead" json:"isRead"`
	CreatedAt   int64               `bson:"createdAt" json:"createdAt"`
}
