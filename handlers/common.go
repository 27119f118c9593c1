package handlers

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"loom/websocket"
)

var wsManager *websocket.Manager
var vapidPrivateKey string

// PushSubscription stores a browser push endpoint for a user.
type PushSubscription struct {
	ID     primitive.ObjectID   `bson:"_id,omitempty"`
	UserID primitive.ObjectID   `bson:"userId"`
	Sub    webpush.Subscription `bson:"sub"`
}

// SetWebSocketManager sets the realtime manager used for message delivery.
func SetWebSocketManager(manager *websocket.Manager) {
	wsManager = manager
}

// currentUserID extracts the authenticated user's ObjectID from the request
// context populated by the JWT middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return userID, true
}
