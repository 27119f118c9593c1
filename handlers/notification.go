package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"loom/database"
	"loom/models"
	"loom/timeline"
)

// notify inserts a notification row for the recipient. This is best effort:
// failures are logged and swallowed, and the action that triggered the
// notification is never rolled back. Self-notifications are dropped.
func notify(n models.Notification) {
	if n.ActorID == n.RecipientID {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Panic in notify: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		n.ID = primitive.NewObjectID()
		n.CreatedAt = time.Now().Unix()

		if _, err := database.Notifications.InsertOne(ctx, n); err != nil {
			log.Printf("Failed to insert %s notification for %s: %v",
				n.Type, n.RecipientID.Hex(), err)
			return
		}

		if wsManager != nil {
			wsManager.SendToUser(n.RecipientID.Hex(), "notification", gin.H{
				"type":      n.Type,
				"actorId":   n.ActorID.Hex(),
				"createdAt": n.CreatedAt,
			})
		}
	}()
}

// sentence renders the canned line for a notification type.
func sentence(n models.Notification, actorName string) string {
	switch n.Type {
	case models.NotifyLike:
		return actorName + " liked your post"
	case models.NotifyComment:
		return actorName + " commented on your post"
	case models.NotifyReply:
		return actorName + " replied to your comment"
	case models.NotifyLikeComment:
		return actorName + " liked your comment"
	case models.NotifyFollow:
		return actorName + " followed you"
	default:
		return actorName + " interacted with you"
	}
}

func GetNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(50)

	cur, err := database.Notifications.Find(ctx, bson.M{"recipientId": userID}, opts)
	if err != nil {
		log.Printf("GetNotifications error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}
	var notifications []models.Notification
	if err := cur.All(ctx, &notifications); err != nil {
		log.Printf("GetNotifications decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode notifications"})
		return
	}

	actorIDs := make([]primitive.ObjectID, 0, len(notifications))
	seen := make(map[primitive.ObjectID]bool)
	for _, n := range notifications {
		if !seen[n.ActorID] {
			seen[n.ActorID] = true
			actorIDs = append(actorIDs, n.ActorID)
		}
	}

	actors, err := fetchUsers(ctx, actorIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	now := time.Now()
	response := make([]gin.H, len(notifications))
	for i, n := range notifications {
		var actor *models.User
		if u, ok := actors[n.ActorID]; ok {
			actor = &u
		}
		actorView := timeline.NewAuthorView(n.ActorID, actor)

		item := gin.H{
			"id":        n.ID.Hex(),
			"type":      n.Type,
			"actor":     actorView,
			"message":   sentence(n, actorView.Username),
			"isRead":    n.IsRead,
			"createdAt": n.CreatedAt,
			"age":       timeline.RelativeTimeUnix(n.CreatedAt, now),
		}
		if n.PostID != nil {
			item["postId"] = n.PostID.Hex()
		}
		if n.CommentID != nil {
			item["commentId"] = n.CommentID.Hex()
		}
		response[i] = item
	}

	c.JSON(http.StatusOK, response)
}

func MarkNotificationsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Notifications.UpdateMany(
		ctx,
		bson.M{"recipientId": userID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		log.Printf("MarkNotificationsRead error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Notifications marked read",
		"updatedCount": result.ModifiedCount,
	})
}
