package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"loom/database"
	"loom/models"
)

// ToggleFollow flips the directed follow edge from the caller to the target
// user. Same atomic delete-then-insert shape as the like toggles.
func ToggleFollow(c *gin.Context) {
	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	if userID == targetID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := database.Users.CountDocuments(ctx, bson.M{"_id": targetID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	result, err := database.Follows.DeleteOne(ctx, bson.M{
		"followerId":  userID,
		"followingId": targetID,
	})
	if err != nil {
		log.Printf("ToggleFollow delete error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle follow"})
		return
	}
	if result.DeletedCount > 0 {
		c.JSON(http.StatusOK, gin.H{"following": false})
		return
	}

	follow := models.Follow{
		ID:          primitive.NewObjectID(),
		FollowerID:  userID,
		FollowingID: targetID,
		CreatedAt:   time.Now().Unix(),
	}
	if _, err := database.Follows.InsertOne(ctx, follow); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusOK, gin.H{"following": true})
			return
		}
		log.Printf("ToggleFollow insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle follow"})
		return
	}

	notify(models.Notification{
		Type:        models.NotifyFollow,
		ActorID:     userID,
		RecipientID: targetID,
	})

	c.JSON(http.StatusOK, gin.H{"following": true})
}

// GetFollowers lists the users following the given user.
func GetFollowers(c *gin.Context) {
	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cur, err := database.Follows.Find(ctx, bson.M{"followingId": targetID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch followers"})
		return
	}
	var edges []models.Follow
	if err := cur.All(ctx, &edges); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode followers"})
		return
	}

	ids := make([]primitive.ObjectID, len(edges))
	for i, e := range edges {
		ids[i] = e.FollowerID
	}

	users, err := fetchUsers(ctx, ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch followers"})
		return
	}

	response := make([]gin.H, 0, len(edges))
	for _, e := range edges {
		u, ok := users[e.FollowerID]
		if !ok {
			continue
		}
		response = append(response, gin.H{
			"id":       u.ID.Hex(),
			"username": u.Username,
			"name":     u.Name,
			"avatar":   u.Avatar,
		})
	}

	c.JSON(http.StatusOK, response)
}
