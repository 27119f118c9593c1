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

// ToggleRepost flips the viewer's repost of a post, with the same atomic
// delete-then-insert shape the like toggles use.
func ToggleRepost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var post models.Post
	err = database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result, err := database.Reposts.DeleteOne(ctx, bson.M{"userId": userID, "postId": postID})
	if err != nil {
		log.Printf("ToggleRepost delete error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle repost"})
		return
	}
	if result.DeletedCount > 0 {
		c.JSON(http.StatusOK, gin.H{"reposted": false})
		return
	}

	repost := models.Repost{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: time.Now().Unix(),
	}
	if _, err := database.Reposts.InsertOne(ctx, repost); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusOK, gin.H{"reposted": true})
			return
		}
		log.Printf("ToggleRepost insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle repost"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reposted": true})
}
