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

// Like toggles are a single delete-then-insert instead of a read-then-write:
// the delete is atomic, and a concurrent duplicate insert is rejected by the
// unique index and treated as "already liked". A double tap can therefore
// never produce two rows or a lost toggle.

func ToggleLikePost(c *gin.Context) {
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

	result, err := database.Likes.DeleteOne(ctx, bson.M{"userId": userID, "postId": postID})
	if err != nil {
		log.Printf("ToggleLikePost delete error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle like"})
		return
	}
	if result.DeletedCount > 0 {
		c.JSON(http.StatusOK, gin.H{"liked": false})
		return
	}

	like := models.Like{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		PostID:    &postID,
		CreatedAt: time.Now().Unix(),
	}
	if _, err := database.Likes.InsertOne(ctx, like); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the race against another tap; the like exists.
			c.JSON(http.StatusOK, gin.H{"liked": true})
			return
		}
		log.Printf("ToggleLikePost insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle like"})
		return
	}

	notify(models.Notification{
		Type:        models.NotifyLike,
		ActorID:     userID,
		RecipientID: post.UserID,
		PostID:      &postID,
	})

	c.JSON(http.StatusOK, gin.H{"liked": true})
}

func ToggleLikeComment(c *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var comment models.Comment
	err = database.Comments.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result, err := database.Likes.DeleteOne(ctx, bson.M{"userId": userID, "commentId": commentID})
	if err != nil {
		log.Printf("ToggleLikeComment delete error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle like"})
		return
	}
	if result.DeletedCount > 0 {
		c.JSON(http.StatusOK, gin.H{"liked": false})
		return
	}

	like := models.Like{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		CommentID: &commentID,
		CreatedAt: time.Now().Unix(),
	}
	if _, err := database.Likes.InsertOne(ctx, like); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusOK, gin.H{"liked": true})
			return
		}
		log.Printf("ToggleLikeComment insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle like"})
		return
	}

	notify(models.Notification{
		Type:        models.NotifyLikeComment,
		ActorID:     userID,
		RecipientID: comment.UserID,
		PostID:      &comment.PostID,
		CommentID:   &commentID,
	})

	c.JSON(http.StatusOK, gin.H{"liked": true})
}
