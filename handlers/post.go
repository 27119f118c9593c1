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

type CreatePostRequest struct {
	Content string `json:"content" binding:"required,max=500"`
	Image   string `json:"image"`
}

func CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	post := models.Post{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Content:   req.Content,
		Image:     req.Image,
		CreatedAt: time.Now().Unix(),
	}

	if _, err := database.Posts.InsertOne(ctx, post); err != nil {
		log.Printf("CreatePost error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"postId":  post.ID.Hex(),
	})
}

// DeletePost removes a post owned by the caller along with its dependent
// rows. The dependent deletes are best effort; an orphaned like row is
// harmless and invisible.
func DeletePost(c *gin.Context) {
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

	result, err := database.Posts.DeleteOne(ctx, bson.M{"_id": postID, "userId": userID})
	if err != nil {
		log.Printf("DeletePost error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found or not yours"})
		return
	}

	if _, err := database.Comments.DeleteMany(ctx, bson.M{"postId": postID}); err != nil {
		log.Printf("DeletePost: failed to delete comments for %s: %v", postID.Hex(), err)
	}
	if _, err := database.Likes.DeleteMany(ctx, bson.M{"postId": postID}); err != nil {
		log.Printf("DeletePost: failed to delete likes for %s: %v", postID.Hex(), err)
	}
	if _, err := database.Reposts.DeleteMany(ctx, bson.M{"postId": postID}); err != nil {
		log.Printf("DeletePost: failed to delete reposts for %s: %v", postID.Hex(), err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// GetPost returns a single annotated post without its comments.
func GetPost(c *gin.Context) {
	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	viewerID, ok := currentUserID(c)
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
		log.Printf("GetPost error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	views, err := assemblePostViews(ctx, []models.Post{post}, viewerID)
	if err != nil {
		log.Printf("GetPost assemble error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	c.JSON(http.StatusOK, views[0])
}
