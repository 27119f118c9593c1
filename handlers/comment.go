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

type CreateCommentRequest struct {
	PostID   string `json:"postId" binding:"required"`
	ParentID string `json:"parentId"`
	Content  string `json:"content" binding:"required,max=500"`
}

func CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
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

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: time.Now().Unix(),
	}

	// A reply's parent must exist and belong to the same post.
	var parent models.Comment
	if req.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent comment ID"})
			return
		}

		err = database.Comments.FindOne(ctx, bson.M{"_id": parentID, "postId": postID}).Decode(&parent)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Parent comment not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		comment.ParentID = &parentID
	}

	if _, err := database.Comments.InsertOne(ctx, comment); err != nil {
		log.Printf("CreateComment error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	if comment.ParentID != nil {
		notify(models.Notification{
			Type:        models.NotifyReply,
			ActorID:     userID,
			RecipientID: parent.UserID,
			PostID:      &postID,
			CommentID:   &comment.ID,
		})
	} else {
		notify(models.Notification{
			Type:        models.NotifyComment,
			ActorID:     userID,
			RecipientID: post.UserID,
			PostID:      &postID,
			CommentID:   &comment.ID,
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Comment created successfully",
		"commentId": comment.ID.Hex(),
	})
}

func DeleteComment(c *gin.Context) {
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

	result, err := database.Comments.DeleteOne(ctx, bson.M{"_id": commentID, "userId": userID})
	if err != nil {
		log.Printf("DeleteComment error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found or not yours"})
		return
	}

	if _, err := database.Likes.DeleteMany(ctx, bson.M{"commentId": commentID}); err != nil {
		log.Printf("DeleteComment: failed to delete likes for %s: %v", commentID.Hex(), err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
