package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"loom/database"
	"loom/models"
	"loom/timeline"
)

var errPostNotFound = fmt.Errorf("post not found")

// assembleThread builds the full view model for a post screen: the annotated
// post plus its leveled comment list. The fetches run in dependency order;
// comment-author profiles are skipped entirely when the post has no comments.
func assembleThread(ctx context.Context, postID, viewerID primitive.ObjectID) (*timeline.ThreadView, error) {
	now := time.Now()

	// Post row.
	var post models.Post
	err := database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, errPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Error fetching post: %v", err)
	}

	// Author profile; a missing row falls back inside the view builder.
	var author *models.User
	var authorRow models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": post.UserID}).Decode(&authorRow)
	if err == nil {
		author = &authorRow
	} else if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("Error fetching profile: %v", err)
	}

	counts, err := postCountsFor(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}

	// Comment list ordered by creation ascending.
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := database.Comments.Find(ctx, bson.M{"postId": postID}, opts)
	if err != nil {
		return nil, fmt.Errorf("Error fetching comments: %v", err)
	}
	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("Error fetching comments: %v", err)
	}

	views, err := assembleCommentViews(ctx, comments, viewerID, now)
	if err != nil {
		return nil, err
	}

	return &timeline.ThreadView{
		Post:     timeline.BuildPost(post, author, counts, now),
		Comments: views,
	}, nil
}

// assembleCommentViews joins comment rows with author profiles, like counts
// and the viewer's like state. All lookups are batched; zero comments means
// zero extra round trips.
func assembleCommentViews(ctx context.Context, comments []models.Comment, viewerID primitive.ObjectID, now time.Time) ([]timeline.CommentView, error) {
	if len(comments) == 0 {
		return []timeline.CommentView{}, nil
	}

	authorIDs := make([]primitive.ObjectID, 0, len(comments))
	seen := make(map[primitive.ObjectID]bool)
	commentIDs := make([]primitive.ObjectID, len(comments))
	for i, cm := range comments {
		commentIDs[i] = cm.ID
		if !seen[cm.UserID] {
			seen[cm.UserID] = true
			authorIDs = append(authorIDs, cm.UserID)
		}
	}

	authors, err := fetchUsers(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("Error fetching profiles: %v", err)
	}

	likeCounts, err := countByField(ctx, database.Likes, "commentId", commentIDs)
	if err != nil {
		return nil, fmt.Errorf("Error fetching like counts: %v", err)
	}

	liked, err := likedSet(ctx, viewerID, "commentId", commentIDs)
	if err != nil {
		return nil, fmt.Errorf("Error checking like status: %v", err)
	}

	return timeline.BuildComments(comments, authors, likeCounts, liked, now), nil
}

// postCountsFor gathers the aggregate counts and viewer flags for one post.
func postCountsFor(ctx context.Context, postID, viewerID primitive.ObjectID) (timeline.PostCounts, error) {
	var counts timeline.PostCounts
	var err error

	counts.Comments, err = database.Comments.CountDocuments(ctx, bson.M{"postId": postID})
	if err != nil {
		return counts, fmt.Errorf("Error fetching comment count: %v", err)
	}
	counts.Likes, err = database.Likes.CountDocuments(ctx, bson.M{"postId": postID})
	if err != nil {
		return counts, fmt.Errorf("Error fetching like count: %v", err)
	}
	counts.Reposts, err = database.Reposts.CountDocuments(ctx, bson.M{"postId": postID})
	if err != nil {
		return counts, fmt.Errorf("Error fetching repost count: %v", err)
	}

	// Single-row lookups where "no row found" is a valid negative result.
	err = database.Likes.FindOne(ctx, bson.M{"userId": viewerID, "postId": postID}).Err()
	if err == nil {
		counts.IsLiked = true
	} else if err != mongo.ErrNoDocuments {
		return counts, fmt.Errorf("Error checking like status: %v", err)
	}

	err = database.Reposts.FindOne(ctx, bson.M{"userId": viewerID, "postId": postID}).Err()
	if err == nil {
		counts.IsReposted = true
	} else if err != mongo.ErrNoDocuments {
		return counts, fmt.Errorf("Error checking repost status: %v", err)
	}

	return counts, nil
}

func GetThread(c *gin.Context) {
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

	thread, err := assembleThread(ctx, postID, viewerID)
	if err == errPostNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		log.Printf("GetThread error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch thread"})
		return
	}

	c.JSON(http.StatusOK, thread)
}

// GetReplies returns the direct replies of a comment, annotated the same way
// thread comments are.
func GetReplies(c *gin.Context) {
	commentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	viewerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := database.Comments.Find(ctx, bson.M{"parentId": commentID}, opts)
	if err != nil {
		log.Printf("GetReplies error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch replies"})
		return
	}
	var replies []models.Comment
	if err := cur.All(ctx, &replies); err != nil {
		log.Printf("GetReplies decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode replies"})
		return
	}

	views, err := assembleCommentViews(ctx, replies, viewerID, time.Now())
	if err != nil {
		log.Printf("GetReplies assemble error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch replies"})
		return
	}

	c.JSON(http.StatusOK, views)
}
