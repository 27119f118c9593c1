package handlers

import (
	"context"
	"net/http"
	"strconv"
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

// fetchUsers loads a set of user rows keyed by ID in one batched query.
func fetchUsers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	users := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	cur, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var rows []models.User
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}

// countByField groups rows of a collection by an ObjectID field and returns
// per-id counts for the given targets, in a single aggregation round trip.
func countByField(ctx context.Context, coll *mongo.Collection, field string, ids []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	counts := make(map[primitive.ObjectID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: bson.D{{Key: "$in", Value: ids}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
		N  int64              `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.ID] = r.N
	}
	return counts, nil
}

// likedSet returns which of the given targets the viewer has a Like row for,
// as one batched lookup.
func likedSet(ctx context.Context, viewerID primitive.ObjectID, field string, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	liked := make(map[primitive.ObjectID]bool, len(ids))
	if len(ids) == 0 {
		return liked, nil
	}

	cur, err := database.Likes.Find(ctx, bson.M{
		"userId": viewerID,
		field:    bson.M{"$in": ids},
	})
	if err != nil {
		return nil, err
	}
	var rows []models.Like
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, l := range rows {
		switch field {
		case "postId":
			if l.PostID != nil {
				liked[*l.PostID] = true
			}
		case "commentId":
			if l.CommentID != nil {
				liked[*l.CommentID] = true
			}
		}
	}
	return liked, nil
}

// repostedSet mirrors likedSet for the reposts collection.
func repostedSet(ctx context.Context, viewerID primitive.ObjectID, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	reposted := make(map[primitive.ObjectID]bool, len(ids))
	if len(ids) == 0 {
		return reposted, nil
	}

	cur, err := database.Reposts.Find(ctx, bson.M{
		"userId": viewerID,
		"postId": bson.M{"$in": ids},
	})
	if err != nil {
		return nil, err
	}
	var rows []models.Repost
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		reposted[r.PostID] = true
	}
	return reposted, nil
}

// assemblePostViews denormalizes a page of post rows: author profiles,
// comment/like/repost counts, and the viewer's like/repost flags, all via
// batched lookups keyed by id.
func assemblePostViews(ctx context.Context, posts []models.Post, viewerID primitive.ObjectID) ([]timeline.PostView, error) {
	if len(posts) == 0 {
		return []timeline.PostView{}, nil
	}

	now := time.Now()

	postIDs := make([]primitive.ObjectID, len(posts))
	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	seen := make(map[primitive.ObjectID]bool)
	for i, p := range posts {
		postIDs[i] = p.ID
		if !seen[p.UserID] {
			seen[p.UserID] = true
			authorIDs = append(authorIDs, p.UserID)
		}
	}

	authors, err := fetchUsers(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	commentCounts, err := countByField(ctx, database.Comments, "postId", postIDs)
	if err != nil {
		return nil, err
	}
	likeCounts, err := countByField(ctx, database.Likes, "postId", postIDs)
	if err != nil {
		return nil, err
	}
	repostCounts, err := countByField(ctx, database.Reposts, "postId", postIDs)
	if err != nil {
		return nil, err
	}
	liked, err := likedSet(ctx, viewerID, "postId", postIDs)
	if err != nil {
		return nil, err
	}
	reposted, err := repostedSet(ctx, viewerID, postIDs)
	if err != nil {
		return nil, err
	}

	views := make([]timeline.PostView, len(posts))
	for i, p := range posts {
		var author *models.User
		if u, ok := authors[p.UserID]; ok {
			author = &u
		}
		views[i] = timeline.BuildPost(p, author, timeline.PostCounts{
			Comments:   commentCounts[p.ID],
			Likes:      likeCounts[p.ID],
			Reposts:    repostCounts[p.ID],
			IsLiked:    liked[p.ID],
			IsReposted: reposted[p.ID],
		}, now)
	}
	return views, nil
}

func feedLimit(c *gin.Context) int64 {
	limit := int64(50)
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return limit
}

// GetFeed returns the home feed: recent posts newest first, denormalized for
// the viewer. filter=following narrows it to followed authors.
func GetFeed(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if c.Query("filter") == "following" {
		cur, err := database.Follows.Find(ctx, bson.M{"followerId": viewerID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch feed"})
			return
		}
		var edges []models.Follow
		if err := cur.All(ctx, &edges); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch feed"})
			return
		}

		following := make([]primitive.ObjectID, 0, len(edges)+1)
		for _, e := range edges {
			following = append(following, e.FollowingID)
		}
		following = append(following, viewerID)
		filter["userId"] = bson.M{"$in": following}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(feedLimit(c))

	cur, err := database.Posts.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("GetFeed error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		log.Printf("GetFeed decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode posts"})
		return
	}

	views, err := assemblePostViews(ctx, posts, viewerID)
	if err != nil {
		log.Printf("GetFeed assemble error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch feed"})
		return
	}

	c.JSON(http.StatusOK, views)
}

// GetUserPosts returns a user's posts for the profile screen, newest first.
func GetUserPosts(c *gin.Context) {
	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	viewerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(feedLimit(c))

	cur, err := database.Posts.Find(ctx, bson.M{"userId": targetID}, opts)
	if err != nil {
		log.Printf("GetUserPosts error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		log.Printf("GetUserPosts decode error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode posts"})
		return
	}

	views, err := assemblePostViews(ctx, posts, viewerID)
	if err != nil {
		log.Printf("GetUserPosts assemble error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, views)
}
