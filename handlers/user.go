package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"loom/database"
	"loom/models"
	"loom/timeline"
)

// profileResponse shapes a user row into the profile view model: public
// fields plus the derived follower count and the viewer's follow state.
func profileResponse(ctx context.Context, user models.User, viewerID primitive.ObjectID) (gin.H, error) {
	followers, err := database.Follows.CountDocuments(ctx, bson.M{"followingId": user.ID})
	if err != nil {
		return nil, err
	}

	isFollowing := false
	if viewerID != primitive.NilObjectID && viewerID != user.ID {
		n, err := database.Follows.CountDocuments(ctx, bson.M{
			"followerId":  viewerID,
			"followingId": user.ID,
		})
		if err != nil {
			return nil, err
		}
		isFollowing = n > 0
	}

	username := user.Username
	if username == "" {
		username = timeline.FallbackUsername
	}
	avatar := user.Avatar
	if avatar == "" {
		avatar = timeline.FallbackAvatar
	}

	return gin.H{
		"id":            user.ID.Hex(),
		"username":      username,
		"name":          user.Name,
		"avatar":        avatar,
		"bio":           user.Bio,
		"link":          user.Link,
		"private":       user.Private,
		"followerCount": followers,
		"isFollowing":   isFollowing,
		"createdAt":     user.CreatedAt,
	}, nil
}

func GetMyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	resp, err := profileResponse(ctx, user, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}
	resp["email"] = user.Email

	c.JSON(http.StatusOK, resp)
}

// GetProfile returns a profile by user ID. A missing user yields fallback
// fields rather than an error, matching what feed rendering expects.
func GetProfile(c *gin.Context) {
	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	viewerID, _ := currentUserID(c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": targetID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusOK, gin.H{
			"id":            targetID.Hex(),
			"username":      timeline.FallbackUsername,
			"name":          "",
			"avatar":        timeline.FallbackAvatar,
			"bio":           "",
			"link":          "",
			"private":       false,
			"followerCount": 0,
			"isFollowing":   false,
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	resp, err := profileResponse(ctx, user, viewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func GetProfileByUsername(c *gin.Context) {
	username := strings.ToLower(c.Param("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username required"})
		return
	}

	viewerID, _ := currentUserID(c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	resp, err := profileResponse(ctx, user, viewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Bio     *string `json:"bio"`
	Link    *string `json:"link"`
	Avatar  *string `json:"avatar"`
	Private *bool   `json:"private"`
}

func UpdateMyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set := bson.M{}
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Bio != nil {
		set["bio"] = *req.Bio
	}
	if req.Link != nil {
		set["link"] = *req.Link
	}
	if req.Avatar != nil {
		set["avatar"] = *req.Avatar
	}
	if req.Private != nil {
		set["private"] = *req.Private
	}

	if len(set) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No changes to update"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := database.Users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		log.Printf("UpdateMyProfile error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}
