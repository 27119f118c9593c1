package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"loom/database"
	"loom/models"
)

var googleOAuthConfig *oauth2.Config

// InitGoogleOAuth reads the Google client configuration from the
// environment. Called from main after the .env file is loaded; a package
// init would run before godotenv and miss file-provided values.
func InitGoogleOAuth() {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")

	if clientID != "" && clientSecret != "" {
		redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
		if redirectURL == "" {
			redirectURL = "http://localhost:8080/api/google/callback"
		}
		googleOAuthConfig = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
		log.Println("Google OAuth configured")
	} else {
		log.Println("Google OAuth not configured - set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
	}
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// usernameFromEmail derives a unique handle from the address local part.
func usernameFromEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "user_" + primitive.NewObjectID().Hex()[:8]
	}
	local := strings.ToLower(strings.ReplaceAll(email[:at], ".", ""))
	return local + "_" + primitive.NewObjectID().Hex()[:4]
}

func GetGoogleAuthURL(c *gin.Context) {
	if googleOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}

	url := googleOAuthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func GoogleOAuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code missing"})
		return
	}

	if googleOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := googleOAuthConfig.Exchange(ctx, code)
	if err != nil {
		log.Printf("Google OAuth token exchange failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exchange authorization code"})
		return
	}

	client := googleOAuthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		log.Printf("Failed to get user info from Google: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user information"})
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read user information"})
		return
	}

	var info googleUserInfo
	if err := json.Unmarshal(data, &info); err != nil || info.Email == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user information from Google"})
		return
	}

	userID, err := upsertGoogleUser(ctx, info)
	if err != nil {
		log.Printf("Failed to upsert Google user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	tokenString, err := issueToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  tokenString,
		"userId": userID.Hex(),
	})
}

type GoogleAuthRequest struct {
	Credential string `json:"credential" binding:"required"`
}

// GoogleAuthWithCredential signs a user in from a Google Identity Services
// ID token posted by the client. This is the path mobile and one-tap clients
// use; the redirect flow above serves classic web sign-in.
func GoogleAuthWithCredential(c *gin.Context) {
	var req GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	info, err := parseGoogleCredential(req.Credential)
	if err != nil {
		log.Printf("Failed to parse Google credential: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Google credential"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := upsertGoogleUser(ctx, info)
	if err != nil {
		log.Printf("Failed to upsert Google user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign in"})
		return
	}

	tokenString, err := issueToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  tokenString,
		"userId": userID.Hex(),
	})
}

// parseGoogleCredential extracts the user identity from a Google ID token.
// The token arrives over TLS from Google's sign-in widget; when a client ID
// is configured the audience claim must match it.
func parseGoogleCredential(credential string) (googleUserInfo, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(credential, jwt.MapClaims{})
	if err != nil {
		return googleUserInfo{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return googleUserInfo{}, fmt.Errorf("unexpected claims type %T", token.Claims)
	}

	if googleOAuthConfig != nil {
		if aud := stringClaim(claims, "aud"); aud != googleOAuthConfig.ClientID {
			return googleUserInfo{}, fmt.Errorf("credential audience mismatch")
		}
	}

	info := googleUserInfo{
		ID:      stringClaim(claims, "sub"),
		Email:   stringClaim(claims, "email"),
		Name:    stringClaim(claims, "name"),
		Picture: stringClaim(claims, "picture"),
	}
	if info.Email == "" {
		return googleUserInfo{}, fmt.Errorf("credential missing email")
	}
	return info, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}

// upsertGoogleUser finds the account for a verified Google identity or
// creates one on first sign-in.
func upsertGoogleUser(ctx context.Context, info googleUserInfo) (primitive.ObjectID, error) {
	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"email": info.Email}).Decode(&user)
	if err == nil {
		return user.ID, nil
	}
	if err != mongo.ErrNoDocuments {
		return primitive.NilObjectID, err
	}

	user = models.User{
		ID:           primitive.NewObjectID(),
		Email:        info.Email,
		AuthProvider: "google",
		Username:     usernameFromEmail(info.Email),
		Name:         info.Name,
		Avatar:       info.Picture,
		CreatedAt:    time.Now().Unix(),
		LastSeen:     time.Now().Unix(),
	}

	if _, err := database.Users.InsertOne(ctx, user); err != nil {
		return primitive.NilObjectID, err
	}
	return user.ID, nil
}
