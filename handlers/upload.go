package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type UploadImageRequest struct {
	// Image is a base64-encoded image, optionally wrapped in a data URL
	// ("data:image/png;base64,....").
	Image string `json:"image" binding:"required"`
}

// UploadImage decodes a base64 image payload and stores it in the media
// bucket, returning the public URL to attach to a post or profile.
func UploadImage(c *gin.Context) {
	var req UploadImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID"})
		return
	}

	encoded := req.Image
	if idx := strings.Index(encoded, "base64,"); idx >= 0 {
		encoded = encoded[idx+len("base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid base64 image data"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		log.Printf("Cloudinary configuration error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cloudinary configuration error"})
		return
	}

	uploadParams := uploader.UploadParams{
		Folder:         "loom/posts",
		PublicID:       userID.Hex() + "_" + time.Now().Format("20060102150405"),
		Transformation: "c_limit,w_1080,h_1080,q_auto",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(raw), uploadParams)
	if err != nil {
		log.Printf("UploadImage error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": uploadResult.SecureURL})
}
