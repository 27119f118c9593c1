package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newTestContext returns a gin context with an optional authenticated user,
// the way the JWT middleware would populate it.
func newTestContext(method, target, userID string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if userID != "" {
		c.Set("userId", userID)
	}
	return c, w
}

func TestGetThreadInvalidPostID(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/post/not-an-id/thread", primitive.NewObjectID().Hex(), "")
	c.Params = gin.Params{{Key: "id", Value: "not-an-id"}}

	GetThread(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "Invalid post ID") {
		t.Errorf("body = %q, want it to mention an invalid post ID", w.Body.String())
	}
}

func TestGetThreadMissingUser(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/post/x/thread", "", "")
	c.Params = gin.Params{{Key: "id", Value: primitive.NewObjectID().Hex()}}

	GetThread(c)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestGetRepliesInvalidCommentID(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/api/comment/zzz/replies", primitive.NewObjectID().Hex(), "")
	c.Params = gin.Params{{Key: "id", Value: "zzz"}}

	GetReplies(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSendMessageRejectsSelf(t *testing.T) {
	self := primitive.NewObjectID()
	body := `{"receiverId":"` + self.Hex() + `","content":"hi"}`
	c, w := newTestContext(http.MethodPost, "/api/message", self.Hex(), body)

	SendMessage(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "Cannot message yourself") {
		t.Errorf("body = %q, want self-message rejection", w.Body.String())
	}
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	body := `{"receiverId":"` + primitive.NewObjectID().Hex() + `","content":""}`
	c, w := newTestContext(http.MethodPost, "/api/message", primitive.NewObjectID().Hex(), body)

	SendMessage(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
