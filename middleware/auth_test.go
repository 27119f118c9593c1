package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, userID string, expiresAt time.Time) string {
	t.Helper()

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret())
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware())
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString("userId")})
	})
	return r
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	r := authTestRouter()
	token := signTestToken(t, "user-123", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("want status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestJWTAuthMiddleware_QueryToken(t *testing.T) {
	r := authTestRouter()
	token := signTestToken(t, "user-123", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("want status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestJWTAuthMiddleware_MissingToken(t *testing.T) {
	r := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("want status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestJWTAuthMiddleware_ExpiredToken(t *testing.T) {
	r := authTestRouter()
	token := signTestToken(t, "user-123", time.Now().Add(-time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("want status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestParseToken_RoundTrip(t *testing.T) {
	token := signTestToken(t, "user-456", time.Now().Add(time.Hour))

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error parsing token: %v", err)
	}
	if claims.UserID != "user-456" {
		t.Errorf("want userId %q, got %q", "user-456", claims.UserID)
	}
}
