package handlers

import (
	"net/http"
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

func signTestCredential(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("irrelevant"))
	if err != nil {
		t.Fatalf("failed to sign test credential: %v", err)
	}
	return s
}

func swapOAuthConfig(t *testing.T, cfg *oauth2.Config) {
	t.Helper()
	old := googleOAuthConfig
	googleOAuthConfig = cfg
	t.Cleanup(func() { googleOAuthConfig = old })
}

func TestInitGoogleOAuthReadsEnvAtCallTime(t *testing.T) {
	swapOAuthConfig(t, nil)
	t.Setenv("GOOGLE_CLIENT_ID", "client-from-env")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret-from-env")
	t.Setenv("GOOGLE_REDIRECT_URL", "")

	InitGoogleOAuth()

	if googleOAuthConfig == nil {
		t.Fatal("want OAuth configured after InitGoogleOAuth, got nil config")
	}
	if googleOAuthConfig.ClientID != "client-from-env" {
		t.Errorf("ClientID = %q, want %q", googleOAuthConfig.ClientID, "client-from-env")
	}
}

func TestInitWebPushReadsEnvAtCallTime(t *testing.T) {
	t.Setenv("VAPID_PUBLIC_KEY", "pub-from-env")
	t.Setenv("VAPID_PRIVATE_KEY", "priv-from-env")

	oldKey := vapidPrivateKey
	t.Cleanup(func() { vapidPrivateKey = oldKey })

	InitWebPush()

	if vapidPrivateKey != "priv-from-env" {
		t.Errorf("vapidPrivateKey = %q, want %q", vapidPrivateKey, "priv-from-env")
	}
	if got := os.Getenv("VAPID_PUBLIC_KEY"); got != "pub-from-env" {
		t.Errorf("VAPID_PUBLIC_KEY = %q, want it left untouched", got)
	}
}

func TestInitWebPushGeneratesDevKeys(t *testing.T) {
	t.Setenv("VAPID_PUBLIC_KEY", "")
	t.Setenv("VAPID_PRIVATE_KEY", "")

	oldKey := vapidPrivateKey
	t.Cleanup(func() { vapidPrivateKey = oldKey })

	InitWebPush()

	if vapidPrivateKey == "" {
		t.Error("want generated dev private key, got empty")
	}
	if os.Getenv("VAPID_PUBLIC_KEY") == "" {
		t.Error("want generated dev public key, got empty")
	}
}

func TestParseGoogleCredential(t *testing.T) {
	swapOAuthConfig(t, nil)

	cred := signTestCredential(t, jwt.MapClaims{
		"sub":     "google-123",
		"email":   "dana@example.com",
		"name":    "Dana",
		"picture": "https://img.example/dana.png",
	})

	info, err := parseGoogleCredential(cred)
	if err != nil {
		t.Fatalf("parseGoogleCredential() error = %v", err)
	}
	if info.ID != "google-123" {
		t.Errorf("ID = %q, want %q", info.ID, "google-123")
	}
	if info.Email != "dana@example.com" {
		t.Errorf("Email = %q, want %q", info.Email, "dana@example.com")
	}
	if info.Name != "Dana" {
		t.Errorf("Name = %q, want %q", info.Name, "Dana")
	}
}

func TestParseGoogleCredentialMissingEmail(t *testing.T) {
	swapOAuthConfig(t, nil)

	cred := signTestCredential(t, jwt.MapClaims{"sub": "google-123"})
	if _, err := parseGoogleCredential(cred); err == nil {
		t.Error("want error for credential without email, got nil")
	}
}

func TestParseGoogleCredentialGarbage(t *testing.T) {
	swapOAuthConfig(t, nil)

	if _, err := parseGoogleCredential("not-a-jwt"); err == nil {
		t.Error("want error for malformed credential, got nil")
	}
}

func TestParseGoogleCredentialAudienceMismatch(t *testing.T) {
	swapOAuthConfig(t, &oauth2.Config{ClientID: "expected-client"})

	cred := signTestCredential(t, jwt.MapClaims{
		"aud":   "some-other-client",
		"email": "dana@example.com",
	})
	if _, err := parseGoogleCredential(cred); err == nil {
		t.Error("want error for audience mismatch, got nil")
	}
}

func TestGoogleAuthWithCredentialRejectsBadBody(t *testing.T) {
	c, w := newTestContext(http.MethodPost, "/api/google-auth", "", `{"credential":""}`)

	GoogleAuthWithCredential(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
