package tenant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func authServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/token" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req["password"] != "correct" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + req["username"],
			"expires_in":   3600,
		})
	}))
}

func TestLogin_Success(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, "nuoactl")
	token, err := c.Login(context.Background(), "ops@nuoa.io", "correct")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token.AccessToken != "tok-ops@nuoa.io" {
		t.Errorf("token = %q", token.AccessToken)
	}
	if until := time.Until(token.ExpiresAt); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("expiry = %v from now", until)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.Login(context.Background(), "ops@nuoa.io", "wrong"); err == nil {
		t.Fatal("expected error")
	}
}

func TestLogin_NoBaseURL(t *testing.T) {
	c := NewClient("", "")
	if _, err := c.Login(context.Background(), "u", "p"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTokenCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache := NewTokenCache(dir, dir+"/.age-key")

	token := &Token{AccessToken: "secret-token", ExpiresAt: time.Now().Add(time.Hour)}
	if err := cache.Save(token); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := cache.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.AccessToken != "secret-token" {
		t.Errorf("got = %+v", got)
	}
}

func TestTokenCache_ExpiredReturnsNil(t *testing.T) {
	dir := t.TempDir()
	cache := NewTokenCache(dir, dir+"/.age-key")

	token := &Token{AccessToken: "old", ExpiresAt: time.Now().Add(10 * time.Second)}
	if err := cache.Save(token); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Within the 30s slack window, so unusable.
	got, err := cache.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}

func TestTokenCache_EmptyReturnsNil(t *testing.T) {
	dir := t.TempDir()
	cache := NewTokenCache(dir, dir+"/.age-key")

	got, err := cache.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v", got)
	}
}
