package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/waveradio/core/internal/auth"
	"github.com/waveradio/core/internal/config"
)

func newTestAuthController() (*AuthController, *auth.Service) {
	authService := auth.NewService("test-secret", time.Hour)
	cfg := &config.Config{Admin: config.AdminConfig{Username: "admin", Password: "hunter2"}}
	return NewAuthController(authService, cfg), authService
}

func TestLoginSucceedsWithValidCredentials(t *testing.T) {
	ac, _ := newTestAuthController()
	router := mux.NewRouter()
	ac.RegisterRoutes(router)

	body, _ := json.Marshal(LoginRequest{Username: "admin", Password: "hunter2"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a non-empty token")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	ac, _ := newTestAuthController()
	router := mux.NewRouter()
	ac.RegisterRoutes(router)

	body, _ := json.Marshal(LoginRequest{Username: "admin", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	ac, authService := newTestAuthController()
	router := mux.NewRouter()
	ac.RegisterRoutes(router)

	token, err := authService.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	body, _ := json.Marshal(RefreshRequest{Token: token})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshTokenRejectsGarbage(t *testing.T) {
	ac, _ := newTestAuthController()
	router := mux.NewRouter()
	ac.RegisterRoutes(router)

	body, _ := json.Marshal(RefreshRequest{Token: "not-a-real-token"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetCurrentUserRequiresAuth(t *testing.T) {
	ac, _ := newTestAuthController()
	router := mux.NewRouter()
	ac.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestGetCurrentUserWithValidToken(t *testing.T) {
	ac, authService := newTestAuthController()
	router := mux.NewRouter()
	ac.RegisterRoutes(router)

	token, err := authService.GenerateToken("admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
