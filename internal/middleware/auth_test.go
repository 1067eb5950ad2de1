package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afflytics/afflytics/internal/auth"
)

func adminHandler(t *testing.T, keyHash string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return AdminAuth(keyHash, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAdminAuth_DisabledWhenNoHash(t *testing.T) {
	handler := adminHandler(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/clear", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200 with auth disabled, got %d", rec.Code)
	}
}

func TestAdminAuth_MissingCredentials(t *testing.T) {
	hash, err := auth.HashKey("admin-key")
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}
	handler := adminHandler(t, hash)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/clear", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rec.Code)
	}
}

func TestAdminAuth_WrongKey(t *testing.T) {
	hash, err := auth.HashKey("admin-key")
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}
	handler := adminHandler(t, hash)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/clear", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rec.Code)
	}
}

func TestAdminAuth_CorrectKey(t *testing.T) {
	hash, err := auth.HashKey("admin-key")
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}
	handler := adminHandler(t, hash)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/clear", nil)
	req.Header.Set("Authorization", "Bearer admin-key")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bearer", "Bearer abc123", "abc123"},
		{"bearer with spaces", "Bearer  abc123 ", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"no scheme", "abc123", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := bearerToken(req); got != tt.want {
				t.Errorf("bearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}
