package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/eventra/dashboard/api/internal/auth"
)

func TestAuthenticate_Required(t *testing.T) {
	e := echo.New()
	manager := auth.NewJWTManager("secret", 0)

	token, err := manager.GenerateToken("user-1", "user@example.com", "admin")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	tests := map[string]struct {
		header     string
		expectCode int
	}{
		"missing header": {
			expectCode: http.StatusUnauthorized,
		},
		"invalid header": {
			header:     "Basic token",
			expectCode: http.StatusUnauthorized,
		},
		"invalid token": {
			header:     "Bearer invalid",
			expectCode: http.StatusUnauthorized,
		},
		"success": {
			header:     "Bearer " + token,
			expectCode: http.StatusOK,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			executed := false
			err := Authenticate(manager, true)(func(c echo.Context) error {
				executed = true
				if UserIDFromContext(c) != "user-1" || UserRoleFromContext(c) != "admin" {
					t.Fatalf("expected user metadata in context")
				}
				return c.NoContent(http.StatusOK)
			})(c)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if rec.Code != tt.expectCode {
				t.Fatalf("expected status %d, got %d", tt.expectCode, rec.Code)
			}
			if executed != (tt.expectCode == http.StatusOK) {
				t.Fatalf("unexpected next execution: %v", executed)
			}
			if tt.expectCode == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"status":"error"`) {
				t.Fatalf("expected error envelope, got %s", rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_OptionalWarnsAndContinues(t *testing.T) {
	orig := log.Writer()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	defer log.SetOutput(orig)

	e := echo.New()
	manager := auth.NewJWTManager("secret", 0)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/score-lead", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	executed := false
	if err := Authenticate(manager, false)(func(c echo.Context) error {
		executed = true
		if UserIDFromContext(c) != "" {
			t.Fatalf("expected anonymous context")
		}
		return c.NoContent(http.StatusOK)
	})(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !executed || rec.Code != http.StatusOK {
		t.Fatalf("expected request to proceed, code=%d", rec.Code)
	}
	if !strings.Contains(buf.String(), "level=warn") || !strings.Contains(buf.String(), "/api/ai/score-lead") {
		t.Fatalf("expected warning log, got %s", buf.String())
	}
}
