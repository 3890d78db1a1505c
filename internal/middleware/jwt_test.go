package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ceniit/resource-booking/internal/utils"
)

const testSecret = "test-secret"

func runProtected(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, c
}

func TestJWTAuth(t *testing.T) {
	access, err := utils.NewAccessToken(testSecret, 42, "admin", 5)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	t.Run("valid token passes and sets identity", func(t *testing.T) {
		rec, c := runProtected(t, JWTAuth(testSecret), "Bearer "+access.Token)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		// JSON numbers decode as float64.
		if id, _ := c.Get("user_id").(float64); id != 42 {
			t.Errorf("user_id = %v, want 42", c.Get("user_id"))
		}
		if role, _ := c.Get("role").(string); role != "admin" {
			t.Errorf("role = %v, want admin", c.Get("role"))
		}
	})

	t.Run("missing header", func(t *testing.T) {
		rec, _ := runProtected(t, JWTAuth(testSecret), "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		rec, _ := runProtected(t, JWTAuth("other-secret"), "Bearer "+access.Token)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, _ := runProtected(t, JWTAuth(testSecret), "Bearer not.a.jwt")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		role    interface{}
		allowed []string
		want    int
	}{
		{"allowed role", "admin", []string{"admin"}, http.StatusOK},
		{"second allowed role", "user", []string{"admin", "user"}, http.StatusOK},
		{"disallowed role", "user", []string{"admin"}, http.StatusForbidden},
		{"missing role", nil, []string{"admin"}, http.StatusForbidden},
		{"non-string role", 3, []string{"admin"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tc.role != nil {
				c.Set("role", tc.role)
			}
			h := RequireRole(tc.allowed...)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
			if err := h(c); err != nil {
				t.Fatalf("middleware returned error: %v", err)
			}
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
