package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestHelpers_GetIdempotencyKey_IsRateBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}
	if IsRateBypass(c) {
		t.Fatalf("expected IsRateBypass=false by default")
	}

	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("expected GetIdempotencyKey to be absent for non-string value")
	}
	c.Set(ctxKeyRateBypass, true)
	if !IsRateBypass(c) {
		t.Fatalf("expected IsRateBypass=true")
	}
	c.Set(ctxKeyRateBypass, "yes")
	if IsRateBypass(c) {
		t.Fatalf("expected IsRateBypass=false for non-bool")
	}
}

func TestIdempotencyValidator_NoHeader_NoLookupCalled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	called := false
	lookup := func(context.Context, string, string, time.Time) (bool, error) {
		called = true
		return false, nil
	}
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/api/employees", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("key should not be present when header missing")
		}
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/employees", nil))

	if w.Code != http.StatusNoContent || called {
		t.Fatalf("expected passthrough without lookup, code=%d called=%v", w.Code, called)
	}
}

func TestIdempotencyValidator_IgnoresOtherMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, nil))
	r.PUT("/api/employees/:id", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("PUT must not be treated as idempotent-create")
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/employees/1", nil)
	req.Header.Set(HeaderIdempotencyKey, "not valid!")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for PUT, got %d", w.Code)
	}
}

func TestIdempotencyValidator_InvalidKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
		{"default pattern", IdempotencyOptions{}, "has space"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(IdempotencyValidator(tc.opts, nil))
			r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			req.Header.Set(HeaderIdempotencyKey, tc.key)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["code"] != "bad_idempotency_key" || body["error"] == "" {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

func TestIdempotencyValidator_Lookup(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(t *testing.T, lookup IdempotencyLookup, wantReplay bool) {
		t.Helper()
		r := gin.New()
		r.Use(IdempotencyValidator(IdempotencyOptions{Scope: "employees"}, lookup))
		r.POST("/api/employees", func(c *gin.Context) {
			key, ok := GetIdempotencyKey(c)
			if !ok || key != "key-1" {
				t.Fatalf("expected stashed key, got %q", key)
			}
			if IsRateBypass(c) != wantReplay {
				t.Fatalf("bypass=%v; want %v", IsRateBypass(c), wantReplay)
			}
			c.Status(http.StatusCreated)
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/employees", strings.NewReader("{}"))
		req.Header.Set(HeaderIdempotencyKey, "key-1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
	}

	t.Run("miss", func(t *testing.T) {
		run(t, func(_ context.Context, scope, key string, now time.Time) (bool, error) {
			if scope != "employees" || key != "key-1" || now.IsZero() {
				t.Fatalf("lookup args: %q %q %v", scope, key, now)
			}
			return false, nil
		}, false)
	})
	t.Run("hit", func(t *testing.T) {
		run(t, func(context.Context, string, string, time.Time) (bool, error) { return true, nil }, true)
	})
	t.Run("lookup error does not block", func(t *testing.T) {
		captureLogger(t)
		run(t, func(context.Context, string, string, time.Time) (bool, error) {
			return false, errors.New("db down")
		}, false)
	})
}
