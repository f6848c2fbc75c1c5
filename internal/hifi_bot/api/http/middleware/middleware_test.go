package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, target, body, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if ip != "" {
		req.RemoteAddr = ip + ":1234"
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterPerIP(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(2).Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := serve(r, http.MethodGet, "/", "", "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, w.Code)
		}
	}
	if w := serve(r, http.MethodGet, "/", "", "10.0.0.1"); w.Code != http.StatusTooManyRequests {
		t.Errorf("third request: got %d, want 429", w.Code)
	}
	if w := serve(r, http.MethodGet, "/", "", "10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("other ip: got %d", w.Code)
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1)
	rl.now = func() time.Time { return clock }
	rl.lastSweep = clock

	for i := 0; i < 100; i++ {
		rl.allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	if n := rl.Len(); n != 100 {
		t.Fatalf("tracked clients: got %d, want 100", n)
	}
	if rl.allow("10.0.0.0") {
		t.Error("second request within the minute must be limited")
	}

	clock = clock.Add(limiterIdleTTL)
	if !rl.allow("10.9.9.9") {
		t.Error("new client must be allowed")
	}
	if n := rl.Len(); n != 1 {
		t.Errorf("tracked clients after sweep: got %d, want 1", n)
	}
	if !rl.allow("10.0.0.0") {
		t.Error("evicted client starts with a full bucket")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(0).Handler())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 10; i++ {
		if w := serve(r, http.MethodGet, "/", "", "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, w.Code)
		}
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/", "", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "server_error" || body["details"] != "boom" {
		t.Errorf("body: got %v", body)
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	if w := serve(r, http.MethodPost, "/", "short", ""); w.Code != http.StatusOK {
		t.Errorf("small body: got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/", "much longer than eight", ""); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body: got %d", w.Code)
	}
}
