package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"

	"github.com/nepallicenseprep/likhit-backend/internal/config"
	"github.com/nepallicenseprep/likhit-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequireClientJWT(t *testing.T) {
	auth := service.NewAuthService(&config.Config{JWTSecret: "s", JWTExpiry: time.Hour})
	tok, err := auth.IssueClientToken("")
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.GET("/me", RequireClientJWT(auth), func(c *gin.Context) {
		c.String(http.StatusOK, ClientID(c))
	})

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"header", "/me", "Bearer " + tok.Token, http.StatusOK},
		{"query", "/me?token=" + tok.Token, "", http.StatusOK},
		{"missing", "/me", "", http.StatusUnauthorized},
		{"garbage", "/me", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status == http.StatusOK && w.Body.String() != tok.ClientID {
				t.Fatalf("client id = %q", w.Body.String())
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("ip") || !rl.Allow("ip") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("ip") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("other") {
		t.Fatal("limits are per key")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("ip") {
		t.Fatal("bucket should refill after an interval")
	}
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	big := strings.Repeat("likhit ", 500)

	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 256}))
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("headers = %v", w.Header())
	}
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil || string(plain) != big {
		t.Fatalf("decoded body mismatch (err %v)", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Fatalf("small body = %q enc = %q", w.Body.String(), w.Header().Get("Content-Encoding"))
	}
}

func TestAcceptsBrotli(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"gzip, deflate, br", true},
		{"br;q=0.5", true},
		{"BR; q=1", true},
		{"br;q=0", false},
		{"gzip, br;q=0.000", false},
		{"br;q=bogus", false},
		{"gzip", false},
		{"", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept-Encoding", tt.header)
		if got := acceptsBrotli(r); got != tt.want {
			t.Errorf("acceptsBrotli(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
