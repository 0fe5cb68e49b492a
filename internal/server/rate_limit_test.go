package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/eshop/internal/ratelimit"
	"go.uber.org/zap"
)

type fakeLimiter struct {
	allow bool
	err   error
	calls int
}

func (f *fakeLimiter) AllowWrite(ctx context.Context, client string) (*ratelimit.Result, error) {
	_ = ctx
	_ = client
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ratelimit.Result{Allowed: f.allow, Limit: 5, RetryAfter: 1500 * time.Millisecond}, nil
}

func limitedEngine(l ratelimit.Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := &Server{log: zap.NewNop(), limiter: l}
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	r.Use(s.limitWrites())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestLimitWritesRejectsWhenBucketEmpty(t *testing.T) {
	limiter := &fakeLimiter{allow: false}
	r := limitedEngine(limiter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, got %d", rec.Code)
	}
	if limiter.calls != 1 {
		t.Fatalf("expected one limiter call, got %d", limiter.calls)
	}
}

func TestLimitWritesFailsOpen(t *testing.T) {
	r := limitedEngine(&fakeLimiter{err: errors.New("redis down")})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}
