package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"medwarehouse/pkg/logging"
	"medwarehouse/pkg/monitoring"
)

func TestSetupServiceRouter(t *testing.T) {
	logger := logging.NewTestLogger()
	hc := monitoring.NewHealthChecker("warehouse-api", "v1")
	mc := monitoring.NewMetricsCollector("warehouse-api", "v1", "abc")
	r := SetupServiceRouter(logger, "warehouse-api", hc, mc)
	r.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), "GET", "/ping", nil)
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequestWithContext(context.Background(), "GET", "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected healthy router, got %d", w.Code)
	}
}

func TestDefaultConfigUsesPortEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	cfg := DefaultConfig("warehouse-api", "8000")
	if cfg.Port != "9999" {
		t.Fatalf("expected PORT env to win, got %s", cfg.Port)
	}
	t.Setenv("PORT", "")
	cfg = DefaultConfig("warehouse-api", "8000")
	if cfg.Port != "8000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
}
