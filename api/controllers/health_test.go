package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/colondancer/raffle-bee/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "dev"}}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(testConfig()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec.Header().Get(envHeader) != "dev" {
		t.Fatalf("expected env header, got %q", rec.Header().Get(envHeader))
	}
}

func TestHealthReady(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthReady(testConfig(), nil, stubPinger{}, stubPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var got map[string]string
	decodeData(t, rec, &got)
	if got["status"] != "ready" {
		t.Fatalf("unexpected status %v", got)
	}
}

func TestHealthReadyDependencyDown(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthReady(testConfig(), nil, stubPinger{}, stubPinger{err: errors.New("connection refused")}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "DEPENDENCY_ERROR" {
		t.Fatalf("unexpected code %s", code)
	}
}
