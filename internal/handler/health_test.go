package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}

func TestReady(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("down") })

	tests := []struct {
		name           string
		deps           map[string]Pinger
		expectedStatus int
		expectedRedis  string
	}{
		{
			name:           "all connected",
			deps:           map[string]Pinger{"database": ok, "redis": ok},
			expectedStatus: http.StatusOK,
			expectedRedis:  "connected",
		},
		{
			name:           "redis down",
			deps:           map[string]Pinger{"database": ok, "redis": down},
			expectedStatus: http.StatusServiceUnavailable,
			expectedRedis:  "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Ready(tt.deps)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			var resp struct {
				Data map[string]string `json:"data"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Data["redis"] != tt.expectedRedis {
				t.Errorf("expected redis %s, got %s", tt.expectedRedis, resp.Data["redis"])
			}
		})
	}
}
