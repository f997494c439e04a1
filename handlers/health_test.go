package handlers

import (
	"errors"
	"net/http"
	"testing"
)

func TestGetHealth(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     int
		database string
	}{
		{"connected", nil, http.StatusOK, "connected"},
		{"disconnected", errors.New("database is locked"), http.StatusServiceUnavailable, "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(&stubRepo{err: tt.err})
			w := get(t, h.GetHealth, "/health")
			if w.Code != tt.code {
				t.Fatalf("status = %d, expected %d", w.Code, tt.code)
			}
			var body map[string]interface{}
			decode(t, w, &body)
			if body["database"] != tt.database {
				t.Errorf("database = %v, expected %s", body["database"], tt.database)
			}
		})
	}
}

func TestGetPing(t *testing.T) {
	h := NewHealthHandler(&stubRepo{})
	w := get(t, h.GetPing, "/api/ping")
	if w.Body.String() != "pong" {
		t.Errorf("body = %q, expected pong", w.Body.String())
	}
}
