package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmc32/pob-v1/internal/pkg/response"
)

// Pinger is a dependency that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a simple health check that succeeds while the server runs.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	}
}

// Ready returns a readiness check that pings every named dependency.
func Ready(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				status[name] = "unavailable"
				status["status"] = "error"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "connected"
		}

		response.JSON(w, code, status)
	}
}
