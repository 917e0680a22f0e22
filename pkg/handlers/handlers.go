// Package handlers contains the bot's operational HTTP endpoints: Prometheus
// metrics and a health check reporting whether the database answers.

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger is satisfied by *db.DB through its embedded *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Application holds the dependencies of the ops endpoints.
type Application struct {
	// Metrics serves /metrics. A nil handler disables the route.
	Metrics http.Handler
	// DB is checked by /healthz when set.
	DB     Pinger
	Logger logrus.FieldLogger
}

// Routes returns the ops mux wrapped in SecurityHeaders.
func (app *Application) Routes() http.Handler {
	mux := http.NewServeMux()
	if app.Metrics != nil {
		mux.Handle("/metrics", app.Metrics)
	}
	mux.HandleFunc("/healthz", app.Healthz)
	return SecurityHeaders(mux)
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Healthz reports 200 when the bot's dependencies respond and 503 otherwise.
func (app *Application) Healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := healthResponse{Status: "ok"}
	code := http.StatusOK
	if app.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := app.DB.PingContext(ctx); err != nil {
			if app.Logger != nil {
				app.Logger.WithError(err).Warn("health check: database unreachable")
			}
			resp = healthResponse{Status: "unavailable", Database: err.Error()}
			code = http.StatusServiceUnavailable
		}
	}
	respondJSON(w, code, resp)
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
