package appstate

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/pinger"
)

type statusResponse struct {
	State      string                   `json:"state"`
	Uptime     string                   `json:"uptime"`
	StartTime  time.Time                `json:"startTime"`
	UptimeSec  float64                  `json:"uptimeSeconds"`
	Components map[string]pinger.Result `json:"components"`
}

// HandleHealthz returns an http.HandlerFunc for the /-/healthz endpoint
func HandleHealthz(
	logger *slog.Logger,
	appState healthChecker,
) http.HandlerFunc {
	return checkHandler(logger, "health", appState.IsHealthy)
}

// HandleReadyz returns an http.HandlerFunc for the /-/readyz endpoint
func HandleReadyz(
	logger *slog.Logger,
	appState readyChecker,
) http.HandlerFunc {
	return checkHandler(logger, "readiness", appState.IsReady)
}

func checkHandler(logger *slog.Logger, kind string, check func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.With("traceID", middleware.GetReqID(ctx), "check", kind)

		if !check() {
			w.WriteHeader(http.StatusServiceUnavailable)
			log.DebugContext(ctx, "check failed")

			return
		}

		w.WriteHeader(http.StatusOK)
		log.DebugContext(ctx, "check passed")
	}
}

// HandleStatus returns an http.HandlerFunc for the /-/status endpoint
func HandleStatus(
	logger *slog.Logger,
	appState statusGetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.With("traceID", middleware.GetReqID(ctx))

		uptime := appState.GetUptime()

		response := statusResponse{
			State:      string(appState.GetState()),
			Uptime:     uptime.String(),
			StartTime:  appState.GetStartTime(),
			UptimeSec:  uptime.Seconds(),
			Components: appState.ComponentResults(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.ErrorContext(ctx, "failed to encode status response", "reason", err)

			return
		}

		log.DebugContext(ctx, "status response sent", "state", response.State)
	}
}
