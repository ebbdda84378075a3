package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skillcoder/kube-metrics-gateway/internal/infra/appstate"
)

// Routes are the gateway endpoints mounted under Prefix.
type Routes struct {
	// Prefix is empty or starts with a slash and has no trailing slash.
	Prefix      string
	FanOut      http.Handler
	Passthrough http.Handler
}

// NewRouter builds the gateway router. Health endpoints and the landing page are
// always served at the root, the gateway routes under routes.Prefix.
func NewRouter(logger *slog.Logger, appState appstater, routes Routes) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	router.Use(middleware.Recoverer)

	router.Get("/-/healthz", appstate.HandleHealthz(logger, appState))
	router.Get("/-/readyz", appstate.HandleReadyz(logger, appState))
	router.Get("/-/status", appstate.HandleStatus(logger, appState))

	landing := handleLanding(logger)

	mount := func(r chi.Router) {
		r.Get("/", landing)
		r.Get("/mproxy/{namespace}/{service}", routes.FanOut.ServeHTTP)
		r.Get("/mproxy/{namespace}/{service}/*", routes.FanOut.ServeHTTP)
		r.Get("/kubesd", routes.Passthrough.ServeHTTP)
		r.Get("/kubesd/*", routes.Passthrough.ServeHTTP)
	}

	if routes.Prefix == "" {
		mount(router)

		return router
	}

	router.Get("/", landing)
	router.Route(routes.Prefix, mount)

	return router
}

type landingResponse struct {
	Message string `json:"message"`
}

func handleLanding(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerContentType, "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(landingResponse{Message: landingMessage}); err != nil {
			logger.ErrorContext(r.Context(), "failed to encode landing response", "reason", err)
		}
	}
}
