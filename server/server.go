package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"undervalued-homes/config"
	"undervalued-homes/utils"
)

// NewRouter registers the endpoints and middleware.
func NewRouter(h *Handlers, cfg *config.Config, logger *utils.Logger) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/process-data", h.ProcessData).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/download/{id}/{file}", h.Download).Methods(http.MethodGet)

	router.Use(RequestLogger(logger))
	router.Use(CORS(cfg.CORSAllowedOrigins))
	return router
}

// New builds the HTTP server. The write timeout leaves room for the search
// call plus rendering.
func New(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 90*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
