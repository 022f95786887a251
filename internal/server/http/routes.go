package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter 挂载 API、websocket 和静态资源。
func NewRouter(h *Handler, hub *Hub, webDir, mobileDir string) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/games", h.handleNewGame).Methods(http.MethodPost)
	api.HandleFunc("/games", h.handleListGames).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", h.handleState).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", h.handleDeleteGame).Methods(http.MethodDelete)
	api.HandleFunc("/games/{id}/move", h.handlePlay).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}/ai_move", h.handleAiMove).Methods(http.MethodPost)
	api.HandleFunc("/analyze", h.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/tiers", h.handleTiers).Methods(http.MethodGet)
	api.HandleFunc("/records", h.handleRecords).Methods(http.MethodGet)
	api.HandleFunc("/records/{id}", h.handleRecord).Methods(http.MethodGet)

	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	if hub != nil {
		r.HandleFunc("/ws/games/{id}", hub.HandleWebSocket).Methods(http.MethodGet)
	}

	RegisterStaticRoutes(r, webDir, mobileDir)
	return r
}

// WithCORS wraps the router; no origins means same-origin only.
func WithCORS(next http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return next
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(next)
}
