package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"cinebot/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter builds the ops API router: liveness plus read-only list
// inspection. The bot's command surface lives entirely on the chat side.
func NewRouter(healthHandler *handlers.HealthHandler, listsHandler *handlers.ListsHandler) *mux.Router {
	r := mux.NewRouter()

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(corsMiddleware)

	apiRouter.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/lists/{kind}/{userId}", listsHandler.GetList).Methods(http.MethodGet, http.MethodOptions)

	return r
}
