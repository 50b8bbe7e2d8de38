package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/quinnmay/mem0hook/internal/api/recovery"
	"github.com/quinnmay/mem0hook/internal/health"
	"github.com/quinnmay/mem0hook/internal/services"
)

// NewRouter wires all relay routes. webhookSecret enables signature
// verification on the /webhook subtree when non-empty.
func NewRouter(svc *services.WebhookService, checker *health.StoreHealthChecker, webhookSecret string, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	wh := NewWebhookHandler(svc, log)
	hooks := root.PathPrefix("/webhook").Subrouter()
	hooks.Use(SignatureMiddleware(webhookSecret))
	hooks.HandleFunc("/memory", wh.CreateMemory).Methods("POST")
	hooks.HandleFunc("/memories/batch", wh.CreateMemoriesBatch).Methods("POST")
	hooks.HandleFunc("/zapier", wh.CreateZapierMemory).Methods("POST")
	hooks.HandleFunc("/generic", wh.CreateGenericMemory).Methods("POST")

	healthHandler := NewHealthHandler(checker)
	root.HandleFunc("/health", healthHandler.CheckHealth).Methods("GET")
	root.HandleFunc("/", ServiceInfo).Methods("GET")

	return root
}
