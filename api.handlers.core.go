package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Statistics holds app stats for ops.
type Statistics struct {
	version   string
	container bool
	runtime   string
	platform  string
	called    uint64
	started   time.Time
	status    map[int]uint64
	mu        *sync.RWMutex
}

// Maintenance holds app maintenance mode infos. The mutex guards message
// and started, which the maintenance gate reads while the ops handler
// rewrites them.
type Maintenance struct {
	enabled atomic.Bool
	mu      sync.Mutex
	message string
	started time.Time
}

// Enable turns the maintenance mode on with the message shown to users.
func (m *Maintenance) Enable(message string, started time.Time) {
	m.mu.Lock()
	m.message = message
	m.started = started
	m.mu.Unlock()
	m.enabled.Store(true)
}

// Disable turns the maintenance mode off and clears its infos.
func (m *Maintenance) Disable() {
	m.enabled.Store(false)
	m.mu.Lock()
	m.message = ""
	m.started = time.Time{}.UTC()
	m.mu.Unlock()
}

// Infos provides a consistent snapshot of the mode message and start time.
func (m *Maintenance) Infos() (string, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.message, m.started
}

// APIHandler defines the API handler.
type APIHandler struct {
	logger      *zap.Logger
	config      *Config
	stats       *Statistics
	mode        *Maintenance
	clock       Clocker
	idsHandler  UIDHandler
	bookService BookServiceProvider
}

// NewAPIHandler provides a new instance of APIHandler.
func NewAPIHandler(logger *zap.Logger, config *Config, stats *Statistics, clock Clocker, uidh UIDHandler, bs BookServiceProvider) *APIHandler {
	m := &Maintenance{}
	m.enabled.Store(false)
	stats.status = make(map[int]uint64)
	stats.mu = &sync.RWMutex{}
	return &APIHandler{
		logger:      logger,
		config:      config,
		stats:       stats,
		mode:        m,
		clock:       clock,
		idsHandler:  uidh,
		bookService: bs,
	}
}

// MiddlewaresStacks builds the middlewares chains applied to public-facing
// and internal ops endpoints. Public requests additionally go through cors,
// rate limiting and the maintenance gate.
func (api *APIHandler) MiddlewaresStacks() (*Middlewares, *Middlewares) {
	public := &Middlewares{
		api.RequestIDMiddleware,
		api.RequestsCounterMiddleware,
		api.CoreMiddleware,
		CORSMiddleware,
		api.RateLimitMiddleware(),
		api.MaintenanceCheckMiddleware,
		api.PanicRecoveryMiddleware,
	}
	ops := &Middlewares{
		api.RequestIDMiddleware,
		api.RequestsCounterMiddleware,
		api.CoreMiddleware,
		api.PanicRecoveryMiddleware,
	}
	return public, ops
}

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		map[string]interface{}{
			"requestid": requestID,
			"status":    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			"message":   "Hello. Library api is available. Enjoy :)",
		},
	); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// Health is the liveness endpoint polled by the frontend client.
//
// @Summary      Liveness indicator
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /api/health [get]
func (api *APIHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		map[string]string{
			"status":  "healthy",
			"service": "library-api",
		},
	); err != nil {
		api.logger.Error("failed to send health response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// NotFound returns the handler used for inexistant routes.
func (api *APIHandler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := api.idsHandler.Generate(RequestIDPrefix)
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		w.WriteHeader(http.StatusNotFound)
		if err := json.NewEncoder(w).Encode(
			map[string]string{
				"requestid": requestID,
				"message":   "route does not exist",
				"path":      r.Method + " " + r.URL.Path,
			},
		); err != nil {
			api.logger.Error("failed to send not found response", zap.String("request.id", requestID), zap.Error(err))
		}
	})
}
