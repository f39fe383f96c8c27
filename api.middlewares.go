package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MiddlewareFunc is a custom type for ease of use.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is a custom type to represent a stack of
// middleware functions used to build a single chain.
type Middlewares []MiddlewareFunc

// CoreMiddleware setup the duration measurement for each request, records
// the response status into the stats and logs the request result.
func (api *APIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := api.clock.Now()
		requestID := GetValueFromContext(r.Context(), ContextRequestID)
		requestNum := GetRequestNumberFromContext(r.Context())

		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.Uint64("request.num", requestNum),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.String("request.ip", GetRequestSourceIP(r)),
			zap.String("request.agent", r.UserAgent()),
			zap.String("request.referer", r.Referer()),
		)

		cw := NewCustomResponseWriter(w)
		next(cw, r, ps)

		api.stats.mu.Lock()
		api.stats.status[cw.Status()]++
		api.stats.mu.Unlock()

		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.Uint64("request.num", requestNum),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.Int("response.status", cw.Status()),
			zap.Int("response.bytes", cw.Bytes()),
			zap.Duration("request.duration", time.Since(start)),
		)
	}
}

// RequestsCounterMiddleware increments the number of received requests statistics and add this
// new value to the request context to be used during logging as `request.num` field.
func (api *APIHandler) RequestsCounterMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), ContextRequestNumber, atomic.AddUint64(&api.stats.called, 1))
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// RequestIDMiddleware generates and add a unique id to the request context.
func (api *APIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := api.idsHandler.Generate(RequestIDPrefix)
		ctx := context.WithValue(r.Context(), ContextRequestID, requestID)
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// CORSMiddleware intercepts each incoming HTTP calls then apply cors headers on it.
func CORSMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, UPDATE, PATCH, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Access-Control-Request-Method, Access-Control-Request-Headers, Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, User-Agent, Accept-Language, Referer, DNT, Connection, Pragma, Cache-Control, TE")
		next(w, r, ps)
	}
}

// MaintenanceCheckMiddleware short-circuits public requests while the
// maintenance mode is enabled.
func (api *APIHandler) MaintenanceCheckMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if api.mode.enabled.Load() {
			message, started := api.mode.Infos()
			w.Header().Set("Content-Type", "application/json; charset=UTF-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"message": "service currently unvailable.",
				"reason":  message,
				"since":   started.Format(time.RFC1123),
			})
			return
		}
		next(w, r, ps)
	}
}

// rateLimitedClient holds a per-IP limiter and the time it was last
// seen so stale entries can be evicted.
type rateLimitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies per-IP token-bucket rate limiting. Each unique
// source ip gets its own limiter seeded from the server configuration. A
// background goroutine evicts entries not seen for three minutes.
func (api *APIHandler) RateLimitMiddleware() MiddlewareFunc {
	var (
		mu      sync.Mutex
		clients = make(map[string]*rateLimitedClient)
	)

	go func() {
		for {
			time.Sleep(time.Minute)
			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > 3*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			ip := GetRequestSourceIP(r)

			mu.Lock()
			if _, found := clients[ip]; !found {
				clients[ip] = &rateLimitedClient{
					limiter: rate.NewLimiter(rate.Limit(api.config.Server.RateLimit), api.config.Server.RateBurst),
				}
			}
			clients[ip].lastSeen = time.Now()

			if !clients[ip].limiter.Allow() {
				mu.Unlock()
				requestID := GetValueFromContext(r.Context(), ContextRequestID)
				api.logger.Warn("request rate limit exceeded", zap.String("request.id", requestID), zap.String("request.ip", ip))
				if err := WriteErrorResponse(r.Context(), w, http.StatusTooManyRequests, NewAPIError(requestID, "rate limit exceeded")); err != nil {
					api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
				}
				return
			}
			mu.Unlock()

			next(w, r, ps)
		}
	}
}

// PanicRecoveryMiddleware catches any panic during the request lifecycle and produces
// an error log for further analysis. It sends a failure response to the client with 500.
func (api *APIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		recovery := func() {
			if err := recover(); err != nil {
				requestID := GetValueFromContext(r.Context(), ContextRequestID)
				api.logger.Error("panic occurred", zap.String("request.id", requestID), zap.Any("error", err))
				if err := WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, NewAPIError(requestID, "failed to process the request.")); err != nil {
					api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
				}
			}
		}
		defer recovery()
		next(w, r, ps)
	}
}

// Chain wraps a given httprouter.Handle with a list of middlewares.
// It does by starting from the last middleware from the list.
func (m *Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	if len(*m) == 0 {
		return h
	}
	lg := len(*m)
	handle := (*m)[lg-1](h)

	for i := lg - 2; i >= 0; i-- {
		handle = (*m)[i](handle)
	}

	return handle
}
