package main

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestMiddlewaresAPIHandler() *APIHandler {
	config := &Config{}
	config.Server.RateLimit = 1
	config.Server.RateBurst = 2
	return NewAPIHandler(zap.NewNop(), config, &Statistics{started: time.Now()}, NewMockClocker(), NewMockUIDHandler("abc"), nil)
}

// TestMiddlewaresStacks ensures we get both public and ops middlewares
// stacks with exact number of elements in those stacks.
func TestMiddlewaresStacks(t *testing.T) {
	api := newTestMiddlewaresAPIHandler()
	pub, ops := api.MiddlewaresStacks()
	assert.Equal(t, 7, len(*pub))
	assert.Equal(t, 4, len(*ops))
}

// TestChain ensures each middleware in the stack is called as well the handler.
func TestChain(t *testing.T) {
	var ca, cb, cc, ch bool
	queue := make(chan int, 4)

	middlewareA := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 1
			ca = true
			next(w, r, ps)
		}
	}
	middlewareB := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 2
			cb = true
			next(w, r, ps)
		}
	}
	middlewareC := func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			queue <- 3
			cc = true
			next(w, r, ps)
		}
	}
	middlewares := Middlewares{
		middlewareA,
		middlewareB,
		middlewareC,
	}

	handler := func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		queue <- 4
		ch = true
	}

	chained := (&middlewares).Chain(handler)
	req := httptest.NewRequest("GET", "/api/books", nil)
	w := httptest.NewRecorder()
	chained(w, req, nil)

	t.Run("check calling", func(t *testing.T) {
		assert.Equal(t, true, ca)
		assert.Equal(t, true, cb)
		assert.Equal(t, true, cc)
		assert.Equal(t, true, ch)
	})

	t.Run("check ordering", func(t *testing.T) {
		assert.Equal(t, 1, <-queue)
		assert.Equal(t, 2, <-queue)
		assert.Equal(t, 3, <-queue)
		assert.Equal(t, 4, <-queue)
	})
}

// TestRequestsCounterMiddleware ensures the request counter increment and
// the assigned number lands into the request context.
func TestRequestsCounterMiddleware(t *testing.T) {
	api := newTestMiddlewaresAPIHandler()
	req := httptest.NewRequest("GET", "/api/books", nil)
	w := httptest.NewRecorder()
	var called bool
	var num uint64
	handler := func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		called = true
		num = GetRequestNumberFromContext(req.Context())
	}
	wrapped := api.RequestsCounterMiddleware(handler)
	wrapped(w, req, nil)
	assert.Equal(t, true, called)
	assert.Equal(t, uint64(1), api.stats.called)
	assert.Equal(t, uint64(1), num)
}

// TestRequestIDMiddleware ensures a generated id lands into the request context.
func TestRequestIDMiddleware(t *testing.T) {
	api := newTestMiddlewaresAPIHandler()
	req := httptest.NewRequest("GET", "/api/books", nil)
	w := httptest.NewRecorder()
	var got string
	handler := func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		got = GetValueFromContext(req.Context(), ContextRequestID)
	}
	wrapped := api.RequestIDMiddleware(handler)
	wrapped(w, req, nil)
	assert.Equal(t, "r:abc", got)
}

// TestCORSMiddleware ensures the cors headers are applied to the response.
func TestCORSMiddleware(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/books", nil)
	w := httptest.NewRecorder()
	handler := func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {}
	wrapped := CORSMiddleware(handler)
	wrapped(w, req, nil)
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, res.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}

// TestMaintenanceCheckMiddleware ensures requests are short-circuited with 503
// while the maintenance mode is on and pass through once it is off.
func TestMaintenanceCheckMiddleware(t *testing.T) {
	api := newTestMiddlewaresAPIHandler()
	var called bool
	handler := func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		called = true
	}
	wrapped := api.MaintenanceCheckMiddleware(handler)

	api.mode.Enable("upgrade in progress", time.Now().UTC())
	w := httptest.NewRecorder()
	wrapped(w, httptest.NewRequest("GET", "/api/books", nil), nil)
	res := w.Result()
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.False(t, called)

	api.mode.Disable()
	w = httptest.NewRecorder()
	wrapped(w, httptest.NewRequest("GET", "/api/books", nil), nil)
	res = w.Result()
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, called)
}

// TestMaintenanceCheckMiddleware_ConcurrentToggling ensures the gate can be
// flipped while requests are in flight without corrupting the mode infos.
func TestMaintenanceCheckMiddleware_ConcurrentToggling(t *testing.T) {
	api := newTestMiddlewaresAPIHandler()
	handler := func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {}
	wrapped := api.MaintenanceCheckMiddleware(handler)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			api.mode.Enable("upgrade in progress", time.Now().UTC())
			api.mode.Disable()
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			w := httptest.NewRecorder()
			wrapped(w, httptest.NewRequest("GET", "/api/books", nil), nil)
			res := w.Result()
			res.Body.Close()
			assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, res.StatusCode)
		}
	}()

	wg.Wait()
}

// TestRateLimitMiddleware ensures a client bursting over its bucket gets 429.
func TestRateLimitMiddleware(t *testing.T) {
	api := newTestMiddlewaresAPIHandler()
	var calls int
	handler := func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		calls++
	}
	wrapped := api.RateLimitMiddleware()(handler)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/books", nil)
		req.RemoteAddr = "10.0.0.1:55555"
		w := httptest.NewRecorder()
		wrapped(w, req, nil)
		res := w.Result()
		res.Body.Close()
		last = res.StatusCode
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, http.StatusTooManyRequests, last)

	// another source ip owns a fresh bucket.
	req := httptest.NewRequest("GET", "/api/books", nil)
	req.RemoteAddr = "10.0.0.2:55555"
	w := httptest.NewRecorder()
	wrapped(w, req, nil)
	res := w.Result()
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 3, calls)
}

// TestPanicRecoveryMiddleware ensures a panicking handler turns into a 500.
func TestPanicRecoveryMiddleware(t *testing.T) {
	api := newTestMiddlewaresAPIHandler()
	handler := func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		panic("boom")
	}
	wrapped := api.PanicRecoveryMiddleware(handler)
	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		wrapped(w, newBookRequest("GET", "/api/books", nil), nil)
	})
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}
