package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// CustomResponseWriter is a wrapper for http.ResponseWriter. It is
// used to record response details like status code and body size so
// the stats middleware can account for them after the handler ran.
type CustomResponseWriter struct {
	http.ResponseWriter
	code  int
	bytes int
	wrote bool
}

// NewCustomResponseWriter provides CustomResponseWriter with 200 as status code.
func NewCustomResponseWriter(rw http.ResponseWriter) *CustomResponseWriter {
	return &CustomResponseWriter{
		ResponseWriter: rw,
		code:           200,
	}
}

// WriteHeader implements http.WriteHeader interface.
func (cw *CustomResponseWriter) WriteHeader(code int) {
	if !cw.wrote {
		cw.code = code
		cw.wrote = true
		cw.ResponseWriter.WriteHeader(code)
	}
}

// Write implements http.Write interface.
func (cw *CustomResponseWriter) Write(bytes []byte) (int, error) {
	if !cw.wrote {
		cw.WriteHeader(cw.code)
	}
	n, err := cw.ResponseWriter.Write(bytes)
	cw.bytes += n
	return n, err
}

// Status returns the written status code.
func (cw *CustomResponseWriter) Status() int {
	return cw.code
}

// Bytes returns bytes written as response body.
func (cw *CustomResponseWriter) Bytes() int {
	return cw.bytes
}

// Unwrap returns native response writer and used by
// the http.ResponseController during its operation.
func (cw *CustomResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// APIError is the data model sent when an error occurred during request
// processing. Fields carries the per-field messages of a validation
// failure and stays off the wire for any other kind of error.
type APIError struct {
	RequestID string            `json:"requestid"`
	Detail    string            `json:"detail"`
	Fields    map[string]string `json:"errors,omitempty"`
}

func NewAPIError(requestid, detail string) *APIError {
	return &APIError{RequestID: requestid, Detail: detail}
}

func NewValidationError(requestid string, fields map[string]string) *APIError {
	return &APIError{RequestID: requestid, Detail: "validation failed", Fields: fields}
}

// WriteErrorResponse is used to send error response to client. In case the client closed
// the request we log the stats with the Nginx non standard status code 499 (Client Closed
// Request). In case of request processing timeout we set the status code to 504.
func WriteErrorResponse(ctx context.Context, w http.ResponseWriter, status int, errResp *APIError) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			w.WriteHeader(http.StatusGatewayTimeout)
		} else {
			w.WriteHeader(499)
		}
		return ctx.Err()
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(errResp)
}

// WriteJSON is used to send a success api response to client. Book records
// travel flat, exactly as stored, so the frontend consumes them without
// unwrapping any envelope.
func WriteJSON(ctx context.Context, w http.ResponseWriter, status int, data interface{}) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			w.WriteHeader(http.StatusGatewayTimeout)
		} else {
			w.WriteHeader(499)
		}
		return ctx.Err()
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
