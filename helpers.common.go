package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
)

var ErrBookNotFound = errors.New("book not found")

type ContextKey string

const (
	RequestIDPrefix      string     = "r"
	ContextRequestID     ContextKey = "request.id"
	ContextRequestNumber ContextKey = "request.number"
)

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val := ctx.Value(contextKey); val != nil {
		return val.(string)
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val := ctx.Value(ContextRequestNumber); val != nil {
		return val.(uint64)
	}
	return 0
}

// ParseBookID extracts the numeric book id from a route parameter.
func ParseBookID(param string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("book id provided is not valid")
	}
	return id, nil
}

// DecodeBookInput reads the candidate record from a create or update request body.
func DecodeBookInput(r *http.Request, in *BookInput) error {
	if r.Body == nil {
		return errors.New("invalid book request body")
	}
	return json.NewDecoder(r.Body).Decode(in)
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result. This
// helps know if the App is running in a docker container or not.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
