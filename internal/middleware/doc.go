// Package middleware holds the HTTP middleware of the API server: request
// ids, tracing, timeouts, body limits and rate limiting.
package middleware
