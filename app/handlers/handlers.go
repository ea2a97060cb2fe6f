// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// requestContext creates a request-scoped context with a timeout, detached
// from fasthttp's per-connection lifecycle.
func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}
