// Package embedding provides shared retry and degradation policy for the
// embedding provider adapters. Transient transport failures are retried
// with exponential backoff; a batch that exhausts its retries is assigned
// zero vectors so downstream counts stay consistent.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// StatusError marks a retryable HTTP response (rate limiting or a
// server-side failure) so the retry loop can distinguish it from
// permanent provider rejections.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Code, e.Body)
}

// Transient reports whether a request error is worth retrying:
// timeouts, connection resets/refusals, TLS handshake and other transport
// failures. Context cancellation is never transient.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}

	// Remaining *net.OpError cases (DNS, dial, TLS record errors) are
	// transport-level and retryable.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// TransientStatus reports whether an HTTP status code indicates a
// retryable provider condition (rate limiting or server-side failure).
func TransientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Backoff returns the wait before retry number attempt (1-based):
// 2^attempt seconds.
func Backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// ZeroVector returns an all-zero vector of the given dimensionality,
// the degraded stand-in for a permanently failed embedding.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// ZeroVectors returns n zero vectors.
func ZeroVectors(n, dim int) [][]float32 {
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = ZeroVector(dim)
	}
	return vecs
}
