package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes caps request bodies at 64 KiB; messages and credentials are small.
const DefaultMaxBodyBytes = 64 << 10

// MaxBytes limits the request body size. A declared Content-Length over the limit is
// refused with 413 up front; otherwise reads past the limit fail inside the handler.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
