package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dperea/storefront-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// maxInboundRequestIDLen caps caller-supplied ids so a hostile header cannot
// bloat every log line of the request.
const maxInboundRequestIDLen = 64

// RequestID tags each request with an id, minting one when the caller did not
// supply a usable one, and threads it through the response header and the
// context logger.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if id == "" || len(id) > maxInboundRequestIDLen {
				id = uuid.NewString()
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, id)
			}
			w.Header().Set(requestIDHeader, id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
