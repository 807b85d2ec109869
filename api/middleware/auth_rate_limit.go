package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dperea/storefront-backend/api/responses"
	"github.com/dperea/storefront-backend/pkg/config"
	pkgerrors "github.com/dperea/storefront-backend/pkg/errors"
	"github.com/dperea/storefront-backend/pkg/logger"
	"github.com/dperea/storefront-backend/pkg/redis"
)

// AuthThrottle caps attempts against one auth surface with two fixed
// windows: one keyed by client IP, one keyed by a hash of the submitted
// email. Counters live in redis under the client's rate_limit namespace.
type AuthThrottle struct {
	surface    string
	window     time.Duration
	ipLimit    int64
	emailLimit int64
}

// LoginThrottle builds the throttle for the login surface.
func LoginThrottle(cfg config.AuthRateLimitConfig) AuthThrottle {
	return AuthThrottle{
		surface:    "login",
		window:     cfg.LoginWindow,
		ipLimit:    int64(cfg.LoginIPLimit),
		emailLimit: int64(cfg.LoginEmailLimit),
	}
}

// RegisterThrottle builds the throttle for the register surface.
func RegisterThrottle(cfg config.AuthRateLimitConfig) AuthThrottle {
	return AuthThrottle{
		surface:    "register",
		window:     cfg.RegisterWindow,
		ipLimit:    int64(cfg.RegisterIPLimit),
		emailLimit: int64(cfg.RegisterEmailLimit),
	}
}

func (t AuthThrottle) disabled() bool {
	return t.window <= 0 || (t.ipLimit <= 0 && t.emailLimit <= 0)
}

// Middleware enforces the throttle. A zero-valued window or limits leave the
// handler chain untouched, so unset config means no throttling.
func (t AuthThrottle) Middleware(limiter redis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if t.disabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if t.ipLimit > 0 {
				if ip := remoteIP(r); ip != "" {
					scope := t.surface + ":ip:" + ip
					allowed, count, err := limiter.FixedWindowAllow(ctx, scope, t.ipLimit, t.window)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if !allowed {
						t.reject(ctx, logg, w, "ip", count)
						return
					}
				}
			}

			if t.emailLimit > 0 {
				email, err := peekEmail(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
					return
				}
				if email != "" {
					scope := t.surface + ":email:" + digest(email)
					allowed, count, err := limiter.FixedWindowAllow(ctx, scope, t.emailLimit, t.window)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if !allowed {
						t.reject(ctx, logg, w, "email", count)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (t AuthThrottle) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, scope string, count int64) {
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"surface":        t.surface,
			"scope":          scope,
			"attempts":       count,
			"window_seconds": int(t.window.Seconds()),
		})
		logg.Warn(logCtx, "auth.throttle.blocked")
	}
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

// peekEmail reads the email field out of the JSON body and rewinds the body
// so the handler can decode it again.
func peekEmail(r *http.Request) (string, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", nil
	}
	return strings.ToLower(strings.TrimSpace(body.Email)), nil
}

func remoteIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
