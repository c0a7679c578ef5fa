package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"luxvision/logger"
	"luxvision/models"
)

// RequestIDHeader carries the id of a request in both directions.
const RequestIDHeader = "X-Request-Id"

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 10 << 20

// RequestID reuses the caller's request id or assigns a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// Logging logs every request once it is served and hands handlers a logger
// tagged with the request id.
func Logging(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			srw := newStatusResponseWriter(w)
			reqLog := log.With(zap.String("request_id", r.Header.Get(RequestIDHeader)))
			r = r.WithContext(logger.NewContextWithLogger(r.Context(), reqLog))

			defer func(start time.Time) {
				fields := []zap.Field{
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status_code", srw.Code()),
					zap.Int("response_size", srw.responseBytes),
					zap.String("remote", r.RemoteAddr),
					zap.String("user_agent", UserAgent(r)),
					zap.Duration("took", time.Since(start)),
				}
				switch {
				case srw.Code() >= 500:
					reqLog.Error("Request", fields...)
				case srw.Code() >= 400:
					reqLog.Info("Request", fields...)
				default:
					reqLog.Debug("Request", fields...)
				}
			}(time.Now())

			next.ServeHTTP(srw, r)
		})
	}
}

// Recover turns a panicking handler into a 500 response.
func Recover(log *zap.Logger, onErr ErrorFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.FromContextOr(r.Context(), log).Error("Handler panicked",
					zap.Any("panic", v),
					zap.ByteString("stack", debug.Stack()))
				onErr(w, r, models.Internal("http.Recover", fmt.Errorf("panic: %v", v)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORSConfig controls the cross-origin headers.
type CORSConfig struct {
	Origin  string
	Methods []string
	Headers []string
}

// DefaultCORS allows origin with credentials.
func DefaultCORS(origin string) CORSConfig {
	return CORSConfig{
		Origin:  origin,
		Methods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		Headers: []string{"Content-Type", "Authorization"},
	}
}

// CORS answers pre-flight requests and sets the allow headers.
func CORS(c CORSConfig) Middleware {
	methods := strings.Join(c.Methods, ", ")
	headers := strings.Join(c.Headers, ", ")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (c.Origin == "*" || origin == c.Origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int((10 * time.Minute).Seconds())))
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecureHeaders sets the usual hardening headers on every response.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Set("X-Download-Options", "noopen")
		h.Set("X-Permitted-Cross-Domain-Policies", "none")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Content-Security-Policy", "default-src 'self';base-uri 'self';frame-ancestors 'self';object-src 'none'")
		next.ServeHTTP(w, r)
	})
}

// ErrBodyTooLarge is returned when a request body exceeds the limit.
var ErrBodyTooLarge = &models.Error{Code: models.ETooLarge, Msg: "Requête trop volumineuse"}

// BodyLimit caps request bodies at n bytes.
func BodyLimit(n int64, onErr ErrorFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > n {
				onErr(w, r, ErrBodyTooLarge)
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsBodyTooLarge reports whether err comes from a body cut by BodyLimit.
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
