package httpapi

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Freeeeeet/booking_bot/internal/httpapi/router"
	"github.com/Freeeeeet/booking_bot/internal/metrics"
	"github.com/Freeeeeet/booking_bot/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	routeKey
)

const (
	requestIDHeader  = "X-Request-ID"
	adminTokenHeader = "X-Admin-Token"
	unmatchedRoute   = "unmatched"
)

type middleware func(http.Handler) http.Handler

func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// RequestIDFrom возвращает идентификатор запроса из контекста
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// routeHolder сервер записывает сюда шаблон найденного маршрута, логгер и метрики читают
type routeHolder struct {
	pattern string
}

func setRoute(ctx context.Context, pattern string) {
	if h, ok := ctx.Value(routeKey).(*routeHolder); ok {
		h.pattern = pattern
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// observe пишет access log и метрики запроса
func observe(logger *zap.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			holder := &routeHolder{pattern: unmatchedRoute}
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), routeKey, holder)))

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, holder.pattern, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, holder.pattern).Observe(elapsed.Seconds())

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", holder.pattern),
				zap.Int("status", status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("duration", elapsed),
				zap.String("request_id", RequestIDFrom(r.Context())),
			)
		})
	}
}

// recoverer единственная точка, где паника превращается в ответ 500
func recoverer(logger *zap.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					logger.Error("Panic while handling request",
						zap.Any("panic", p),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", RequestIDFrom(r.Context())),
						zap.Stack("stack"),
					)
					writeError(w, http.StatusInternalServerError, internalErrorMessage)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter ограничивает частоту запросов с одного адреса
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
	}
}

func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	// Заодно чистим давно неактивные адреса
	for k, other := range rl.visitors {
		if now.Sub(other.lastSeen) > rl.ttl {
			delete(rl.visitors, k)
		}
	}

	return v.limiter.AllowN(now, 1)
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Preflight не ограничиваем
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if !rl.allow(clientIP(r), time.Now()) {
			metrics.RateLimitedTotal.Inc()
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requireAdmin закрывает маршрут общим секретом из заголовка X-Admin-Token.
// Пустой токен в конфиге отключает проверку.
func requireAdmin(token string, h router.Handler) router.Handler {
	if token == "" {
		return h
	}
	expected := []byte(token)

	return func(w http.ResponseWriter, r *http.Request, p router.Params) error {
		got := []byte(r.Header.Get(adminTokenHeader))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			return service.ErrUnauthorized
		}
		return h(w, r, p)
	}
}
