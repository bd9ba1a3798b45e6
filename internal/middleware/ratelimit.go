package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"cryo_booking_bot/pkg/logger"
	"cryo_booking_bot/pkg/metrics"
)

// TokenBucket реализует алгоритм Token Bucket для rate limiting
type TokenBucket struct {
	capacity   int
	tokens     int
	refillRate int // токенов в секунду
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity, refillRate int, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: now(),
		now:        now,
	}
}

// Allow проверяет, доступен ли токен
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	refill := int(now.Sub(tb.lastRefill).Seconds()) * tb.refillRate
	if refill > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+refill)
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimiter ограничивает частоту запросов по ключу: IP для HTTP, чат для Telegram
type RateLimiter struct {
	limiters   map[string]*TokenBucket
	lastAccess map[string]time.Time
	mu         sync.Mutex
	capacity   int
	refillRate int
	log        *logger.Logger
	now        func() time.Time

	cleanupInterval time.Duration
	idleTTL         time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

// NewRateLimiter создает limiter на requests запросов за duration
func NewRateLimiter(requests int, duration time.Duration, log *logger.Logger) *RateLimiter {
	refillRate := int(float64(requests) / duration.Seconds())
	if refillRate == 0 {
		refillRate = 1
	}
	if log == nil {
		log = logger.Discard()
	}

	rl := &RateLimiter{
		limiters:        make(map[string]*TokenBucket),
		lastAccess:      make(map[string]time.Time),
		capacity:        requests,
		refillRate:      refillRate,
		log:             log,
		now:             time.Now,
		cleanupInterval: 5 * time.Minute,
		idleTTL:         10 * time.Minute,
		done:            make(chan struct{}),
	}

	go rl.cleanupRoutine()
	return rl
}

func (rl *RateLimiter) bucket(key string) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.limiters[key]
	if !ok {
		b = newTokenBucket(rl.capacity, rl.refillRate, rl.now)
		rl.limiters[key] = b
	}
	rl.lastAccess[key] = rl.now()
	return b
}

// Allow проверяет, разрешен ли запрос для ключа
func (rl *RateLimiter) Allow(key string) bool {
	return rl.bucket(key).Allow()
}

// AllowChat проверяет лимит для чата Telegram
func (rl *RateLimiter) AllowChat(chatID int64) bool {
	if rl.Allow(fmt.Sprintf("chat_%d", chatID)) {
		return true
	}
	rl.log.Warn("Chat rate limit exceeded", logger.Int64("chat_id", chatID))
	metrics.RecordError("ratelimit", "chat")
	return false
}

func (rl *RateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

// cleanup удаляет limiters, не использовавшиеся дольше idleTTL
func (rl *RateLimiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	cleaned := 0
	for key, last := range rl.lastAccess {
		if last.Before(cutoff) {
			delete(rl.limiters, key)
			delete(rl.lastAccess, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		rl.log.Debug("Cleaned up rate limiters",
			logger.Int("cleaned_count", cleaned),
			logger.Int("remaining_count", len(rl.limiters)),
		)
	}
	return cleaned
}

// Close останавливает фоновую очистку
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

// RateLimit возвращает HTTP middleware с ключом по IP клиента
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !limiter.Allow(key) {
				limiter.log.Warn("Rate limit exceeded",
					logger.String("ip", key),
					logger.String("user_agent", r.UserAgent()),
				)
				metrics.RecordError("ratelimit", "http")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP извлекает IP клиента. После chi middleware.RealIP он уже лежит в RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		return addr[:i]
	}
	return addr
}
