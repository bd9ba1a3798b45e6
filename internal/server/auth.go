package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"cryo_booking_bot/pkg/errors"
	"cryo_booking_bot/pkg/logger"
	"cryo_booking_bot/pkg/metrics"
)

// telegramSecretHeader передается Telegram с каждым webhook запросом
const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

var errUnauthorized = errors.New("UNAUTHORIZED", errors.KindValidation, "Brak autoryzacji.")

func tokenEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// webhookAuthMiddleware проверяет секретный токен Telegram webhook.
// Пустой секрет в конфигурации отключает проверку.
func (s *Server) webhookAuthMiddleware(next http.Handler) http.Handler {
	secret := s.cfg.Telegram.SecretToken
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret != "" && !tokenEqual(r.Header.Get(telegramSecretHeader), secret) {
			s.log.Warn("Webhook secret mismatch", logger.String("remote_addr", r.RemoteAddr))
			metrics.RecordError("webhook", "unauthorized")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// apiAuthMiddleware требует bearer токен API, если он задан
func (s *Server) apiAuthMiddleware(next http.Handler) http.Handler {
	token := s.cfg.Server.APIToken
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		got, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || !tokenEqual(got, token) {
			metrics.RecordError("api", "unauthorized")
			writeJSON(w, http.StatusUnauthorized, errorBody(errUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}
