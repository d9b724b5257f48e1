package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/GoArmGo/UserManagerApp/internal/auth"
	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

type contextKey string

// authUserKey — ключ контекста с аутентифицированным владельцем
const authUserKey contextKey = "authUser"

// RequestLogger — middleware для логирования HTTP-запросов.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Оборачиваем ResponseWriter, чтобы знать статус
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.statusCode,
				"duration_ms", duration.Milliseconds(),
			)
		})
	}
}

// responseWriter нужен, чтобы перехватывать код ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Authenticate — middleware, проверяющее Bearer-токен и кладущее
// владельца в контекст запроса. Запросы без валидного токена
// отклоняются с 401.
func Authenticate(authService *auth.Service, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				respondWithError(w, http.StatusUnauthorized, "Требуется токен авторизации", logger)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			user, err := authService.VerifyToken(r.Context(), token)
			if err != nil {
				logger.Warn("token verification failed", "path", r.URL.Path, "error", err)
				respondWithError(w, http.StatusUnauthorized, "Недействительный токен", logger)
				return
			}

			ctx := context.WithValue(r.Context(), authUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authUserFromContext достает владельца, положенного middleware Authenticate
func authUserFromContext(ctx context.Context) (*domain.AuthUser, bool) {
	user, ok := ctx.Value(authUserKey).(*domain.AuthUser)
	return user, ok
}
