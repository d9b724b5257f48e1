package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/GoArmGo/UserManagerApp/internal/auth"
	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

// AuthHandler — обработчик HTTP-запросов регистрации и входа.
type AuthHandler struct {
	authService *auth.Service
	logger      *slog.Logger
}

// NewAuthHandler создаёт новый экземпляр AuthHandler.
func NewAuthHandler(authService *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// authResponse — конверт ответов эндпоинтов аутентификации
type authResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Token   string           `json:"token,omitempty"`
	User    *domain.AuthUser `json:"user,omitempty"`
	Errors  []string         `json:"errors,omitempty"`
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register — регистрирует нового владельца коллекции.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Некорректное тело запроса", h.logger)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondWithJSON(w, http.StatusBadRequest, authResponse{
			Success: false,
			Message: "Имя, email и пароль обязательны",
		}, h.logger)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		var weak *auth.WeakPasswordError
		switch {
		case errors.As(err, &weak):
			respondWithJSON(w, http.StatusBadRequest, authResponse{
				Success: false,
				Message: "Пароль не соответствует требованиям",
				Errors:  weak.Violations,
			}, h.logger)
		case errors.Is(err, auth.ErrPasswordMismatch):
			respondWithJSON(w, http.StatusBadRequest, authResponse{
				Success: false,
				Message: "Пароли не совпадают",
			}, h.logger)
		case errors.Is(err, auth.ErrEmailTaken):
			respondWithJSON(w, http.StatusConflict, authResponse{
				Success: false,
				Message: "Пользователь с таким email уже существует",
			}, h.logger)
		default:
			h.logger.Error("registration failed", "email", req.Email, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Ошибка регистрации", h.logger)
		}
		return
	}

	h.logger.Info("registration completed", "user_id", user.ID)
	respondWithJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "Регистрация выполнена",
		User:    user,
	}, h.logger)
}

// Login — выполняет вход и возвращает JWT.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Некорректное тело запроса", h.logger)
		return
	}

	token, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondWithJSON(w, http.StatusUnauthorized, authResponse{
				Success: false,
				Message: "Неверный email или пароль",
			}, h.logger)
			return
		}
		h.logger.Error("login failed", "email", req.Email, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Ошибка входа", h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Вход выполнен",
		Token:   token,
		User:    user,
	}, h.logger)
}

// Verify — проверяет токен из заголовка и возвращает владельца.
// Эндпоинт закрыт middleware Authenticate, поэтому сюда попадают
// только запросы с уже проверенным токеном.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := authUserFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Требуется токен авторизации", h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, authResponse{
		Success: true,
		User:    user,
	}, h.logger)
}
