package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoArmGo/UserManagerApp/internal/core/ports"
	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

// bcryptCost — стоимость хэширования паролей
const bcryptCost = 10

// Ошибки сервиса аутентификации, различаемые слоем контроллеров
var (
	ErrEmailTaken         = errors.New("пользователь с таким email уже существует")
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrInvalidToken       = errors.New("недействительный токен")
	ErrPasswordMismatch   = errors.New("пароли не совпадают")
)

// WeakPasswordError несет список нарушенных правил сложности пароля
type WeakPasswordError struct {
	Violations []string
}

func (e *WeakPasswordError) Error() string {
	return "пароль не соответствует требованиям: " + FormatViolations(e.Violations)
}

// Claims — полезная нагрузка JWT: идентификатор и email владельца
type Claims struct {
	UserID int64  `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service реализует регистрацию, вход и проверку JWT-токенов владельцев
type Service struct {
	storage   ports.AuthUserStorage
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// NewService создает новый сервис аутентификации
func NewService(storage ports.AuthUserStorage, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		storage:   storage,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Register создает учетную запись владельца: проверяет совпадение паролей,
// сложность пароля и уникальность email, хэширует пароль bcrypt'ом
func (s *Service) Register(ctx context.Context, name, email, password, confirmPassword string) (*domain.AuthUser, error) {
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}
	if violations := ValidatePassword(password); len(violations) > 0 {
		return nil, &WeakPasswordError{Violations: violations}
	}

	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.storage.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существующего email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	user := &domain.AuthUser{
		Email:    email,
		Password: string(hash),
		Name:     strings.TrimSpace(name),
	}
	if err := s.storage.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("ошибка создания учетной записи: %w", err)
	}

	s.logger.Info("auth user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login проверяет пару email/пароль и выдает подписанный JWT.
// Несуществующий email и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.AuthUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.storage.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("ошибка поиска учетной записи: %w", err)
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("ошибка выпуска токена: %w", err)
	}

	s.logger.Info("auth user logged in", "user_id", user.ID)
	return token, user, nil
}

// VerifyToken разбирает и проверяет JWT, затем убеждается, что учетная
// запись из claims все еще существует
func (s *Service) VerifyToken(ctx context.Context, tokenString string) (*domain.AuthUser, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	user, err := s.storage.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска учетной записи по токену: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	return user, nil
}

func (s *Service) issueToken(user *domain.AuthUser) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
