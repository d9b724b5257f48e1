package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/UserManagerApp/internal/domain"
	"gorm.io/gorm"
)

// AuthStore реализует интерфейс ports.AuthUserStorage с использованием GORM
type AuthStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewAuthStore создает новый экземпляр AuthStore
func NewAuthStore(db *gorm.DB, logger *slog.Logger) *AuthStore {
	return &AuthStore{db: db, logger: logger}
}

// Create сохраняет новую учетную запись владельца
func (s *AuthStore) Create(ctx context.Context, user *domain.AuthUser) error {
	result := s.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		s.logger.Error("failed to create auth user", "email", user.Email, "error", result.Error)
		return fmt.Errorf("ошибка создания учетной записи: %w", result.Error)
	}

	s.logger.Info("auth user created", "auth_user_id", user.ID)
	return nil
}

// FindByEmail ищет учетную запись по email; (nil, nil) если не найдена
func (s *AuthStore) FindByEmail(ctx context.Context, email string) (*domain.AuthUser, error) {
	var user domain.AuthUser
	result := s.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска учетной записи по email: %w", result.Error)
	}
	return &user, nil
}

// FindByID ищет учетную запись по id; (nil, nil) если не найдена
func (s *AuthStore) FindByID(ctx context.Context, id int64) (*domain.AuthUser, error) {
	var user domain.AuthUser
	result := s.db.WithContext(ctx).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска учетной записи по id: %w", result.Error)
	}
	return &user, nil
}
