package domain

import "time"

// AuthUser представляет учетную запись владельца коллекции,
// соответствует таблице auth_users в бд.
// Пароль хранится только в виде bcrypt-хэша.
type AuthUser struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AuthUser) TableName() string {
	return "auth_users"
}
