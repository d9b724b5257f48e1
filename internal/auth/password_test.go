package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		violations int
	}{
		{"валидный пароль", "Str0ng!pass", 0},
		{"слишком короткий", "S1!a", 1},
		{"без заглавной", "str0ng!pass", 1},
		{"без строчной", "STR0NG!PASS", 1},
		{"без цифры", "Strong!pass", 1},
		{"без спецсимвола", "Str0ngpass", 1},
		{"пустой", "", 5},
		{"кириллица учитывается", "Пар0ль!длинный", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			violations := ValidatePassword(tc.password)
			assert.Len(t, violations, tc.violations)
		})
	}
}

func TestPasswordStrength(t *testing.T) {
	assert.Equal(t, 5, PasswordStrength("Str0ng!pass"))
	assert.Equal(t, 0, PasswordStrength(""))
	assert.Equal(t, 4, PasswordStrength("str0ng!pass"))
}
