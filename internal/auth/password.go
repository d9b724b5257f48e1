package auth

import (
	"strings"
	"unicode"
)

// minPasswordLength — минимальная длина пароля аккаунта
const minPasswordLength = 8

// ValidatePassword проверяет пароль на соответствие требованиям сложности
// и возвращает список нарушенных правил. Пустой список означает, что
// пароль принят.
func ValidatePassword(password string) []string {
	var violations []string

	if len(password) < minPasswordLength {
		violations = append(violations, "пароль должен содержать не менее 8 символов")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		violations = append(violations, "пароль должен содержать заглавную букву")
	}
	if !hasLower {
		violations = append(violations, "пароль должен содержать строчную букву")
	}
	if !hasDigit {
		violations = append(violations, "пароль должен содержать цифру")
	}
	if !hasSpecial {
		violations = append(violations, "пароль должен содержать специальный символ")
	}

	return violations
}

// PasswordStrength оценивает пароль по пятибалльной шкале:
// по баллу за длину и каждый класс символов
func PasswordStrength(password string) int {
	score := 5 - len(ValidatePassword(password))
	if score < 0 {
		score = 0
	}
	return score
}

// FormatViolations склеивает нарушения в одно сообщение для ответа API
func FormatViolations(violations []string) string {
	return strings.Join(violations, "; ")
}
