package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MergeUser выполняет глубокое слияние частичного обновления поверх
// существующей записи. Правила слияния:
//   - рекурсия только во вложенные объекты;
//   - скаляры и массивы из partial заменяют существующее значение целиком;
//   - поля, отсутствующие в partial, сохраняются как есть.
func MergeUser(existing User, partial map[string]any) (User, error) {
	base, err := userToMap(existing)
	if err != nil {
		return User{}, err
	}

	merged := mergeMaps(base, partial)

	raw, err := json.Marshal(merged)
	if err != nil {
		return User{}, fmt.Errorf("ошибка сериализации результата слияния: %w", err)
	}

	var result User
	if err := json.Unmarshal(raw, &result); err != nil {
		return User{}, fmt.Errorf("некорректные данные частичного обновления: %w", err)
	}
	return result, nil
}

// mergeMaps сливает src в dst и возвращает dst.
// При совпадении ключей значение из src побеждает на листьях.
func mergeMaps(dst, src map[string]any) map[string]any {
	for key, srcVal := range src {
		if srcMap, ok := srcVal.(map[string]any); ok {
			if dstMap, ok := dst[key].(map[string]any); ok {
				dst[key] = mergeMaps(dstMap, srcMap)
				continue
			}
		}
		dst[key] = srcVal
	}
	return dst
}

// FieldValue возвращает значение поля записи по dot-пути (например, "login.uuid").
// Второй результат false, если путь не разрешается.
func FieldValue(u User, path string) (any, bool) {
	m, err := userToMap(u)
	if err != nil {
		return nil, false
	}

	var value any = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

// userToMap переводит User в map[string]any через JSON-теги,
// чтобы ключи слияния совпадали с ключами частичных обновлений из API.
func userToMap(u User) (map[string]any, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации записи пользователя: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("ошибка десериализации записи пользователя: %w", err)
	}
	return m, nil
}
