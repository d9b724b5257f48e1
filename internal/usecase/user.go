package usecase

import (
	"context"

	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

// UserFetcher определяет интерфейс для получения случайных пользователей
// из внешнего источника (Random User API).
// Реализация сама отвечает за ретраи и mock-fallback: вызывающая сторона
// воспринимает результат как валидные записи User независимо от происхождения.
type UserFetcher interface {
	// FetchUsers возвращает size записей; gender и nat — необязательные фильтры
	FetchUsers(ctx context.Context, size int, gender, nat string) ([]domain.User, error)
}

// UserUseCase — единственная точка входа слоя контроллеров в персистентность.
// Экземпляр привязан к одному владельцу и владеет парой хранилищ (БД + CSV),
// сходимость которых гарантирует сам.
type UserUseCase interface {
	// AddUsers пишет пачку сначала в БД (она выдает db_id и отсекает дубликаты
	// по login.uuid), затем дописывает ту же пачку в CSV (со своей нумерацией csv_id)
	AddUsers(ctx context.Context, users []domain.User) error

	// GetAllUsers читает только из БД: CSV — зеркало для экспорта,
	// а не резервный источник чтения
	GetAllUsers(ctx context.Context) ([]domain.DBUser, error)

	GetUserByID(ctx context.Context, dbID int64) (*domain.DBUser, error)

	// UpdateUser обновляет запись в БД по db_id; при успехе находит ту же
	// логическую запись в CSV по login.uuid и применяет то же обновление
	UpdateUser(ctx context.Context, dbID int64, partial map[string]any) (*domain.DBUser, error)

	// DeleteUser удаляет запись из обоих хранилищ; если БД не удалила строку,
	// файл не трогается и операция сообщает о неудаче
	DeleteUser(ctx context.Context, dbID int64) (bool, error)

	SearchUsers(ctx context.Context, term string, fields []string) ([]domain.DBUser, error)

	// SyncDatabaseToCSV безусловно перегенерирует CSV из текущего содержимого БД,
	// отбрасывая любое независимое состояние файла
	SyncDatabaseToCSV(ctx context.Context) error

	// EnsureCSV проверяет целостность CSV-файла и при повреждении
	// перегенерирует его из БД; возвращает путь к готовому файлу
	EnsureCSV(ctx context.Context) (string, error)

	// CSVPath возвращает путь к CSV-файлу владельца (для скачивания и экспорта)
	CSVPath() string
}
