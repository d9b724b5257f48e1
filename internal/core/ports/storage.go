package ports

import (
	"context"
	"errors"
	"io"

	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

// ErrInvalidSearchField — ошибка валидации имени поля поиска.
// Отличает неверный запрос клиента от сбоя самого хранилища.
var ErrInvalidSearchField = errors.New("недопустимое поле поиска")

// UserDatabase определяет методы реляционного хранилища сохраненных пользователей.
// Все операции секционированы по ownerID: чужие записи не видны и не изменяемы.
// "Не найдено" возвращается как (nil, nil) / (false, nil), а не как ошибка.
type UserDatabase interface {
	// AddUsers вставляет пачку записей в одной транзакции;
	// дубликат login_uuid молча пропускается
	AddUsers(ctx context.Context, users []domain.User, ownerID int64) error

	GetAllUsers(ctx context.Context, ownerID int64) ([]domain.DBUser, error)
	GetUserByID(ctx context.Context, dbID, ownerID int64) (*domain.DBUser, error)

	// UpdateUser выполняет глубокое слияние partial поверх существующей записи
	UpdateUser(ctx context.Context, dbID, ownerID int64, partial map[string]any) (*domain.DBUser, error)

	// DeleteUser сообщает, была ли строка действительно удалена
	DeleteUser(ctx context.Context, dbID, ownerID int64) (bool, error)

	// SearchUsers ищет подстроку без учета регистра по плоским колонкам;
	// имена колонок валидируются по allow-list до попадания в запрос
	SearchUsers(ctx context.Context, ownerID int64, term string, fields []string) ([]domain.DBUser, error)
}

// UserFile определяет методы CSV-зеркала коллекции одного владельца.
// Экземпляр привязан к одному файлу и одному владельцу.
type UserFile interface {
	// AddUsers присваивает csv_id = max(существующих)+1 и дописывает строки
	AddUsers(ctx context.Context, users []domain.User) error

	GetAllUsers(ctx context.Context) ([]domain.CSVUser, error)
	GetUserByCSVID(ctx context.Context, csvID int64) (*domain.CSVUser, error)
	UpdateUser(ctx context.Context, csvID int64, partial map[string]any) (*domain.CSVUser, error)
	DeleteUser(ctx context.Context, csvID int64) (bool, error)

	// SearchUsers фильтрует в памяти по dot-путям вложенной записи (например, "login.uuid")
	SearchUsers(ctx context.Context, term string, fields []string) ([]domain.CSVUser, error)

	// Rewrite безусловно перегенерирует файл: заголовок + строка на запись,
	// csv_id берется из переданных записей
	Rewrite(ctx context.Context, users []domain.CSVUser) error

	// Validate проверяет файл на целостность; поврежденный файл
	// считается отсутствующим и перегенерируется из БД
	Validate() error

	Path() string
}

// AuthUserStorage определяет методы для хранилища учетных записей владельцев
type AuthUserStorage interface {
	Create(ctx context.Context, user *domain.AuthUser) error
	FindByEmail(ctx context.Context, email string) (*domain.AuthUser, error)
	FindByID(ctx context.Context, id int64) (*domain.AuthUser, error)
}

// FileStorage определяет интерфейс объектного хранилища (S3/MinIO)
// для выгрузки CSV-экспортов
type FileStorage interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}
