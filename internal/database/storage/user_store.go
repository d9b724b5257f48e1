package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/GoArmGo/UserManagerApp/internal/core/ports"
	"github.com/GoArmGo/UserManagerApp/internal/domain"
	"github.com/jmoiron/sqlx"
)

// safeFieldPattern — allow-list для имен колонок в поисковых запросах.
// Имя колонки попадает в SQL интерполяцией, поэтому валидируем до подстановки.
var safeFieldPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// DefaultSearchFields — плоские колонки, по которым ищем, если клиент не указал свои
var DefaultSearchFields = []string{"name_first", "name_last", "email", "login_username"}

// userRow — плоское представление записи для таблицы users.
// Каждое вложенное листовое поле User отображается ровно в одну колонку.
type userRow struct {
	DBID                 int64  `db:"db_id"`
	OwnerID              int64  `db:"owner_id"`
	Gender               string `db:"gender"`
	NameTitle            string `db:"name_title"`
	NameFirst            string `db:"name_first"`
	NameLast             string `db:"name_last"`
	LocationStreetNumber int    `db:"location_street_number"`
	LocationStreetName   string `db:"location_street_name"`
	LocationCity         string `db:"location_city"`
	LocationState        string `db:"location_state"`
	LocationCountry      string `db:"location_country"`
	LocationPostcode     string `db:"location_postcode"`
	LocationCoordLat     string `db:"location_coordinates_latitude"`
	LocationCoordLong    string `db:"location_coordinates_longitude"`
	LocationTzOffset     string `db:"location_timezone_offset"`
	LocationTzDesc       string `db:"location_timezone_description"`
	Email                string `db:"email"`
	LoginUUID            string `db:"login_uuid"`
	LoginUsername        string `db:"login_username"`
	DobDate              string `db:"dob_date"`
	DobAge               int    `db:"dob_age"`
	RegisteredDate       string `db:"registered_date"`
	RegisteredAge        int    `db:"registered_age"`
	Phone                string `db:"phone"`
	Cell                 string `db:"cell"`
	IDName               string `db:"id_name"`
	IDValue              string `db:"id_value"`
	PictureLarge         string `db:"picture_large"`
	PictureMedium        string `db:"picture_medium"`
	PictureThumbnail     string `db:"picture_thumbnail"`
	Nat                  string `db:"nat"`
}

// userColumns — фиксированный список колонок без db_id (он генерируется таблицей).
// Порядок совпадает с insertUserSQL.
var userColumns = []string{
	"owner_id", "gender", "name_title", "name_first", "name_last",
	"location_street_number", "location_street_name", "location_city",
	"location_state", "location_country", "location_postcode",
	"location_coordinates_latitude", "location_coordinates_longitude",
	"location_timezone_offset", "location_timezone_description",
	"email", "login_uuid", "login_username",
	"dob_date", "dob_age", "registered_date", "registered_age",
	"phone", "cell", "id_name", "id_value",
	"picture_large", "picture_medium", "picture_thumbnail", "nat",
}

var (
	selectUserColumns = "db_id, " + strings.Join(userColumns, ", ")

	insertUserSQL = fmt.Sprintf(
		"INSERT INTO users (%s) VALUES (:%s) ON CONFLICT(login_uuid) DO NOTHING",
		strings.Join(userColumns, ", "),
		strings.Join(userColumns, ", :"),
	)

	updateUserSQL = func() string {
		assignments := make([]string, 0, len(userColumns))
		for _, col := range userColumns {
			if col == "owner_id" {
				continue // owner_id участвует только в WHERE
			}
			assignments = append(assignments, col+" = :"+col)
		}
		return fmt.Sprintf(
			"UPDATE users SET %s WHERE db_id = :db_id AND owner_id = :owner_id",
			strings.Join(assignments, ", "),
		)
	}()
)

// UserStore реализует интерфейс ports.UserDatabase поверх sqlx.
// SQL написан на `?`-плейсхолдерах и проходит через Rebind,
// поэтому одинаково работает на PostgreSQL и SQLite.
type UserStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewUserStore создает новый экземпляр UserStore
func NewUserStore(db *sqlx.DB, logger *slog.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

// AddUsers вставляет пачку записей в одной транзакции.
// Конфликт по login_uuid пропускается без ошибки, чтобы повторная
// отправка одной и той же выборки из API не плодила дубликаты.
// Любая другая ошибка откатывает всю пачку.
func (s *UserStore) AddUsers(ctx context.Context, users []domain.User, ownerID int64) error {
	if len(users) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	// после успешного Commit откат становится no-op
	defer func() { _ = tx.Rollback() }()

	for _, user := range users {
		row := rowFromUser(user, ownerID)
		if _, err := tx.NamedExecContext(ctx, insertUserSQL, &row); err != nil {
			s.logger.Error("failed to insert user batch row",
				"owner_id", ownerID,
				"login_uuid", user.Login.UUID,
				"error", err,
			)
			return fmt.Errorf("ошибка добавления пользователей в БД: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	s.logger.Info("user batch inserted", "owner_id", ownerID, "count", len(users))
	return nil
}

// GetAllUsers возвращает все записи владельца в порядке возрастания db_id
func (s *UserStore) GetAllUsers(ctx context.Context, ownerID int64) ([]domain.DBUser, error) {
	query := s.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM users WHERE owner_id = ? ORDER BY db_id", selectUserColumns,
	))

	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("ошибка выборки всех пользователей: %w", err)
	}

	users := make([]domain.DBUser, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDBUser())
	}
	return users, nil
}

// GetUserByID возвращает одну запись владельца или (nil, nil), если запись
// не существует либо принадлежит другому владельцу — эти случаи неразличимы.
func (s *UserStore) GetUserByID(ctx context.Context, dbID, ownerID int64) (*domain.DBUser, error) {
	query := s.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM users WHERE db_id = ? AND owner_id = ?", selectUserColumns,
	))

	var row userRow
	err := s.db.GetContext(ctx, &row, query, dbID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки пользователя по ID: %w", err)
	}

	user := row.toDBUser()
	return &user, nil
}

// UpdateUser загружает существующую запись, выполняет глубокое слияние partial
// поверх нее и записывает результат обратно целой строкой
func (s *UserStore) UpdateUser(ctx context.Context, dbID, ownerID int64, partial map[string]any) (*domain.DBUser, error) {
	existing, err := s.GetUserByID(ctx, dbID, ownerID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	merged, err := domain.MergeUser(existing.User, partial)
	if err != nil {
		return nil, err
	}

	row := rowFromUser(merged, ownerID)
	row.DBID = dbID

	if _, err := s.db.NamedExecContext(ctx, updateUserSQL, &row); err != nil {
		return nil, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	return s.GetUserByID(ctx, dbID, ownerID)
}

// DeleteUser удаляет запись владельца и сообщает, была ли строка удалена
func (s *UserStore) DeleteUser(ctx context.Context, dbID, ownerID int64) (bool, error) {
	query := s.db.Rebind("DELETE FROM users WHERE db_id = ? AND owner_id = ?")

	result, err := s.db.ExecContext(ctx, query, dbID, ownerID)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления пользователя: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ошибка получения числа удаленных строк: %w", err)
	}
	return affected > 0, nil
}

// SearchUsers ищет подстроку без учета регистра по перечисленным плоским
// колонкам (OR между колонками), в пределах владельца, сортировка по db_id.
// Колонка вне шаблона [A-Za-z0-9_]+ — ошибка валидации, а не часть запроса.
func (s *UserStore) SearchUsers(ctx context.Context, ownerID int64, term string, fields []string) ([]domain.DBUser, error) {
	if len(fields) == 0 {
		fields = DefaultSearchFields
	}

	conditions := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	args = append(args, ownerID)

	likeTerm := "%" + strings.ToLower(term) + "%"
	for _, field := range fields {
		if !safeFieldPattern.MatchString(field) {
			return nil, fmt.Errorf("%w: %s", ports.ErrInvalidSearchField, field)
		}
		conditions = append(conditions, fmt.Sprintf("LOWER(%s) LIKE ?", field))
		args = append(args, likeTerm)
	}

	query := s.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM users WHERE owner_id = ? AND (%s) ORDER BY db_id",
		selectUserColumns,
		strings.Join(conditions, " OR "),
	))

	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("ошибка поиска пользователей: %w", err)
	}

	users := make([]domain.DBUser, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDBUser())
	}
	return users, nil
}

// rowFromUser раскладывает вложенную запись в плоскую строку таблицы
func rowFromUser(u domain.User, ownerID int64) userRow {
	return userRow{
		OwnerID:              ownerID,
		Gender:               u.Gender,
		NameTitle:            u.Name.Title,
		NameFirst:            u.Name.First,
		NameLast:             u.Name.Last,
		LocationStreetNumber: u.Location.Street.Number,
		LocationStreetName:   u.Location.Street.Name,
		LocationCity:         u.Location.City,
		LocationState:        u.Location.State,
		LocationCountry:      u.Location.Country,
		LocationPostcode:     u.Location.Postcode,
		LocationCoordLat:     u.Location.Coordinates.Latitude,
		LocationCoordLong:    u.Location.Coordinates.Longitude,
		LocationTzOffset:     u.Location.Timezone.Offset,
		LocationTzDesc:       u.Location.Timezone.Description,
		Email:                u.Email,
		LoginUUID:            u.Login.UUID,
		LoginUsername:        u.Login.Username,
		DobDate:              u.Dob.Date,
		DobAge:               u.Dob.Age,
		RegisteredDate:       u.Registered.Date,
		RegisteredAge:        u.Registered.Age,
		Phone:                u.Phone,
		Cell:                 u.Cell,
		IDName:               u.ID.Name,
		IDValue:              u.ID.Value,
		PictureLarge:         u.Picture.Large,
		PictureMedium:        u.Picture.Medium,
		PictureThumbnail:     u.Picture.Thumbnail,
		Nat:                  u.Nat,
	}
}

// toDBUser собирает плоскую строку обратно во вложенную запись с db_id
func (r userRow) toDBUser() domain.DBUser {
	return domain.DBUser{
		DBID: r.DBID,
		User: domain.User{
			Gender: r.Gender,
			Name: domain.UserName{
				Title: r.NameTitle,
				First: r.NameFirst,
				Last:  r.NameLast,
			},
			Location: domain.UserLocation{
				Street: domain.UserStreet{
					Number: r.LocationStreetNumber,
					Name:   r.LocationStreetName,
				},
				City:     r.LocationCity,
				State:    r.LocationState,
				Country:  r.LocationCountry,
				Postcode: r.LocationPostcode,
				Coordinates: domain.UserCoordinates{
					Latitude:  r.LocationCoordLat,
					Longitude: r.LocationCoordLong,
				},
				Timezone: domain.UserTimezone{
					Offset:      r.LocationTzOffset,
					Description: r.LocationTzDesc,
				},
			},
			Email: r.Email,
			Login: domain.UserLogin{
				UUID:     r.LoginUUID,
				Username: r.LoginUsername,
			},
			Dob: domain.UserDate{
				Date: r.DobDate,
				Age:  r.DobAge,
			},
			Registered: domain.UserDate{
				Date: r.RegisteredDate,
				Age:  r.RegisteredAge,
			},
			Phone: r.Phone,
			Cell:  r.Cell,
			ID: domain.UserDocument{
				Name:  r.IDName,
				Value: r.IDValue,
			},
			Picture: domain.UserPicture{
				Large:     r.PictureLarge,
				Medium:    r.PictureMedium,
				Thumbnail: r.PictureThumbnail,
			},
			Nat: r.Nat,
		},
	}
}
