// Package csvstore реализует CSV-зеркало коллекции сохраненных пользователей.
// Один файл — один владелец; файл полностью перезаписывается при каждом
// изменении существующих строк, чтобы гарантировать выравнивание колонок.
package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

// csvHeader — фиксированный порядок колонок файла.
// Порядок стабилен между записями: чтение после записи
// восстанавливает ту же вложенную структуру.
var csvHeader = []string{
	"csv_id",
	"gender",
	"name_title",
	"name_first",
	"name_last",
	"location_street_number",
	"location_street_name",
	"location_city",
	"location_state",
	"location_country",
	"location_postcode",
	"location_coords_lat",
	"location_coords_long",
	"location_tz_offset",
	"location_tz_desc",
	"email",
	"login_uuid",
	"login_username",
	"dob_date",
	"dob_age",
	"registered_date",
	"registered_age",
	"phone",
	"cell",
	"id_name",
	"id_value",
	"picture_large",
	"picture_medium",
	"picture_thumbnail",
	"nat",
}

// DefaultSearchFields — dot-пути по умолчанию для поиска в файле
var DefaultSearchFields = []string{"name.first", "name.last", "email", "login.username"}

// Store реализует интерфейс ports.UserFile.
// Паттерн "прочитать-изменить-переписать весь файл" небезопасен при
// конкурентных писателях, поэтому все операции сериализуются мьютексом:
// файл — ресурс одного писателя.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore создает хранилище для файла users_<ownerID>.csv в каталоге dir.
// Если файла нет, он создается с одной строкой заголовка.
func NewStore(dir string, ownerID int64, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога данных: %w", err)
	}

	s := &Store{
		path:   filepath.Join(dir, fmt.Sprintf("users_%d.csv", ownerID)),
		logger: logger,
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := s.writeAll(nil); err != nil {
			return nil, err
		}
		logger.Info("csv file created", "path", s.path)
	}

	return s, nil
}

// Path возвращает путь к файлу владельца
func (s *Store) Path() string {
	return s.path
}

// AddUsers присваивает пачке последовательные csv_id, начиная с max+1,
// и дописывает плоские строки в конец файла
func (s *Store) AddUsers(ctx context.Context, users []domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAll()
	if err != nil {
		return err
	}

	nextID := maxCSVID(existing) + 1

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ошибка открытия CSV-файла для записи: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for i, user := range users {
		record := userToRecord(domain.CSVUser{User: user, CSVID: nextID + int64(i)})
		if err := w.Write(record); err != nil {
			return fmt.Errorf("ошибка записи строки CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("ошибка записи в CSV-файл: %w", err)
	}

	s.logger.Info("users appended to csv", "path", s.path, "count", len(users))
	return nil
}

// GetAllUsers читает и разбирает весь файл.
// Некорректная строка — ошибка чтения, а не молча пропущенная запись.
func (s *Store) GetAllUsers(ctx context.Context) ([]domain.CSVUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

// GetUserByCSVID линейно ищет первую строку с данным csv_id
func (s *Store) GetUserByCSVID(ctx context.Context, csvID int64) (*domain.CSVUser, error) {
	users, err := s.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].CSVID == csvID {
			return &users[i], nil
		}
	}
	return nil, nil
}

// UpdateUser выполняет глубокое слияние partial поверх найденной записи
// и переписывает файл целиком — частичного дописывания при обновлении нет,
// регенерация заодно срезает возможный испорченный хвост файла
func (s *Store) UpdateUser(ctx context.Context, csvID int64, partial map[string]any) (*domain.CSVUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range users {
		if users[i].CSVID == csvID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil
	}

	merged, err := domain.MergeUser(users[idx].User, partial)
	if err != nil {
		return nil, err
	}
	users[idx].User = merged // csv_id сохраняется

	if err := s.writeAll(users); err != nil {
		return nil, err
	}
	return &users[idx], nil
}

// DeleteUser убирает запись и переписывает файл; false — если записи не было
func (s *Store) DeleteUser(ctx context.Context, csvID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readAll()
	if err != nil {
		return false, err
	}

	kept := users[:0]
	found := false
	for _, user := range users {
		if user.CSVID == csvID {
			found = true
			continue
		}
		kept = append(kept, user)
	}
	if !found {
		return false, nil
	}

	if err := s.writeAll(kept); err != nil {
		return false, err
	}
	return true, nil
}

// SearchUsers фильтрует записи в памяти: подстрока без учета регистра
// по значениям dot-путей вложенной записи
func (s *Store) SearchUsers(ctx context.Context, term string, fields []string) ([]domain.CSVUser, error) {
	if len(fields) == 0 {
		fields = DefaultSearchFields
	}

	users, err := s.GetAllUsers(ctx)
	if err != nil {
		return nil, err
	}

	lowerTerm := strings.ToLower(term)
	matched := make([]domain.CSVUser, 0)
	for _, user := range users {
		for _, field := range fields {
			value, ok := domain.FieldValue(user.User, field)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(fmt.Sprint(value)), lowerTerm) {
				matched = append(matched, user)
				break
			}
		}
	}
	return matched, nil
}

// Rewrite безусловно перегенерирует файл из переданных записей.
// Новые csv_id не присваиваются: вызывающая сторона задает id каждой записи.
func (s *Store) Rewrite(ctx context.Context, users []domain.CSVUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeAll(users); err != nil {
		return err
	}
	s.logger.Info("csv file rewritten", "path", s.path, "count", len(users))
	return nil
}

// readAll разбирает файл в список записей; файл без строки заголовка пуст
func (s *Store) readAll() ([]domain.CSVUser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия CSV-файла: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора CSV-файла: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	users := make([]domain.CSVUser, 0, len(records)-1)
	for _, record := range records[1:] {
		user, err := recordToUser(record)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// writeAll переписывает файл: заголовок + строка на запись
func (s *Store) writeAll(users []domain.CSVUser) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("ошибка создания CSV-файла: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("ошибка записи заголовка CSV: %w", err)
	}
	for _, user := range users {
		if err := w.Write(userToRecord(user)); err != nil {
			return fmt.Errorf("ошибка записи строки CSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("ошибка записи в CSV-файл: %w", err)
	}
	return nil
}

func maxCSVID(users []domain.CSVUser) int64 {
	var max int64
	for _, user := range users {
		if user.CSVID > max {
			max = user.CSVID
		}
	}
	return max
}

// userToRecord раскладывает запись в плоскую строку в порядке csvHeader
func userToRecord(u domain.CSVUser) []string {
	return []string{
		strconv.FormatInt(u.CSVID, 10),
		u.Gender,
		u.Name.Title,
		u.Name.First,
		u.Name.Last,
		strconv.Itoa(u.Location.Street.Number),
		u.Location.Street.Name,
		u.Location.City,
		u.Location.State,
		u.Location.Country,
		u.Location.Postcode,
		u.Location.Coordinates.Latitude,
		u.Location.Coordinates.Longitude,
		u.Location.Timezone.Offset,
		u.Location.Timezone.Description,
		u.Email,
		u.Login.UUID,
		u.Login.Username,
		u.Dob.Date,
		strconv.Itoa(u.Dob.Age),
		u.Registered.Date,
		strconv.Itoa(u.Registered.Age),
		u.Phone,
		u.Cell,
		u.ID.Name,
		u.ID.Value,
		u.Picture.Large,
		u.Picture.Medium,
		u.Picture.Thumbnail,
		u.Nat,
	}
}

// recordToUser собирает плоскую строку обратно во вложенную запись
func recordToUser(record []string) (domain.CSVUser, error) {
	if len(record) != len(csvHeader) {
		return domain.CSVUser{}, fmt.Errorf("некорректная строка CSV: %d колонок вместо %d", len(record), len(csvHeader))
	}

	csvID, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return domain.CSVUser{}, fmt.Errorf("некорректный csv_id %q: %w", record[0], err)
	}

	streetNumber, err := parseOptionalInt(record[5])
	if err != nil {
		return domain.CSVUser{}, fmt.Errorf("некорректный location_street_number %q: %w", record[5], err)
	}
	dobAge, err := parseOptionalInt(record[19])
	if err != nil {
		return domain.CSVUser{}, fmt.Errorf("некорректный dob_age %q: %w", record[19], err)
	}
	registeredAge, err := parseOptionalInt(record[21])
	if err != nil {
		return domain.CSVUser{}, fmt.Errorf("некорректный registered_age %q: %w", record[21], err)
	}

	return domain.CSVUser{
		CSVID: csvID,
		User: domain.User{
			Gender: record[1],
			Name: domain.UserName{
				Title: record[2],
				First: record[3],
				Last:  record[4],
			},
			Location: domain.UserLocation{
				Street: domain.UserStreet{
					Number: streetNumber,
					Name:   record[6],
				},
				City:     record[7],
				State:    record[8],
				Country:  record[9],
				Postcode: record[10],
				Coordinates: domain.UserCoordinates{
					Latitude:  record[11],
					Longitude: record[12],
				},
				Timezone: domain.UserTimezone{
					Offset:      record[13],
					Description: record[14],
				},
			},
			Email: record[15],
			Login: domain.UserLogin{
				UUID:     record[16],
				Username: record[17],
			},
			Dob: domain.UserDate{
				Date: record[18],
				Age:  dobAge,
			},
			Registered: domain.UserDate{
				Date: record[20],
				Age:  registeredAge,
			},
			Phone: record[22],
			Cell:  record[23],
			ID: domain.UserDocument{
				Name:  record[24],
				Value: record[25],
			},
			Picture: domain.UserPicture{
				Large:     record[26],
				Medium:    record[27],
				Thumbnail: record[28],
			},
			Nat: record[29],
		},
	}, nil
}

// parseOptionalInt трактует пустую колонку как ноль
func parseOptionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
