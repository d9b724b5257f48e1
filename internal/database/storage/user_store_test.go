package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/UserManagerApp/internal/core/ports"
	"github.com/GoArmGo/UserManagerApp/internal/domain"
)

// testUsersSchema повторяет миграцию users на диалекте SQLite:
// запросы хранилища написаны переносимо и гоняются в тестах на :memory:
const testUsersSchema = `
CREATE TABLE users (
	db_id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id INTEGER NOT NULL,
	gender TEXT NOT NULL DEFAULT '',
	name_title TEXT NOT NULL DEFAULT '',
	name_first TEXT NOT NULL DEFAULT '',
	name_last TEXT NOT NULL DEFAULT '',
	location_street_number INTEGER NOT NULL DEFAULT 0,
	location_street_name TEXT NOT NULL DEFAULT '',
	location_city TEXT NOT NULL DEFAULT '',
	location_state TEXT NOT NULL DEFAULT '',
	location_country TEXT NOT NULL DEFAULT '',
	location_postcode TEXT NOT NULL DEFAULT '',
	location_coordinates_latitude TEXT NOT NULL DEFAULT '',
	location_coordinates_longitude TEXT NOT NULL DEFAULT '',
	location_timezone_offset TEXT NOT NULL DEFAULT '',
	location_timezone_description TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	login_uuid TEXT UNIQUE,
	login_username TEXT NOT NULL DEFAULT '',
	dob_date TEXT NOT NULL DEFAULT '',
	dob_age INTEGER NOT NULL DEFAULT 0,
	registered_date TEXT NOT NULL DEFAULT '',
	registered_age INTEGER NOT NULL DEFAULT 0,
	phone TEXT NOT NULL DEFAULT '',
	cell TEXT NOT NULL DEFAULT '',
	id_name TEXT NOT NULL DEFAULT '',
	id_value TEXT NOT NULL DEFAULT '',
	picture_large TEXT NOT NULL DEFAULT '',
	picture_medium TEXT NOT NULL DEFAULT '',
	picture_thumbnail TEXT NOT NULL DEFAULT '',
	nat TEXT NOT NULL DEFAULT ''
);`

func newTestStore(t *testing.T) *UserStore {
	t.Helper()

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testUsersSchema)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserStore(db, logger)
}

func testUser(n int) domain.User {
	return domain.User{
		Gender: "female",
		Name:   domain.UserName{Title: "Ms", First: fmt.Sprintf("First%d", n), Last: fmt.Sprintf("Last%d", n)},
		Location: domain.UserLocation{
			Street:      domain.UserStreet{Number: n, Name: "Lenina"},
			City:        "Kazan",
			State:       "Tatarstan",
			Country:     "Russia",
			Postcode:    "420001",
			Coordinates: domain.UserCoordinates{Latitude: "55.7", Longitude: "49.1"},
			Timezone:    domain.UserTimezone{Offset: "+3:00", Description: "Moscow"},
		},
		Email:      fmt.Sprintf("user%d@example.com", n),
		Login:      domain.UserLogin{UUID: fmt.Sprintf("uuid-%d", n), Username: fmt.Sprintf("user%d", n)},
		Dob:        domain.UserDate{Date: "1990-04-01T00:00:00Z", Age: 36},
		Registered: domain.UserDate{Date: "2020-01-01T00:00:00Z", Age: 6},
		Phone:      "123",
		Cell:       "456",
		ID:         domain.UserDocument{Name: "INN", Value: "777"},
		Picture:    domain.UserPicture{Large: "l", Medium: "m", Thumbnail: "t"},
		Nat:        "RU",
	}
}

func TestAddUsers_AndGetAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddUsers(ctx, []domain.User{testUser(1), testUser(2)}, 7))

	users, err := s.GetAllUsers(ctx, 7)
	require.NoError(t, err)
	require.Len(t, users, 2)

	// db_id выдается таблицей последовательно
	assert.Equal(t, int64(1), users[0].DBID)
	assert.Equal(t, int64(2), users[1].DBID)
	// Вложенная запись восстанавливается из плоских колонок полностью
	assert.Equal(t, testUser(1), users[0].User)
}

func TestAddUsers_DuplicateLoginUUIDSkipped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddUsers(ctx, []domain.User{testUser(1)}, 7))
	// Та же выборка отправляется повторно плюс одна новая запись
	require.NoError(t, s.AddUsers(ctx, []domain.User{testUser(1), testUser(2)}, 7))

	users, err := s.GetAllUsers(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestGetAllUsers_OwnerIsolation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddUsers(ctx, []domain.User{testUser(1)}, 7))
	require.NoError(t, s.AddUsers(ctx, []domain.User{testUser(2)}, 8))

	users, err := s.GetAllUsers(ctx, 7)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "uuid-1", users[0].Login.UUID)
}

func TestGetUserByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddUsers(ctx, []domain.User{testUser(1)}, 7))

	user, err := s.GetUserByID(ctx, 1, 7)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "user1@example.com", user.Email)

	// Несуществующий id и чужой владелец неразличимы: оба дают (nil, nil)
	missing, err := s.GetUserByID(ctx, 99, 7)
	require.NoError(t, err)
	assert.Nil(t, missing)

	foreign, err := s.GetUserByID(ctx, 1, 8)
	require.NoError(t, err)
	assert.Nil(t, foreign)
}

func TestUpdateUser_DeepMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddUsers(ctx, []domain.User{testUser(1)}, 7))

	updated, err := s.UpdateUser(ctx, 1, 7, map[string]any{
		"location": map[string]any{"city": "Moscow"},
		"email":    "new@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "Moscow", updated.Location.City)
	assert.Equal(t, "new@example.com", updated.Email)
	// Соседние поля вложенного объекта не тронуты
	assert.Equal(t, "Tatarstan", updated.Location.State)
	assert.Equal(t, "Lenina", updated.Location.Street.Name)
	assert.Equal(t, int64(1), updated.DBID)
}

func TestUpdateUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	updated, err := s.UpdateUser(context.Background(), 42, 7, map[string]any{"email": "x@example.com"})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestDeleteUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddUsers(ctx, []domain.User{testUser(1)}, 7))

	// Чужой владелец удалить не может
	deleted, err := s.DeleteUser(ctx, 1, 8)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.DeleteUser(ctx, 1, 7)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteUser(ctx, 1, 7)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSearchUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddUsers(ctx, []domain.User{testUser(1), testUser(2)}, 7))

	// Поля по умолчанию, регистр игнорируется
	users, err := s.SearchUsers(ctx, 7, "FIRST1", nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "uuid-1", users[0].Login.UUID)

	// Явная колонка
	users, err = s.SearchUsers(ctx, 7, "uuid-2", []string{"login_uuid"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(2), users[0].DBID)

	// Поиск не выходит за пределы владельца
	users, err = s.SearchUsers(ctx, 8, "First1", nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSearchUsers_RejectsUnsafeField(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SearchUsers(context.Background(), 7, "x", []string{"email; DROP TABLE users--"})
	// Ошибка валидации различима для вызывающего слоя
	assert.ErrorIs(t, err, ports.ErrInvalidSearchField)
}
