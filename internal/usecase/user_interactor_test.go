package usecase_test

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
	"github.com/GoArmGo/UserManagerApp/internal/csvstore"
	"github.com/GoArmGo/UserManagerApp/internal/database/storage"
	"github.com/GoArmGo/UserManagerApp/internal/domain"
	"github.com/GoArmGo/UserManagerApp/internal/usecase"
)

const testOwnerID = int64(7)

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

type fixture struct {
	db   ports.UserDatabase
	file ports.UserFile
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	sqlDB, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	_, err = sqlDB.Exec(testUsersSchema)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	file, err := csvstore.NewStore(t.TempDir(), testOwnerID, logger)
	require.NoError(t, err)

	return fixture{
		db:   storage.NewUserStore(sqlDB, logger),
		file: file,
	}
}

func (f fixture) newInteractor(t *testing.T) usecase.UserUseCase {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return usecase.NewUserInteractor(context.Background(), f.db, f.file, testOwnerID, logger)
}

func testUser(n int) domain.User {
	return domain.User{
		Gender: "male",
		Name:   domain.UserName{Title: "Mr", First: fmt.Sprintf("First%d", n), Last: fmt.Sprintf("Last%d", n)},
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

func TestReconcile_EmptyDatabaseImportsCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Файл владельца существует, БД пуста (например, сброшена)
	require.NoError(t, f.file.AddUsers(ctx, []domain.User{testUser(1), testUser(2)}))

	uc := f.newInteractor(t)

	users, err := uc.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	// Идентификаторы файла в таблицу не переносятся
	assert.Equal(t, int64(1), users[0].DBID)
	assert.Equal(t, "uuid-1", users[0].Login.UUID)
}

func TestReconcile_EmptyCSVRegeneratedFromDatabase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.AddUsers(ctx, []domain.User{testUser(1), testUser(2)}, testOwnerID))

	f.newInteractor(t)

	csvUsers, err := f.file.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, csvUsers, 2)
	// При полной регенерации csv_id наследует db_id
	assert.Equal(t, int64(1), csvUsers[0].CSVID)
	assert.Equal(t, int64(2), csvUsers[1].CSVID)
}

func TestReconcile_CountMismatchDatabaseWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.AddUsers(ctx, []domain.User{testUser(1), testUser(2), testUser(3)}, testOwnerID))
	require.NoError(t, f.file.AddUsers(ctx, []domain.User{testUser(1)}))

	f.newInteractor(t)

	csvUsers, err := f.file.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, csvUsers, 3)
}

func TestReconcile_EqualCountsLeftAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.AddUsers(ctx, []domain.User{testUser(1)}, testOwnerID))
	// Файл содержит другую запись, но количество совпадает:
	// сверка по количеству расхождение не видит
	require.NoError(t, f.file.AddUsers(ctx, []domain.User{testUser(99)}))

	f.newInteractor(t)

	csvUsers, err := f.file.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, csvUsers, 1)
	assert.Equal(t, "uuid-99", csvUsers[0].Login.UUID)
}

func TestAddUsers_FansOutToBothStores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := f.newInteractor(t)

	require.NoError(t, uc.AddUsers(ctx, []domain.User{testUser(1), testUser(2)}))

	dbUsers, err := f.db.GetAllUsers(ctx, testOwnerID)
	require.NoError(t, err)
	assert.Len(t, dbUsers, 2)

	csvUsers, err := f.file.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, csvUsers, 2)
}

func TestUpdateUser_PropagatesToCSVByLoginUUID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := f.newInteractor(t)
	require.NoError(t, uc.AddUsers(ctx, []domain.User{testUser(1), testUser(2)}))

	updated, err := uc.UpdateUser(ctx, 2, map[string]any{"email": "changed@example.com"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "changed@example.com", updated.Email)

	// Та же логическая запись изменена и в файле
	matches, err := f.file.SearchUsers(ctx, "uuid-2", []string{"login.uuid"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "changed@example.com", matches[0].Email)

	// Соседняя запись не тронута
	other, err := f.file.SearchUsers(ctx, "uuid-1", []string{"login.uuid"})
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "user1@example.com", other[0].Email)
}

func TestUpdateUser_NotFound(t *testing.T) {
	f := newFixture(t)
	uc := f.newInteractor(t)

	updated, err := uc.UpdateUser(context.Background(), 42, map[string]any{"email": "x@example.com"})
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestDeleteUser_RemovesFromBothStores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := f.newInteractor(t)
	require.NoError(t, uc.AddUsers(ctx, []domain.User{testUser(1), testUser(2)}))

	deleted, err := uc.DeleteUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	dbUsers, err := f.db.GetAllUsers(ctx, testOwnerID)
	require.NoError(t, err)
	require.Len(t, dbUsers, 1)
	assert.Equal(t, "uuid-2", dbUsers[0].Login.UUID)

	csvUsers, err := f.file.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, csvUsers, 1)
	assert.Equal(t, "uuid-2", csvUsers[0].Login.UUID)

	deleted, err = uc.DeleteUser(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSyncDatabaseToCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := f.newInteractor(t)
	require.NoError(t, uc.AddUsers(ctx, []domain.User{testUser(1), testUser(2)}))

	// Файл уходит в самостоятельное состояние
	require.NoError(t, f.file.Rewrite(ctx, nil))

	require.NoError(t, uc.SyncDatabaseToCSV(ctx))

	csvUsers, err := f.file.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, csvUsers, 2)
	assert.Equal(t, int64(1), csvUsers[0].CSVID)
	assert.Equal(t, int64(2), csvUsers[1].CSVID)
}

// Сценарий жизненного цикла: пачка, точечное обновление, удаление —
// хранилища остаются согласованными на каждом шаге
func TestLifecycle_StoresStayAligned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uc := f.newInteractor(t)

	require.NoError(t, uc.AddUsers(ctx, []domain.User{testUser(1), testUser(2), testUser(3)}))

	_, err := uc.UpdateUser(ctx, 2, map[string]any{"email": "second@example.com"})
	require.NoError(t, err)

	deleted, err := uc.DeleteUser(ctx, 1)
	require.NoError(t, err)
	require.True(t, deleted)

	dbUsers, err := uc.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, dbUsers, 2)
	assert.Equal(t, "second@example.com", dbUsers[0].Email)

	csvUsers, err := f.file.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, csvUsers, 2)
	assert.Equal(t, "second@example.com", csvUsers[0].Email)
	assert.Equal(t, "uuid-3", csvUsers[1].Login.UUID)
}
