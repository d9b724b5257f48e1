package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/UserManagerApp/internal/core/ports"
	"github.com/GoArmGo/UserManagerApp/internal/csvstore"
	"github.com/GoArmGo/UserManagerApp/internal/database/storage"
	"github.com/GoArmGo/UserManagerApp/internal/domain"
	"github.com/GoArmGo/UserManagerApp/internal/messaging/payloads"
	"github.com/GoArmGo/UserManagerApp/internal/usecase"
)

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

// stubPublisher запоминает опубликованные задания экспорта
type stubPublisher struct {
	published []payloads.CSVExportPayload
}

func (p *stubPublisher) PublishCSVExportRequest(ctx context.Context, payload payloads.CSVExportPayload) error {
	p.published = append(p.published, payload)
	return nil
}

// stubFetcher отдает заранее заданный список
type stubFetcher struct {
	users []domain.User
}

func (f *stubFetcher) FetchUsers(ctx context.Context, size int, gender, nat string) ([]domain.User, error) {
	return f.users, nil
}

type testEnv struct {
	router    http.Handler
	publisher *stubPublisher
	db        *sqlx.DB
}

func newTestEnv(t *testing.T, fetched []domain.User) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(testUsersSchema)
	require.NoError(t, err)

	dataDir := t.TempDir()
	fileFactory := usecase.UserFileFactory(func(ownerID int64) (ports.UserFile, error) {
		return csvstore.NewStore(dataDir, ownerID, logger)
	})
	registry := usecase.NewRegistry(storage.NewUserStore(db, logger), fileFactory, logger)

	publisher := &stubPublisher{}
	h := NewUserHandler(registry, &stubFetcher{users: fetched}, publisher, logger)

	// Вместо JWT-middleware владелец кладется в контекст напрямую
	withOwner := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), authUserKey, &domain.AuthUser{ID: 7, Email: "owner@example.com"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	r := chi.NewRouter()
	r.Route("/api/users", func(r chi.Router) {
		r.Use(withOwner)
		r.Get("/", h.ListUsers)
		r.Get("/api", h.FetchFromAPI)
		r.Post("/save", h.SaveUsers)
		r.Get("/search", h.SearchUsers)
		r.Get("/download/csv", h.DownloadCSV)
		r.Post("/sync/csv", h.SyncCSV)
		r.Post("/export", h.ExportCSV)
		r.Get("/{id}", h.GetUserByID)
		r.Put("/{id}", h.UpdateUser)
		r.Delete("/{id}", h.DeleteUser)
	})

	return &testEnv{router: r, publisher: publisher, db: db}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func apiUserJSON(n int) string {
	return fmt.Sprintf(`{
		"gender": "male",
		"name": {"title": "Mr", "first": "First%d", "last": "Last%d"},
		"location": {
			"street": {"number": %d, "name": "Lenina"},
			"city": "Kazan", "state": "Tatarstan", "country": "Russia", "postcode": "420001",
			"coordinates": {"latitude": "55.7", "longitude": "49.1"},
			"timezone": {"offset": "+3:00", "description": "Moscow"}
		},
		"email": "user%d@example.com",
		"login": {"uuid": "uuid-%d", "username": "user%d"},
		"dob": {"date": "1990-04-01T00:00:00Z", "age": 36},
		"registered": {"date": "2020-01-01T00:00:00Z", "age": 6},
		"phone": "123", "cell": "456",
		"id": {"name": "INN", "value": "777"},
		"picture": {"large": "l", "medium": "m", "thumbnail": "t"},
		"nat": "RU"
	}`, n, n, n, n, n, n)
}

func saveBody(ns ...int) string {
	users := make([]string, 0, len(ns))
	for _, n := range ns {
		users = append(users, apiUserJSON(n))
	}
	return fmt.Sprintf(`{"users": [%s]}`, strings.Join(users, ","))
}

func TestSaveAndListUsers(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/users/save", saveBody(1, 2))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/users/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []domain.DBUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, int64(1), users[0].DBID)
	assert.Equal(t, "user1@example.com", users[0].Email)
}

func TestSaveUsers_EmptyBody(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/users/save", `{"users": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFetchFromAPI_ReturnsCandidatesWithoutPersisting(t *testing.T) {
	var fetched []domain.User
	require.NoError(t, json.Unmarshal([]byte("["+apiUserJSON(5)+"]"), &fetched))

	env := newTestEnv(t, fetched)

	rec := env.do(t, http.MethodGet, "/api/users/api?size=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool          `json:"success"`
		Count   int           `json:"count"`
		Data    []domain.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "uuid-5", resp.Data[0].Login.UUID)

	// Полученные кандидаты не попадают в коллекцию: сохраняет только /save
	rec = env.do(t, http.MethodGet, "/api/users/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var users []domain.DBUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Empty(t, users)
}

func TestGetUserByID(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/users/save", saveBody(1))

	rec := env.do(t, http.MethodGet, "/api/users/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var user domain.DBUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "user1@example.com", user.Email)

	rec = env.do(t, http.MethodGet, "/api/users/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/users/save", saveBody(1))

	rec := env.do(t, http.MethodPut, "/api/users/1", `{"location": {"city": "Moscow"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var user domain.DBUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "Moscow", user.Location.City)
	assert.Equal(t, "Tatarstan", user.Location.State)

	rec = env.do(t, http.MethodPut, "/api/users/99", `{"email": "x@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/users/save", saveBody(1))

	rec := env.do(t, http.MethodDelete, "/api/users/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/users/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchUsers(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/users/save", saveBody(1, 2))

	rec := env.do(t, http.MethodGet, "/api/users/search?term=First2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []domain.DBUser
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, int64(2), users[0].DBID)

	// Без поискового запроса — 400
	rec = env.do(t, http.MethodGet, "/api/users/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchUsers_ErrorMapping(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/users/save", saveBody(1))

	// Недопустимое имя поля — ошибка клиента
	rec := env.do(t, http.MethodGet, "/api/users/search?term=x&fields=email%3B+DROP+TABLE+users--", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Сбой хранилища — ошибка сервера
	_, err := env.db.Exec("DROP TABLE users")
	require.NoError(t, err)

	rec = env.do(t, http.MethodGet, "/api/users/search?term=x", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDownloadCSV(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/users/save", saveBody(1))

	rec := env.do(t, http.MethodGet, "/api/users/download/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Header().Get("Content-Disposition"), "users_7.csv")
	body := rec.Body.String()
	assert.Contains(t, body, "csv_id")
	assert.Contains(t, body, "uuid-1")
}

func TestSyncCSV(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/users/save", saveBody(1))

	rec := env.do(t, http.MethodPost, "/api/users/sync/csv", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportCSV_PublishesPayload(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/users/export", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, env.publisher.published, 1)
	assert.Equal(t, int64(7), env.publisher.published[0].OwnerID)
}
