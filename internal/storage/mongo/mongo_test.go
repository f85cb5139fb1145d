package mongo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/movie-comments-service/internal/config"
	"github.com/pribylovaa/movie-comments-service/internal/models"
	"github.com/pribylovaa/movie-comments-service/internal/storage"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testTimeout — общий дедлайн на операции с БД в тестах.
const testTimeout = 10 * time.Second

// TestMain запускает MongoDB в контейнере один раз на весь пакет тестов.
// Адрес контейнера прокидывается в ENV DATABASE_URL, а каждая спецификация
// создаёт свою БД с уникальным именем (см. newTestConfig).
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	}

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})

	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	// Получаем host:port и формируем URI без имени БД.
	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	_ = os.Setenv("DATABASE_URL", uri)

	// Запускаем тесты пакета.
	code := m.Run()

	// Гасим контейнер *после* выполнения пакета тестов.
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

// newTestConfig создаёт конфиг с отдельной тестовой БД.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	baseURL := os.Getenv("DATABASE_URL")
	if baseURL == "" {
		baseURL = "mongodb://localhost:27017"
	}

	dbName := "movie_comments_test_" + uuid.New().String()
	if baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL + dbName
	} else {
		baseURL = baseURL + "/" + dbName
	}

	return &config.Config{
		DB: config.DBConfig{
			URL: baseURL,
		},
		Limits: config.LimitsConfig{
			Default: 20,
			Max:     300,
		},
	}
}

// mustNewMongo создаёт подключение к созданной Test DB и регистрирует очистку по завершении теста.
// Без GO_TEST_INTEGRATION контейнер не поднимается — такие тесты пропускаются.
func mustNewMongo(t *testing.T, cfg *config.Config) *Mongo {
	t.Helper()

	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration test: set GO_TEST_INTEGRATION=1 to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	m, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("cannot connect to MongoDB in container: %v (DATABASE_URL=%s)", err, cfg.DB.URL)
	}

	// При завершении теста — подчистить БД и соединение.
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = m.db.Drop(ctx)
		_ = m.Close(ctx)
	})

	return m
}

// mustAdd — вставка комментария с фатальным исходом при ошибке.
func mustAdd(t *testing.T, m *Mongo, comm models.Comment) *models.Comment {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	out, err := m.AddComment(ctx, comm)
	if err != nil {
		t.Fatalf("AddComment error: %v", err)
	}
	return out
}

// TestLimitOrDefault — граничные случаи и дефолт для размера выборки.
func TestLimitOrDefault(t *testing.T) {
	cfg := &config.Config{
		Limits: config.LimitsConfig{Default: 10, Max: 50},
	}
	tests := []struct {
		name string
		in   int32
		want int64
	}{
		{"zero->default", 0, 10},
		{"negative->default", -5, 10},
		{"less-than-max", 25, 25},
		{"more-than-max->cap", 200, 50},
	}
	for _, tt := range tests {
		if got := limitOrDefault(cfg, tt.in); got != tt.want {
			t.Errorf("%s: want %d, got %d", tt.name, tt.want, got)
		}
	}
}

// TestDatabaseFromURI — имя БД берём из пути URI, иначе дефолт.
func TestDatabaseFromURI(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"mongodb://localhost:27017/moviedb", "moviedb"},
		{"mongodb://localhost:27017/", defaultDBName},
		{"mongodb://localhost:27017", defaultDBName},
	}
	for _, tt := range tests {
		if got := databaseFromURI(tt.uri); got != tt.want {
			t.Errorf("databaseFromURI(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

// TestAddComment_GeneratesIDAndDate — пустой ID генерируется, пустая дата
// выставляется текущим временем с точностью до миллисекунд.
func TestAddComment_GeneratesIDAndDate(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	before := time.Now().UTC().Add(-time.Second)
	out := mustAdd(t, m, models.Comment{
		MovieID: primitive.NewObjectID().Hex(),
		Email:   "a@x.com",
		Name:    "alice",
		Text:    "hello",
	})

	if out.ID == "" {
		t.Fatalf("expected generated ID")
	}

	if _, err := primitive.ObjectIDFromHex(out.ID); err != nil {
		t.Fatalf("generated ID is not a valid ObjectID hex: %q", out.ID)
	}

	if out.Date.Before(before) || out.Date.After(time.Now().UTC().Add(time.Second)) {
		t.Fatalf("Date not close to now: %v", out.Date)
	}

	// Миллисекундная точность хранения.
	if !out.Date.Equal(out.Date.Truncate(time.Millisecond)) {
		t.Fatalf("Date not truncated to milliseconds: %v", out.Date)
	}
}

// TestAddComment_ReadBackEqualsStored — возвращённая копия совпадает с тем,
// что затем читается по ID.
func TestAddComment_ReadBackEqualsStored(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	in := models.Comment{
		MovieID: primitive.NewObjectID().Hex(),
		Email:   "a@x.com",
		Name:    "alice",
		Text:    "round trip",
		Date:    time.Date(2021, 3, 14, 15, 9, 26, 535_000_000, time.UTC),
	}

	created := mustAdd(t, m, in)

	got, err := m.CommentByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("CommentByID error: %v", err)
	}

	if got.ID != created.ID || got.MovieID != in.MovieID ||
		got.Email != in.Email || got.Name != in.Name || got.Text != in.Text {
		t.Fatalf("stored comment mismatch:\n got  %+v\n want %+v", got, created)
	}

	if !got.Date.Equal(in.Date) {
		t.Fatalf("Date mismatch: got %v, want %v", got.Date, in.Date)
	}
}

// TestAddComment_PresetID — предзаданный корректный hex сохраняется как есть;
// дубликат того же id даёт ErrConflict.
func TestAddComment_PresetID(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	id := primitive.NewObjectID().Hex()
	comm := models.Comment{
		ID:      id,
		MovieID: primitive.NewObjectID().Hex(),
		Email:   "a@x.com",
		Text:    "preset",
	}

	out := mustAdd(t, m, comm)
	if out.ID != id {
		t.Fatalf("preset ID not preserved: got %q, want %q", out.ID, id)
	}

	_, err := m.AddComment(ctx, comm)
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("want ErrConflict on duplicate _id, got %v", err)
	}
}

// TestAddComment_BadIDs — битый предзаданный id -> ErrInvalidOperation;
// битый movie_id -> ErrInvalidID.
func TestAddComment_BadIDs(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	_, err := m.AddComment(ctx, models.Comment{
		ID:      "not-a-hex",
		MovieID: primitive.NewObjectID().Hex(),
		Email:   "a@x.com",
		Text:    "x",
	})
	if !errors.Is(err, storage.ErrInvalidOperation) {
		t.Fatalf("want ErrInvalidOperation on malformed preset id, got %v", err)
	}

	_, err = m.AddComment(ctx, models.Comment{
		MovieID: "not-a-hex",
		Email:   "a@x.com",
		Text:    "x",
	})
	if !errors.Is(err, storage.ErrInvalidID) {
		t.Fatalf("want ErrInvalidID on malformed movie_id, got %v", err)
	}
}

// TestCommentByID_Negative — некорректный id и отсутствующая запись.
func TestCommentByID_Negative(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	if _, err := m.CommentByID(ctx, "zzz"); !errors.Is(err, storage.ErrInvalidID) {
		t.Fatalf("want ErrInvalidID, got %v", err)
	}

	if _, err := m.CommentByID(ctx, primitive.NewObjectID().Hex()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

// TestUpdateComment_OwnerOnly — правка проходит только при совпадении email;
// чужой email оставляет text и date нетронутыми.
func TestUpdateComment_OwnerOnly(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	created := mustAdd(t, m, models.Comment{
		MovieID: primitive.NewObjectID().Hex(),
		Email:   "owner@x.com",
		Text:    "original",
	})

	// Чужой email: отказ без ошибки, документ не меняется.
	ok, err := m.UpdateComment(ctx, created.ID, "hacked", "intruder@x.com")
	if err != nil {
		t.Fatalf("UpdateComment(wrong email) error: %v", err)
	}
	if ok {
		t.Fatalf("update with wrong email must be refused")
	}

	cur, err := m.CommentByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("CommentByID error: %v", err)
	}
	if cur.Text != "original" {
		t.Fatalf("text changed by refused update: %q", cur.Text)
	}
	if !cur.Date.Equal(created.Date) {
		t.Fatalf("date changed by refused update: %v -> %v", created.Date, cur.Date)
	}

	// Владелец: правка проходит, дата обновляется.
	ok, err = m.UpdateComment(ctx, created.ID, "edited", "owner@x.com")
	if err != nil {
		t.Fatalf("UpdateComment(owner) error: %v", err)
	}
	if !ok {
		t.Fatalf("owner update must succeed")
	}

	cur, err = m.CommentByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("CommentByID error: %v", err)
	}
	if cur.Text != "edited" {
		t.Fatalf("text not updated: %q", cur.Text)
	}
	if !cur.Date.After(created.Date) {
		t.Fatalf("date not refreshed: %v -> %v", created.Date, cur.Date)
	}
}

// TestUpdateComment_MissingAndBadID — отсутствующая запись -> (false, nil);
// битый id -> ErrInvalidID.
func TestUpdateComment_MissingAndBadID(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	ok, err := m.UpdateComment(ctx, primitive.NewObjectID().Hex(), "x", "a@x.com")
	if err != nil {
		t.Fatalf("UpdateComment(missing) error: %v", err)
	}
	if ok {
		t.Fatalf("update of missing comment must be refused")
	}

	if _, err := m.UpdateComment(ctx, "zzz", "x", "a@x.com"); !errors.Is(err, storage.ErrInvalidID) {
		t.Fatalf("want ErrInvalidID, got %v", err)
	}
}

// TestDeleteComment_OwnerOnly — удаляет только владелец; отказ не трогает запись.
func TestDeleteComment_OwnerOnly(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	created := mustAdd(t, m, models.Comment{
		MovieID: primitive.NewObjectID().Hex(),
		Email:   "owner@x.com",
		Text:    "keep me",
	})

	ok, err := m.DeleteComment(ctx, created.ID, "intruder@x.com")
	if err != nil {
		t.Fatalf("DeleteComment(wrong email) error: %v", err)
	}
	if ok {
		t.Fatalf("delete with wrong email must be refused")
	}

	if _, err := m.CommentByID(ctx, created.ID); err != nil {
		t.Fatalf("comment must survive refused delete: %v", err)
	}

	ok, err = m.DeleteComment(ctx, created.ID, "owner@x.com")
	if err != nil {
		t.Fatalf("DeleteComment(owner) error: %v", err)
	}
	if !ok {
		t.Fatalf("owner delete must succeed")
	}

	if _, err := m.CommentByID(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

// TestDeleteComment_MissingAndBadID — отсутствующая запись -> (false, nil);
// битый id -> ErrInvalidID.
func TestDeleteComment_MissingAndBadID(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	ok, err := m.DeleteComment(ctx, primitive.NewObjectID().Hex(), "a@x.com")
	if err != nil {
		t.Fatalf("DeleteComment(missing) error: %v", err)
	}
	if ok {
		t.Fatalf("delete of missing comment must be refused")
	}

	if _, err := m.DeleteComment(ctx, "zzz", "a@x.com"); !errors.Is(err, storage.ErrInvalidID) {
		t.Fatalf("want ErrInvalidID, got %v", err)
	}
}

// TestListByMovie_OrderAndLimit — сначала новые; лимит усечения соблюдается;
// чужие фильмы не попадают в выдачу.
func TestListByMovie_OrderAndLimit(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	movieID := primitive.NewObjectID().Hex()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		mustAdd(t, m, models.Comment{
			MovieID: movieID,
			Email:   "a@x.com",
			Text:    fmt.Sprintf("comment %d", i),
			Date:    base.Add(time.Duration(i) * time.Hour),
		})
	}

	// Комментарий к другому фильму не должен попасть в выдачу.
	mustAdd(t, m, models.Comment{
		MovieID: primitive.NewObjectID().Hex(),
		Email:   "b@x.com",
		Text:    "other movie",
	})

	items, err := m.ListByMovie(ctx, movieID, 0)
	if err != nil {
		t.Fatalf("ListByMovie error: %v", err)
	}

	if len(items) != 5 {
		t.Fatalf("len = %d, want 5", len(items))
	}

	for i := 1; i < len(items); i++ {
		if items[i].Date.After(items[i-1].Date) {
			t.Fatalf("order violated at %d: %v after %v", i, items[i].Date, items[i-1].Date)
		}
	}

	// Явный лимит.
	items, err = m.ListByMovie(ctx, movieID, 2)
	if err != nil {
		t.Fatalf("ListByMovie(limit=2) error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}

	if _, err := m.ListByMovie(ctx, "zzz", 0); !errors.Is(err, storage.ErrInvalidID) {
		t.Fatalf("want ErrInvalidID, got %v", err)
	}
}

// TestMostActiveCommenters_Scenario — a@x.com с двумя комментариями должен
// стоять выше b@x.com с одним; количества точные.
func TestMostActiveCommenters_Scenario(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	movieID := primitive.NewObjectID().Hex()
	mustAdd(t, m, models.Comment{MovieID: movieID, Email: "a@x.com", Text: "one"})
	mustAdd(t, m, models.Comment{MovieID: movieID, Email: "a@x.com", Text: "two"})
	mustAdd(t, m, models.Comment{MovieID: movieID, Email: "b@x.com", Text: "three"})

	critics, err := m.MostActiveCommenters(ctx)
	if err != nil {
		t.Fatalf("MostActiveCommenters error: %v", err)
	}

	if len(critics) != 2 {
		t.Fatalf("len = %d, want 2", len(critics))
	}

	if critics[0].ID != "a@x.com" || critics[0].NumComments != 2 {
		t.Fatalf("critics[0] = %+v, want {a@x.com 2}", critics[0])
	}

	if critics[1].ID != "b@x.com" || critics[1].NumComments != 1 {
		t.Fatalf("critics[1] = %+v, want {b@x.com 1}", critics[1])
	}
}

// TestMostActiveCommenters_TopTwenty — выдача усечена до 20 и не возрастает
// по количеству; пустая коллекция даёт пустой список.
func TestMostActiveCommenters_TopTwenty(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	critics, err := m.MostActiveCommenters(ctx)
	if err != nil {
		t.Fatalf("MostActiveCommenters(empty) error: %v", err)
	}
	if len(critics) != 0 {
		t.Fatalf("empty collection must yield empty rating, got %d", len(critics))
	}

	// 25 авторов, у автора i ровно i+1 комментариев.
	movieID := primitive.NewObjectID().Hex()
	for i := 0; i < 25; i++ {
		email := fmt.Sprintf("user%02d@x.com", i)
		for j := 0; j <= i; j++ {
			mustAdd(t, m, models.Comment{MovieID: movieID, Email: email, Text: "x"})
		}
	}

	critics, err = m.MostActiveCommenters(ctx)
	if err != nil {
		t.Fatalf("MostActiveCommenters error: %v", err)
	}

	if len(critics) != 20 {
		t.Fatalf("len = %d, want 20 (truncated)", len(critics))
	}

	for i := 1; i < len(critics); i++ {
		if critics[i].NumComments > critics[i-1].NumComments {
			t.Fatalf("order violated at %d: %d > %d", i, critics[i].NumComments, critics[i-1].NumComments)
		}
	}

	// Самый активный — user24 с 25 комментариями.
	if critics[0].ID != "user24@x.com" || critics[0].NumComments != 25 {
		t.Fatalf("critics[0] = %+v, want {user24@x.com 25}", critics[0])
	}
}

// TestEnsureIndexes — индекс movie_date_desc присутствует после подключения.
func TestEnsureIndexes(t *testing.T) {
	m := mustNewMongo(t, newTestConfig(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	cur, err := m.comments.Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list indexes: %v", err)
	}
	defer cur.Close(ctx)

	found := false
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("decode index: %v", err)
		}
		if name, _ := idx["name"].(string); name == "movie_date_desc" {
			found = true
		}
	}

	if !found {
		t.Fatalf("index movie_date_desc not found")
	}
}
