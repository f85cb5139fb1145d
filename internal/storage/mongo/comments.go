package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/movie-comments-service/internal/config"
	"github.com/pribylovaa/movie-comments-service/internal/models"
	"github.com/pribylovaa/movie-comments-service/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mostActiveLimit — размер выборки «самых активных»; выдача всегда усечена сверху.
const mostActiveLimit = 20

// commentDoc — представление документа коллекции comments.
// Идентификаторы храним как ObjectID, наружу (в доменную модель) отдаём hex.
type commentDoc struct {
	ID      primitive.ObjectID `bson:"_id"`
	MovieID primitive.ObjectID `bson:"movie_id"`
	Email   string             `bson:"email"`
	Name    string             `bson:"name"`
	Text    string             `bson:"text"`
	Date    time.Time          `bson:"date"`
}

// toModel конвертирует документ в доменную модель с нормализацией времени.
func (d commentDoc) toModel() models.Comment {
	return models.Comment{
		ID:      d.ID.Hex(),
		MovieID: d.MovieID.Hex(),
		Email:   d.Email,
		Name:    d.Name,
		Text:    d.Text,
		Date:    d.Date.UTC(),
	}
}

// toMS — MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// limitOrDefault приводит запрошенный размер выборки к [Default, Max].
func limitOrDefault(cfg *config.Config, limit int32) int64 {
	lim := limit
	if lim <= 0 {
		lim = cfg.Limits.Default
	}

	if lim > cfg.Limits.Max {
		lim = cfg.Limits.Max
	}

	return int64(lim)
}

// CommentByID возвращает комментарий по hex-идентификатору.
// Некорректный формат id — storage.ErrInvalidID (до обращения к БД);
// запись не найдена — storage.ErrNotFound.
func (m *Mongo) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage/mongo/CommentByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidID)
	}

	var doc commentDoc
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := doc.toModel()
	return &out, nil
}

// AddComment вставляет комментарий и возвращает его каноническую копию.
//   - Пустой ID — генерируем ObjectID на стороне клиента; к моменту записи
//     идентификатор обязан быть установлен.
//   - Пустая Date — текущее время.
//   - Возвращаемое значение всегда перечитывается из БД после вставки: так
//     результат отражает ровно то, что сохранено (включая усечение времени
//     до миллисекунд), а не входной объект.
func (m *Mongo) AddComment(ctx context.Context, comm models.Comment) (*models.Comment, error) {
	const op = "storage/mongo/AddComment"

	oid := primitive.NewObjectID()
	if s := strings.TrimSpace(comm.ID); s != "" {
		var err error
		oid, err = primitive.ObjectIDFromHex(s)
		if err != nil {
			// Предзаданный id не разбирается — установить идентификатор нельзя.
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidOperation)
		}
	}

	movieOID, err := primitive.ObjectIDFromHex(strings.TrimSpace(comm.MovieID))
	if err != nil {
		return nil, fmt.Errorf("%s: movie_id: %w", op, storage.ErrInvalidID)
	}

	date := toMS(comm.Date)
	if comm.Date.IsZero() {
		date = toMS(time.Now())
	}

	doc := commentDoc{
		ID:      oid,
		MovieID: movieOID,
		Email:   comm.Email,
		Name:    comm.Name,
		Text:    comm.Text,
		Date:    date,
	}

	if _, err := m.comments.InsertOne(ctx, doc); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrConflict)
		}

		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	// Контрольное чтение: не доверяем клиентским конверсиям полей.
	var inserted commentDoc
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&inserted); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			// Вставка «молча» не состоялась — не маскируем как успех.
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidOperation)
		}

		return nil, fmt.Errorf("%s: read back: %w", op, err)
	}

	out := inserted.toModel()
	return &out, nil
}

// UpdateComment меняет текст и дату комментария одним атомарным $set,
// предварительно сверив email владельца.
// Отрицательные исходы (нет записи, чужой email, ни одного изменённого
// документа) — обычный (false, nil), не ошибка: вызывающая сторона штатно
// пробует чужие/устаревшие идентификаторы.
func (m *Mongo) UpdateComment(ctx context.Context, id, text, email string) (bool, error) {
	const op = "storage/mongo/UpdateComment"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, storage.ErrInvalidID)
	}

	var current commentDoc
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&current); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return false, nil
		}

		return false, fmt.Errorf("%s: find: %w", op, err)
	}

	// Сравнение строгое, с учётом регистра.
	if current.Email != email {
		return false, nil
	}

	res, err := m.comments.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "text", Value: text},
			{Key: "date", Value: toMS(time.Now())},
		}}},
	)
	if err != nil {
		return false, fmt.Errorf("%s: update: %w", op, err)
	}

	// Гонка «документ удалили между чтением и записью» проявится как
	// modifiedCount == 0 — это штатный отказ, не сбой.
	return res.ModifiedCount > 0, nil
}

// DeleteComment удаляет комментарий по той же схеме владения, что и UpdateComment.
func (m *Mongo) DeleteComment(ctx context.Context, id, email string) (bool, error) {
	const op = "storage/mongo/DeleteComment"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, storage.ErrInvalidID)
	}

	query := bson.D{{Key: "_id", Value: oid}}

	var current commentDoc
	if err := m.comments.FindOne(ctx, query).Decode(&current); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return false, nil
		}

		return false, fmt.Errorf("%s: find: %w", op, err)
	}

	if current.Email != email {
		return false, nil
	}

	res, err := m.comments.DeleteOne(ctx, query)
	if err != nil {
		return false, fmt.Errorf("%s: delete: %w", op, err)
	}

	return res.DeletedCount == 1, nil
}

// ListByMovie возвращает комментарии одного фильма, сначала новые
// (date DESC, _id DESC для стабильности при равных датах).
func (m *Mongo) ListByMovie(ctx context.Context, movieID string, limit int32) ([]models.Comment, error) {
	const op = "storage/mongo/ListByMovie"

	movieOID, err := primitive.ObjectIDFromHex(strings.TrimSpace(movieID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidID)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limitOrDefault(m.cfg, limit))

	cur, err := m.comments.Find(ctx, bson.D{{Key: "movie_id", Value: movieOID}}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Comment
	for cur.Next(ctx) {
		var doc commentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, doc.toModel())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// MostActiveCommenters группирует коллекцию по email, сортирует по убыванию
// количества и усекает до 20 записей. Порядок внутри равных количеств не
// детерминирован — разрешение ничьих отдано хранилищу.
func (m *Mongo) MostActiveCommenters(ctx context.Context) ([]models.Critic, error) {
	const op = "storage/mongo/MostActiveCommenters"

	pipeline := mongodriver.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$email"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		bson.D{{Key: "$limit", Value: mostActiveLimit}},
	}

	cur, err := m.comments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%s: aggregate: %w", op, err)
	}
	defer cur.Close(ctx)

	critics := make([]models.Critic, 0, mostActiveLimit)
	for cur.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int32  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		critics = append(critics, models.Critic{ID: row.ID, NumComments: row.Count})
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return critics, nil
}
