package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/movie-comments-service/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID — строка идентификатора не является валидным ObjectID;
	// отбраковывается до обращения к БД.
	ErrInvalidID = errors.New("invalid id")
	// ErrConflict — вставка отклонена хранилищем (дубликат _id).
	ErrConflict = errors.New("conflict")
	// ErrInvalidOperation — запись не может быть выполнена корректно:
	// не удалось установить id перед вставкой либо контрольное чтение
	// после вставки не нашло документ.
	ErrInvalidOperation = errors.New("invalid operation")
)

// Storage описывает операции над комментариями.
type Storage interface {
	// CommentByID возвращает комментарий по его hex-идентификатору.
	// Некорректный формат id — ErrInvalidID; запись не найдена — ErrNotFound.
	CommentByID(ctx context.Context, id string) (*models.Comment, error)

	// AddComment вставляет новый комментарий. Если ID пуст — генерирует
	// ObjectID на стороне клиента; пустой ID к моменту вставки невозможен.
	// Date по умолчанию — текущее время. Возвращаемое значение — всегда
	// свежепрочитанное из БД состояние, а не входной объект.
	// Возможные ошибки: ErrInvalidID (битый ID/MovieID),
	// ErrConflict (дубликат _id), ErrInvalidOperation (вставка «молча» не удалась).
	AddComment(ctx context.Context, comment models.Comment) (*models.Comment, error)

	// UpdateComment меняет текст комментария и обновляет date одним $set.
	// Отсутствие записи и несовпадение email владельца — обычный отрицательный
	// результат (false, nil), не ошибка. true — только если хранилище
	// отрапортовало modifiedCount > 0.
	UpdateComment(ctx context.Context, id, text, email string) (bool, error)

	// DeleteComment удаляет комментарий по той же схеме владения, что и
	// UpdateComment. true — только если удалён ровно один документ.
	DeleteComment(ctx context.Context, id, email string) (bool, error)

	// ListByMovie возвращает комментарии одного фильма, сначала новые.
	// limit <= 0 — дефолт из конфига, сверху ограничен максимумом.
	ListByMovie(ctx context.Context, movieID string, limit int32) ([]models.Comment, error)

	// MostActiveCommenters возвращает до 20 самых активных комментаторов
	// по убыванию числа комментариев. Пустая коллекция — пустой список.
	MostActiveCommenters(ctx context.Context) ([]models.Critic, error)
}
