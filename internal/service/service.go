// service содержит бизнес-логику сервиса комментариев.
package service

import (
	"errors"

	"github.com/pribylovaa/movie-comments-service/internal/config"
	"github.com/pribylovaa/movie-comments-service/internal/storage"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID — строка идентификатора не является валидным ObjectID.
	ErrInvalidID = errors.New("invalid id")
	// ErrConflict — конфликт уникальности (дубликат идентификатора).
	ErrConflict = errors.New("conflict")
	// ErrInvalidOperation — запись отклонена или не подтвердилась контрольным чтением.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrInvalidArgument — неверные входные параметры запроса к сервису.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInternal — внутренняя ошибка (сторадж/БД/контекст/и т.д.).
	ErrInternal = errors.New("internal")
)

// Service — бизнес-логика операций над комментариями.
type Service struct {
	storage storage.Storage
	cfg     config.Config
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.Config) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}
