package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/movie-comments-service/internal/models"
	"github.com/pribylovaa/movie-comments-service/internal/storage"
	"github.com/pribylovaa/movie-comments-service/pkg/log"
)

// Входные структуры сервисного слоя.

// AddCommentInput — создание комментария.
// Правила:
//   - обязательны: MovieID, Email, Text;
//   - ID опционален: пустой — сгенерирует хранилище (клиентская генерация ObjectID);
//   - Date опциональна: пустая — текущее время на момент записи.
type AddCommentInput struct {
	ID      string
	MovieID string
	Email   string
	Name    string
	Text    string
	Date    time.Time
}

// UpdateCommentInput — правка текста существующего комментария.
// Email — заявка на владение: правка выполняется только при точном совпадении
// с email автора записи.
type UpdateCommentInput struct {
	ID    string
	Text  string
	Email string
}

// ListByMovieInput — параметры выдачи комментариев по фильму.
type ListByMovieInput struct {
	MovieID string
	Limit   int32
}

// CommentByID — получить комментарий по ID.
//
// Валидация:
//   - id не должен быть пустым.
//
// Поведение/ошибки:
//   - ErrInvalidID — некорректный формат идентификатора;
//   - ErrNotFound — комментарий не найден;
//   - ErrInternal — иные ошибки стораджа.
func (s *Service) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "service/comments/CommentByID"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	result, err := s.storage.CommentByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidID):
			lg.Warn("malformed comment id")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidID)
		case errors.Is(err, storage.ErrNotFound):
			lg.Warn("comment not found")
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		default:
			lg.Error("storage error on CommentByID", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return result, nil
}

// AddComment — бизнес-операция создания комментария.
//
// Валидация:
//   - MovieID, Email, Text нормализуются (TrimSpace) и не должны быть пустыми;
//   - Name нормализуется, может быть пустым (отображаемое имя денормализовано
//     и целостность с таблицей пользователей не гарантируется).
//
// Поведение/ошибки:
//   - ErrInvalidID — битый MovieID;
//   - ErrConflict — дубликат идентификатора;
//   - ErrInvalidOperation — вставка отклонена или не подтвердилась;
//   - ErrInternal — прочие ошибки стораджа/БД/контекста.
//
// Возвращает каноническую копию вставленной записи (перечитанную из БД).
func (s *Service) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	const op = "service/comments/AddComment"

	lg := log.From(ctx).With(
		"op", op,
		"movie_id", in.MovieID,
		"email", in.Email,
	)

	in.MovieID = strings.TrimSpace(in.MovieID)
	if in.MovieID == "" {
		lg.Warn("invalid argument: empty movie_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		lg.Warn("invalid argument: empty email")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		lg.Warn("invalid argument: empty text")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	comm := models.Comment{
		ID:      strings.TrimSpace(in.ID),
		MovieID: in.MovieID,
		Email:   in.Email,
		Name:    strings.TrimSpace(in.Name),
		Text:    in.Text,
		Date:    in.Date,
	}

	result, err := s.storage.AddComment(ctx, comm)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidID):
			lg.Warn("malformed movie id")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidID)
		case errors.Is(err, storage.ErrConflict):
			lg.Warn("duplicate comment id")
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		case errors.Is(err, storage.ErrInvalidOperation):
			lg.Error("insert rejected or not verified", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidOperation)
		default:
			lg.Error("storage error on AddComment", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return result, nil
}

// UpdateComment — правка текста комментария с проверкой владения.
//
// Валидация:
//   - ID, Text, Email не должны быть пустыми.
//
// Поведение/ошибки:
//   - (false, nil) — запись отсутствует либо email не совпал с владельцем:
//     штатный отрицательный результат, не ошибка;
//   - ErrInvalidID — некорректный формат идентификатора;
//   - ErrInternal — иные ошибки стораджа.
func (s *Service) UpdateComment(ctx context.Context, in UpdateCommentInput) (bool, error) {
	const op = "service/comments/UpdateComment"

	in.ID = strings.TrimSpace(in.ID)
	lg := log.From(ctx).With("op", op, "id", in.ID, "email", in.Email)

	if in.ID == "" {
		lg.Warn("invalid argument: empty id")
		return false, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		lg.Warn("invalid argument: empty text")
		return false, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if strings.TrimSpace(in.Email) == "" {
		lg.Warn("invalid argument: empty email")
		return false, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	ok, err := s.storage.UpdateComment(ctx, in.ID, in.Text, in.Email)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidID):
			lg.Warn("malformed comment id")
			return false, fmt.Errorf("%s: %w", op, ErrInvalidID)
		default:
			lg.Error("storage error on UpdateComment", "err", err)
			return false, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	if !ok {
		lg.Warn("comment not updated: missing or not owned by requester")
	}

	return ok, nil
}

// DeleteComment — удаление комментария с проверкой владения.
// Семантика результата идентична UpdateComment: (false, nil) — отказ по
// отсутствию записи или чужому email.
func (s *Service) DeleteComment(ctx context.Context, id, email string) (bool, error) {
	const op = "service/comments/DeleteComment"

	id = strings.TrimSpace(id)
	lg := log.From(ctx).With("op", op, "id", id, "email", email)

	if id == "" {
		lg.Warn("invalid argument: empty id")
		return false, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if strings.TrimSpace(email) == "" {
		lg.Warn("invalid argument: empty email")
		return false, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	ok, err := s.storage.DeleteComment(ctx, id, email)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidID):
			lg.Warn("malformed comment id")
			return false, fmt.Errorf("%s: %w", op, ErrInvalidID)
		default:
			lg.Error("storage error on DeleteComment", "err", err)
			return false, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	if !ok {
		lg.Warn("comment not deleted: missing or not owned by requester")
	}

	return ok, nil
}

// ListByMovie — комментарии одного фильма, сначала новые.
//
// Валидация:
//   - MovieID не должен быть пустым.
//
// Поведение/ошибки:
//   - ErrInvalidID — битый MovieID;
//   - ErrInternal — иные ошибки стораджа.
func (s *Service) ListByMovie(ctx context.Context, in ListByMovieInput) ([]models.Comment, error) {
	const op = "service/comments/ListByMovie"

	in.MovieID = strings.TrimSpace(in.MovieID)
	lg := log.From(ctx).With("op", op, "movie_id", in.MovieID)

	if in.MovieID == "" {
		lg.Warn("invalid argument: empty movie_id")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	items, err := s.storage.ListByMovie(ctx, in.MovieID, in.Limit)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidID):
			lg.Warn("malformed movie id")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidID)
		default:
			lg.Error("storage error on ListByMovie", "err", err)
			return nil, fmt.Errorf("%s: %w", op, ErrInternal)
		}
	}

	return items, nil
}

// MostActiveCommenters — рейтинг самых активных комментаторов (до 20 записей,
// по убыванию количества). Пустая коллекция — пустой список, это не ошибка.
func (s *Service) MostActiveCommenters(ctx context.Context) ([]models.Critic, error) {
	const op = "service/comments/MostActiveCommenters"

	lg := log.From(ctx).With("op", op)

	critics, err := s.storage.MostActiveCommenters(ctx)
	if err != nil {
		lg.Error("storage error on MostActiveCommenters", "err", err)
		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return critics, nil
}
