// Реализация HTTP-эндпоинтов сервиса комментариев.
//
// Маппинг ошибок сервиса в HTTP-статусы — см. internal/errors.
// Отказ по владению (update/delete вернули false без ошибки) — 403:
// это штатный отрицательный результат, а не сбой.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/movie-comments-service/internal/errors"
	"github.com/pribylovaa/movie-comments-service/internal/service"
)

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	Service *service.Service
}

func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{Service: svc}
}

// AddComment — POST /comments.
// Возвращает 201 и каноническую копию вставленной записи.
func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request) {
	var in AddCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	input := service.AddCommentInput{
		ID:      in.ID,
		MovieID: in.MovieID,
		Email:   in.Email,
		Name:    in.Name,
		Text:    in.Text,
	}
	if in.Date > 0 {
		input.Date = time.Unix(in.Date, 0).UTC()
	}

	res, err := h.Service.AddComment(r.Context(), input)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := fromModel(*res)
	writeJSON(w, http.StatusCreated, AddCommentResponse{Comment: &out})
}

// CommentByID — GET /comments/{id}.
func (h *Handlers) CommentByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	res, err := h.Service.CommentByID(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := fromModel(*res)
	writeJSON(w, http.StatusOK, GetCommentResponse{Comment: &out})
}

// UpdateComment — PATCH /comments/{id}.
// 204 при успехе; 403 — запись отсутствует либо email не совпал с владельцем.
func (h *Handlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in UpdateCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	ok, err := h.Service.UpdateComment(r.Context(), service.UpdateCommentInput{
		ID:    id,
		Text:  in.Text,
		Email: in.Email,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if !ok {
		apierrors.WriteStatus(w, r, http.StatusForbidden,
			"permission_denied", "not comment owner or comment missing")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteComment — DELETE /comments/{id}.
// Семантика ответа идентична UpdateComment.
func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var in DeleteCommentRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	ok, err := h.Service.DeleteComment(r.Context(), id, in.Email)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if !ok {
		apierrors.WriteStatus(w, r, http.StatusForbidden,
			"permission_denied", "not comment owner or comment missing")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByMovie — GET /movies/{movie_id}/comments?limit=N.
func (h *Handlers) ListByMovie(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movie_id")
	if movieID == "" {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	var limit int32
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			apierrors.WriteError(w, r, errInvalidArgument())
			return
		}

		limit = int32(n)
	}

	items, err := h.Service.ListByMovie(r.Context(), service.ListByMovieInput{
		MovieID: movieID,
		Limit:   limit,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]Comment, 0, len(items))
	for i := range items {
		out = append(out, fromModel(items[i]))
	}

	writeJSON(w, http.StatusOK, ListByMovieResponse{Comments: out})
}

// MostActiveCommenters — GET /comments/most-active.
// Всегда 200; пустая коллекция — пустой список.
func (h *Handlers) MostActiveCommenters(w http.ResponseWriter, r *http.Request) {
	critics, err := h.Service.MostActiveCommenters(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]Critic, 0, len(critics))
	for _, c := range critics {
		out = append(out, Critic{ID: c.ID, NumComments: c.NumComments})
	}

	writeJSON(w, http.StatusOK, MostActiveResponse{Critics: out})
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// errInvalidArgument — вспомогалка: локальная ошибка парсинга -> 400.
func errInvalidArgument() error {
	return fmt.Errorf("transport: %w", service.ErrInvalidArgument)
}
