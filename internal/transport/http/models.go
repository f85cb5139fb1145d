package http

import "github.com/pribylovaa/movie-comments-service/internal/models"

// Comment — представление комментария в JSON API.
type Comment struct {
	ID      string `json:"id"` // Mongo ObjectID
	MovieID string `json:"movie_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Text    string `json:"text"`
	Date    int64  `json:"date"` // Unix UTC
}

// Создание комментария.
type AddCommentRequest struct {
	ID      string `json:"id,omitempty"` // опционально: предзаданный ObjectID
	MovieID string `json:"movie_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Text    string `json:"text"`
	Date    int64  `json:"date,omitempty"` // Unix UTC; 0 — проставит хранилище
}

type AddCommentResponse struct {
	Comment *Comment `json:"comment"`
}

type GetCommentResponse struct {
	Comment *Comment `json:"comment"`
}

// Правка текста: email — заявка на владение.
type UpdateCommentRequest struct {
	Text  string `json:"text"`
	Email string `json:"email"`
}

// Удаление: email — заявка на владение.
type DeleteCommentRequest struct {
	Email string `json:"email"`
}

// Комментарии одного фильма.
type ListByMovieResponse struct {
	Comments []Comment `json:"comments"`
}

// Critic — строка рейтинга самых активных комментаторов.
type Critic struct {
	ID          string `json:"id"` // email группировки
	NumComments int32  `json:"num_comments"`
}

type MostActiveResponse struct {
	Critics []Critic `json:"critics"`
}

// fromModel — конвертация доменной модели в JSON-представление.
func fromModel(c models.Comment) Comment {
	return Comment{
		ID:      c.ID,
		MovieID: c.MovieID,
		Email:   c.Email,
		Name:    c.Name,
		Text:    c.Text,
		Date:    c.Date.UTC().Unix(),
	}
}
