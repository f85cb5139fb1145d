// Package models содержит доменные сущности сервиса комментариев.
package models

import (
	"time"
)

// Comment — внутренняя доменная модель комментария к фильму (MongoDB).
// Важно:
//   - ID — ObjectID MongoDB в hex-представлении; генерируется на стороне
//     клиента при вставке, неизменен в течение жизни записи.
//   - MovieID — ссылка на фильм (ObjectID в hex); существование фильма
//     при записи не проверяется.
//   - Email — единственный признак владения: правки и удаление разрешены
//     только при точном (с учётом регистра) совпадении.
//   - Date — время создания либо последней правки текста; при каждой
//     успешной правке безусловно обновляется на текущее.
type Comment struct {
	ID      string
	MovieID string
	Email   string
	Name    string
	Text    string
	Date    time.Time
}

// Critic — производный результат агрегации «самые активные комментаторы».
// Не имеет собственного жизненного цикла: собирается заново на каждый запрос
// и нигде не сохраняется.
type Critic struct {
	ID          string
	NumComments int32
}
