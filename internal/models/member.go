// Package models содержит доменные структуры клуба: участников, предложения,
// абонементы, платежи и групповые занятия. Структуры используются в бизнес-логике,
// хранилище и при сериализации событий.
package models

import "time"

// Member представляет участника клуба.
type Member struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}
