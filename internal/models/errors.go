package models

import "errors"

// Ошибки предметной области. Сервисы возвращают их как есть или обёрнутыми через %w,
// HTTP-слой сопоставляет их с кодами ответа через errors.Is.
var (
	// ErrMemberNotFound участник клуба не найден
	ErrMemberNotFound = errors.New("member not found")

	// ErrOfferNotFound предложение не найдено или неактивно
	ErrOfferNotFound = errors.New("offer not found")

	// ErrPassAlreadyExists у участника уже есть активный абонемент
	ErrPassAlreadyExists = errors.New("pass already exists")

	// ErrPassNotFound у участника нет активного абонемента
	ErrPassNotFound = errors.New("pass not found")

	// ErrNoPaymentMethod у участника не сохранена карта
	ErrNoPaymentMethod = errors.New("no payment method")

	// ErrPaymentMethodExpired срок действия сохранённой карты истёк
	ErrPaymentMethodExpired = errors.New("payment method expired")

	// ErrInvalidCard данные карты не прошли проверку
	ErrInvalidCard = errors.New("invalid card")

	// ErrNoActivePass запись на занятие без активного абонемента
	ErrNoActivePass = errors.New("no active pass")

	// ErrClassNotFound групповое занятие не найдено
	ErrClassNotFound = errors.New("group class not found")

	// ErrClassFull достигнут лимит участников занятия
	ErrClassFull = errors.New("group class is full")

	// ErrClassStarted занятие уже началось или прошло
	ErrClassStarted = errors.New("group class already started")

	// ErrAlreadyEnrolled участник уже записан на занятие
	ErrAlreadyEnrolled = errors.New("already enrolled")

	// ErrNotEnrolled участник не записан на занятие
	ErrNotEnrolled = errors.New("not enrolled")
)
