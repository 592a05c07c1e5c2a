package service

import "errors"

// Доменные ошибки; контроллер переводит их в ответы пользователю
var (
	// ErrSlotUnavailable слот заблокирован, в прошлом или уже занят
	ErrSlotUnavailable = errors.New("slot is not available")
	// ErrSlotOpen слот свободен — очередь ожидания не нужна, надо бронировать
	ErrSlotOpen = errors.New("slot is open for booking")
	// ErrInvalidTransition недопустимый переход статуса заявки
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotCancelable заявку нельзя отменить: статус терминальный или встреча уже началась
	ErrNotCancelable = errors.New("appointment is not cancelable")
	// ErrDuplicateEntry запись уже существует
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("not found")
	// ErrForbidden действие запрещено для этого пользователя
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput некорректные входные данные
	ErrInvalidInput = errors.New("invalid input")
)
