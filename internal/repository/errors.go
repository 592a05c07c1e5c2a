package repository

import "errors"

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate нарушение уникальности
	ErrDuplicate = errors.New("duplicate record")
	// ErrStatusConflict условное обновление не затронуло ни одной строки:
	// статус записи изменился между чтением и записью
	ErrStatusConflict = errors.New("status conflict")
)
