package commands

import "errors"

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrNotOwner      = errors.New("user does not own this habit")
	ErrInvalidInput  = errors.New("invalid input")
)
