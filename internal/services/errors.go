package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoEntries    = errors.New("no published journal entries")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// invalidBecause marks err as bad input while keeping it in the chain.
func invalidBecause(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// notFound maps a gorm miss onto ErrNotFound and leaves other errors as they are.
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}
