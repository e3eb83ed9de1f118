package domain

import (
	"fmt"
	"strings"
)

// ChoicesPerQuestion is the number of options every stored question carries.
const ChoicesPerQuestion = 4

type Question struct {
	Id           int64
	Text         string
	Options      []string
	CorrectIndex int
}

func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidQuestion)
	}
	if len(q.Options) != ChoicesPerQuestion {
		return fmt.Errorf("%w: want %d options, got %d", ErrInvalidQuestion, ChoicesPerQuestion, len(q.Options))
	}
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("%w: empty option", ErrInvalidQuestion)
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("%w: correct index %d out of range", ErrInvalidQuestion, q.CorrectIndex)
	}
	return nil
}
