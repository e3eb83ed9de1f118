package game

import "errors"

var (
	ErrRoomNotFound    = errors.New("room-not-found")
	ErrRoomExists      = errors.New("room-exists")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidPhase    = errors.New("invalid-phase")
	ErrNotInRoom       = errors.New("not-in-room")
	ErrInvalidJoker    = errors.New("invalid-joker")
	ErrJokerSpent      = errors.New("joker-already-used")
	ErrJokerLocked     = errors.New("joker-locked-this-round")
	ErrInvalidChoice   = errors.New("invalid-choice")
	ErrAlreadyAnswered = errors.New("already-answered")
	ErrNoQuestions     = errors.New("no-questions")
	ErrInvalidSettings = errors.New("invalid-settings")
	ErrInvalidConfig   = errors.New("invalid-game-config")
)
