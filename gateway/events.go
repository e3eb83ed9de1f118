package gateway

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jkobber/bubble-quiz/game"
)

var (
	ErrMalformedEvent = errors.New("malformed-event")
	ErrUnknownEvent   = errors.New("unknown-event")
	ErrMissingCode    = errors.New("missing-room-code")
	ErrRateLimited    = errors.New("rate-limited")
)

const (
	EventCreateRoom     = "create_room"
	EventJoinRoom       = "join_room"
	EventStartGame      = "start_game"
	EventUpdateSettings = "update_settings"
	EventSubmitAnswer   = "submit_answer"
	EventUseJoker       = "use_joker"
	EventPauseTimer     = "pause_timer"
	EventResumeTimer    = "resume_timer"
	EventSkipPhase      = "skip_phase"
	EventDeleteRoom     = "delete_room"
	EventPing           = "ping"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// inbound is an event decoded and validated at the connection boundary.
type inbound interface {
	validate() error
}

type createRoomEvent struct {
	Token  string `json:"token"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type joinRoomEvent struct {
	Code   string `json:"code"`
	Token  string `json:"token"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type startGameEvent struct {
	Code   string          `json:"code"`
	Config game.GameConfig `json:"config"`
}

type updateSettingsEvent struct {
	Code     string             `json:"code"`
	Settings game.SettingsPatch `json:"settings"`
}

type submitAnswerEvent struct {
	Code   string `json:"code"`
	Choice *int   `json:"choice"`
}

type useJokerEvent struct {
	Code string       `json:"code"`
	Kind game.PowerUp `json:"kind"`
}

// roomEvent covers the host actions that only name a room.
type roomEvent struct {
	kind string
	Code string `json:"code"`
}

type pingEvent struct{}

func requireCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrMissingCode
	}
	return nil
}

func (e *createRoomEvent) validate() error {
	e.Name = sanitizeName(e.Name)
	e.Avatar = sanitizeAvatar(e.Avatar)
	return nil
}

func (e *joinRoomEvent) validate() error {
	e.Name = sanitizeName(e.Name)
	e.Avatar = sanitizeAvatar(e.Avatar)
	return requireCode(e.Code)
}

func (e *startGameEvent) validate() error      { return requireCode(e.Code) }
func (e *updateSettingsEvent) validate() error { return requireCode(e.Code) }
func (e *roomEvent) validate() error           { return requireCode(e.Code) }
func (e *pingEvent) validate() error           { return nil }

func (e *submitAnswerEvent) validate() error {
	if e.Choice == nil {
		return ErrMalformedEvent
	}
	return requireCode(e.Code)
}

func (e *useJokerEvent) validate() error {
	if !e.Kind.Valid() {
		return game.ErrInvalidJoker
	}
	return requireCode(e.Code)
}

func parseEvent(data []byte) (inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformedEvent
	}

	var ev inbound
	switch env.Type {
	case EventCreateRoom:
		ev = &createRoomEvent{}
	case EventJoinRoom:
		ev = &joinRoomEvent{}
	case EventStartGame:
		ev = &startGameEvent{}
	case EventUpdateSettings:
		ev = &updateSettingsEvent{}
	case EventSubmitAnswer:
		ev = &submitAnswerEvent{}
	case EventUseJoker:
		ev = &useJokerEvent{}
	case EventPauseTimer, EventResumeTimer, EventSkipPhase, EventDeleteRoom:
		ev = &roomEvent{kind: env.Type}
	case EventPing:
		ev = &pingEvent{}
	default:
		return nil, ErrUnknownEvent
	}

	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, ev); err != nil {
			return nil, ErrMalformedEvent
		}
	}
	if err := ev.validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// sanitizeName trims and truncates; an empty result lets the room pick a default.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > game.MaxNameLength {
		name = string([]rune(name)[:game.MaxNameLength])
	}
	return name
}

func sanitizeAvatar(avatar string) string {
	if game.ValidAvatar(avatar) {
		return avatar
	}
	return ""
}
