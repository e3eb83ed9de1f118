package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/jkobber/bubble-quiz/game"
)

const unknownErrorCode = "unknown-error"

// clientErrors are reported to the acting connection only.
var clientErrors = []error{
	game.ErrRoomNotFound,
	game.ErrUnauthorized,
	game.ErrNotInRoom,
	game.ErrInvalidJoker,
	game.ErrJokerSpent,
	game.ErrJokerLocked,
	game.ErrInvalidChoice,
	game.ErrNoQuestions,
	game.ErrInvalidSettings,
	game.ErrInvalidConfig,
	ErrMalformedEvent,
	ErrUnknownEvent,
	ErrMissingCode,
	ErrRateLimited,
}

// silentErrors are expected under normal UI races and never reported.
var silentErrors = []error{
	game.ErrInvalidPhase,
	game.ErrAlreadyAnswered,
}

func (g *Gateway) dispatch(ctx context.Context, cl *client, data []byte) {
	ev, err := parseEvent(data)
	if err == nil {
		err = g.handle(ctx, cl, ev)
	}
	g.report(cl, err)
}

func (g *Gateway) handle(ctx context.Context, cl *client, ev inbound) error {
	switch e := ev.(type) {
	case *pingEvent:
		g.hub.Send(cl.id, game.Event{Type: game.EventPong})
		return nil

	case *createRoomEvent:
		g.leave(cl)
		session, err := g.coord.CreateRoom(game.Member{
			ConnID: cl.id,
			Token:  cl.playerToken(e.Token),
			Name:   cl.defaultName(e.Name),
			Avatar: e.Avatar,
		})
		if err != nil {
			return err
		}
		cl.bind(session)
		return nil

	case *joinRoomEvent:
		if cl.tokenFor(e.Code) == "" {
			g.leave(cl)
		}
		session, err := g.coord.JoinRoom(e.Code, game.Member{
			ConnID: cl.id,
			Token:  cl.playerToken(e.Token),
			Name:   cl.defaultName(e.Name),
			Avatar: e.Avatar,
		})
		if err != nil {
			return err
		}
		cl.bind(session)
		return nil

	case *startGameEvent:
		return g.coord.StartGame(ctx, e.Code, cl.tokenFor(e.Code), e.Config)

	case *updateSettingsEvent:
		return g.coord.UpdateSettings(e.Code, cl.tokenFor(e.Code), e.Settings)

	case *submitAnswerEvent:
		return g.coord.SubmitAnswer(e.Code, cl.tokenFor(e.Code), *e.Choice)

	case *useJokerEvent:
		return g.coord.UsePowerUp(e.Code, cl.tokenFor(e.Code), e.Kind)

	case *roomEvent:
		return g.handleRoomEvent(ctx, cl, e)
	}
	return ErrUnknownEvent
}

func (g *Gateway) handleRoomEvent(ctx context.Context, cl *client, e *roomEvent) error {
	token := cl.tokenFor(e.Code)
	switch e.kind {
	case EventPauseTimer:
		return g.coord.Pause(e.Code, token)
	case EventResumeTimer:
		return g.coord.Resume(e.Code, token)
	case EventSkipPhase:
		return g.coord.SkipPhase(ctx, e.Code, token)
	case EventDeleteRoom:
		existed, err := g.coord.DeleteRoom(e.Code, token)
		if err != nil {
			return err
		}
		if !existed {
			g.hub.Send(cl.id, game.Event{Type: game.EventRoomDeleted, Payload: game.DeletedPayload{Code: strings.ToUpper(strings.TrimSpace(e.Code))}})
		}
		if token != "" {
			cl.unbind()
		}
		return nil
	}
	return ErrUnknownEvent
}

// leave detaches the connection from its current room before it binds to
// another one.
func (g *Gateway) leave(cl *client) {
	if cl.code == "" {
		return
	}
	g.coord.Disconnect(cl.code, cl.token, cl.id)
	cl.unbind()
}

func (g *Gateway) report(cl *client, err error) {
	if err == nil {
		return
	}
	for _, silent := range silentErrors {
		if errors.Is(err, silent) {
			g.log.Debug().Err(err).Str("conn", cl.id).Msg("ignored event")
			return
		}
	}
	g.sendError(cl, err)
}

func (g *Gateway) sendError(cl *client, err error) {
	payload := game.ErrorPayload{Code: unknownErrorCode}
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			payload.Code = known.Error()
			if err != known {
				payload.Message = err.Error()
			}
			break
		}
	}
	if payload.Code == unknownErrorCode {
		g.log.Error().Err(err).Str("conn", cl.id).Str("room", cl.code).Msg("event failed")
	}
	g.hub.Send(cl.id, game.Event{Type: game.EventError, Payload: payload})
}
