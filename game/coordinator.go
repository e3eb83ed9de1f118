package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jkobber/bubble-quiz/domain"
	"github.com/rs/zerolog"
)

const maxCodeAttempts = 16

// QuestionStore loads full questions by id.
type QuestionStore interface {
	GetQuestionsByIds(ctx context.Context, ids []int64) ([]domain.Question, error)
}

type Options struct {
	TickInterval      time.Duration
	InactivityTimeout time.Duration
	JanitorInterval   time.Duration
	StoreTimeout      time.Duration
	Now               func() time.Time
	Logger            zerolog.Logger
}

func DefaultOptions() Options {
	return Options{
		TickInterval:      time.Second,
		InactivityTimeout: 10 * time.Minute,
		JanitorInterval:   time.Minute,
		StoreTimeout:      5 * time.Second,
		Now:               time.Now,
		Logger:            zerolog.Nop(),
	}
}

// Member identifies a connection acting as a player.
type Member struct {
	ConnID string
	Token  string
	Name   string
	Avatar string
}

type Session struct {
	Code     string
	Token    string
	PlayerId string
}

// Coordinator is the single authority over all rooms. Every transition on a
// room and the broadcast that follows it run under that room's lock.
type Coordinator struct {
	rooms     *Registry
	selector  *Selector
	questions QuestionStore
	sender    Sender
	tickers   TickerCreator
	codes     CodeGenerator
	opts      Options
	log       zerolog.Logger
	timers    sync.WaitGroup
}

func NewCoordinator(rooms *Registry, selector *Selector, questions QuestionStore, sender Sender, tickers TickerCreator, codes CodeGenerator, opts Options) *Coordinator {
	defaults := DefaultOptions()
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaults.TickInterval
	}
	if opts.InactivityTimeout <= 0 {
		opts.InactivityTimeout = defaults.InactivityTimeout
	}
	if opts.JanitorInterval <= 0 {
		opts.JanitorInterval = defaults.JanitorInterval
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaults.StoreTimeout
	}
	if opts.Now == nil {
		opts.Now = defaults.Now
	}

	return &Coordinator{
		rooms:     rooms,
		selector:  selector,
		questions: questions,
		sender:    sender,
		tickers:   tickers,
		codes:     codes,
		opts:      opts,
		log:       opts.Logger,
	}
}

func (c *Coordinator) now() time.Time {
	return c.opts.Now()
}

// lockRoom returns the room with its lock held. Deleted rooms count as absent.
func (c *Coordinator) lockRoom(code string) (*Room, error) {
	r, ok := c.rooms.Get(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	r.mu.Lock()
	if r.removed {
		r.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	return r, nil
}

func (c *Coordinator) CreateRoom(m Member) (Session, error) {
	if m.Token == "" {
		m.Token = uuid.NewString()
	}
	now := c.now()

	var r *Room
	for attempt := 0; r == nil; attempt++ {
		if attempt == maxCodeAttempts {
			return Session{}, ErrRoomExists
		}
		code, err := c.codes.Generate()
		if err != nil {
			return Session{}, err
		}
		r, err = c.rooms.Create(code, m.Token, now)
		if err != nil && !errors.Is(err, ErrRoomExists) {
			return Session{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.join(m, now)
	session := Session{Code: r.code, Token: p.token, PlayerId: p.id}
	c.sender.Send(m.ConnID, Event{Type: EventRoomCreated, Payload: SessionPayload{
		Code:     r.code,
		Token:    p.token,
		PlayerId: p.id,
		Room:     r.snapshot(),
	}})

	c.log.Info().Str("room", r.code).Str("player", p.id).Msg("room created")
	return session, nil
}

// JoinRoom adds a player or rebinds a returning one to a new connection.
func (c *Coordinator) JoinRoom(code string, m Member) (Session, error) {
	if m.Token == "" {
		m.Token = uuid.NewString()
	}
	r, err := c.lockRoom(code)
	if err != nil {
		return Session{}, err
	}
	defer r.mu.Unlock()

	_, returning := r.players[m.Token]
	p := r.join(m, c.now())
	c.sender.Send(m.ConnID, Event{Type: EventRoomJoined, Payload: SessionPayload{
		Code:     r.code,
		Token:    p.token,
		PlayerId: p.id,
		Room:     r.snapshot(),
	}})

	if r.phase == PhaseQuestion {
		if len(p.eliminated) > 0 {
			c.sender.Send(p.connID, Event{Type: EventJokerEffect, Payload: JokerEffect{Kind: FiftyFifty, Eliminated: p.eliminated}})
		}
		if p.usedThisQ[Spy] {
			c.sendSpyView(r, p)
		}
	}
	c.broadcast(r)

	c.log.Debug().Str("room", r.code).Str("player", p.id).Bool("returning", returning).Msg("player joined")
	return Session{Code: r.code, Token: p.token, PlayerId: p.id}, nil
}

// StartGame resolves the question order outside the room lock and then
// re-checks the phase before starting.
func (c *Coordinator) StartGame(ctx context.Context, code, token string, cfg GameConfig) error {
	r, err := c.lockRoom(code)
	if err != nil {
		return err
	}
	if !r.isHost(token) {
		r.mu.Unlock()
		return ErrUnauthorized
	}
	if r.phase != PhaseLobby {
		r.mu.Unlock()
		return ErrInvalidPhase
	}
	r.mu.Unlock()

	order, err := c.selector.Select(ctx, cfg)
	if err != nil {
		return err
	}
	if len(order) == 0 {
		return ErrNoQuestions
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed {
		return ErrRoomNotFound
	}
	if r.phase != PhaseLobby {
		return ErrInvalidPhase
	}

	r.resetForGame(order)
	c.nextQuestion(ctx, r)
	c.broadcast(r)
	if r.phase != PhaseFinished {
		c.startTimer(r)
	}

	c.log.Info().Str("room", r.code).Int("questions", len(order)).Msg("game started")
	return nil
}

func (c *Coordinator) UpdateSettings(code, token string, patch SettingsPatch) error {
	r, err := c.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isHost(token) {
		return ErrUnauthorized
	}
	if r.phase != PhaseLobby {
		return ErrInvalidPhase
	}
	settings, err := r.settings.apply(patch)
	if err != nil {
		return err
	}
	r.settings = settings
	c.broadcast(r)
	return nil
}

func (c *Coordinator) SubmitAnswer(code, token string, choice int) error {
	r, err := c.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	p, ok := r.players[token]
	if !ok {
		return ErrNotInRoom
	}
	if err := r.submitAnswer(p, choice); err != nil {
		return err
	}
	r.lastActivity = c.now()

	c.pushSpyViews(r)
	if r.allAnswered() {
		r.revealAnswer(c.now())
		c.log.Debug().Str("room", r.code).Int("question", r.questionIndex).Msg("everyone answered, revealing early")
	}
	c.broadcast(r)
	return nil
}

func (c *Coordinator) UsePowerUp(code, token string, kind PowerUp) error {
	r, err := c.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	p, ok := r.players[token]
	if !ok {
		return ErrNotInRoom
	}
	eliminated, err := r.usePowerUp(p, kind)
	if err != nil {
		return err
	}

	switch kind {
	case FiftyFifty:
		c.sender.Send(p.connID, Event{Type: EventJokerEffect, Payload: JokerEffect{Kind: FiftyFifty, Eliminated: eliminated}})
	case Risk:
		points := pointsForRound(r.questionIndex)
		c.sender.Send(p.connID, Event{Type: EventJokerEffect, Payload: JokerEffect{Kind: Risk, Gain: 2 * points, Loss: points}})
	case Spy:
		c.sendSpyView(r, p)
	}

	c.sendAll(r, Event{Type: EventJokerTriggered, Payload: JokerNotice{Kind: kind, PlayerId: p.id, Name: p.name}})
	c.broadcast(r)
	return nil
}

func (c *Coordinator) Pause(code, token string) error {
	return c.hostAction(code, token, func(r *Room) error {
		return r.pause(c.now())
	})
}

func (c *Coordinator) Resume(code, token string) error {
	return c.hostAction(code, token, func(r *Room) error {
		return r.resume(c.now())
	})
}

// SkipPhase forces the current phase to expire now.
func (c *Coordinator) SkipPhase(ctx context.Context, code, token string) error {
	return c.hostAction(code, token, func(r *Room) error {
		switch r.phase {
		case PhaseQuestion:
			r.clearPause()
			r.revealAnswer(c.now())
		case PhaseReveal:
			r.clearPause()
			c.nextQuestion(ctx, r)
		default:
			return ErrInvalidPhase
		}
		return nil
	})
}

func (c *Coordinator) hostAction(code, token string, action func(r *Room) error) error {
	r, err := c.lockRoom(code)
	if err != nil {
		return err
	}
	defer r.mu.Unlock()

	if !r.isHost(token) {
		return ErrUnauthorized
	}
	if err := action(r); err != nil {
		return err
	}
	c.broadcast(r)
	return nil
}

// DeleteRoom removes the room on behalf of its host. existed is false when
// there was nothing to delete, which callers treat as done.
func (c *Coordinator) DeleteRoom(code, token string) (existed bool, err error) {
	r, ok := c.rooms.Get(code)
	if !ok {
		return false, nil
	}
	if !r.isHost(token) {
		return true, ErrUnauthorized
	}
	deleted := c.rooms.deleteRoom(r, c.notifyDeleted)
	if deleted {
		c.log.Info().Str("room", r.code).Msg("room deleted by host")
	}
	return deleted, nil
}

// ForceDeleteRoom removes a room regardless of who hosts it.
func (c *Coordinator) ForceDeleteRoom(code string) bool {
	deleted := c.rooms.Delete(code, c.notifyDeleted)
	if deleted {
		c.log.Info().Str("room", normalizeCode(code)).Msg("room force deleted")
	}
	return deleted
}

// Disconnect marks the player offline unless connID is a stale connection.
func (c *Coordinator) Disconnect(code, token, connID string) {
	r, err := c.lockRoom(code)
	if err != nil {
		return
	}
	defer r.mu.Unlock()

	p, ok := r.players[token]
	if !ok || p.connID != connID {
		return
	}
	p.connected = false
	r.lastActivity = c.now()
	c.broadcast(r)
}

func (c *Coordinator) Snapshot(code string) (RoomSnapshot, error) {
	r, err := c.lockRoom(code)
	if err != nil {
		return RoomSnapshot{}, err
	}
	defer r.mu.Unlock()
	return r.snapshot(), nil
}

func (c *Coordinator) ListPublic() []RoomSummary {
	return c.rooms.ListPublic()
}

// nextQuestion advances the room and loads the new question. A question
// that cannot be loaded finishes the game. The room lock must be held.
func (c *Coordinator) nextQuestion(ctx context.Context, r *Room) {
	id, ok := r.advance()
	if !ok {
		c.log.Info().Str("room", r.code).Msg("game finished")
		return
	}

	questions, err := c.questions.GetQuestionsByIds(ctx, []int64{id})
	if err != nil || len(questions) == 0 {
		c.log.Warn().Err(err).Str("room", r.code).Int64("question", id).Msg("question unavailable, finishing game")
		r.finish()
		return
	}
	r.present(questions[0], c.now())
}

func (c *Coordinator) broadcast(r *Room) {
	r.publish()
	c.sendAll(r, Event{Type: EventRoomUpdate, Payload: r.snapshot()})
}

func (c *Coordinator) sendAll(r *Room, e Event) {
	for _, p := range r.players {
		if p.connected {
			c.sender.Send(p.connID, e)
		}
	}
}

func (c *Coordinator) notifyDeleted(r *Room) {
	c.sendAll(r, Event{Type: EventRoomDeleted, Payload: DeletedPayload{Code: r.code}})
}

func (c *Coordinator) sendSpyView(r *Room, viewer *Player) {
	c.sender.Send(viewer.connID, Event{Type: EventJokerEffect, Payload: JokerEffect{Kind: Spy, Picks: r.spyView(viewer)}})
}

func (c *Coordinator) pushSpyViews(r *Room) {
	for _, p := range r.players {
		if p.connected && p.usedThisQ[Spy] {
			c.sendSpyView(r, p)
		}
	}
}

// Shutdown stops every timer loop and waits for them to return.
func (c *Coordinator) Shutdown() {
	for _, r := range c.rooms.all() {
		r.mu.Lock()
		r.stopTimer()
		r.mu.Unlock()
	}
	c.timers.Wait()
}
