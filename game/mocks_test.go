package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jkobber/bubble-quiz/domain"
	"github.com/stretchr/testify/mock"
)

// --- QuestionSource ---

type MockQuestionSource struct {
	mock.Mock
}

func (m *MockQuestionSource) QuestionIdsByCollections(ctx context.Context, collectionIds []int64) (map[int64][]int64, error) {
	args := m.Called(ctx, collectionIds)
	return args.Get(0).(map[int64][]int64), args.Error(1)
}

func (m *MockQuestionSource) QuestionIdsByTags(ctx context.Context, tagIds []int64) ([]int64, error) {
	args := m.Called(ctx, tagIds)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockQuestionSource) AllQuestionIds(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int64), args.Error(1)
}

// --- CodeGenerator ---

type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// --- TickerCreator ---

type MockTickerCreator struct {
	mock.Mock
}

func (m *MockTickerCreator) Create(d time.Duration) (<-chan time.Time, func()) {
	args := m.Called(d)
	return args.Get(0).(<-chan time.Time), args.Get(1).(func())
}

// --- QuestionStore ---

type fakeStore struct {
	questions map[int64]domain.Question

	// when gate is set, loads signal on loading and block until gate closes
	gate    chan struct{}
	loading chan struct{}
}

func (s *fakeStore) GetQuestionsByIds(ctx context.Context, ids []int64) ([]domain.Question, error) {
	if s.gate != nil {
		s.loading <- struct{}{}
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := s.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func questionFixture(id int64) domain.Question {
	return domain.Question{
		Id:           id,
		Text:         "question",
		Options:      []string{"right", "wrong1", "wrong2", "wrong3"},
		CorrectIndex: 0,
	}
}

// --- Sender ---

type recordingSender struct {
	mu     sync.Mutex
	events map[string][]Event
}

func newRecordingSender() *recordingSender {
	return &recordingSender{events: make(map[string][]Event)}
}

func (s *recordingSender) Send(connID string, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[connID] = append(s.events[connID], e)
}

func (s *recordingSender) of(connID, eventType string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events[connID] {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// --- Clock ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Coordinator fixture ---

type fixture struct {
	c       *Coordinator
	sender  *recordingSender
	store   *fakeStore
	source  *MockQuestionSource
	codes   *MockCodeGenerator
	tickers *MockTickerCreator
	ticks   chan time.Time
	clock   *fakeClock
}

// newFixture builds a coordinator whose store holds the given question ids
// and whose timer loops only tick when the test sends on f.ticks.
func newFixture(t *testing.T, ids ...int64) *fixture {
	t.Helper()

	f := &fixture{
		sender:  newRecordingSender(),
		store:   &fakeStore{questions: make(map[int64]domain.Question)},
		source:  new(MockQuestionSource),
		codes:   new(MockCodeGenerator),
		tickers: new(MockTickerCreator),
		ticks:   make(chan time.Time),
		clock:   &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
	}
	for _, id := range ids {
		f.store.questions[id] = questionFixture(id)
	}
	f.source.On("AllQuestionIds", mock.Anything).Return(ids, nil).Maybe()
	f.tickers.On("Create", mock.Anything).Return((<-chan time.Time)(f.ticks), func() {}).Maybe()

	f.c = NewCoordinator(NewRegistry(), NewSelector(f.source), f.store, f.sender, f.tickers, f.codes, Options{
		Now: f.clock.Now,
	})
	f.c.selector.shuffle = func([]int64) {}
	t.Cleanup(f.c.Shutdown)
	return f
}

// room creates a room hosted by "host" on connection "c-host" and lets the
// given guests join it.
func (f *fixture) room(t *testing.T, code string, guests ...string) *Room {
	t.Helper()
	f.codes.On("Generate").Return(code, nil).Once()
	_, err := f.c.CreateRoom(Member{ConnID: "c-host", Token: "host", Name: "Host", Avatar: "🦊"})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	for _, g := range guests {
		if _, err := f.c.JoinRoom(code, Member{ConnID: "c-" + g, Token: g, Name: g, Avatar: "🐼"}); err != nil {
			t.Fatalf("join room: %v", err)
		}
	}
	r, _ := f.c.rooms.Get(code)
	return r
}

func (f *fixture) start(t *testing.T, code string) {
	t.Helper()
	if err := f.c.StartGame(context.Background(), code, "host", GameConfig{}); err != nil {
		t.Fatalf("start game: %v", err)
	}
}

// correct returns the shuffled index of the right answer.
func correct(r *Room) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.correctIndex
}

func wrongOf(r *Room) int {
	return (correct(r) + 1) % domain.ChoicesPerQuestion
}

func phaseOf(r *Room) Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func scoreOf(r *Room, token string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.players[token].score
}
