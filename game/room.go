package game

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// QuestionView is the player-facing part of a question. It never carries
// the correct index.
type QuestionView struct {
	Text    string   `json:"text"`
	Choices []string `json:"choices"`
}

// Room is one game session. Every field below mu is guarded by it.
type Room struct {
	mu sync.Mutex

	// Identity, immutable after creation
	code      string
	hostToken string
	createdAt time.Time

	phase    Phase
	settings Settings
	players  map[string]*Player

	// Game progression
	questionOrder  []int64
	questionIndex  int
	current        *QuestionView
	correctIndex   int
	jokerUsedThisQ bool
	reveal         *RevealData

	// Deadlines, zero when not running
	qDeadline      time.Time
	revealDeadline time.Time
	paused         bool
	pauseRemaining time.Duration

	lastActivity time.Time
	timerStarted bool
	removed      bool
	stop         chan struct{}
	stopOnce     sync.Once

	// public is readable without mu; it lags the room by at most one transition
	public atomic.Pointer[RoomSummary]
}

func newRoom(code, hostToken string, now time.Time) *Room {
	r := &Room{
		code:          code,
		hostToken:     hostToken,
		createdAt:     now,
		phase:         PhaseLobby,
		settings:      DefaultSettings(),
		players:       make(map[string]*Player),
		questionIndex: -1,
		correctIndex:  -1,
		lastActivity:  now,
		stop:          make(chan struct{}),
	}
	r.publish()
	return r
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) isHost(token string) bool {
	return token != "" && token == r.hostToken
}

// join adds the player on first sight and rebinds the connection otherwise.
func (r *Room) join(m Member, now time.Time) *Player {
	p, ok := r.players[m.Token]
	if !ok {
		if m.Name == "" {
			m.Name = DefaultPlayerName
		}
		if m.Avatar == "" {
			m.Avatar = Avatars[0]
		}
		p = newPlayer(m.Token, m.Name, m.Avatar)
		r.players[m.Token] = p
	} else {
		if m.Name != "" {
			p.name = m.Name
		}
		if m.Avatar != "" {
			p.avatar = m.Avatar
		}
	}
	p.connID = m.ConnID
	p.connected = true
	r.lastActivity = now
	r.publish()
	return p
}

// publish refreshes the lock-free summary. The room lock must be held.
func (r *Room) publish() {
	s := r.summary()
	r.public.Store(&s)
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.connected {
			n++
		}
	}
	return n
}

func (r *Room) allAnswered() bool {
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if !p.answered() {
			return false
		}
	}
	return true
}

// ranking orders players by score, then name, then id.
func (r *Room) ranking() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].name != out[j].name {
			return out[i].name < out[j].name
		}
		return out[i].id < out[j].id
	})
	return out
}

func (r *Room) stopTimer() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// idle reports whether the room has had nobody connected for longer than timeout.
func (r *Room) idle(now time.Time, timeout time.Duration) bool {
	return r.connectedCount() == 0 && now.Sub(r.lastActivity) > timeout
}
