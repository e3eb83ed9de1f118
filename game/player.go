package game

import (
	"slices"

	"github.com/google/uuid"
)

const (
	DefaultPlayerName = "Player"
	MaxNameLength     = 24
)

var Avatars = []string{"🦊", "🐼", "🐸", "🐵", "🐯", "🐙", "🐧", "🦄"}

func ValidAvatar(avatar string) bool {
	return slices.Contains(Avatars, avatar)
}

// Player survives disconnects; only the connection id changes on rejoin.
type Player struct {
	id        string
	token     string
	connID    string
	name      string
	avatar    string
	score     int
	connected bool

	choice     *int
	available  map[PowerUp]bool
	usedThisQ  map[PowerUp]bool
	eliminated []int
}

func newPlayer(token, name, avatar string) *Player {
	p := &Player{
		id:     uuid.NewString(),
		token:  token,
		name:   name,
		avatar: avatar,
	}
	p.resetForGame()
	return p
}

func (p *Player) resetForGame() {
	p.score = 0
	p.available = make(map[PowerUp]bool, len(powerUps))
	for _, kind := range powerUps {
		p.available[kind] = true
	}
	p.resetForQuestion()
}

func (p *Player) resetForQuestion() {
	p.choice = nil
	p.usedThisQ = make(map[PowerUp]bool, len(powerUps))
	p.eliminated = nil
}

func (p *Player) answered() bool {
	return p.choice != nil
}
