package game

import "time"

type PowerUpView struct {
	FiftyFifty bool `json:"fiftyFifty"`
	Spy        bool `json:"spy"`
	Risk       bool `json:"risk"`
}

type PlayerView struct {
	Id        string      `json:"id"`
	Name      string      `json:"name"`
	Avatar    string      `json:"avatar"`
	Score     int         `json:"score"`
	Connected bool        `json:"connected"`
	Answered  bool        `json:"answered"`
	IsHost    bool        `json:"isHost"`
	PowerUps  PowerUpView `json:"powerUps"`
}

type PickView struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// RevealData is computed once per question when the answer is revealed.
type RevealData struct {
	CorrectIndex  int            `json:"correctIndex"`
	Points        int            `json:"points"`
	PicksByChoice [][]PickView   `json:"picksByChoice"`
	Deltas        map[string]int `json:"deltas"`
}

type RoomSnapshot struct {
	Code             string        `json:"code"`
	Phase            Phase         `json:"phase"`
	Settings         Settings      `json:"settings"`
	QuestionIndex    int           `json:"questionIndex"`
	QuestionCount    int           `json:"questionCount"`
	Question         *QuestionView `json:"question"`
	QDeadline        *int64        `json:"qDeadlineTs"`
	RevealDeadline   *int64        `json:"revealDeadlineTs"`
	Paused           bool          `json:"paused"`
	PauseRemainingMs int64         `json:"pauseRemainingMs"`
	JokerUsedThisQ   bool          `json:"jokerUsedThisQ"`
	Reveal           *RevealData   `json:"revealData"`
	Players          []PlayerView  `json:"players"`
}

// RoomSummary is the public listing entry of a room.
type RoomSummary struct {
	Code        string    `json:"code"`
	PlayerCount int       `json:"playerCount"`
	Phase       Phase     `json:"phase"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SpyPick is a live pick seen through the spy joker; Choice is nil until answered.
type SpyPick struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Choice *int   `json:"choice"`
}

func (p *Player) view(host bool) PlayerView {
	return PlayerView{
		Id:        p.id,
		Name:      p.name,
		Avatar:    p.avatar,
		Score:     p.score,
		Connected: p.connected,
		Answered:  p.answered(),
		IsHost:    host,
		PowerUps: PowerUpView{
			FiftyFifty: p.available[FiftyFifty],
			Spy:        p.available[Spy],
			Risk:       p.available[Risk],
		},
	}
}

func unixMillis(t time.Time) *int64 {
	if t.IsZero() {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// snapshot must be called with the room lock held.
func (r *Room) snapshot() RoomSnapshot {
	snap := RoomSnapshot{
		Code:             r.code,
		Phase:            r.phase,
		Settings:         r.settings,
		QuestionIndex:    r.questionIndex,
		QuestionCount:    len(r.questionOrder),
		QDeadline:        unixMillis(r.qDeadline),
		RevealDeadline:   unixMillis(r.revealDeadline),
		Paused:           r.paused,
		PauseRemainingMs: r.pauseRemaining.Milliseconds(),
		JokerUsedThisQ:   r.jokerUsedThisQ,
		Players:          make([]PlayerView, 0, len(r.players)),
	}

	if r.phase == PhaseQuestion || r.phase == PhaseReveal {
		snap.Question = r.current
	}
	if r.phase == PhaseReveal {
		snap.Reveal = r.reveal
	}

	for _, p := range r.ranking() {
		snap.Players = append(snap.Players, p.view(p.token == r.hostToken))
	}
	return snap
}

func (r *Room) summary() RoomSummary {
	return RoomSummary{
		Code:        r.code,
		PlayerCount: len(r.players),
		Phase:       r.phase,
		CreatedAt:   r.createdAt,
	}
}

// spyView lists the live picks of everyone but the viewer.
func (r *Room) spyView(viewer *Player) []SpyPick {
	picks := make([]SpyPick, 0, len(r.players))
	for _, p := range r.ranking() {
		if p == viewer {
			continue
		}
		var choice *int
		if p.choice != nil {
			c := *p.choice
			choice = &c
		}
		picks = append(picks, SpyPick{Id: p.id, Name: p.name, Avatar: p.avatar, Choice: choice})
	}
	return picks
}
