package game

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/jkobber/bubble-quiz/domain"
)

// The functions in this file are the room's phase transitions. They never
// block and expect the caller to hold the room lock.

// pointsForRound escalates every two questions: 1, 1, 2, 2, 3, ...
func pointsForRound(questionIndex int) int {
	return questionIndex/2 + 1
}

func (r *Room) resetForGame(order []int64) {
	r.questionOrder = order
	r.questionIndex = -1
	for _, p := range r.players {
		p.resetForGame()
	}
}

// advance moves to the next slot of the question order and clears all
// per-question state. When the order is exhausted the room is finished and
// ok is false.
func (r *Room) advance() (id int64, ok bool) {
	r.questionIndex++
	r.current = nil
	r.correctIndex = -1
	r.reveal = nil
	r.jokerUsedThisQ = false
	r.qDeadline = time.Time{}
	r.revealDeadline = time.Time{}
	r.paused = false
	r.pauseRemaining = 0
	for _, p := range r.players {
		p.resetForQuestion()
	}

	if r.questionIndex >= len(r.questionOrder) {
		r.finish()
		return 0, false
	}
	return r.questionOrder[r.questionIndex], true
}

// present shows q with its options shuffled and starts the question timer.
func (r *Room) present(q domain.Question, now time.Time) {
	perm := rand.Perm(len(q.Options))
	choices := make([]string, len(perm))
	for i, src := range perm {
		choices[i] = q.Options[src]
		if src == q.CorrectIndex {
			r.correctIndex = i
		}
	}

	r.current = &QuestionView{Text: q.Text, Choices: choices}
	r.phase = PhaseQuestion
	r.qDeadline = now.Add(r.settings.questionDuration())
}

// revealAnswer scores every pick and switches to the reveal phase. While
// paused, the reveal duration is parked in pauseRemaining.
func (r *Room) revealAnswer(now time.Time) {
	if r.phase != PhaseQuestion || r.current == nil {
		return
	}

	points := pointsForRound(r.questionIndex)
	data := &RevealData{
		CorrectIndex:  r.correctIndex,
		Points:        points,
		PicksByChoice: make([][]PickView, len(r.current.Choices)),
		Deltas:        make(map[string]int),
	}
	for i := range data.PicksByChoice {
		data.PicksByChoice[i] = []PickView{}
	}

	for _, p := range r.ranking() {
		if p.choice == nil {
			continue
		}
		pick := *p.choice
		data.PicksByChoice[pick] = append(data.PicksByChoice[pick], PickView{Id: p.id, Name: p.name, Avatar: p.avatar})

		risk := p.usedThisQ[Risk]
		delta := 0
		switch {
		case pick == r.correctIndex && risk:
			delta = 2 * points
		case pick == r.correctIndex:
			delta = points
		case risk:
			delta = -points
		}
		p.score += delta
		data.Deltas[p.id] = delta
	}

	r.reveal = data
	r.phase = PhaseReveal
	r.qDeadline = time.Time{}
	if r.paused {
		r.pauseRemaining = r.settings.revealDuration()
		return
	}
	r.revealDeadline = now.Add(r.settings.revealDuration())
}

func (r *Room) submitAnswer(p *Player, choice int) error {
	if r.phase != PhaseQuestion || r.current == nil {
		return ErrInvalidPhase
	}
	if choice < 0 || choice >= len(r.current.Choices) {
		return ErrInvalidChoice
	}
	if p.answered() {
		return ErrAlreadyAnswered
	}
	p.choice = &choice
	return nil
}

// usePowerUp spends kind for p. For fiftyFifty it returns the two
// eliminated choices.
func (r *Room) usePowerUp(p *Player, kind PowerUp) ([]int, error) {
	if !kind.Valid() {
		return nil, ErrInvalidJoker
	}
	if r.phase != PhaseQuestion || r.current == nil {
		return nil, ErrInvalidPhase
	}
	if !r.settings.SimultaneousJokers && r.jokerUsedThisQ {
		return nil, ErrJokerLocked
	}
	if !p.available[kind] {
		return nil, ErrJokerSpent
	}

	p.available[kind] = false
	p.usedThisQ[kind] = true
	r.jokerUsedThisQ = true

	if kind != FiftyFifty {
		return nil, nil
	}

	wrong := make([]int, 0, len(r.current.Choices)-1)
	for i := range r.current.Choices {
		if i != r.correctIndex {
			wrong = append(wrong, i)
		}
	}
	rand.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })
	eliminated := wrong[:min(2, len(wrong))]
	slices.Sort(eliminated)
	p.eliminated = eliminated
	return eliminated, nil
}

func (r *Room) activeDeadline() time.Time {
	switch r.phase {
	case PhaseQuestion:
		return r.qDeadline
	case PhaseReveal:
		return r.revealDeadline
	}
	return time.Time{}
}

func (r *Room) pause(now time.Time) error {
	if r.phase != PhaseQuestion && r.phase != PhaseReveal {
		return ErrInvalidPhase
	}
	if r.paused {
		return nil
	}
	r.pauseRemaining = max(0, r.activeDeadline().Sub(now))
	r.qDeadline = time.Time{}
	r.revealDeadline = time.Time{}
	r.paused = true
	return nil
}

func (r *Room) resume(now time.Time) error {
	if !r.paused {
		return nil
	}
	switch r.phase {
	case PhaseQuestion:
		r.qDeadline = now.Add(r.pauseRemaining)
	case PhaseReveal:
		r.revealDeadline = now.Add(r.pauseRemaining)
	}
	r.paused = false
	r.pauseRemaining = 0
	return nil
}

func (r *Room) clearPause() {
	r.paused = false
	r.pauseRemaining = 0
}

// finish is terminal. It also releases the room's timer loop.
func (r *Room) finish() {
	r.phase = PhaseFinished
	r.qDeadline = time.Time{}
	r.revealDeadline = time.Time{}
	r.clearPause()
	r.stopTimer()
	r.publish()
}
