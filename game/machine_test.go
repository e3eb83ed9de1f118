package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// roomAt returns a room showing the question at index with one player "p".
func roomAt(index int) (*Room, *Player) {
	r := newRoom("TEST1", "p", t0)
	p := r.join(Member{ConnID: "c1", Token: "p", Name: "P"}, t0)
	r.resetForGame([]int64{1, 2, 3, 4, 5, 6})
	r.questionIndex = index - 1
	id, _ := r.advance()
	r.present(questionFixture(id), t0)
	return r, p
}

func TestPointsForRound(t *testing.T) {
	for index, expected := range []int{1, 1, 2, 2, 3, 3} {
		assert.Equal(t, expected, pointsForRound(index), "index %d", index)
	}
}

func TestScoringLaw(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		description   string
		index         int
		correct       bool
		risk          bool
		expectedDelta int
	}{
		{"correct at index 0", 0, true, false, 1},
		{"correct at index 2", 2, true, false, 2},
		{"correct with risk at index 2", 2, true, true, 4},
		{"wrong with risk at index 0", 0, false, true, -1},
		{"wrong without risk", 0, false, false, 0},
		{"wrong with risk at index 4", 4, false, true, -3},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()
			r, p := roomAt(tc.index)

			if tc.risk {
				_, err := r.usePowerUp(p, Risk)
				require.NoError(t, err)
			}
			choice := r.correctIndex
			if !tc.correct {
				choice = (r.correctIndex + 1) % len(r.current.Choices)
			}
			require.NoError(t, r.submitAnswer(p, choice))

			r.revealAnswer(t0.Add(time.Second))

			assert.Equal(t, tc.expectedDelta, p.score)
			assert.Equal(t, tc.expectedDelta, r.reveal.Deltas[p.id])
			assert.Equal(t, PhaseReveal, r.phase)
		})
	}
}

func TestRevealWithoutPickScoresNothing(t *testing.T) {
	r, p := roomAt(0)
	_, err := r.usePowerUp(p, Risk)
	require.NoError(t, err)

	r.revealAnswer(t0)

	assert.Equal(t, 0, p.score)
	assert.NotContains(t, r.reveal.Deltas, p.id)
	for _, picks := range r.reveal.PicksByChoice {
		assert.NotNil(t, picks)
		assert.Empty(t, picks)
	}
}

func TestPresentShufflesAndTracksCorrectIndex(t *testing.T) {
	for range 20 {
		r, _ := roomAt(0)
		require.Len(t, r.current.Choices, 4)
		assert.Equal(t, "right", r.current.Choices[r.correctIndex])
		assert.ElementsMatch(t, []string{"right", "wrong1", "wrong2", "wrong3"}, r.current.Choices)
		assert.Equal(t, t0.Add(30*time.Second), r.qDeadline)
		assert.True(t, r.revealDeadline.IsZero())
	}
}

func TestSubmitAnswer(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		description string
		setup       func(r *Room, p *Player)
		choice      int
		expectedErr error
	}{
		{"valid choice", func(r *Room, p *Player) {}, 2, nil},
		{"out of range", func(r *Room, p *Player) {}, 4, ErrInvalidChoice},
		{"negative", func(r *Room, p *Player) {}, -1, ErrInvalidChoice},
		{"first answer wins", func(r *Room, p *Player) { _ = r.submitAnswer(p, 1) }, 2, ErrAlreadyAnswered},
		{"outside question phase", func(r *Room, p *Player) { r.revealAnswer(t0) }, 1, ErrInvalidPhase},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()
			r, p := roomAt(0)
			tc.setup(r, p)
			assert.ErrorIs(t, r.submitAnswer(p, tc.choice), tc.expectedErr)
		})
	}
}

func TestUsePowerUp(t *testing.T) {
	t.Run("fifty fifty eliminates two wrong choices", func(t *testing.T) {
		r, p := roomAt(0)
		eliminated, err := r.usePowerUp(p, FiftyFifty)
		require.NoError(t, err)
		assert.Len(t, eliminated, 2)
		assert.NotContains(t, eliminated, r.correctIndex)
		assert.Equal(t, eliminated, p.eliminated)
		assert.True(t, r.jokerUsedThisQ)
		assert.False(t, p.available[FiftyFifty])
	})

	t.Run("round lock applies to other players", func(t *testing.T) {
		r, p := roomAt(0)
		other := r.join(Member{ConnID: "c2", Token: "q"}, t0)
		_, err := r.usePowerUp(p, Spy)
		require.NoError(t, err)

		_, err = r.usePowerUp(other, Risk)
		assert.ErrorIs(t, err, ErrJokerLocked)
		assert.True(t, other.available[Risk])
	})

	t.Run("simultaneous jokers lift the round lock", func(t *testing.T) {
		r, p := roomAt(0)
		r.settings.SimultaneousJokers = true
		_, err := r.usePowerUp(p, Spy)
		require.NoError(t, err)
		_, err = r.usePowerUp(p, Risk)
		assert.NoError(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		r, p := roomAt(0)
		_, err := r.usePowerUp(p, PowerUp("double"))
		assert.ErrorIs(t, err, ErrInvalidJoker)
		assert.False(t, r.jokerUsedThisQ)
	})

	t.Run("only during questions", func(t *testing.T) {
		r, p := roomAt(0)
		r.revealAnswer(t0)
		_, err := r.usePowerUp(p, Risk)
		assert.ErrorIs(t, err, ErrInvalidPhase)
	})
}

func TestPauseResume(t *testing.T) {
	r, _ := roomAt(0)

	require.NoError(t, r.pause(t0.Add(18*time.Second)))
	assert.True(t, r.paused)
	assert.Equal(t, 12*time.Second, r.pauseRemaining)
	assert.True(t, r.qDeadline.IsZero())

	// pausing twice keeps the first capture
	require.NoError(t, r.pause(t0.Add(25*time.Second)))
	assert.Equal(t, 12*time.Second, r.pauseRemaining)

	resumedAt := t0.Add(time.Minute)
	require.NoError(t, r.resume(resumedAt))
	assert.False(t, r.paused)
	assert.Zero(t, r.pauseRemaining)
	assert.Equal(t, resumedAt.Add(12*time.Second), r.qDeadline)
}

func TestRevealWhilePausedParksRevealDuration(t *testing.T) {
	r, p := roomAt(0)
	require.NoError(t, r.pause(t0))
	require.NoError(t, r.submitAnswer(p, 0))

	r.revealAnswer(t0)

	assert.True(t, r.revealDeadline.IsZero())
	assert.Equal(t, 5*time.Second, r.pauseRemaining)
	require.NoError(t, r.resume(t0.Add(time.Hour)))
	assert.Equal(t, t0.Add(time.Hour+5*time.Second), r.revealDeadline)
}

func TestAdvancePastEndFinishes(t *testing.T) {
	r, p := roomAt(5)
	_ = r.submitAnswer(p, 0)
	r.revealAnswer(t0)

	_, ok := r.advance()

	assert.False(t, ok)
	assert.Equal(t, PhaseFinished, r.phase)
	assert.True(t, r.qDeadline.IsZero())
	assert.True(t, r.revealDeadline.IsZero())
	assert.Nil(t, p.choice)
	select {
	case <-r.stop:
	default:
		t.Fatal("timer stop channel still open")
	}
}

func TestSnapshotHidesSecrets(t *testing.T) {
	r, p := roomAt(0)
	require.NoError(t, r.submitAnswer(p, 1))

	snap := r.snapshot()
	assert.Nil(t, snap.Reveal)
	assert.True(t, snap.Players[0].Answered)
	assert.NotNil(t, snap.QDeadline)
	assert.Nil(t, snap.RevealDeadline)

	r.revealAnswer(t0)
	snap = r.snapshot()
	require.NotNil(t, snap.Reveal)
	assert.Equal(t, r.correctIndex, snap.Reveal.CorrectIndex)
	assert.Nil(t, snap.QDeadline)
	assert.NotNil(t, snap.RevealDeadline)
}
