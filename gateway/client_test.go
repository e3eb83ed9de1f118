package gateway

import (
	"context"
	"testing"

	"github.com/jkobber/bubble-quiz/domain"
	"github.com/jkobber/bubble-quiz/game"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPlayerToken(t *testing.T) {
	t.Parallel()

	signedIn := &domain.Identity{UserId: "42", Username: "ada", Role: domain.RolePlayer}

	testCases := []struct {
		description string
		identity    *domain.Identity
		supplied    string
		expected    string
	}{
		{
			description: "anonymous keeps its own token",
			supplied:    "3f2a",
			expected:    "3f2a",
		},
		{
			description: "anonymous without a token",
			supplied:    "",
			expected:    "",
		},
		{
			description: "anonymous cannot claim a signed-in seat",
			supplied:    "user:42",
			expected:    "",
		},
		{
			description: "signed-in identity wins over the supplied token",
			identity:    signedIn,
			supplied:    "user:7",
			expected:    "user:42",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()
			cl := newClient("c1", nil, tc.identity, DefaultOptions())
			assert.Equal(t, tc.expected, cl.playerToken(tc.supplied))
		})
	}
}

func TestJoinWithReservedTokenGetsFreshSeat(t *testing.T) {
	t.Parallel()

	coord := new(MockCoordinator)
	coord.On("JoinRoom", "ABCDE", mock.MatchedBy(func(m game.Member) bool {
		return m.Token == "" && m.ConnID == "c1"
	})).Return(game.Session{Code: "ABCDE", Token: "fresh", PlayerId: "p1"}, nil)

	g := New(coord, NewHub(zerolog.Nop()), nil, DefaultOptions(), zerolog.Nop())
	cl := newClient("c1", nil, nil, DefaultOptions())

	g.dispatch(context.Background(), cl, []byte(`{"type":"join_room","payload":{"code":"ABCDE","token":"user:42"}}`))

	coord.AssertExpectations(t)
	assert.Equal(t, "fresh", cl.tokenFor("abcde"))
}
