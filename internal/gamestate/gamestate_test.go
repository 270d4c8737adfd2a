package gamestate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/playrachel/engine/internal/cards"
	"github.com/playrachel/engine/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoPlayerState() State {
	now := time.Now()
	return State{
		ID:     "g1",
		Status: StatusPlaying,
		Players: []Player{
			{ID: "A", Status: PlayerPlaying, Hand: []cards.Card{
				{Suit: cards.Hearts, Rank: cards.Two},
				{Suit: cards.Diamonds, Rank: cards.Two},
				{Suit: cards.Clubs, Rank: cards.King},
			}},
			{ID: "B", Status: PlayerPlaying, Hand: []cards.Card{
				{Suit: cards.Spades, Rank: cards.Two},
				{Suit: cards.Diamonds, Rank: cards.Five},
				{Suit: cards.Clubs, Rank: cards.Nine},
			}},
		},
		DiscardPile:        []cards.Card{{Suit: cards.Hearts, Rank: cards.Three}},
		CurrentPlayerIndex: 0,
		Direction:          rules.Clockwise,
		DeckCount:          1,
		ExpectedTotalCards: 52,
		Deck:               make([]cards.Card, 46),
		LastActionAt:       now,
	}
}

func TestTwoPlayerAttackStack(t *testing.T) {
	s := twoPlayerState()

	s, err := Play(s, "A", []cards.Card{{Suit: cards.Hearts, Rank: cards.Two}}, nil, time.Now())
	require.NoError(t, err)
	require.NotNil(t, s.PendingAttack)
	assert.Equal(t, rules.Twos, s.PendingAttack.Kind)
	assert.Equal(t, 2, s.PendingAttack.N)
	assert.Equal(t, 1, s.CurrentPlayerIndex) // turn -> B

	s, err = Play(s, "B", []cards.Card{{Suit: cards.Spades, Rank: cards.Two}}, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 4, s.PendingAttack.N)
	assert.Equal(t, 0, s.CurrentPlayerIndex) // turn -> A

	s, err = Play(s, "A", []cards.Card{{Suit: cards.Diamonds, Rank: cards.Two}}, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 6, s.PendingAttack.N)
	assert.Equal(t, 1, s.CurrentPlayerIndex) // turn -> B

	r := rand.New(rand.NewSource(1))
	before := len(s.Players[1].Hand)
	s, err = Draw(s, "B", ReasonAttack, r, time.Now())
	require.NoError(t, err)
	assert.Nil(t, s.PendingAttack)
	assert.Equal(t, 1, s.CurrentPlayerIndex) // stays on B
	assert.Equal(t, before+6, len(s.Players[1].Hand))
}

func TestRedJackCancelsBlackJackAttack(t *testing.T) {
	s := twoPlayerState()
	s.PendingAttack = &rules.Attack{Kind: rules.BlackJacks, N: 10}
	s.Players[0].Hand = []cards.Card{
		{Suit: cards.Hearts, Rank: cards.Jack},
		{Suit: cards.Diamonds, Rank: cards.Three},
	}

	s2, err := Play(s, "A", []cards.Card{{Suit: cards.Hearts, Rank: cards.Jack}}, nil, time.Now())
	require.NoError(t, err)
	require.NotNil(t, s2.PendingAttack)
	assert.Equal(t, 5, s2.PendingAttack.N)

	s.Players[0].Hand = []cards.Card{
		{Suit: cards.Hearts, Rank: cards.Jack},
		{Suit: cards.Diamonds, Rank: cards.Jack},
	}
	s3, err := Play(s, "A", s.Players[0].Hand, nil, time.Now())
	require.NoError(t, err)
	assert.Nil(t, s3.PendingAttack)
}

func TestAceNominationConsumedByNextPlay(t *testing.T) {
	s := twoPlayerState()
	s.DiscardPile = []cards.Card{{Suit: cards.Diamonds, Rank: cards.Six}}
	s.Players[0].Hand = []cards.Card{
		{Suit: cards.Diamonds, Rank: cards.Ace},
		{Suit: cards.Diamonds, Rank: cards.Two},
		{Suit: cards.Hearts, Rank: cards.Two},
	}
	hearts := cards.Hearts

	s, err := Play(s, "A", []cards.Card{{Suit: cards.Diamonds, Rank: cards.Ace}}, &hearts, time.Now())
	require.NoError(t, err)
	require.NotNil(t, s.NominatedSuit)
	assert.Equal(t, cards.Hearts, *s.NominatedSuit)
	assert.Equal(t, cards.Card{Suit: cards.Diamonds, Rank: cards.Ace}, s.DiscardPile[0])

	s.Players[1].Hand = []cards.Card{{Suit: cards.Clubs, Rank: cards.Four}}
	_, err = Play(s, "B", []cards.Card{{Suit: cards.Clubs, Rank: cards.Four}}, nil, time.Now())
	require.Error(t, err)

	s.Players[1].Hand = []cards.Card{{Suit: cards.Hearts, Rank: cards.Two}}
	s2, err := Play(s, "B", []cards.Card{{Suit: cards.Hearts, Rank: cards.Two}}, nil, time.Now())
	require.NoError(t, err)
	assert.Nil(t, s2.NominatedSuit)
	require.NotNil(t, s2.PendingAttack)
	assert.Equal(t, rules.Twos, s2.PendingAttack.Kind)
}

func TestSkipChainThreePlayers(t *testing.T) {
	now := time.Now()
	s := State{
		Status: StatusPlaying,
		Players: []Player{
			{ID: "A", Status: PlayerPlaying, Hand: []cards.Card{{Suit: cards.Clubs, Rank: cards.Seven}}},
			{ID: "B", Status: PlayerPlaying, Hand: []cards.Card{
				{Suit: cards.Diamonds, Rank: cards.Seven},
				{Suit: cards.Hearts, Rank: cards.Nine},
			}},
			{ID: "C", Status: PlayerPlaying, Hand: []cards.Card{{Suit: cards.Spades, Rank: cards.Five}}},
		},
		DiscardPile:        []cards.Card{{Suit: cards.Clubs, Rank: cards.Ten}},
		CurrentPlayerIndex: 0,
		Direction:          rules.Clockwise,
		DeckCount:          1,
		ExpectedTotalCards: 52,
		Deck:               make([]cards.Card, 48),
		LastActionAt:       now,
	}

	s, err := Play(s, "A", []cards.Card{{Suit: cards.Clubs, Rank: cards.Seven}}, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, s.PendingSkips)
	assert.Equal(t, 1, s.CurrentPlayerIndex)

	s, err = Play(s, "B", []cards.Card{{Suit: cards.Diamonds, Rank: cards.Seven}}, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, s.PendingSkips)
	assert.Equal(t, 2, s.CurrentPlayerIndex)

	r := rand.New(rand.NewSource(1))
	s, err = Draw(s, "C", ReasonCannotPlay, r, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, s.PendingSkips)
}

func TestWinnerRemovalMidGame(t *testing.T) {
	s := twoPlayerState()
	s.Players = append(s.Players, Player{ID: "D", Status: PlayerPlaying, Hand: []cards.Card{{Suit: cards.Clubs, Rank: cards.Eight}}})
	s.Players[0].Hand = []cards.Card{{Suit: cards.Hearts, Rank: cards.Three}}
	s.DiscardPile = []cards.Card{{Suit: cards.Hearts, Rank: cards.King}}

	s2, err := Play(s, "A", []cards.Card{{Suit: cards.Hearts, Rank: cards.Three}}, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, s2.Winners)
	assert.Equal(t, PlayerWon, s2.Players[0].Status)
	assert.Equal(t, 1, s2.CurrentPlayerIndex) // B, not A
}

func TestShouldEndWithOnePlayerLeft(t *testing.T) {
	s := twoPlayerState()
	s.Players[0].Status = PlayerWon
	assert.True(t, ShouldEnd(s))
}

func TestDrawWithEmptyDeckAndSingleDiscardCardIsNoOp(t *testing.T) {
	s := twoPlayerState()
	s.Deck = nil
	s.DiscardPile = []cards.Card{{Suit: cards.Hearts, Rank: cards.King}}
	r := rand.New(rand.NewSource(1))
	before := len(s.Players[0].Hand)

	s2, err := Draw(s, "A", ReasonVoluntary, r, time.Now())
	require.NoError(t, err)
	assert.Equal(t, before, len(s2.Players[0].Hand))
}

func TestDrawReshufflePreservesActualTopOfDiscard(t *testing.T) {
	s := twoPlayerState()
	s.Deck = nil
	// index 0 is the real top; a naive "preserve the last element" bug
	// would keep the Four (buried, oldest) and shuffle the King (the
	// actual current top) back into the deck.
	s.DiscardPile = []cards.Card{
		{Suit: cards.Hearts, Rank: cards.King},
		{Suit: cards.Diamonds, Rank: cards.Nine},
		{Suit: cards.Clubs, Rank: cards.Four},
	}
	r := rand.New(rand.NewSource(3))

	s2, err := Draw(s, "A", ReasonVoluntary, r, time.Now())
	require.NoError(t, err)
	require.Len(t, s2.DiscardPile, 1)
	assert.Equal(t, cards.Card{Suit: cards.Hearts, Rank: cards.King}, s2.DiscardPile[0])
}

func TestStartDealsAndSeedsDiscard(t *testing.T) {
	s := New("g2", []Player{{ID: "A"}, {ID: "B"}}, Options{DeckCount: 1}, time.Now())
	r := rand.New(rand.NewSource(7))
	s, err := Start(s, r, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusPlaying, s.Status)
	assert.Len(t, s.Players[0].Hand, 7)
	assert.Len(t, s.Players[1].Hand, 7)
	assert.Len(t, s.DiscardPile, 1)
	assert.Len(t, s.Deck, 52-14-1)
}
