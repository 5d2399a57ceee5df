package engine_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technomancy/internal/card"
	"technomancy/internal/effect"
	"technomancy/internal/engine"
	"technomancy/internal/ids"
	"technomancy/internal/outside"
	"technomancy/internal/state"
)

// stubOutside is a scripted outside.Game: each method pops its next
// response off a queue, failing the test if the queue runs dry. This
// mirrors how the upstream implementation's own test harness drives the
// engine without a real transport.
type stubOutside struct {
	t             *testing.T
	keeping       [][]ids.PlayerID
	nextAction    []int
	targetChoices [][]int
	passing       []bool
}

func (s *stubOutside) GetPlayerKeeping(_ context.Context, _ ids.GameID, asked []ids.PlayerID) ([]ids.PlayerID, error) {
	require.NotEmpty(s.t, s.keeping, "unexpected GetPlayerKeeping call")
	next := s.keeping[0]
	s.keeping = s.keeping[1:]
	return next, nil
}

func (s *stubOutside) GetNextPlayerActionFrom(_ context.Context, _ ids.GameID, _ ids.PlayerID, _ []outside.PlayerAction) (int, error) {
	require.NotEmpty(s.t, s.nextAction, "unexpected GetNextPlayerActionFrom call")
	next := s.nextAction[0]
	s.nextAction = s.nextAction[1:]
	return next, nil
}

func (s *stubOutside) GetTargetChoicesFromGiven(_ context.Context, _ ids.GameID, _ ids.PlayerID, _ ids.ObjectID, _ string, _ []effect.Target, _ int) ([]int, error) {
	require.NotEmpty(s.t, s.targetChoices, "unexpected GetTargetChoicesFromGiven call")
	next := s.targetChoices[0]
	s.targetChoices = s.targetChoices[1:]
	return next, nil
}

func (s *stubOutside) GetPlayerPassing(_ context.Context, _ ids.GameID, _ ids.PlayerID) (bool, error) {
	require.NotEmpty(s.t, s.passing, "unexpected GetPlayerPassing call")
	next := s.passing[0]
	s.passing = s.passing[1:]
	return next, nil
}

var _ outside.Game = (*stubOutside)(nil)

func newPlainGame(t *testing.T, deckSize int) (*state.Game, ids.PlayerID, ids.PlayerID) {
	t.Helper()
	cardID := ids.CardIDFrom(uuid.New())
	db := card.NewDatabase([]card.Card{{ID: cardID}})

	p1, p2 := ids.NewPlayerID(), ids.NewPlayerID()
	deck := make([]ids.CardID, deckSize)
	for i := range deck {
		deck[i] = cardID
	}

	players := []state.Player{
		{ID: p1, InitialCards: append([]ids.CardID(nil), deck...)},
		{ID: p2, InitialCards: append([]ids.CardID(nil), deck...)},
	}
	g := state.NewGame(ids.NewGameID(), db, players, []ids.PlayerID{p1, p2}, ids.NewRNG(1337))
	return g, p1, p2
}

func TestStepKeepHandDrawsOpeningHandsAndStarts(t *testing.T) {
	g, p1, p2 := newPlainGame(t, 10)
	out := &stubOutside{t: t, keeping: [][]ids.PlayerID{{p1, p2}}}

	// A single Step call draws the opening hands, asks once whether each
	// player is keeping, and — since both keep immediately — starts the
	// game, all in one round.
	require.NoError(t, engine.Step(context.Background(), g, out))

	latest := g.Latest()
	assert.Len(t, latest.Hand(p1).Objects, 7)
	assert.Len(t, latest.Hand(p2).Objects, 7)
	assert.Equal(t, state.StageGameRunning, latest.Stage.Kind)
}

func TestStepProducesExactlyTheCanonicalZones(t *testing.T) {
	g, p1, p2 := newPlainGame(t, 8)
	out := &stubOutside{t: t, keeping: [][]ids.PlayerID{{p1, p2}}}
	require.NoError(t, engine.Step(context.Background(), g, out))

	latest := g.Latest()
	assert.Len(t, latest.Zones, 8, "battlefield, stack, and hand/library/discard per player")
	for _, p := range []ids.PlayerID{p1, p2} {
		assert.Equal(t, 8, len(latest.Hand(p).Objects)+len(latest.Library(p).Objects),
			"every deck card is either in hand or library after the opener")
	}
	assert.Equal(t, []ids.PlayerID{p1, p2}, latest.ActivePlayerOrder,
		"the constructor's turn order survives the first step")

	seen := map[ids.ObjectID]struct{}{}
	for _, zone := range latest.Zones {
		for _, obj := range zone.Objects {
			_, dup := seen[obj.ID]
			assert.False(t, dup, "object %s appears in more than one zone", obj.ID)
			seen[obj.ID] = struct{}{}
		}
	}
}

func TestMulliganOnceThenKeepLeavesSixCards(t *testing.T) {
	g, p1, p2 := newPlainGame(t, 8)
	out := &stubOutside{t: t, keeping: [][]ids.PlayerID{{p2}, {p1}}}

	require.NoError(t, engine.Step(context.Background(), g, out)) // both draw 7; only p2 keeps
	require.NoError(t, engine.Step(context.Background(), g, out)) // p1 mulligans to 6, then keeps

	latest := g.Latest()
	assert.Len(t, latest.Hand(p1).Objects, 6)
	assert.Len(t, latest.Hand(p2).Objects, 7, "a kept hand is never reshuffled")
	assert.Equal(t, state.StageGameRunning, latest.Stage.Kind)
}

func TestStepKeepHandForcesKeepAtHandSizeOne(t *testing.T) {
	g, p1, p2 := newPlainGame(t, 1)
	// Neither player keeps on the first ask, leaving both at hand size 1.
	out := &stubOutside{t: t, keeping: [][]ids.PlayerID{{}}}

	require.NoError(t, engine.Step(context.Background(), g, out)) // draws hand size 1, asks once
	assert.Len(t, g.Latest().Hand(p1).Objects, 1)
	assert.Equal(t, state.StageKeepHand, g.Latest().Stage.Kind)

	require.NoError(t, engine.Step(context.Background(), g, out)) // forced keep, no outside call needed

	latest := g.Latest()
	assert.Len(t, latest.Hand(p1).Objects, 0)
	assert.Len(t, latest.Hand(p2).Objects, 0)
	assert.Equal(t, state.StageGameRunning, latest.Stage.Kind,
		"both players should be force-kept without a second outside round trip")
}

func TestStepGameRunningPassPriorityThenAdvancesTurn(t *testing.T) {
	g, p1, p2 := newPlainGame(t, 7)
	out := &stubOutside{t: t, keeping: [][]ids.PlayerID{{p1, p2}}}

	require.NoError(t, engine.Step(context.Background(), g, out)) // draw openers, ask, start game
	require.Equal(t, state.StageGameRunning, g.Latest().Stage.Kind)
	require.Equal(t, []ids.PlayerID{p1, p2}, g.Latest().ActivePlayerOrder)

	out.nextAction = []int{0, 0} // PassPriority is always offered at index 0

	// p1 passes, p2 passes, then a third step advances the turn without any
	// outside call.
	require.NoError(t, engine.Step(context.Background(), g, out))
	require.NoError(t, engine.Step(context.Background(), g, out))
	require.NoError(t, engine.Step(context.Background(), g, out))

	// Once both players pass with an empty stack, the next step rotates the
	// active player order rather than going idle: a game only idles when it
	// has no players left at all.
	latest := g.Latest()
	assert.Equal(t, []ids.PlayerID{p2, p1}, latest.ActivePlayerOrder)
	assert.Equal(t, []ids.PlayerID{p2, p1}, latest.UnpassedPlayers)
}

// damageCard builds a card whose single on-resolve handler deals amount
// damage to one chosen target.
func damageCard(id ids.CardID, amount uint64) card.Card {
	return card.Card{
		ID: id,
		Behaviour: card.Behaviour{
			Effects: []card.CardEffect{{
				Kind: card.CardEffectTriggered,
				Triggered: card.TriggeredEffect{
					Trigger: card.TriggerOnResolve,
					Effects: []effect.Effect{effect.InstantEffect(effect.DealDamage{Amount: amount})},
				},
			}},
		},
	}
}

// drawCard builds a card whose single on-resolve handler has its controller
// draw count cards.
func drawCard(id ids.CardID, count int) card.Card {
	return card.Card{
		ID: id,
		Behaviour: card.Behaviour{
			Effects: []card.CardEffect{{
				Kind: card.CardEffectTriggered,
				Triggered: card.TriggeredEffect{
					Trigger: card.TriggerOnResolve,
					Effects: []effect.Effect{effect.InstantEffect(effect.DrawCards{Count: count})},
				},
			}},
		},
	}
}

func newEffectGame(t *testing.T, c card.Card, deckSize int, seed uint64) (*state.Game, ids.PlayerID, ids.PlayerID) {
	t.Helper()
	db := card.NewDatabase([]card.Card{c})

	p1, p2 := ids.NewPlayerID(), ids.NewPlayerID()
	deck := make([]ids.CardID, deckSize)
	for i := range deck {
		deck[i] = c.ID
	}
	players := []state.Player{
		{ID: p1, InitialCards: append([]ids.CardID(nil), deck...)},
		{ID: p2, InitialCards: append([]ids.CardID(nil), deck...)},
	}
	return state.NewGame(ids.NewGameID(), db, players, []ids.PlayerID{p1, p2}, ids.NewRNG(seed)), p1, p2
}

func TestPlayDamageCardTargetingOpponentThenResolve(t *testing.T) {
	g, p1, p2 := newEffectGame(t, damageCard(ids.CardIDFrom(uuid.New()), 3), 8, 1234)
	out := &stubOutside{t: t, keeping: [][]ids.PlayerID{{p1, p2}}}

	require.NoError(t, engine.Step(context.Background(), g, out)) // mulligans, start game

	// The active player plays their first hand card, targets the opponent
	// (candidate 0 is the active player, 1 the opponent; the battlefield is
	// empty so no object candidates follow), and passes in the same breath.
	out.nextAction = []int{1}
	out.targetChoices = [][]int{{1}}
	out.passing = []bool{true}
	require.NoError(t, engine.Step(context.Background(), g, out))

	latest := g.Latest()
	require.Len(t, latest.Stack().Objects, 1)
	assert.Equal(t, []ids.PlayerID{p2}, latest.UnpassedPlayers,
		"playing a card must not reset priority; only the player who elected to pass leaves the list")

	// The opponent declines to respond.
	out.nextAction = []int{0}
	require.NoError(t, engine.Step(context.Background(), g, out))
	require.Empty(t, g.Latest().UnpassedPlayers)

	// Everyone has passed with a non-empty stack: this step resolves the
	// top without any outside call.
	require.NoError(t, engine.Step(context.Background(), g, out))

	latest = g.Latest()
	assert.Empty(t, latest.Stack().Objects)
	assert.Equal(t, state.DefaultStartingHealth-3, latest.HealthOf(p2))
	assert.Equal(t, state.DefaultStartingHealth, latest.HealthOf(p1))
	assert.Equal(t, latest.ActivePlayerOrder, latest.UnpassedPlayers,
		"resolution must hand every player a fresh round of priority")
	assert.Len(t, latest.Discard(p1).Objects, 1, "the resolved card goes to its controller's discard")
}

func TestPlayDrawCardGrowsControllerHandOnResolve(t *testing.T) {
	g, p1, p2 := newEffectGame(t, drawCard(ids.CardIDFrom(uuid.New()), 2), 12, 1234)
	out := &stubOutside{t: t, keeping: [][]ids.PlayerID{{p1, p2}}}

	require.NoError(t, engine.Step(context.Background(), g, out))
	require.Len(t, g.Latest().Hand(p1).Objects, 7)

	out.nextAction = []int{1, 0, 0} // play, then both players pass
	out.passing = []bool{false}
	require.NoError(t, engine.Step(context.Background(), g, out)) // play (no targets to gather)
	require.NoError(t, engine.Step(context.Background(), g, out)) // p1 passes
	require.NoError(t, engine.Step(context.Background(), g, out)) // p2 passes
	require.NoError(t, engine.Step(context.Background(), g, out)) // resolve

	latest := g.Latest()
	assert.Empty(t, latest.Stack().Objects)
	assert.Len(t, latest.Hand(p1).Objects, 8, "7 opener, minus the played card, plus 2 drawn on resolve")
}

func TestStepRejectsOutOfRangeActionIndexWithoutAdvancingState(t *testing.T) {
	g, p1, p2 := newPlainGame(t, 7)
	out := &stubOutside{t: t, keeping: [][]ids.PlayerID{{p1, p2}}}
	require.NoError(t, engine.Step(context.Background(), g, out))
	before := g.LatestIndex()

	out.nextAction = []int{99}
	err := engine.Step(context.Background(), g, out)
	require.Error(t, err)
	var invalid *engine.ErrInvalidActionChoice
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 8, invalid.ListLength, "pass plus seven hand cards were offered")
	assert.Equal(t, 99, invalid.Selected)
	assert.Equal(t, before, g.LatestIndex(), "a rejected action must not advance the state history")
}

func TestStepRejectsWrongTargetChoiceCount(t *testing.T) {
	g, p1, p2 := newEffectGame(t, damageCard(ids.CardIDFrom(uuid.New()), 1), 8, 1337)
	out := &stubOutside{t: t, keeping: [][]ids.PlayerID{{p1, p2}}}
	require.NoError(t, engine.Step(context.Background(), g, out))
	before := g.LatestIndex()

	out.nextAction = []int{1}
	out.targetChoices = [][]int{{0, 1}} // two indices where exactly one was requested
	err := engine.Step(context.Background(), g, out)
	require.Error(t, err)
	var invalid *engine.ErrInvalidChoiceAmount
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.Expected)
	assert.Equal(t, 2, invalid.Received)
	assert.Equal(t, before, g.LatestIndex())
}

// TestSameSeedAndAnswersProduceIdenticalGames pins the engine's determinism
// guarantee: two games built from the same seed, the same players, and the
// same decks, driven by identically scripted outside answers, must walk
// through identical state histories.
func TestSameSeedAndAnswersProduceIdenticalGames(t *testing.T) {
	cardDef := damageCard(ids.CardIDFrom(uuid.New()), 2)
	db := card.NewDatabase([]card.Card{cardDef})
	p1, p2 := ids.NewPlayerID(), ids.NewPlayerID()

	runOnce := func() *state.Game {
		deck := []ids.CardID{cardDef.ID, cardDef.ID, cardDef.ID, cardDef.ID, cardDef.ID, cardDef.ID, cardDef.ID, cardDef.ID}
		players := []state.Player{
			{ID: p1, InitialCards: append([]ids.CardID(nil), deck...)},
			{ID: p2, InitialCards: append([]ids.CardID(nil), deck...)},
		}
		g := state.NewGame(ids.NewGameID(), db, players, []ids.PlayerID{p1, p2}, ids.NewRNG(1337))
		out := &stubOutside{
			t:             t,
			keeping:       [][]ids.PlayerID{{}, {p1, p2}}, // everyone mulligans once, then keeps
			nextAction:    []int{1, 0, 0},
			targetChoices: [][]int{{1}},
			passing:       []bool{true},
		}
		require.NoError(t, engine.Step(context.Background(), g, out)) // openers drawn, nobody keeps
		require.NoError(t, engine.Step(context.Background(), g, out)) // mulligan to 6, keep, start
		require.NoError(t, engine.Step(context.Background(), g, out)) // p1 plays targeting p2, passes
		require.NoError(t, engine.Step(context.Background(), g, out)) // p2 passes
		require.NoError(t, engine.Step(context.Background(), g, out)) // resolve
		return g
	}

	first := runOnce()
	second := runOnce()

	assert.Equal(t, first.GameStates, second.GameStates)
	assert.Equal(t, first.History, second.History)
	assert.Equal(t, state.DefaultStartingHealth-2, first.Latest().HealthOf(p2))
}

func TestStepGameRunningPlayCardMovesItToStack(t *testing.T) {
	g, p1, p2 := newPlainGame(t, 7)
	out := &stubOutside{t: t, keeping: [][]ids.PlayerID{{p1, p2}}}

	require.NoError(t, engine.Step(context.Background(), g, out)) // draw openers, ask, start game
	require.Equal(t, state.StageGameRunning, g.Latest().Stage.Kind)

	out.nextAction = []int{1} // index 0 is PassPriority, index 1 is the first hand card
	out.passing = []bool{false}
	require.NoError(t, engine.Step(context.Background(), g, out))

	assert.Len(t, g.Latest().Stack().Objects, 1)
	assert.Len(t, g.Latest().Hand(p1).Objects, 6)
}
