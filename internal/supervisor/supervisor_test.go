package supervisor_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technomancy/internal/card"
	"technomancy/internal/effect"
	"technomancy/internal/ids"
	"technomancy/internal/outside"
	"technomancy/internal/supervisor"
)

// blockingScoped never answers; it exists to exercise Spawn/CreateGame
// wiring without racing the game goroutine to an outcome.
type blockingScoped struct{}

func (blockingScoped) GetPlayerKeeping(ctx context.Context, _ []ids.PlayerID) ([]ids.PlayerID, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingScoped) GetNextPlayerActionFrom(ctx context.Context, _ ids.PlayerID, _ []outside.PlayerAction) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func (blockingScoped) GetTargetChoicesFromGiven(ctx context.Context, _ ids.PlayerID, _ ids.ObjectID, _ string, _ []effect.Target, _ int) ([]int, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingScoped) GetPlayerPassing(ctx context.Context, _ ids.PlayerID) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestCreateGameRegistersAndDestroyGameStops(t *testing.T) {
	registry := supervisor.NewRegistry()
	cardID := ids.CardIDFrom(uuid.New())
	db := card.NewDatabase([]card.Card{{ID: cardID}})

	players := []supervisor.PlayerSpec{
		{InitialCards: []ids.CardID{cardID}, Dial: func(ids.PlayerID) outside.Scoped { return blockingScoped{} }},
		{InitialCards: []ids.CardID{cardID}, Dial: func(ids.PlayerID) outside.Scoped { return blockingScoped{} }},
	}

	gameID, handle, err := registry.CreateGame(context.Background(), db, players, 42)
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, 1, registry.Count())

	_, err = registry.Lookup(gameID)
	require.NoError(t, err)

	require.NoError(t, registry.DestroyGame(gameID))
	assert.Equal(t, 0, registry.Count())

	_, err = registry.Lookup(gameID)
	require.Error(t, err)
	var notFound *supervisor.ErrGameNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestDestroyGameOnUnknownIDReturnsNotFound(t *testing.T) {
	registry := supervisor.NewRegistry()
	err := registry.DestroyGame(ids.NewGameID())
	require.Error(t, err)
	var notFound *supervisor.ErrGameNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestCreateGameTwiceWithSameIDIsImpossibleByConstruction(t *testing.T) {
	// CreateGame always mints a fresh GameID, so ErrGameAlreadyRunning can
	// only ever surface from a direct Spawn call racing a minted id — this
	// documents that CreateGame itself cannot hit that path.
	registry := supervisor.NewRegistry()
	cardID := ids.CardIDFrom(uuid.New())
	db := card.NewDatabase([]card.Card{{ID: cardID}})
	dial := func(ids.PlayerID) outside.Scoped { return blockingScoped{} }

	id1, h1, err := registry.CreateGame(context.Background(), db, []supervisor.PlayerSpec{{Dial: dial}}, 1)
	require.NoError(t, err)
	id2, h2, err := registry.CreateGame(context.Background(), db, []supervisor.PlayerSpec{{Dial: dial}}, 1)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	require.NoError(t, registry.DestroyGame(id1))
	require.NoError(t, registry.DestroyGame(id2))
	_ = h1
	_ = h2
}

func TestHandleStopWaitsForGoroutineExit(t *testing.T) {
	registry := supervisor.NewRegistry()
	cardID := ids.CardIDFrom(uuid.New())
	db := card.NewDatabase([]card.Card{{ID: cardID}})
	dial := func(ids.PlayerID) outside.Scoped { return blockingScoped{} }

	_, handle, err := registry.CreateGame(context.Background(), db, []supervisor.PlayerSpec{{Dial: dial}}, 7)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		handle.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return once the game goroutine exited")
	}
}
