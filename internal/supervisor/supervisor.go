// Package supervisor owns the registry of running games and the single
// cooperative goroutine each one runs on. Games never share a lock between
// each other: the only state genuinely shared across games is the
// read-only card.Database, so the registry's mutex only ever guards the
// map of game ids to their Handle, never a game's own state.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"technomancy/internal/card"
	"technomancy/internal/effect"
	"technomancy/internal/engine"
	"technomancy/internal/ids"
	"technomancy/internal/logger"
	"technomancy/internal/outside"
	"technomancy/internal/state"
)

// Handle is a running game's supervision handle: the live *state.Game plus
// the plumbing needed to stop its goroutine.
type Handle struct {
	Game   *state.Game
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Wait blocks until the game's goroutine has exited, returning the error it
// exited with: nil when the game went idle, and after Stop the cancellation
// error (or the error of the step that cancellation interrupted).
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Stop cancels the game's goroutine and waits for it to exit.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Registry tracks every currently running game.
type Registry struct {
	mu    sync.RWMutex
	games map[ids.GameID]*Handle
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{games: make(map[ids.GameID]*Handle)}
}

// ErrGameAlreadyRunning is returned by Spawn when a game with the same id is
// already registered.
type ErrGameAlreadyRunning struct {
	Game ids.GameID
}

func (e *ErrGameAlreadyRunning) Error() string {
	return fmt.Sprintf("supervisor: game %s is already running", e.Game)
}

// ErrGameNotFound is returned by Lookup/DestroyGame for an unregistered game id.
type ErrGameNotFound struct {
	Game ids.GameID
}

func (e *ErrGameNotFound) Error() string {
	return fmt.Sprintf("supervisor: game %s not found", e.Game)
}

// Spawn registers g and starts its cooperative goroutine, which repeatedly
// calls engine.Step against out until ctx is cancelled or Step returns a
// terminal error. The goroutine is the only thing that ever mutates g after
// Spawn returns, so callers must not call g.Apply directly once a game is
// spawned.
func (r *Registry) Spawn(ctx context.Context, g *state.Game, out outside.Game) (*Handle, error) {
	r.mu.Lock()
	if _, exists := r.games[g.ID]; exists {
		r.mu.Unlock()
		return nil, &ErrGameAlreadyRunning{Game: g.ID}
	}
	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{Game: g, cancel: cancel, done: make(chan struct{})}
	r.games[g.ID] = h
	r.mu.Unlock()

	go r.run(runCtx, h, out)
	return h, nil
}

func (r *Registry) run(ctx context.Context, h *Handle, out outside.Game) {
	log := logger.WithGameContext(h.Game.ID)
	defer func() {
		r.mu.Lock()
		delete(r.games, h.Game.ID)
		r.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("game supervision cancelled")
			h.err = ctx.Err()
			return
		default:
		}

		if err := engine.Step(ctx, h.Game, out); err != nil {
			var idle *engine.ErrIdle
			if errors.As(err, &idle) {
				log.Info("game reached an idle state, stopping supervision")
				return
			}
			log.Error("game step failed", zap.Error(err))
			h.err = err
			return
		}
	}
}

// PlayerSpec is one player's contribution to a create_game meta-protocol
// call: their decklist, and Dial, which CreateGame invokes with the
// PlayerID it mints for this seat to obtain the Scoped outside connection
// that will answer decisions on their behalf. Taking a dial function rather
// than an already-built Scoped client avoids a chicken-and-egg problem:
// nothing can be addressed to a PlayerID before CreateGame has minted one.
type PlayerSpec struct {
	InitialCards   []ids.CardID
	StartingHealth int64
	Dial           func(ids.PlayerID) outside.Scoped
}

// CreateGame implements the create_game meta-protocol operation: it mints a
// fresh GameID and one PlayerID per entry in players, seeds a Game from
// cards and seed, wraps the whole set of per-player Scoped outside
// connections with the game id (see outside.WithGameID and fanoutScoped),
// and spawns the game's cooperative goroutine.
func (r *Registry) CreateGame(ctx context.Context, cards *card.Database, players []PlayerSpec, seed uint64) (ids.GameID, *Handle, error) {
	gameID := ids.NewGameID()
	rand := ids.NewRNG(seed)

	order := make([]ids.PlayerID, len(players))
	statePlayers := make([]state.Player, len(players))
	fanout := make(map[ids.PlayerID]outside.Scoped, len(players))
	for i, p := range players {
		pid := ids.NewPlayerID()
		order[i] = pid
		statePlayers[i] = state.Player{ID: pid, InitialCards: p.InitialCards, StartingHealth: p.StartingHealth}
		fanout[pid] = p.Dial(pid)
	}

	g := state.NewGame(gameID, cards, statePlayers, order, rand)
	h, err := r.Spawn(ctx, g, outside.WithGameID(gameID, &fanoutScoped{byPlayer: fanout}))
	if err != nil {
		return ids.GameID{}, nil, err
	}
	return gameID, h, nil
}

// DestroyGame implements the destroy_game meta-protocol operation: it stops
// the named game's goroutine and removes it from the registry.
func (r *Registry) DestroyGame(id ids.GameID) error {
	h, err := r.Lookup(id)
	if err != nil {
		return err
	}
	h.Stop()
	return nil
}

// fanoutScoped routes each Scoped call to the connection registered for the
// player argument, letting CreateGame hand Spawn a single outside.Scoped
// even though every player in the game may answer over a distinct
// connection.
type fanoutScoped struct {
	byPlayer map[ids.PlayerID]outside.Scoped
}

// GetPlayerKeeping is the one Scoped call that spans more than one player at
// a time; it is routed through the first asked player's connection, which
// is correct whenever every player in a game shares one outside connection
// (the common case) and is the best this fan-out can do when they don't,
// since get_player_keeping has no way to split its single answer across
// multiple connections.
func (f *fanoutScoped) GetPlayerKeeping(ctx context.Context, askedPlayers []ids.PlayerID) ([]ids.PlayerID, error) {
	if len(askedPlayers) == 0 {
		return nil, nil
	}
	return f.byPlayer[askedPlayers[0]].GetPlayerKeeping(ctx, askedPlayers)
}

func (f *fanoutScoped) GetNextPlayerActionFrom(ctx context.Context, player ids.PlayerID, playerActions []outside.PlayerAction) (int, error) {
	return f.byPlayer[player].GetNextPlayerActionFrom(ctx, player, playerActions)
}

func (f *fanoutScoped) GetTargetChoicesFromGiven(ctx context.Context, player ids.PlayerID, source ids.ObjectID, name string, choices []effect.Target, count int) ([]int, error) {
	return f.byPlayer[player].GetTargetChoicesFromGiven(ctx, player, source, name, choices, count)
}

func (f *fanoutScoped) GetPlayerPassing(ctx context.Context, player ids.PlayerID) (bool, error) {
	return f.byPlayer[player].GetPlayerPassing(ctx, player)
}

// Lookup returns the running Handle for id, if any.
func (r *Registry) Lookup(id ids.GameID) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.games[id]
	if !ok {
		return nil, &ErrGameNotFound{Game: id}
	}
	return h, nil
}

// Count returns the number of currently running games.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
