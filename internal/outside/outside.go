// Package outside defines the four-method suspension boundary between the
// engine's game loop and whatever is actually making decisions for a
// player — a human over a websocket connection, a bot, or a test harness.
// Every method call is a point where the engine's single per-game goroutine
// yields control and waits, bounded by a deadline.
package outside

import (
	"context"
	"time"

	"technomancy/internal/effect"
	"technomancy/internal/ids"
	"technomancy/internal/state"
)

// ProductionTimeout bounds how long the engine waits for a human decision in
// a real game before treating the call as failed.
const ProductionTimeout = 24 * time.Hour

// TestTimeout is the much shorter deadline test harnesses configure so a
// hung outside stub fails the test quickly instead of the suite hanging.
const TestTimeout = 100 * time.Millisecond

// PlayerActionKind tags which variant of PlayerAction is populated.
type PlayerActionKind int

const (
	ActionPlayCard PlayerActionKind = iota
	ActionPassPriority
)

// PlayerAction is one of the choices get_next_player_action_from offers: a
// specific card to play from a specific zone, or passing priority.
type PlayerAction struct {
	Kind   PlayerActionKind
	From   state.ZoneID
	Object ids.ObjectID
}

// PlayCardAction builds a PlayerAction offering to play a specific card.
func PlayCardAction(from state.ZoneID, object ids.ObjectID) PlayerAction {
	return PlayerAction{Kind: ActionPlayCard, From: from, Object: object}
}

// PassPriorityAction is the single PlayerAction value meaning "pass".
func PassPriorityAction() PlayerAction { return PlayerAction{Kind: ActionPassPriority} }

// Game is the four-method boundary the engine calls into for every decision
// a player must make. Implementations are responsible for applying
// ProductionTimeout/TestTimeout (or any deadline already present on ctx) and
// translating their own RPC/transport failures into the returned error.
type Game interface {
	// GetPlayerKeeping asks which of askedPlayers are keeping their current
	// opening hand; everyone not in the returned slice is mulliganing.
	GetPlayerKeeping(ctx context.Context, game ids.GameID, askedPlayers []ids.PlayerID) ([]ids.PlayerID, error)

	// GetNextPlayerActionFrom asks player to choose one of playerActions by
	// index.
	GetNextPlayerActionFrom(ctx context.Context, game ids.GameID, player ids.PlayerID, playerActions []PlayerAction) (int, error)

	// GetTargetChoicesFromGiven asks player to choose count indices into
	// choices to satisfy the named info request declared by source's
	// handler.
	GetTargetChoicesFromGiven(ctx context.Context, game ids.GameID, player ids.PlayerID, source ids.ObjectID, name string, choices []effect.Target, count int) ([]int, error)

	// GetPlayerPassing asks whether player is passing priority right now.
	GetPlayerPassing(ctx context.Context, game ids.GameID, player ids.PlayerID) (bool, error)
}

// Scoped is the same four-method boundary minus the game id: the shape a
// single outside connection naturally has when it already knows which one
// game it is answering for (one websocket per game, say) and so has no
// reason to thread the id through every call itself.
type Scoped interface {
	GetPlayerKeeping(ctx context.Context, askedPlayers []ids.PlayerID) ([]ids.PlayerID, error)
	GetNextPlayerActionFrom(ctx context.Context, player ids.PlayerID, playerActions []PlayerAction) (int, error)
	GetTargetChoicesFromGiven(ctx context.Context, player ids.PlayerID, source ids.ObjectID, name string, choices []effect.Target, count int) ([]int, error)
	GetPlayerPassing(ctx context.Context, player ids.PlayerID) (bool, error)
}

// gameScoped adapts a Scoped client into a Game by injecting a fixed game id
// into every call, the "per-game client wrapper" the supervisor puts between
// the engine and a connection that only ever answers for one game.
type gameScoped struct {
	game  ids.GameID
	inner Scoped
}

// WithGameID wraps a Scoped client so it satisfies Game, always injecting
// game as the id argument.
func WithGameID(game ids.GameID, inner Scoped) Game { return gameScoped{game: game, inner: inner} }

func (g gameScoped) GetPlayerKeeping(ctx context.Context, _ ids.GameID, askedPlayers []ids.PlayerID) ([]ids.PlayerID, error) {
	return g.inner.GetPlayerKeeping(ctx, askedPlayers)
}

func (g gameScoped) GetNextPlayerActionFrom(ctx context.Context, _ ids.GameID, player ids.PlayerID, playerActions []PlayerAction) (int, error) {
	return g.inner.GetNextPlayerActionFrom(ctx, player, playerActions)
}

func (g gameScoped) GetTargetChoicesFromGiven(ctx context.Context, _ ids.GameID, player ids.PlayerID, source ids.ObjectID, name string, choices []effect.Target, count int) ([]int, error) {
	return g.inner.GetTargetChoicesFromGiven(ctx, player, source, name, choices, count)
}

func (g gameScoped) GetPlayerPassing(ctx context.Context, _ ids.GameID, player ids.PlayerID) (bool, error) {
	return g.inner.GetPlayerPassing(ctx, player)
}

// fixedGame adapts a Game into a Scoped by pinning its game id argument,
// the inverse of WithGameID: a transport.Client already implements Game
// (every wire call carries game_id in its JSON payload regardless), and a
// connection dedicated to one game exposes that as Scoped so the supervisor
// can hand it to CreateGame without re-threading the id itself.
type fixedGame struct {
	game  ids.GameID
	inner Game
}

// ScopedFromGame pins game as the id argument on every call to inner,
// producing a Scoped client from a Game implementation.
func ScopedFromGame(game ids.GameID, inner Game) Scoped { return fixedGame{game: game, inner: inner} }

func (f fixedGame) GetPlayerKeeping(ctx context.Context, askedPlayers []ids.PlayerID) ([]ids.PlayerID, error) {
	return f.inner.GetPlayerKeeping(ctx, f.game, askedPlayers)
}

func (f fixedGame) GetNextPlayerActionFrom(ctx context.Context, player ids.PlayerID, playerActions []PlayerAction) (int, error) {
	return f.inner.GetNextPlayerActionFrom(ctx, f.game, player, playerActions)
}

func (f fixedGame) GetTargetChoicesFromGiven(ctx context.Context, player ids.PlayerID, source ids.ObjectID, name string, choices []effect.Target, count int) ([]int, error) {
	return f.inner.GetTargetChoicesFromGiven(ctx, f.game, player, source, name, choices, count)
}

func (f fixedGame) GetPlayerPassing(ctx context.Context, player ids.PlayerID) (bool, error) {
	return f.inner.GetPlayerPassing(ctx, f.game, player)
}
