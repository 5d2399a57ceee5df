// Package engine drives a single game forward one outside round-trip at a
// time. Step is the entire state machine: it inspects the latest GameState,
// decides what (if anything) needs to suspend on the outside boundary, and
// folds the resulting atoms back in through Game.Apply. Nothing in this
// package retains state across calls beyond what already lives in the
// state.Game it is handed.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"technomancy/internal/effect"
	"technomancy/internal/ids"
	"technomancy/internal/logger"
	"technomancy/internal/outside"
	"technomancy/internal/state"
)

// ErrObjectHasNoCard is returned when a stack or hand object carries no
// underlying card reference at all. A reference that does not resolve
// against the card database surfaces as card.ErrCardNotFound instead.
type ErrObjectHasNoCard struct {
	Object ids.ObjectID
}

func (e *ErrObjectHasNoCard) Error() string {
	return fmt.Sprintf("engine: object %s has no underlying card", e.Object)
}

// ErrInvalidActionChoice is returned when the outside selects an action
// index outside the range it was offered.
type ErrInvalidActionChoice struct {
	ListLength int
	Selected   int
}

func (e *ErrInvalidActionChoice) Error() string {
	return fmt.Sprintf("engine: selected action %d out of %d offered", e.Selected, e.ListLength)
}

// ErrInvalidChoiceAmount is returned when the outside answers a target
// request with a number of choices other than what was requested.
type ErrInvalidChoiceAmount struct {
	Expected int
	Received int
}

func (e *ErrInvalidChoiceAmount) Error() string {
	return fmt.Sprintf("engine: expected %d choices, received %d", e.Expected, e.Received)
}

// ErrEffectExecute wraps a handler-level failure (missing info, no
// controller) raised while resolving the top of the stack.
type ErrEffectExecute struct {
	Source error
}

func (e *ErrEffectExecute) Error() string {
	return fmt.Sprintf("engine: effect execution failed: %v", e.Source)
}

func (e *ErrEffectExecute) Unwrap() error { return e.Source }

// ErrIdle is returned by Step when a game has no players in its active
// order and therefore nothing for AdvanceTurn to rotate to; it should never
// occur for a properly constructed game (see DESIGN.md's discussion of the
// turn/phase-advance Open Question).
type ErrIdle struct{}

func (e *ErrIdle) Error() string {
	return "engine: game is idle — no players in active order"
}

// Step advances game by exactly one round: either a full mulligan pass (in
// StageKeepHand) or a single priority decision / stack resolution (in
// StageGameRunning). Callers loop on Step until the game ends.
func Step(ctx context.Context, game *state.Game, out outside.Game) error {
	switch game.Latest().Stage.Kind {
	case state.StageKeepHand:
		return stepKeepHand(ctx, game, out)
	case state.StageGameRunning:
		return stepGameRunning(ctx, game, out)
	default:
		return fmt.Errorf("engine: unknown stage kind %d", game.Latest().Stage.Kind)
	}
}

func log(game *state.Game) *zap.Logger {
	return logger.WithGameContext(game.ID)
}

func stepKeepHand(ctx context.Context, game *state.Game, out outside.Game) error {
	latest := game.Latest()
	keeping := latest.Stage.PlayersKeeping

	var mulliganAtoms []state.Atom
	for _, p := range latest.ActivePlayerOrder {
		if _, ok := keeping[p]; ok {
			continue
		}
		handSize := len(latest.Hand(p).Objects)
		switch {
		case handSize == 0:
			mulliganAtoms = append(mulliganAtoms, state.DrawCards{Player: p, Count: 7})
		case handSize == 1:
			// A hand already down to one card is forced to keep rather
			// than mulligan further: the lone card is shuffled back with
			// no redraw, and the player is immediately marked as keeping.
			mulliganAtoms = append(mulliganAtoms,
				state.ShuffleHandIntoLibrary{Player: p},
				state.KeepHand{Player: p},
			)
		default:
			mulliganAtoms = append(mulliganAtoms,
				state.ShuffleHandIntoLibrary{Player: p},
				state.DrawCards{Player: p, Count: handSize - 1},
			)
		}
	}
	if len(mulliganAtoms) > 0 {
		if err := game.Apply(mulliganAtoms); err != nil {
			return err
		}
	}

	latest = game.Latest()
	var notYetKept []ids.PlayerID
	for _, p := range latest.ActivePlayerOrder {
		if _, ok := latest.Stage.PlayersKeeping[p]; !ok {
			notYetKept = append(notYetKept, p)
		}
	}

	if len(notYetKept) > 0 {
		log(game).Debug("asking players whether they are keeping their hand", zap.Int("count", len(notYetKept)))
		nowKeeping, err := out.GetPlayerKeeping(ctx, game.ID, notYetKept)
		if err != nil {
			return err
		}
		atoms := make([]state.Atom, len(nowKeeping))
		for i, p := range nowKeeping {
			atoms[i] = state.KeepHand{Player: p}
		}
		if len(atoms) > 0 {
			if err := game.Apply(atoms); err != nil {
				return err
			}
		}
	}

	latest = game.Latest()
	if len(latest.Stage.PlayersKeeping) == len(game.Players) {
		log(game).Info("all players kept, starting game")
		return game.Apply([]state.Atom{state.StartGame{}})
	}
	return nil
}

func stepGameRunning(ctx context.Context, game *state.Game, out outside.Game) error {
	latest := game.Latest()
	stack := latest.Stack()

	if len(latest.UnpassedPlayers) == 0 {
		if len(stack.Objects) == 0 {
			if len(latest.ActivePlayerOrder) == 0 {
				return &ErrIdle{}
			}
			log(game).Debug("stack empty and all players passed, advancing turn")
			return game.Apply([]state.Atom{state.AdvanceTurn{}})
		}
		return resolveTopOfStack(ctx, game, latest, stack)
	}

	return takePlayerAction(ctx, game, latest, out)
}

func resolveTopOfStack(ctx context.Context, game *state.Game, latest state.GameState, stack state.Zone) error {
	top := stack.Objects[len(stack.Objects)-1]
	if top.UnderlyingCard == nil {
		return &ErrObjectHasNoCard{Object: top.ID}
	}
	c, err := game.Cards.Get(*top.UnderlyingCard)
	if err != nil {
		return err
	}

	var atoms []state.Atom
	for _, handler := range c.OnResolveHandlers() {
		if handler.Effect.Kind != effect.EffectInstant {
			continue
		}
		info := gatherAttachedChoices(top, handler.Index)
		effectAtoms, err := handler.Effect.Instant.Execute(info, top.ID, latest)
		if err != nil {
			return &ErrEffectExecute{Source: err}
		}
		atoms = append(atoms, effectAtoms...)
	}

	atoms = append(atoms, state.PopStack{Object: top.ID}, state.ResetPriority{})
	log(game).Debug("resolving top of stack", zap.Stringer("object", top.ID))
	return game.Apply(atoms)
}

// gatherAttachedChoices slices an object's recorded Choices map down to the
// entries belonging to one on-resolve handler, keyed by info name.
func gatherAttachedChoices(obj state.Object, handlerIndex int) map[string]effect.Info {
	info := map[string]effect.Info{}
	for key, value := range obj.Choices {
		if key.EffectIndex == handlerIndex {
			info[key.Name] = value
		}
	}
	return info
}
