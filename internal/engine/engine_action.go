package engine

import (
	"context"

	"go.uber.org/zap"

	"technomancy/internal/effect"
	"technomancy/internal/ids"
	"technomancy/internal/outside"
	"technomancy/internal/state"
)

// takePlayerAction is reached whenever the active player (the first entry
// of UnpassedPlayers) still owes the engine a decision: pass priority, or
// play a card. It offers PassPriority plus one PlayCard option per hand
// object, lets the outside pick one, and executes it.
func takePlayerAction(ctx context.Context, game *state.Game, latest state.GameState, out outside.Game) error {
	activePlayer := latest.UnpassedPlayers[0]

	actions := []outside.PlayerAction{outside.PassPriorityAction()}
	for _, obj := range latest.Hand(activePlayer).Objects {
		actions = append(actions, outside.PlayCardAction(state.HandZone(activePlayer), obj.ID))
	}

	log(game).Debug("asking player for next action",
		zap.Stringer("player", activePlayer), zap.Int("options", len(actions)))
	choice, err := out.GetNextPlayerActionFrom(ctx, game.ID, activePlayer, actions)
	if err != nil {
		return err
	}
	if choice < 0 || choice >= len(actions) {
		return &ErrInvalidActionChoice{ListLength: len(actions), Selected: choice}
	}

	selected := actions[choice]
	switch selected.Kind {
	case outside.ActionPassPriority:
		return game.Apply([]state.Atom{state.PassPriority{Player: activePlayer}})
	case outside.ActionPlayCard:
		return playCard(ctx, game, latest, out, activePlayer, selected.From, selected.Object)
	default:
		return &ErrInvalidActionChoice{ListLength: len(actions), Selected: choice}
	}
}

// playCard is the card-play subroutine: identify the card, gather the
// outside's choices for each on-resolve handler it declares, mint the
// object's new stack identity, ask whether the active player is also
// passing priority in the same breath, and commit every resulting atom in
// one batch. Cost calculation and payment are an identity placeholder in
// this engine (see DESIGN.md): every card is treated as already paid for.
func playCard(ctx context.Context, game *state.Game, latest state.GameState, out outside.Game, player ids.PlayerID, from state.ZoneID, object ids.ObjectID) error {
	obj, ok := latest.ObjectInZone(from, object)
	if !ok {
		return &state.ErrObjectNotFoundInZone{Zone: from, Object: object}
	}
	if obj.UnderlyingCard == nil {
		return &ErrObjectHasNoCard{Object: object}
	}
	c, err := game.Cards.Get(*obj.UnderlyingCard)
	if err != nil {
		return err
	}

	choices := map[effect.Key]effect.Info{}
	for _, handler := range c.OnResolveHandlers() {
		if handler.Effect.Kind != effect.EffectInstant {
			continue
		}
		for name, req := range handler.Effect.Instant.RequiredInfo() {
			if req.Kind != effect.InfoRequestSingleTarget {
				continue
			}
			info, err := gatherSingleTarget(ctx, game, latest, out, player, object, name)
			if err != nil {
				return err
			}
			choices[effect.Key{EffectIndex: handler.Index, Name: name}] = info
		}
	}

	passing, err := out.GetPlayerPassing(ctx, game.ID, player)
	if err != nil {
		return err
	}

	atoms := []state.Atom{state.PlayerPlayCard{
		Player:      player,
		From:        from,
		Object:      object,
		NewObjectID: ids.NewObjectID(game.Rand),
		Choices:     choices,
	}}
	if passing {
		atoms = append(atoms, state.PassPriority{Player: player})
	}
	return game.Apply(atoms)
}

// gatherSingleTarget offers every player and every battlefield object as a
// candidate (restrictions are never evaluated, see DESIGN.md), asks the
// outside to pick exactly one, and wraps the answer as an effect.Info.
//
// Candidates are built by walking latest.ActivePlayerOrder rather than
// ranging over game.Players: Go map iteration order is randomized per
// process, and the outside's answer is an index into this exact candidate
// list — building it from an unordered map would make the same seed and
// the same outside answers resolve to different targets on different runs,
// breaking the determinism this engine otherwise guarantees end to end.
func gatherSingleTarget(ctx context.Context, game *state.Game, latest state.GameState, out outside.Game, player ids.PlayerID, source ids.ObjectID, name string) (effect.Info, error) {
	var candidates []effect.Target
	for _, p := range latest.ActivePlayerOrder {
		candidates = append(candidates, effect.PlayerTarget(p))
	}
	for _, obj := range latest.Battlefield().Objects {
		candidates = append(candidates, effect.ObjectTarget(obj.ID))
	}

	chosen, err := out.GetTargetChoicesFromGiven(ctx, game.ID, player, source, name, candidates, 1)
	if err != nil {
		return effect.Info{}, err
	}
	if len(chosen) != 1 || chosen[0] < 0 || chosen[0] >= len(candidates) {
		return effect.Info{}, &ErrInvalidChoiceAmount{Expected: 1, Received: len(chosen)}
	}

	return effect.Info{Kind: effect.InfoSingleTarget, SingleTarget: candidates[chosen[0]]}, nil
}
