package effect

import "technomancy/internal/ids"

// targetInfoName is the info key both canonical handlers that need a target
// use; kept as a constant since a handful of other call sites (card-play
// gathering, tests) need to agree on the same string.
const targetInfoName = "target"

// DealDamageAtom is the atom DealDamage emits; defined here, not in state,
// because Execute must return them without effect importing state. The
// state package's apply step type-switches on the concrete type carried
// inside the Atom value (see state.Game.Apply).
type DealDamageAtom struct {
	Amount uint64
	Source ids.ObjectID
	Target Target
}

// DrawCardsAtom is the atom DrawCards emits.
type DrawCardsAtom struct {
	Player ids.PlayerID
	Count  int
}

// DealDamage is the canonical damage-dealing instant effect: it asks for a
// single target and, on resolve, emits one DealDamageAtom.
type DealDamage struct {
	Amount uint64
}

func (d DealDamage) RequiredInfo() map[string]InfoRequest {
	return map[string]InfoRequest{targetInfoName: SingleTargetRequest()}
}

func (d DealDamage) Execute(info map[string]Info, source ids.ObjectID, _ GameView) ([]Atom, error) {
	target, ok := info[targetInfoName]
	if !ok || target.Kind != InfoSingleTarget {
		return nil, ErrInvalidEffectInfo(targetInfoName)
	}
	return []Atom{DealDamageAtom{Amount: d.Amount, Source: source, Target: target.SingleTarget}}, nil
}

// DrawCards is the canonical card-draw instant effect: it needs no info from
// the outside, resolves the source's controller from the game view, and
// emits one DrawCardsAtom for that player.
type DrawCards struct {
	Count int
}

func (d DrawCards) RequiredInfo() map[string]InfoRequest {
	return map[string]InfoRequest{}
}

func (d DrawCards) Execute(_ map[string]Info, source ids.ObjectID, view GameView) ([]Atom, error) {
	controller, ok := view.ControllerOf(source)
	if !ok {
		return nil, ErrNoControllerFound()
	}
	return []Atom{DrawCardsAtom{Player: controller, Count: d.Count}}, nil
}
