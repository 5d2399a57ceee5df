package state

import (
	"technomancy/internal/effect"
	"technomancy/internal/ids"
)

// Atom is one unit of game-state mutation. It is an alias for effect.Atom
// (itself `any`) rather than an interface with a sealed method set: effect
// handlers produce atoms without importing this package, and Apply
// type-switches over the concrete values.
type Atom = effect.Atom

// StartGame moves the game's stage from StageKeepHand to StageGameRunning,
// once every player has kept a hand. Library seeding happens once, directly
// in NewGame, rather than through an atom: it reflects each player's
// decklist rather than a state transition worth replaying atom-by-atom.
type StartGame struct{}

// KeepHand records that a player has chosen to keep their opening hand.
type KeepHand struct {
	Player ids.PlayerID
}

// ShuffleHandIntoLibrary moves every object from a player's hand into their
// library and shuffles the library. The shuffle happens inside Apply,
// consuming the game's RNG — one of the two RNG sites this engine
// recognizes. The redraw that follows a mulligan is a separate DrawCards
// atom composed by the keep-hand step, not part of this one.
type ShuffleHandIntoLibrary struct {
	Player ids.PlayerID
}

// DrawCards moves Count objects from the top of Player's library into their
// hand. If the library holds fewer than Count objects, the player draws
// whatever remains — this atom never fails for running out of cards.
type DrawCards = effect.DrawCardsAtom

// DealDamage applies Amount to Target: a player's health is decremented
// directly; a battlefield object has Amount marked against it, and is moved
// to its controller's discard the instant its marked damage reaches its
// agent toughness (see DESIGN.md's discussion of this Open Question).
type DealDamage = effect.DealDamageAtom

// PassPriority records that Player passed priority without taking an action.
type PassPriority struct {
	Player ids.PlayerID
}

// PlayerPlayCard moves a card from a player's hand onto the stack.
//
// Object identifies the hand object being played (used to locate and remove
// it from the hand zone). NewObjectID is the identity the card takes on the
// stack: the engine mints a fresh ObjectID for every object that enters the
// stack or battlefield rather than reusing the hand identity, so NewObjectID
// is always a distinct, freshly-minted id. Choices carries the
// outside-supplied information for each on-resolve handler the card
// declares, keyed the same way Object.Choices is keyed.
type PlayerPlayCard struct {
	Player ids.PlayerID
	// From is almost always the player's hand, but is carried explicitly
	// (rather than assumed) so a future effect that lets a player play a
	// card from another zone needs no atom shape change.
	From        ZoneID
	Object      ids.ObjectID
	NewObjectID ids.ObjectID
	Choices     map[effect.Key]effect.Info
}

// ResetPriority clears UnpassedPlayers back to the full active player order,
// used when the top of the stack resolves so every player gets a fresh
// chance to act. Playing a card does not reset priority.
type ResetPriority struct{}

// PopStack removes the topmost object from the stack and moves it to its
// controller's discard. The engine appends it after the atoms the object's
// on-resolve handlers produced, so the handlers observe the object still on
// the stack. PopStack carries the object being resolved so Apply can
// validate it is still the stack's top before removing it.
type PopStack struct {
	Object ids.ObjectID
}

// AdvanceTurn rotates ActivePlayerOrder by one (the current active player
// moves to the back) and resets UnpassedPlayers to the new order. It is the
// engine's minimal answer to the "advance phase/turn" Open Question: no
// untap/upkeep/draw/combat/end/cleanup sub-phases are modeled, since the
// source gives no design intent for them (see DESIGN.md); turns simply
// rotate priority around the table whenever the stack empties with
// everyone passed.
type AdvanceTurn struct{}
