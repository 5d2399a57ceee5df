// Package effect defines the polymorphic effect capability cards attach to
// their triggered/activated/static slots, and the closed set of information
// requests an instant effect can pose to the outside.
package effect

import (
	"fmt"

	"technomancy/internal/ids"
)

// Target is either a player or a battlefield object, the two things an
// effect may point at.
type Target struct {
	Player *ids.PlayerID
	Object *ids.ObjectID
}

// PlayerTarget builds a Target pointing at a player.
func PlayerTarget(p ids.PlayerID) Target { return Target{Player: &p} }

// ObjectTarget builds a Target pointing at a battlefield object.
func ObjectTarget(o ids.ObjectID) Target { return Target{Object: &o} }

func (t Target) String() string {
	switch {
	case t.Player != nil:
		return "player:" + t.Player.String()
	case t.Object != nil:
		return "object:" + t.Object.String()
	default:
		return "target:<empty>"
	}
}

// Equal reports whether two targets refer to the same player or object.
func (t Target) Equal(other Target) bool {
	switch {
	case t.Player != nil && other.Player != nil:
		return *t.Player == *other.Player
	case t.Object != nil && other.Object != nil:
		return *t.Object == *other.Object
	default:
		return false
	}
}

// InfoRequestKind tags the variant of InfoRequest populated.
type InfoRequestKind int

const (
	// InfoRequestSingleTarget asks the outside to choose exactly one
	// target, optionally filtered by a restriction.
	InfoRequestSingleTarget InfoRequestKind = iota
)

// Restriction narrows the candidates offered for a single-target request.
// Evaluating a restriction against the live game state is out of scope for
// this engine (see DESIGN.md); a nil Restriction means "unrestricted".
type Restriction struct {
	// Description documents what the restriction is meant to enforce; it is
	// never evaluated by the core loop.
	Description string
}

// InfoRequest is what an instant effect declares it needs in order to
// execute.
type InfoRequest struct {
	Kind        InfoRequestKind
	Restriction *Restriction
}

// SingleTargetRequest builds an unrestricted single-target InfoRequest.
func SingleTargetRequest() InfoRequest {
	return InfoRequest{Kind: InfoRequestSingleTarget}
}

// InfoKind tags the variant of Info populated.
type InfoKind int

const (
	InfoSingleTarget InfoKind = iota
)

// Info is the decision the outside made for one named InfoRequest.
type Info struct {
	Kind         InfoKind
	SingleTarget Target
}

// Key identifies one (handler, info name) pair within a GameObject's
// attached choices map: the effect index among a card's on-resolve handlers,
// plus the info name that handler declared.
type Key struct {
	EffectIndex int
	Name        string
}

// ExecuteFailure is the error kind an instant effect's Execute can fail with.
type ExecuteFailure struct {
	// InvalidName is set when a required info entry is missing or of the
	// wrong kind.
	InvalidName string
	// NoController is set when the effect needed the source object's
	// controller but it had none.
	NoController bool
}

func (e *ExecuteFailure) Error() string {
	if e.NoController {
		return "no controller found for effect source"
	}
	return fmt.Sprintf("invalid effect info for %q", e.InvalidName)
}

// ErrInvalidEffectInfo builds an ExecuteFailure for a missing/mistyped info
// entry.
func ErrInvalidEffectInfo(name string) error { return &ExecuteFailure{InvalidName: name} }

// ErrNoControllerFound builds an ExecuteFailure for a controller-less source.
func ErrNoControllerFound() error { return &ExecuteFailure{NoController: true} }

// GameView is the read-only slice of game state an effect handler is allowed
// to consult while computing atoms. It is implemented by state.GameState in
// production and by fakes in tests.
type GameView interface {
	ControllerOf(object ids.ObjectID) (ids.PlayerID, bool)
}

// Atom stands for one of the concrete atom structs the state package
// defines. It is an alias rather than an interface with a sealed method set
// because state imports effect (for Info/Effect) and so cannot be imported
// back: handlers here produce atoms whose concrete type only the state
// package knows, and apply_atoms type-switches over the concrete values.
type Atom = any

// Instant is an effect that executes synchronously (in the engine's logical
// sense — no further outside suspension happens inside Execute) and returns
// the atoms it wants applied.
type Instant interface {
	// RequiredInfo declares the named information this handler needs before
	// it can execute.
	RequiredInfo() map[string]InfoRequest
	// Execute computes the atoms this effect produces. info is keyed by the
	// same names RequiredInfo declared; source is the stack object the
	// effect is resolving from; view lets the handler read controller and
	// zone state but never mutate it.
	Execute(info map[string]Info, source ids.ObjectID, view GameView) ([]Atom, error)
}

// Continuous is reserved for effects that apply for as long as their source
// remains in play. The core loop never evaluates it; see DESIGN.md.
type Continuous interface {
	isContinuous()
}

// EffectKind tags which variant of Effect is populated.
type EffectKind int

const (
	EffectInstant EffectKind = iota
	EffectContinuous
)

// Effect is the closed sum of the two effect shapes a card can attach to an
// effect slot.
type Effect struct {
	Kind       EffectKind
	Instant    Instant
	Continuous Continuous
}

// InstantEffect wraps an Instant handler as an Effect.
func InstantEffect(h Instant) Effect { return Effect{Kind: EffectInstant, Instant: h} }
