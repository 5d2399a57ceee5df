// Package state defines the per-turn game snapshot (zones, objects, stage),
// the canonical atom log, and the single function — Apply — through which
// every state transition must flow.
package state

import (
	"fmt"

	"technomancy/internal/effect"
	"technomancy/internal/ids"
)

// ZoneKind tags which variant of ZoneID is populated.
type ZoneKind int

const (
	ZoneHand ZoneKind = iota
	ZoneLibrary
	ZoneDiscard
	ZoneBattlefield
	ZoneStack
)

// ZoneID addresses one zone: the shared battlefield and stack, or one
// player's hand/library/discard.
type ZoneID struct {
	Kind   ZoneKind
	Player ids.PlayerID // populated for Hand/Library/Discard
}

func (z ZoneID) String() string {
	switch z.Kind {
	case ZoneHand:
		return "hand:" + z.Player.String()
	case ZoneLibrary:
		return "library:" + z.Player.String()
	case ZoneDiscard:
		return "discard:" + z.Player.String()
	case ZoneBattlefield:
		return "battlefield"
	case ZoneStack:
		return "stack"
	default:
		return "zone:<unknown>"
	}
}

func HandZone(p ids.PlayerID) ZoneID    { return ZoneID{Kind: ZoneHand, Player: p} }
func LibraryZone(p ids.PlayerID) ZoneID { return ZoneID{Kind: ZoneLibrary, Player: p} }
func DiscardZone(p ids.PlayerID) ZoneID { return ZoneID{Kind: ZoneDiscard, Player: p} }
func BattlefieldZone() ZoneID           { return ZoneID{Kind: ZoneBattlefield} }
func StackZone() ZoneID                 { return ZoneID{Kind: ZoneStack} }

// Object is a transient per-zone instance of a card.
type Object struct {
	ID ids.ObjectID
	// LibraryCardID is the stable identity of the physical card across zone
	// moves; nil only in theory, always populated in practice since every
	// object originates from a library card.
	LibraryCardID *ids.LibraryCardID
	// UnderlyingCard is the static card this object represents.
	UnderlyingCard *ids.CardID
	// Controller is set only while the object is on the stack or
	// battlefield.
	Controller *ids.PlayerID
	// Choices records the decisions made for each on-resolve handler this
	// object's card carries, keyed by (effect index, info name).
	Choices map[effect.Key]effect.Info
}

// NewObjectFromCard instantiates a fresh GameObject for underlying, minting
// its ObjectID and LibraryCardID from rng. This is the only constructor used
// to seed a player's initial library.
func NewObjectFromCard(rng *ids.RNG, underlying ids.CardID) Object {
	return Object{
		ID:             ids.NewObjectID(rng),
		LibraryCardID:  ptrLibraryCardID(ids.NewLibraryCardID(rng)),
		UnderlyingCard: &underlying,
		Controller:     nil,
		Choices:        map[effect.Key]effect.Info{},
	}
}

func ptrLibraryCardID(l ids.LibraryCardID) *ids.LibraryCardID { return &l }

// Zone is an ordered sequence of objects. Index 0 is the zone's "bottom" end
// for Hand/Library/Discard and the zone's initial end for Battlefield; for
// the Stack and Library the last element is the "top" (draws and stack
// resolution take from the end).
type Zone struct {
	Objects []Object
}

func EmptyZone() Zone { return Zone{Objects: nil} }

func ZoneWith(objects []Object) Zone { return Zone{Objects: objects} }

// IndexOf returns the index of the object with the given id, or -1.
func (z Zone) IndexOf(id ids.ObjectID) int {
	for i, o := range z.Objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep-enough copy of the zone: a fresh backing slice, since
// GameState.Clone must never let two snapshots alias the same Objects slice.
func (z Zone) Clone() Zone {
	cp := make([]Object, len(z.Objects))
	copy(cp, z.Objects)
	return Zone{Objects: cp}
}

// ErrObjectNotFoundInZone mirrors the atom-level error of the same name.
type ErrObjectNotFoundInZone struct {
	Zone   ZoneID
	Object ids.ObjectID
}

func (e *ErrObjectNotFoundInZone) Error() string {
	return fmt.Sprintf("object %s not found in zone %s", e.Object, e.Zone)
}
