package state

import "technomancy/internal/ids"

// GameState is one immutable snapshot of a game. Successor states are always
// built by cloning the latest snapshot and folding atoms into the clone;
// nothing ever mutates a GameState already pushed onto a Game's history.
type GameState struct {
	Zones map[ZoneID]Zone

	// ActivePlayerOrder is the turn order; index 0 is this turn's active
	// player.
	ActivePlayerOrder []ids.PlayerID

	// UnpassedPlayers is the (possibly empty) subsequence of
	// ActivePlayerOrder who have not yet passed priority since the last
	// stack-modifying action.
	UnpassedPlayers []ids.PlayerID

	Stage Stage

	// PlayerHealth tracks each player's remaining health, the resource
	// DealDamage decrements when targeted at a player. Every player present
	// at game construction has an entry; health can go negative (the engine
	// itself declares no win condition).
	PlayerHealth map[ids.PlayerID]int64

	// ObjectDamage tracks damage marked on battlefield objects, keyed by
	// ObjectID. An agent whose marked damage reaches its toughness is moved
	// to its controller's discard the moment that DealDamage atom applies.
	ObjectDamage map[ids.ObjectID]uint64
}

// Clone returns a deep-enough copy for apply to mutate independently of the
// snapshot it was derived from: a fresh zones map with freshly cloned zones,
// fresh order/unpassed slices, and a cloned stage.
func (s GameState) Clone() GameState {
	zones := make(map[ZoneID]Zone, len(s.Zones))
	for id, z := range s.Zones {
		zones[id] = z.Clone()
	}

	health := make(map[ids.PlayerID]int64, len(s.PlayerHealth))
	for p, h := range s.PlayerHealth {
		health[p] = h
	}

	damage := make(map[ids.ObjectID]uint64, len(s.ObjectDamage))
	for o, d := range s.ObjectDamage {
		damage[o] = d
	}

	return GameState{
		Zones:             zones,
		ActivePlayerOrder: append([]ids.PlayerID(nil), s.ActivePlayerOrder...),
		UnpassedPlayers:   append([]ids.PlayerID(nil), s.UnpassedPlayers...),
		Stage:             s.Stage.Clone(),
		PlayerHealth:      health,
		ObjectDamage:      damage,
	}
}

// HealthOf returns a player's current health.
func (s GameState) HealthOf(p ids.PlayerID) int64 { return s.PlayerHealth[p] }

// DamageOn returns the damage currently marked on a battlefield object.
func (s GameState) DamageOn(o ids.ObjectID) uint64 { return s.ObjectDamage[o] }

// Hand returns the zone for a player's hand. Panics if the zone map was
// built incorrectly, mirroring the source's unwrap-on-invariant pattern:
// every GameState is guaranteed (by construction) to carry this zone.
func (s GameState) Hand(p ids.PlayerID) Zone { return s.mustZone(HandZone(p)) }

// Library returns the zone for a player's library.
func (s GameState) Library(p ids.PlayerID) Zone { return s.mustZone(LibraryZone(p)) }

// Discard returns the zone for a player's discard pile.
func (s GameState) Discard(p ids.PlayerID) Zone { return s.mustZone(DiscardZone(p)) }

// Battlefield returns the shared battlefield zone.
func (s GameState) Battlefield() Zone { return s.mustZone(BattlefieldZone()) }

// Stack returns the shared stack zone.
func (s GameState) Stack() Zone { return s.mustZone(StackZone()) }

func (s GameState) mustZone(id ZoneID) Zone {
	z, ok := s.Zones[id]
	if !ok {
		panic("state: missing zone " + id.String() + " — GameState invariant violated")
	}
	return z
}

// ObjectInZone looks up an object by id within a specific zone.
func (s GameState) ObjectInZone(zone ZoneID, obj ids.ObjectID) (Object, bool) {
	z, ok := s.Zones[zone]
	if !ok {
		return Object{}, false
	}
	idx := z.IndexOf(obj)
	if idx < 0 {
		return Object{}, false
	}
	return z.Objects[idx], true
}

// ControllerOf implements effect.GameView: it reports the controller of an
// object currently on the battlefield or stack, the only two zones where
// objects carry a controller.
func (s GameState) ControllerOf(object ids.ObjectID) (ids.PlayerID, bool) {
	for _, zone := range []ZoneID{BattlefieldZone(), StackZone()} {
		if obj, ok := s.ObjectInZone(zone, object); ok && obj.Controller != nil {
			return *obj.Controller, true
		}
	}
	return ids.PlayerID{}, false
}
