package state

import (
	"technomancy/internal/card"
	"technomancy/internal/ids"
)

// DefaultStartingHealth is the health every player starts with when their
// Player.StartingHealth is left at zero; see DESIGN.md for why a flat
// default was chosen over a per-card-database-configured value.
const DefaultStartingHealth int64 = 20

// Player is the per-player data the engine tracks outside of zones: their
// identity, the decklist their library is seeded from, and their starting
// health (resource pools and the like remain Non-goals — see DESIGN.md).
type Player struct {
	ID ids.PlayerID
	// InitialCards is this player's decklist, in the order their library is
	// seeded: index 0 is the bottom of the library.
	InitialCards []ids.CardID
	// StartingHealth overrides DefaultStartingHealth when non-zero.
	StartingHealth int64
}

// HistoryEntry records one application of Apply against the game's history
// log: the index of the GameState it was applied against, and the atoms
// that were folded into it to produce the next GameState.
type HistoryEntry struct {
	PriorIndex int
	Atoms      []Atom
}

// Game is the full authoritative record of one game: the immutable card
// database, identity, players, the seeded RNG, the append-only sequence of
// GameState snapshots, and the history of atoms applied to reach each of
// them. Nothing outside Apply and the setup constructors ever appends to
// GameStates or History directly.
type Game struct {
	Cards   *card.Database
	ID      ids.GameID
	Players map[ids.PlayerID]Player

	// Rand is the single seeded RNG this game's entire lifetime draws from.
	// It is advanced only at the two RNG sites the engine recognizes:
	// shuffles performed inside Apply, and identifier minting.
	Rand *ids.RNG

	GameStates []GameState
	History    []HistoryEntry
}

// NewGame constructs a game in its starting GameState: every player's
// library seeded from their decklist (in the order given, bottom to top),
// every other zone empty, turn order as given, and stage StageKeepHand.
// This seeding happens directly here rather than through an atom, mirroring
// the source's new_game_state_with: it reflects the decklists players
// brought to the table, not a transition worth replaying atom-by-atom.
func NewGame(id ids.GameID, cards *card.Database, players []Player, order []ids.PlayerID, rand *ids.RNG) *Game {
	playerMap := make(map[ids.PlayerID]Player, len(players))
	zones := make(map[ZoneID]Zone, len(players)*3+2)
	health := make(map[ids.PlayerID]int64, len(players))
	for _, p := range players {
		playerMap[p.ID] = p

		var library Zone
		for _, c := range p.InitialCards {
			library.Objects = append(library.Objects, NewObjectFromCard(rand, c))
		}

		zones[HandZone(p.ID)] = EmptyZone()
		zones[LibraryZone(p.ID)] = library
		zones[DiscardZone(p.ID)] = EmptyZone()

		startingHealth := p.StartingHealth
		if startingHealth == 0 {
			startingHealth = DefaultStartingHealth
		}
		health[p.ID] = startingHealth
	}
	zones[BattlefieldZone()] = EmptyZone()
	zones[StackZone()] = EmptyZone()

	initial := GameState{
		Zones:             zones,
		ActivePlayerOrder: append([]ids.PlayerID(nil), order...),
		UnpassedPlayers:   append([]ids.PlayerID(nil), order...),
		Stage:             NewKeepHandStage(),
		PlayerHealth:      health,
		ObjectDamage:      map[ids.ObjectID]uint64{},
	}

	return &Game{
		Cards:      cards,
		ID:         id,
		Players:    playerMap,
		Rand:       rand,
		GameStates: []GameState{initial},
	}
}

// Latest returns the most recently applied GameState.
func (g *Game) Latest() GameState {
	return g.GameStates[len(g.GameStates)-1]
}

// LatestIndex returns the index of the most recently applied GameState.
func (g *Game) LatestIndex() int {
	return len(g.GameStates) - 1
}
