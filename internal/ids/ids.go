// Package ids defines the opaque, typed identifiers that flow through the
// engine (games, players, cards, library cards, objects) plus the seeded RNG
// they are minted from. Every identifier is a bare UUID under the hood and
// serializes as a plain UUID string, matching the wire format's convention
// that identifiers are transparent wrappers.
package ids

import (
	"encoding/json"

	"github.com/google/uuid"
)

// rngReader adapts an *RNG to io.Reader so uuid.NewRandomFromReader can draw
// its 16 random bytes from the game's seeded stream instead of crypto/rand.
type rngReader struct{ rng *RNG }

func (r rngReader) Read(p []byte) (int, error) {
	r.rng.Bytes(p)
	return len(p), nil
}

// newSeededUUID draws 16 bytes from rng and builds a version-4 UUID from
// them, the same construction the engine uses at every identifier-minting
// site: shuffles and identifier generation are the only places rng bits are
// consumed.
func newSeededUUID(rng *RNG) uuid.UUID {
	id, err := uuid.NewRandomFromReader(rngReader{rng})
	if err != nil {
		// rngReader.Read never errors.
		panic(err)
	}
	return id
}

// GameID identifies one game instance.
type GameID uuid.UUID

// NewGameID mints a fresh random GameID using crypto-grade randomness; game
// creation happens outside the deterministic replay boundary, so it does not
// need to be drawn from a game's seeded RNG.
func NewGameID() GameID { return GameID(uuid.New()) }

func (g GameID) String() string { return uuid.UUID(g).String() }

func (g GameID) MarshalJSON() ([]byte, error) { return json.Marshal(g.String()) }

func (g *GameID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*g = GameID(parsed)
	return nil
}

// PlayerID identifies one player across the lifetime of a game.
type PlayerID uuid.UUID

func NewPlayerID() PlayerID { return PlayerID(uuid.New()) }

func (p PlayerID) String() string { return uuid.UUID(p).String() }

func (p PlayerID) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

func (p *PlayerID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*p = PlayerID(parsed)
	return nil
}

// CardID identifies a static card definition in the card database.
type CardID uuid.UUID

// CardIDFrom wraps an existing UUID as a CardID, used when card identifiers
// are pinned to literal values (as card databases typically are).
func CardIDFrom(u uuid.UUID) CardID { return CardID(u) }

func (c CardID) String() string { return uuid.UUID(c).String() }

func (c CardID) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (c *CardID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*c = CardID(parsed)
	return nil
}

// LibraryCardID is the stable identity of one physical card throughout a
// single game, independent of how many times it moves between zones.
type LibraryCardID uuid.UUID

// NewLibraryCardID mints a LibraryCardID from the game's seeded RNG so that
// replaying the same atom log against the same seed reproduces identical
// library card identities.
func NewLibraryCardID(rng *RNG) LibraryCardID { return LibraryCardID(newSeededUUID(rng)) }

func (l LibraryCardID) String() string { return uuid.UUID(l).String() }

func (l LibraryCardID) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

func (l *LibraryCardID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*l = LibraryCardID(parsed)
	return nil
}

// ObjectID identifies one transient instance of a card inside a zone.
type ObjectID uuid.UUID

// NewObjectID mints an ObjectID from the game's seeded RNG. This is drawn at
// exactly two sites: instantiating a card into the initial library, and
// minting a fresh stack object when a card is played.
func NewObjectID(rng *RNG) ObjectID { return ObjectID(newSeededUUID(rng)) }

func (o ObjectID) String() string { return uuid.UUID(o).String() }

func (o ObjectID) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

func (o *ObjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*o = ObjectID(parsed)
	return nil
}
