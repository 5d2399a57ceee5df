package card

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"technomancy/internal/ids"
)

// wireCard is the JSON shape a card database file stores one card as. Cost
// and effect wiring are intentionally simple (see DESIGN.md): a card
// database is expected to be hand-authored or generated by tooling outside
// this engine, not round-tripped through Go's type system losslessly.
type wireCard struct {
	ID   string `json:"id"`
	Cost *Cost  `json:"cost,omitempty"`
}

// LoadDatabaseFile reads a JSON array of cards from path and builds a
// Database from it. Effect wiring for loaded cards is left empty: only id
// and cost are read from the file, since Go has no safe way to deserialize
// arbitrary effect.Instant implementations from data.
func LoadDatabaseFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("card: read database file: %w", err)
	}

	var wire []wireCard
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("card: decode database file: %w", err)
	}

	cards := make([]Card, 0, len(wire))
	for _, w := range wire {
		parsed, err := uuid.Parse(w.ID)
		if err != nil {
			return nil, fmt.Errorf("card: invalid card id %q: %w", w.ID, err)
		}
		cards = append(cards, Card{
			ID:        ids.CardIDFrom(parsed),
			Behaviour: Behaviour{Cost: w.Cost},
		})
	}
	return NewDatabase(cards), nil
}
