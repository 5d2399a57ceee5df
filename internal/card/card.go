// Package card defines the immutable static card model: cost, kind tags, and
// the card effects (triggered, activated, static) a card carries. Cards are
// read from a Database and never mutated by engine code.
package card

import (
	"technomancy/internal/effect"
	"technomancy/internal/ids"
)

// Cost is the resource price of casting or activating a card, one integer
// quantity per resource class plus a wildcard "any" quantity that can be paid
// from any single class.
type Cost struct {
	Corp1Scrip uint64
	Corp2Scrip uint64
	Corp3Scrip uint64
	Corp4Scrip uint64
	Corp5Scrip uint64
	AnyScrip   uint64
}

// BaseKind is the tag identifying which of the card kinds a CardKind carries.
type BaseKind int

const (
	KindAgent BaseKind = iota
	KindBuilding
	KindQuickhack
	KindProgram
)

// AgentSubKind further classifies an agent-kind card.
type AgentSubKind int

const (
	AgentSubKindMercenary AgentSubKind = iota
)

// AgentPower is either a fixed numeric power or a card-specific special rule.
type AgentPower struct {
	Fixed   uint64
	Special bool
}

// AgentToughness mirrors AgentPower for the toughness attribute.
type AgentToughness struct {
	Fixed   uint64
	Special bool
}

// Kind is one kind tag attached to a card; a card may carry more than one
// (e.g. an agent that is also a program).
type Kind struct {
	Base BaseKind

	// Populated only when Base == KindAgent.
	AgentSubKind   AgentSubKind
	AgentPower     AgentPower
	AgentToughness AgentToughness
}

// Trigger identifies when a TriggeredEffect fires.
type Trigger int

const (
	// TriggerOnResolve fires when the card resolves off the top of the
	// stack. This is the only trigger the core loop currently invokes.
	TriggerOnResolve Trigger = iota
	// TriggerOnPlay fires when the card is placed on the stack.
	TriggerOnPlay
	// TriggerOnDraw fires when a player draws a card; it does not fire for
	// other zone transitions.
	TriggerOnDraw
)

// TriggeredEffect bundles a trigger with the ordered handlers that run when
// it fires.
type TriggeredEffect struct {
	Trigger Trigger
	Effects []effect.Effect
}

// ActivatedEffect is a cost-gated effect a controller can invoke outside of
// resolution. Cost payment is not wired by this engine (see DESIGN.md).
type ActivatedEffect struct {
	Cost    Cost
	Effects []effect.Effect
}

// StaticEffect is a single handler that applies continuously while the card
// is in play (e.g. a Continuous effect); the core loop never evaluates it.
type StaticEffect struct {
	Effect effect.Effect
}

// CardEffectKind tags which variant of CardEffect is populated.
type CardEffectKind int

const (
	CardEffectTriggered CardEffectKind = iota
	CardEffectActivated
	CardEffectStatic
)

// CardEffect is a closed sum of the three effect shapes a card can declare.
// Only one of Triggered/Activated/Static is populated, selected by Kind.
type CardEffect struct {
	Kind      CardEffectKind
	Triggered TriggeredEffect
	Activated ActivatedEffect
	Static    StaticEffect
}

// Behaviour is the gameplay-relevant payload of a card: its cost, kind tags,
// and effects.
type Behaviour struct {
	Cost    *Cost
	Kind    []Kind
	Effects []CardEffect
}

// Card is the immutable static definition of one card, as read from a
// Database. Two objects may share the same underlying Card.
type Card struct {
	ID        ids.CardID
	Behaviour Behaviour
}

// OnResolveHandlers returns this card's on-resolve effect handlers (instant
// and continuous alike) in declaration order, paired with a stable per-card
// sequential index used to key the choices a played copy of this card has
// attached to it. Callers skip the non-instant entries themselves.
func (c Card) OnResolveHandlers() []IndexedEffect {
	var out []IndexedEffect
	idx := 0
	for _, ce := range c.Behaviour.Effects {
		if ce.Kind != CardEffectTriggered || ce.Triggered.Trigger != TriggerOnResolve {
			continue
		}
		for _, eff := range ce.Triggered.Effects {
			out = append(out, IndexedEffect{Index: idx, Effect: eff})
			idx++
		}
	}
	return out
}

// IndexedEffect pairs an effect with the sequential index it was enumerated
// at among a card's on-resolve handlers. The index is part of the key used to
// look up the choices recorded for that handler on a GameObject.
type IndexedEffect struct {
	Index  int
	Effect effect.Effect
}
