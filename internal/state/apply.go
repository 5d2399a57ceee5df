package state

import (
	"fmt"

	"technomancy/internal/card"
	"technomancy/internal/ids"
)

// ErrUnknownAtom is returned when Apply is handed a value that is not one of
// the atom types this package defines.
type ErrUnknownAtom struct {
	Atom Atom
}

func (e *ErrUnknownAtom) Error() string {
	return fmt.Sprintf("state: unknown atom type %T", e.Atom)
}

// ErrWrongStage is returned when an atom is applied against a GameState
// whose stage cannot accept it.
type ErrWrongStage struct {
	Atom string
	Got  StageKind
}

func (e *ErrWrongStage) Error() string {
	return fmt.Sprintf("state: atom %s cannot apply in stage %d", e.Atom, e.Got)
}

// ErrInvalidPlayerPassing is returned when a PassPriority atom names a
// player who does not currently hold priority.
type ErrInvalidPlayerPassing struct {
	Player ids.PlayerID
}

func (e *ErrInvalidPlayerPassing) Error() string {
	return fmt.Sprintf("state: player %s passed priority without holding it", e.Player)
}

// ErrNotTopOfStack is returned when PopStack names an object that is not
// currently the stack's top element.
type ErrNotTopOfStack struct {
	Object ids.ObjectID
}

func (e *ErrNotTopOfStack) Error() string {
	return fmt.Sprintf("state: object %s is not the top of the stack", e.Object)
}

// Apply folds atoms, in order, into a clone of the game's latest GameState
// and, only if every atom applies cleanly, pushes the clone as the new
// latest GameState and appends one HistoryEntry recording the whole batch.
//
// If any atom fails, Apply returns the error immediately and the game is
// left exactly as it was: there is no partial commit, and the clone being
// mutated is discarded along with whatever prefix of atoms already touched
// it. This mirrors the source's fold-left fail-fast apply_atoms.
func (g *Game) Apply(atoms []Atom) error {
	prior := g.LatestIndex()
	next := g.Latest().Clone()

	for _, atom := range atoms {
		if err := g.applyOne(&next, atom); err != nil {
			return err
		}
	}

	g.GameStates = append(g.GameStates, next)
	g.History = append(g.History, HistoryEntry{PriorIndex: prior, Atoms: append([]Atom(nil), atoms...)})
	return nil
}

func (g *Game) applyOne(s *GameState, atom Atom) error {
	switch a := atom.(type) {
	case StartGame:
		return g.applyStartGame(s, a)
	case KeepHand:
		return g.applyKeepHand(s, a)
	case ShuffleHandIntoLibrary:
		return g.applyShuffleHandIntoLibrary(s, a)
	case DrawCards:
		return g.applyDrawCards(s, a)
	case DealDamage:
		return g.applyDealDamage(s, a)
	case PassPriority:
		return g.applyPassPriority(s, a)
	case PlayerPlayCard:
		return g.applyPlayerPlayCard(s, a)
	case ResetPriority:
		return g.applyResetPriority(s, a)
	case PopStack:
		return g.applyPopStack(s, a)
	case AdvanceTurn:
		return g.applyAdvanceTurn(s, a)
	default:
		return &ErrUnknownAtom{Atom: atom}
	}
}

// ErrGameAlreadyRunning is returned when a StartGame atom is applied against
// a GameState whose stage is already StageGameRunning.
type ErrGameAlreadyRunning struct{}

func (e *ErrGameAlreadyRunning) Error() string {
	return "state: game was already running when a StartGame atom was applied"
}

func (g *Game) applyStartGame(s *GameState, _ StartGame) error {
	if s.Stage.Kind == StageGameRunning {
		return &ErrGameAlreadyRunning{}
	}
	s.Stage = Stage{Kind: StageGameRunning}
	return nil
}

func (g *Game) applyKeepHand(s *GameState, a KeepHand) error {
	if s.Stage.Kind != StageKeepHand {
		return &ErrWrongStage{Atom: "KeepHand", Got: s.Stage.Kind}
	}
	s.Stage.PlayersKeeping[a.Player] = struct{}{}
	return nil
}

func (g *Game) applyShuffleHandIntoLibrary(s *GameState, a ShuffleHandIntoLibrary) error {
	hand := s.Zones[HandZone(a.Player)]
	library := s.Zones[LibraryZone(a.Player)]
	library.Objects = append(library.Objects, hand.Objects...)
	hand.Objects = nil

	ids.Shuffle(g.Rand, len(library.Objects), func(i, j int) {
		library.Objects[i], library.Objects[j] = library.Objects[j], library.Objects[i]
	})

	s.Zones[HandZone(a.Player)] = hand
	s.Zones[LibraryZone(a.Player)] = library
	return nil
}

func (g *Game) applyDrawCards(s *GameState, a DrawCards) error {
	library := s.Zones[LibraryZone(a.Player)]
	hand := s.Zones[HandZone(a.Player)]

	count := a.Count
	if count > len(library.Objects) {
		count = len(library.Objects)
	}
	split := len(library.Objects) - count
	hand.Objects = append(hand.Objects, library.Objects[split:]...)
	library.Objects = library.Objects[:split]

	s.Zones[HandZone(a.Player)] = hand
	s.Zones[LibraryZone(a.Player)] = library
	return nil
}

// applyDealDamage resolves damage against a player or a battlefield object.
// A player's health is decremented directly; an object's marked damage is
// accumulated and, once it reaches the underlying card's fixed toughness
// (skipped for "Special" toughness, which has no fixed value to compare
// against and no evaluator in this engine — see DESIGN.md), the object is
// destroyed: moved off the battlefield into its controller's discard with
// its damage and controller cleared.
func (g *Game) applyDealDamage(s *GameState, a DealDamage) error {
	if a.Target.Player != nil {
		s.PlayerHealth[*a.Target.Player] -= int64(a.Amount)
		return nil
	}
	if a.Target.Object == nil {
		return nil
	}

	battlefield := s.Zones[BattlefieldZone()]
	idx := battlefield.IndexOf(*a.Target.Object)
	if idx < 0 {
		// The object already left the battlefield (countered, sacrificed,
		// etc. by some other effect in the same batch); nothing to damage.
		return nil
	}
	obj := battlefield.Objects[idx]

	marked := s.ObjectDamage[*a.Target.Object] + a.Amount
	s.ObjectDamage[*a.Target.Object] = marked

	toughness, evaluable := fixedToughnessOf(g.Cards, obj)
	if !evaluable || marked < toughness {
		return nil
	}

	battlefield.Objects = append(battlefield.Objects[:idx:idx], battlefield.Objects[idx+1:]...)
	s.Zones[BattlefieldZone()] = battlefield
	delete(s.ObjectDamage, *a.Target.Object)

	if obj.Controller != nil {
		owner := *obj.Controller
		obj.Controller = nil
		discard := s.Zones[DiscardZone(owner)]
		discard.Objects = append(discard.Objects, obj)
		s.Zones[DiscardZone(owner)] = discard
	}
	return nil
}

// fixedToughnessOf returns obj's agent toughness and whether it is a fixed
// (as opposed to "Special", card-specific) value this engine can compare
// accumulated damage against.
func fixedToughnessOf(cards *card.Database, obj Object) (toughness uint64, evaluable bool) {
	if obj.UnderlyingCard == nil {
		return 0, false
	}
	c, err := cards.Get(*obj.UnderlyingCard)
	if err != nil {
		return 0, false
	}
	for _, k := range c.Behaviour.Kind {
		if k.Base == card.KindAgent && !k.AgentToughness.Special {
			return k.AgentToughness.Fixed, true
		}
	}
	return 0, false
}

// applyAdvanceTurn rotates priority to the next player once the stack is
// empty and everyone has passed.
func (g *Game) applyAdvanceTurn(s *GameState, _ AdvanceTurn) error {
	if len(s.ActivePlayerOrder) == 0 {
		return nil
	}
	rotated := append(append([]ids.PlayerID(nil), s.ActivePlayerOrder[1:]...), s.ActivePlayerOrder[0])
	s.ActivePlayerOrder = rotated
	s.UnpassedPlayers = append([]ids.PlayerID(nil), rotated...)
	return nil
}

func (g *Game) applyPassPriority(s *GameState, a PassPriority) error {
	if s.Stage.Kind != StageGameRunning {
		return &ErrWrongStage{Atom: "PassPriority", Got: s.Stage.Kind}
	}
	// Only the player currently holding priority (the head of
	// UnpassedPlayers) may pass it.
	if len(s.UnpassedPlayers) == 0 || s.UnpassedPlayers[0] != a.Player {
		return &ErrInvalidPlayerPassing{Player: a.Player}
	}
	s.UnpassedPlayers = append([]ids.PlayerID(nil), s.UnpassedPlayers[1:]...)
	return nil
}

func (g *Game) applyPlayerPlayCard(s *GameState, a PlayerPlayCard) error {
	if s.Stage.Kind != StageGameRunning {
		return &ErrWrongStage{Atom: "PlayerPlayCard", Got: s.Stage.Kind}
	}

	source := s.Zones[a.From]
	idx := source.IndexOf(a.Object)
	if idx < 0 {
		return &ErrObjectNotFoundInZone{Zone: a.From, Object: a.Object}
	}
	played := source.Objects[idx]
	source.Objects = append(source.Objects[:idx:idx], source.Objects[idx+1:]...)
	s.Zones[a.From] = source

	player := a.Player
	stackObject := Object{
		ID:             a.NewObjectID,
		LibraryCardID:  played.LibraryCardID,
		UnderlyingCard: played.UnderlyingCard,
		Controller:     &player,
		Choices:        a.Choices,
	}
	stack := s.Zones[StackZone()]
	stack.Objects = append(stack.Objects, stackObject)
	s.Zones[StackZone()] = stack
	return nil
}

func (g *Game) applyResetPriority(s *GameState, _ ResetPriority) error {
	s.UnpassedPlayers = append([]ids.PlayerID(nil), s.ActivePlayerOrder...)
	return nil
}

func (g *Game) applyPopStack(s *GameState, a PopStack) error {
	stack := s.Zones[StackZone()]
	if len(stack.Objects) == 0 || stack.Objects[len(stack.Objects)-1].ID != a.Object {
		return &ErrNotTopOfStack{Object: a.Object}
	}
	top := stack.Objects[len(stack.Objects)-1]
	stack.Objects = stack.Objects[:len(stack.Objects)-1]
	s.Zones[StackZone()] = stack

	if top.Controller != nil {
		owner := *top.Controller
		discard := s.Zones[DiscardZone(owner)]
		top.Controller = nil
		discard.Objects = append(discard.Objects, top)
		s.Zones[DiscardZone(owner)] = discard
	}
	return nil
}
