package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"technomancy/internal/card"
	"technomancy/internal/ids"
	"technomancy/internal/logger"
	"technomancy/internal/outside"
	"technomancy/internal/supervisor"
)

// MetaHandler exposes the per-server control plane (create_game,
// destroy_game) as a small JSON-over-HTTP API, routed with gorilla/mux the
// way this codebase's ancestor routes its own REST surface. It is wiring
// around supervisor.Registry, not engine logic: every request is translated
// into exactly one Registry call.
type MetaHandler struct {
	registry *supervisor.Registry
	cards    *card.Database
	// dialPlayer builds the Scoped outside connection for one player given
	// their freshly-minted PlayerID, typically by looking up an
	// already-accepted websocket Client for that player's connection slot.
	dialPlayer func(ids.PlayerID) outside.Scoped
}

// NewMetaHandler builds a MetaHandler. dialPlayer is called once per player
// named in a create_game request, in order, to obtain the Scoped outside
// connection CreateGame will route that player's decisions through.
func NewMetaHandler(registry *supervisor.Registry, cards *card.Database, dialPlayer func(ids.PlayerID) outside.Scoped) *MetaHandler {
	return &MetaHandler{registry: registry, cards: cards, dialPlayer: dialPlayer}
}

// Router builds the mux.Router serving create_game and destroy_game under
// /api/v1/games, mirroring the ancestor's /api/v1 route layout.
func (h *MetaHandler) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/games", h.CreateGame).Methods(http.MethodPost)
	api.HandleFunc("/games/{gameId}", h.DestroyGame).Methods(http.MethodDelete)
	return router
}

// createGameRequest is the JSON body of a create_game HTTP call: one entry
// per player, giving their decklist as a list of card id strings.
type createGameRequest struct {
	Seed    uint64 `json:"seed"`
	Players []struct {
		Deck           []string `json:"deck"`
		StartingHealth int64    `json:"starting_health,omitempty"`
	} `json:"players"`
}

type createGameResponse struct {
	GameID string `json:"game_id"`
}

// CreateGame handles POST /api/v1/games, the create_game meta-protocol
// operation.
func (h *MetaHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	log := logger.Get()

	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	specs := make([]supervisor.PlayerSpec, len(req.Players))
	for i, p := range req.Players {
		deck := make([]ids.CardID, len(p.Deck))
		for j, s := range p.Deck {
			parsed, err := uuid.Parse(s)
			if err != nil {
				http.Error(w, "invalid card id in deck", http.StatusBadRequest)
				return
			}
			deck[j] = ids.CardIDFrom(parsed)
		}
		specs[i] = supervisor.PlayerSpec{InitialCards: deck, StartingHealth: p.StartingHealth, Dial: h.dialPlayer}
	}

	// The spawned game goroutine must outlive this request: r.Context() is
	// cancelled the moment the response is written.
	gameID, _, err := h.registry.CreateGame(context.WithoutCancel(r.Context()), h.cards, specs, req.Seed)
	if err != nil {
		log.Error("failed to create game", zap.Error(err))
		http.Error(w, "failed to create game", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createGameResponse{GameID: gameID.String()})
}

// DestroyGame handles DELETE /api/v1/games/{gameId}, the destroy_game
// meta-protocol operation.
func (h *MetaHandler) DestroyGame(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["gameId"]
	parsed, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}

	if err := h.registry.DestroyGame(ids.GameID(parsed)); err != nil {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
