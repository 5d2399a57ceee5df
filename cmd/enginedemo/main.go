// Command enginedemo starts the outside-protocol listener and spawns a
// freshly seeded two-player game for every accepted connection, with that
// one connection answering for both seats. It is
// a thin wiring layer over internal/{config,transport,supervisor,state}; it
// does not implement any game logic of its own.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"technomancy/internal/card"
	"technomancy/internal/config"
	"technomancy/internal/effect"
	"technomancy/internal/ids"
	"technomancy/internal/logger"
	"technomancy/internal/outside"
	"technomancy/internal/state"
	"technomancy/internal/supervisor"
	"technomancy/internal/transport"
)

// errNoConnection is returned by every undialedPlayer call.
var errNoConnection = fmt.Errorf("enginedemo: no outside connection resolved for this seat yet")

func main() {
	listenInterface := flag.String("listen-interface", "", "HOST:PORT to listen on (overrides TECHNOMANCY_LISTEN_ADDR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("enginedemo: load config: %v", err)
	}
	if *listenInterface != "" {
		cfg.ListenAddr = *listenInterface
	}
	if err := logger.Init(&cfg.LogLevel); err != nil {
		log.Fatalf("enginedemo: init logger: %v", err)
	}
	defer logger.Shutdown()
	zlog := logger.Get()

	cards, err := card.LoadDatabaseFile(cfg.CardDatabasePath)
	if err != nil {
		zlog.Fatal("failed to load card database", zap.Error(err))
	}

	registry := supervisor.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := transport.NewHandler(func(client *transport.Client) {
		client.SetCallTimeout(cfg.OutsideTimeout)
		game := newDemoGame(cards)
		zlog.Info("spawning game for new connection", zap.Stringer("game_id", game.ID))
		if _, err := registry.Spawn(ctx, game, client); err != nil {
			zlog.Error("failed to spawn game", zap.Error(err))
			client.Close()
		}
	})

	// The meta-protocol's create_game/destroy_game routes exist alongside
	// the websocket handler, but pairing a newly created game's seats to
	// pending websocket connections is a lobby/session concern this demo
	// does not implement (see spec's explicit exclusion of that
	// subsystem) — dialPlayer is wired to fail loudly rather than silently
	// drop decisions.
	dialPlayer := func(ids.PlayerID) outside.Scoped {
		return undialedPlayer{}
	}
	meta := transport.NewMetaHandler(registry, cards, dialPlayer)

	mux := http.NewServeMux()
	mux.Handle("/outside", handler)
	mux.Handle("/api/v1/", meta.Router())

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	zlog.Info("listening", zap.String("addr", cfg.ListenAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zlog.Fatal("server exited", zap.Error(err))
	}
	zlog.Info("shut down cleanly")
}

// undialedPlayer is the outside.Scoped stub this demo hands create_game for
// a seat it has no real connection for yet; every call fails rather than
// hanging, since there is nothing listening on the other end.
type undialedPlayer struct{}

func (undialedPlayer) GetPlayerKeeping(context.Context, []ids.PlayerID) ([]ids.PlayerID, error) {
	return nil, errNoConnection
}

func (undialedPlayer) GetNextPlayerActionFrom(context.Context, ids.PlayerID, []outside.PlayerAction) (int, error) {
	return 0, errNoConnection
}

func (undialedPlayer) GetTargetChoicesFromGiven(context.Context, ids.PlayerID, ids.ObjectID, string, []effect.Target, int) ([]int, error) {
	return nil, errNoConnection
}

func (undialedPlayer) GetPlayerPassing(context.Context, ids.PlayerID) (bool, error) {
	return false, errNoConnection
}

// newDemoGame seeds a fresh two-player game with empty decklists, the same
// fixed RNG seed every time, and no pre-existing history. Real deployments
// would resolve decklists and a reproducible seed from whatever created the
// game (a lobby, a matchmaking queue); this demo has neither.
func newDemoGame(cards *card.Database) *state.Game {
	p1, p2 := ids.NewPlayerID(), ids.NewPlayerID()
	order := []ids.PlayerID{p1, p2}
	players := []state.Player{{ID: p1}, {ID: p2}}

	rand := ids.NewRNG(uint64(0x5EED))
	return state.NewGame(ids.NewGameID(), cards, players, order, rand)
}
