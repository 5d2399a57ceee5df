package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"technomancy/internal/effect"
	"technomancy/internal/ids"
	"technomancy/internal/logger"
	"technomancy/internal/outside"
)

// Client implements outside.Game over a single websocket connection. One
// Client instance is shared by every game whose decisions are routed to the
// same downstream player/bot connection; calls for different games and
// different correlation IDs can be in flight concurrently.
type Client struct {
	conn    *websocket.Conn
	log     *zap.Logger
	timeout time.Duration
	mu      sync.Mutex
	pending map[string]chan Response
}

// NewClient starts reading responses off conn in the background. Callers
// must eventually call Close.
func NewClient(conn *websocket.Conn) *Client {
	c := &Client{
		conn:    conn,
		log:     logger.Get(),
		timeout: outside.ProductionTimeout,
		pending: make(map[string]chan Response),
	}
	go c.readLoop()
	return c
}

// SetCallTimeout overrides the per-call deadline applied when the caller's
// context carries none. Must be called before the client is handed to a
// running game.
func (c *Client) SetCallTimeout(d time.Duration) {
	c.timeout = d
}

// Close tears down the underlying connection and fails every call still
// waiting on a response.
func (c *Client) Close() error {
	err := c.conn.Close()
	c.mu.Lock()
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- Response{ID: id, Error: "connection closed"}
	}
	c.mu.Unlock()
	return err
}

func (c *Client) readLoop() {
	for {
		var resp Response
		if err := c.conn.ReadJSON(&resp); err != nil {
			c.log.Debug("transport read loop exiting", zap.Error(err))
			return
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

// call sends req and blocks until either a matching Response arrives or ctx
// is done, whichever comes first.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal %s params: %w", method, err)
	}

	id := uuid.NewString()
	req := Request{ID: id, Method: method, Params: raw}

	ch := make(chan Response, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.conn.WriteJSON(req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("transport: write %s request: %w", method, err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	case resp := <-ch:
		if resp.Error != "" {
			return nil, fmt.Errorf("transport: %s failed: %s", method, resp.Error)
		}
		return resp.Result, nil
	}
}

// deadlineCtx applies the client's call timeout (outside.ProductionTimeout
// unless overridden) only when ctx carries no deadline of its own; any
// deadline already on ctx is used as is (tests inject outside.TestTimeout
// this way).
func (c *Client) deadlineCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

var _ outside.Game = (*Client)(nil)

func (c *Client) GetPlayerKeeping(ctx context.Context, game ids.GameID, askedPlayers []ids.PlayerID) ([]ids.PlayerID, error) {
	ctx, cancel := c.deadlineCtx(ctx)
	defer cancel()

	asked := make([]string, len(askedPlayers))
	for i, p := range askedPlayers {
		asked[i] = p.String()
	}

	result, err := c.call(ctx, MethodGetPlayerKeeping, GetPlayerKeepingParams{GameID: game.String(), AskedPlayers: asked})
	if err != nil {
		return nil, err
	}

	var keeping []string
	if err := json.Unmarshal(result, &keeping); err != nil {
		return nil, fmt.Errorf("transport: decode get_player_keeping result: %w", err)
	}

	out := make([]ids.PlayerID, len(keeping))
	for i, s := range keeping {
		parsed, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("transport: decode player id %q: %w", s, err)
		}
		out[i] = ids.PlayerID(parsed)
	}
	return out, nil
}

func (c *Client) GetNextPlayerActionFrom(ctx context.Context, game ids.GameID, player ids.PlayerID, playerActions []outside.PlayerAction) (int, error) {
	ctx, cancel := c.deadlineCtx(ctx)
	defer cancel()

	wire := make([]WirePlayerAction, len(playerActions))
	for i, a := range playerActions {
		switch a.Kind {
		case outside.ActionPlayCard:
			from := a.From.String()
			obj := a.Object.String()
			wire[i] = WirePlayerAction{PlayCard: &WirePlayCard{From: from, Object: obj}}
		case outside.ActionPassPriority:
			wire[i] = WirePlayerAction{PassPriority: &struct{}{}}
		}
	}

	result, err := c.call(ctx, MethodGetNextPlayerActionFrom, GetNextPlayerActionFromParams{
		GameID:        game.String(),
		Player:        player.String(),
		PlayerActions: wire,
	})
	if err != nil {
		return 0, err
	}

	var idx int
	if err := json.Unmarshal(result, &idx); err != nil {
		return 0, fmt.Errorf("transport: decode get_next_player_action_from result: %w", err)
	}
	return idx, nil
}

func (c *Client) GetTargetChoicesFromGiven(ctx context.Context, game ids.GameID, player ids.PlayerID, source ids.ObjectID, name string, choices []effect.Target, count int) ([]int, error) {
	ctx, cancel := c.deadlineCtx(ctx)
	defer cancel()

	wire := make([]WireTarget, len(choices))
	for i, t := range choices {
		switch {
		case t.Player != nil:
			s := t.Player.String()
			wire[i] = WireTarget{Player: &s}
		case t.Object != nil:
			s := t.Object.String()
			wire[i] = WireTarget{Object: &s}
		}
	}

	result, err := c.call(ctx, MethodGetTargetChoicesFromGiven, GetTargetChoicesFromGivenParams{
		GameID:  game.String(),
		Player:  player.String(),
		Source:  source.String(),
		Name:    name,
		Choices: wire,
		Count:   count,
	})
	if err != nil {
		return nil, err
	}

	var idxs []int
	if err := json.Unmarshal(result, &idxs); err != nil {
		return nil, fmt.Errorf("transport: decode get_target_choices_from_given result: %w", err)
	}
	return idxs, nil
}

func (c *Client) GetPlayerPassing(ctx context.Context, game ids.GameID, player ids.PlayerID) (bool, error) {
	ctx, cancel := c.deadlineCtx(ctx)
	defer cancel()

	result, err := c.call(ctx, MethodGetPlayerPassing, GetPlayerPassingParams{GameID: game.String(), Player: player.String()})
	if err != nil {
		return false, err
	}

	var passing bool
	if err := json.Unmarshal(result, &passing); err != nil {
		return false, fmt.Errorf("transport: decode get_player_passing result: %w", err)
	}
	return passing, nil
}
