package discord

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opHeartbeatAck   = 11
	opHello          = 10
	opReconnect      = 7
	opInvalidSession = 9
)

const gatewayIntents = 1<<0 | 1<<9 | 1<<10 // guilds, guild messages, guild message reactions

// EventHandler receives decoded gateway dispatches.
type EventHandler interface {
	HandleReady(ready readyData)
	HandleInteraction(interaction Interaction)
	HandleReactionAdd(event ReactionEvent)
	HandleReactionRemove(event ReactionEvent)
}

// Gateway maintains the websocket session: identify, heartbeat, dispatch.
// It reconnects with backoff until Stop is called.
type Gateway struct {
	client  *Client
	token   string
	handler EventHandler
	log     zerolog.Logger

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	seq     int64
	stopCh  chan struct{}
	done    sync.WaitGroup
}

func NewGateway(client *Client, token string, handler EventHandler, log zerolog.Logger) *Gateway {
	return &Gateway{
		client:  client,
		token:   token,
		handler: handler,
		log:     log,
		stopCh:  make(chan struct{}),
	}
}

// Start runs the connect loop in the background.
func (g *Gateway) Start(ctx context.Context) {
	g.done.Add(1)
	go g.run(ctx)
}

// Stop closes the session and waits for the loops to finish.
func (g *Gateway) Stop() {
	close(g.stopCh)
	g.mu.Lock()
	if g.conn != nil {
		g.conn.Close()
	}
	g.mu.Unlock()
	g.done.Wait()
}

func (g *Gateway) run(ctx context.Context) {
	defer g.done.Done()

	backoff := time.Second
	for {
		select {
		case <-g.stopCh:
			return
		default:
		}

		if err := g.session(ctx); err != nil {
			g.log.Warn().Err(err).Dur("retry_in", backoff).Msg("gateway session ended")
		}

		select {
		case <-g.stopCh:
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (g *Gateway) session(ctx context.Context) error {
	wsURL, err := g.client.GatewayURL(ctx)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL+"?v=10&encoding=json", nil)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.conn = conn
	g.mu.Unlock()
	defer conn.Close()

	heartbeatStop := make(chan struct{})
	defer close(heartbeatStop)

	for {
		var payload gatewayPayload
		if err := conn.ReadJSON(&payload); err != nil {
			return err
		}
		if payload.S != nil {
			g.mu.Lock()
			g.seq = *payload.S
			g.mu.Unlock()
		}

		switch payload.Op {
		case opHello:
			var hello helloData
			if err := json.Unmarshal(payload.D, &hello); err != nil {
				return err
			}
			go g.heartbeatLoop(conn, time.Duration(hello.HeartbeatInterval)*time.Millisecond, heartbeatStop)
			if err := g.identify(conn); err != nil {
				return err
			}
		case opDispatch:
			g.dispatch(payload)
		case opReconnect, opInvalidSession:
			g.log.Info().Int("op", payload.Op).Msg("gateway asked for reconnect")
			return nil
		case opHeartbeat:
			g.sendHeartbeat(conn)
		case opHeartbeatAck:
		}
	}
}

func (g *Gateway) identify(conn *websocket.Conn) error {
	return g.writeJSON(conn, gatewayPayload{
		Op: opIdentify,
		D: mustMarshal(identifyData{
			Token:   g.token,
			Intents: gatewayIntents,
			Properties: identifyProperties{
				OS:      "linux",
				Browser: "urg-ride-maker",
				Device:  "urg-ride-maker",
			},
		}),
	})
}

func (g *Gateway) heartbeatLoop(conn *websocket.Conn, interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-g.stopCh:
			return
		case <-ticker.C:
			if err := g.sendHeartbeat(conn); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) sendHeartbeat(conn *websocket.Conn) error {
	g.mu.Lock()
	seq := g.seq
	g.mu.Unlock()
	return g.writeJSON(conn, gatewayPayload{Op: opHeartbeat, D: mustMarshal(seq)})
}

func (g *Gateway) writeJSON(conn *websocket.Conn, v interface{}) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	return conn.WriteJSON(v)
}

func (g *Gateway) dispatch(payload gatewayPayload) {
	switch payload.T {
	case "READY":
		var ready readyData
		if err := json.Unmarshal(payload.D, &ready); err != nil {
			g.log.Error().Err(err).Msg("bad READY payload")
			return
		}
		g.handler.HandleReady(ready)
	case "INTERACTION_CREATE":
		var interaction Interaction
		if err := json.Unmarshal(payload.D, &interaction); err != nil {
			g.log.Error().Err(err).Msg("bad interaction payload")
			return
		}
		go g.handler.HandleInteraction(interaction)
	case "MESSAGE_REACTION_ADD":
		var event ReactionEvent
		if err := json.Unmarshal(payload.D, &event); err != nil {
			g.log.Error().Err(err).Msg("bad reaction payload")
			return
		}
		go g.handler.HandleReactionAdd(event)
	case "MESSAGE_REACTION_REMOVE":
		var event ReactionEvent
		if err := json.Unmarshal(payload.D, &event); err != nil {
			g.log.Error().Err(err).Msg("bad reaction payload")
			return
		}
		go g.handler.HandleReactionRemove(event)
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}
