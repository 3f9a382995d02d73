package handlers

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/screepers/screeps-proxy/pkg/config"
	"github.com/screepers/screeps-proxy/pkg/routecodec"
)

const routeLocal = "route"

// WebSocketProxy forwards upgrade connections to the resolved backend with
// only the inner path rewritten. Forwarding failure closes the client
// socket; there are no retries.
type WebSocketProxy struct {
	cfg     config.Config
	codec   *routecodec.Codec
	log     *zap.Logger
	handler fiber.Handler
}

// NewWebSocketProxy builds the upgrade middleware.
func NewWebSocketProxy(cfg config.Config, codec *routecodec.Codec, logger *zap.Logger) *WebSocketProxy {
	p := &WebSocketProxy{cfg: cfg, codec: codec, log: logger}
	p.handler = websocket.New(p.pump)
	return p
}

// Middleware intercepts WebSocket upgrades ahead of the HTTP dispatcher;
// everything else falls through to c.Next().
func (p *WebSocketProxy) Middleware(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}

	route, ok := p.codec.Decode(c.Path())
	if !ok {
		p.log.Warn("unroutable upgrade request", zap.String("path", c.Path()))
		return c.SendStatus(fiber.StatusBadRequest)
	}
	c.Locals(routeLocal, route)
	return p.handler(c)
}

// pump dials the backend and relays messages in both directions until
// either side fails, then closes both conns.
func (p *WebSocketProxy) pump(client *websocket.Conn) {
	defer client.Close()

	route := client.Locals(routeLocal).(routecodec.Route)
	id := uuid.New().String()

	target := wsOrigin(p.cfg.OutboundOrigin(route.Backend)) + route.Inner
	backend, resp, err := gorilla.DefaultDialer.Dial(target, nil)
	if err != nil {
		p.log.Warn("backend socket dial failed",
			zap.String("conn", id), zap.String("target", target), zap.Error(err))
		return
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer backend.Close()

	p.log.Info("socket connected", zap.String("conn", id), zap.String("target", target))

	done := make(chan error, 2)
	go relay(client, backend, done)
	go relay(backend, client, done)

	// First failure on either side tears the pair down; the deferred
	// closes unblock the remaining relay.
	err = <-done
	p.log.Debug("socket closed", zap.String("conn", id), zap.Error(err))
}

// messageConn is the read/write surface shared by the client-side and
// backend-side WebSocket connections.
type messageConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
}

func relay(src, dst messageConn, done chan<- error) {
	for {
		messageType, message, err := src.ReadMessage()
		if err != nil {
			done <- err
			return
		}
		if err := dst.WriteMessage(messageType, message); err != nil {
			done <- err
			return
		}
	}
}

// wsOrigin maps an HTTP backend origin onto its WebSocket scheme.
func wsOrigin(origin string) string {
	if strings.HasPrefix(origin, "https://") {
		return "wss://" + strings.TrimPrefix(origin, "https://")
	}
	return "ws://" + strings.TrimPrefix(origin, "http://")
}
