package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/logger"
	"github.com/Dhaka-Yash/ride-cancellation-ml-system/services"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type liveMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type LiveFeed struct {
	cache *services.CacheService
	auth  *services.AuthService
	log   *logger.Logger
}

func NewLiveFeed(cache *services.CacheService, auth *services.AuthService, log *logger.Logger) *LiveFeed {
	if log == nil {
		log = logger.Nop()
	}
	return &LiveFeed{cache: cache, auth: auth, log: log.With("handler", "LiveFeed")}
}

// Serve streams every prediction published on the redis channel. Browsers
// cannot set headers on a websocket handshake, so the token is read from
// the query string.
func (f *LiveFeed) Serve(c *gin.Context) {
	if f.auth.Enabled() {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token query parameter"})
			return
		}
		if _, err := f.auth.Authorize(token, services.ScopeRead); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
	}
	if !f.cache.Available() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed needs redis"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		f.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go f.readPump(conn, cancel)

	sub := f.cache.Subscribe(ctx, services.PredictionsChannel)
	defer sub.Close()
	f.writePump(ctx, conn, sub.Channel())
}

// readPump discards client frames and cancels the stream once the peer is gone.
func (f *LiveFeed) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *LiveFeed) writePump(ctx context.Context, conn *websocket.Conn, ch <-chan *redis.Message) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case msg, ok := <-ch:
			if !ok {
				return
			}
			out, err := encodeLive(msg.Payload)
			if err != nil {
				f.log.Warn("dropping malformed prediction event", "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
				f.log.Warn("ws write error", "error", err)
				return
			}
		}
	}
}

func encodeLive(payload string) ([]byte, error) {
	if !json.Valid([]byte(payload)) {
		return nil, errors.New("payload is not valid JSON")
	}
	return json.Marshal(liveMessage{Type: "prediction", Data: json.RawMessage(payload)})
}
