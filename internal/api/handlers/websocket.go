package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/logger"
	"github.com/onnwee/ticker-proxy/internal/metrics"
	"github.com/onnwee/ticker-proxy/internal/middleware"
	"github.com/onnwee/ticker-proxy/internal/utils"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS middleware owns origin policy
		return true
	},
}

// StreamMessage is one frame pushed to a streaming client.
type StreamMessage struct {
	Type    string `json:"type"` // "price" or "error"
	Payload any    `json:"payload"`
}

// StreamLive handles GET /stock/{symbol}/stream: a websocket that pushes
// the live price every interval. Each push goes through the governor, so a
// thousand open streams on the same symbol still cost one upstream call
// per TTL.
func StreamLive(gov *governor.Governor, md MarketData, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := utils.SanitizeSymbol(mux.Vars(r)["symbol"])
		if err := middleware.ValidateSymbol(symbol); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WarnContext(r.Context(), "WebSocket upgrade failed", "error", err, "symbol", symbol)
			return
		}
		defer conn.Close()

		metrics.WebSocketConnections.Inc()
		defer metrics.WebSocketConnections.Dec()

		logger.InfoContext(r.Context(), "Stream opened", "symbol", symbol)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Read pump: consumes control frames and notices the peer leaving.
		conn.SetReadLimit(maxMessageSize)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		pinger := time.NewTicker(pingPeriod)
		defer pinger.Stop()

		// First price goes out immediately
		if !pushPrice(ctx, conn, gov, md, symbol) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				logger.InfoContext(r.Context(), "Stream closed", "symbol", symbol)
				return

			case <-pinger.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}

			case <-ticker.C:
				if !pushPrice(ctx, conn, gov, md, symbol) {
					return
				}
			}
		}
	}
}

// pushPrice resolves and writes one frame. Returns false when the
// connection should be torn down.
func pushPrice(ctx context.Context, conn *websocket.Conn, gov *governor.Governor, md MarketData, symbol string) bool {
	res, err := gov.Resolve(ctx, governor.Live, symbol, func(ctx context.Context) (any, error) {
		return md.Live(ctx, symbol)
	})

	var msg StreamMessage
	switch {
	case err == nil:
		msg = StreamMessage{Type: "price", Payload: res.Value}
	case governor.KindOf(err) == governor.KindNotFound:
		// Definitive: tell the client and hang up.
		writeFrame(conn, StreamMessage{Type: "error", Payload: "symbol not found"})
		return false
	default:
		// Transient failure; keep the stream alive and try next tick.
		msg = StreamMessage{Type: "error", Payload: "price unavailable"}
	}

	return writeFrame(conn, msg)
}

func writeFrame(conn *websocket.Conn, msg StreamMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return false
	}
	metrics.WebSocketMessagesSent.Inc()
	return true
}
