package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"autotrader/internal/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsEventBuf   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin dashboards connect directly; the token check happens at
	// the HTTP layer for API routes, the stream itself is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
	Time    int64  `json:"time"`
}

// websocket upgrades the connection and streams bus events to the client
// until it disconnects. Slow clients miss events instead of stalling the
// publishers.
func (s *Server) websocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	topics := []events.Event{
		events.EventPriceTick,
		events.EventOrderExecuted,
		events.EventOrderCancelled,
		events.EventTradingEnabled,
	}
	merged := make(chan wsEnvelope, wsEventBuf)
	done := make(chan struct{})

	for _, t := range topics {
		ch, unsub := s.Bus.Subscribe(t, wsEventBuf)
		defer unsub()
		go func(topic events.Event, ch <-chan any) {
			for {
				select {
				case <-done:
					return
				case payload, ok := <-ch:
					if !ok {
						return
					}
					env := wsEnvelope{Event: string(topic), Payload: payload, Time: time.Now().UnixMilli()}
					select {
					case merged <- env:
					default:
					}
				}
			}
		}(t, ch)
	}

	// Read pump: we ignore client messages but need the reads to notice
	// disconnects and answer control frames.
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(wsPongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case env := <-merged:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(env); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
