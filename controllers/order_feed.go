package controllers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"luxvision/logger"
	"luxvision/services"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = feedPongWait * 9 / 10
)

// OrderFeed streams order events to back-office websocket clients.
type OrderFeed struct {
	feed     *services.Feed
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewOrderFeed accepts connections whose Origin is origin. Requests without
// an Origin header, such as non-browser clients, are accepted too.
func NewOrderFeed(feed *services.Feed, origin string, log *zap.Logger) *OrderFeed {
	return &OrderFeed{
		feed: feed,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				o := r.Header.Get("Origin")
				return o == "" || origin == "*" || o == origin
			},
		},
	}
}

// Serve upgrades the request and writes one JSON message per event until
// the client goes away or falls behind.
func (of *OrderFeed) Serve(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOr(r.Context(), of.log)
	conn, err := of.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already replied
		log.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := of.feed.Subscribe()
	defer unsubscribe()

	// the read loop only exists to process control frames and notice closes
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				log.Info("Order feed subscriber dropped")
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber too slow"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
