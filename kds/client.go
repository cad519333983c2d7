package kds

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// ServeClient streams messages of the given channels to a websocket
// connection until the peer goes away. It blocks and closes conn on return.
func (h *Hub) ServeClient(conn *websocket.Conn, channels ...string) {
	sub := h.Subscribe(channels...)
	log := h.log.WithFields(logrus.Fields{
		"remote":   conn.RemoteAddr().String(),
		"channels": channels,
	})
	log.Info("KDS client connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writePump(conn, sub, log)
	}()

	h.readPump(conn)

	sub.Close()
	<-done
	conn.Close()
	log.Info("KDS client disconnected")
}

// readPump only consumes control frames; display clients never send data.
func (h *Hub) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *Subscription, log *logrus.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-sub.C():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Warn("Error sending message to client")
				conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}
