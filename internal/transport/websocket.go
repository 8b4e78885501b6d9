package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsWriteTimeout = 15 * time.Second

	// wsReadLimit bounds a single inbound frame before the protocol layer
	// ever sees it.
	wsReadLimit = 64 * 1024
)

// WSConn adapts a websocket connection to the Transport contract. The peer
// origin is fixed at construction: every inbound message is stamped with it,
// and sends verify the target origin against it.
type WSConn struct {
	conn       *websocket.Conn
	peerOrigin string
	log        zerolog.Logger

	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
}

func NewWSConn(conn *websocket.Conn, peerOrigin string, log zerolog.Logger) *WSConn {
	conn.SetReadLimit(wsReadLimit)
	return &WSConn{
		conn:       conn,
		peerOrigin: peerOrigin,
		log:        log,
		done:       make(chan struct{}),
	}
}

// DialWS connects to a widget endpoint and wraps the connection.
func DialWS(url, peerOrigin string, log zerolog.Logger) (*WSConn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return NewWSConn(conn, peerOrigin, log), nil
}

// UpgradeWS upgrades an inbound HTTP request, stamping messages with the
// request's Origin header.
func UpgradeWS(w http.ResponseWriter, r *http.Request, log zerolog.Logger) (*WSConn, error) {
	upgrader := websocket.Upgrader{
		// The protocol core runs its own origin gate on every message.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewWSConn(conn, r.Header.Get("Origin"), log), nil
}

func (c *WSConn) Send(data []byte, targetOrigin string) error {
	if targetOrigin != "*" && targetOrigin != c.peerOrigin {
		return ErrOriginMismatch
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Receive starts the read pump. The pump exits on read error or Close.
func (c *WSConn) Receive(h Handler) {
	go func() {
		for {
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				select {
				case <-c.done:
				default:
					c.log.Debug().Err(err).Msg("websocket read ended")
				}
				return
			}
			h(Inbound{Data: data, Origin: c.peerOrigin})
		}
	}()
}

func (c *WSConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}
