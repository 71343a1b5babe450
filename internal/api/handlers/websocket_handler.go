package handlers

import (
	"io"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avelinof/chatrelay/internal/server"
)

// WebSocketHandler bridges WebSocket clients onto the chat dispatcher. The
// gateway speaks the exact same wire protocol as the TCP listener: clients
// send newline-terminated JSON control frames and raw file bodies over the
// socket, and the message boundaries of the WebSocket layer carry no
// meaning.
type WebSocketHandler struct {
	chatServer *server.Server
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(chatServer *server.Server) *WebSocketHandler {
	return &WebSocketHandler{chatServer: chatServer}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (consider tightening this in production).
		return true
	},
}

// Serve upgrades the request and hands the connection to the dispatcher.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}
	h.chatServer.HandleConn(&wsStream{conn: conn}, r.RemoteAddr)
}

// wsStream adapts a websocket connection to the byte-stream interface the
// dispatcher expects, concatenating incoming messages into one stream.
type wsStream struct {
	conn *websocket.Conn
	r    io.Reader
}

func (s *wsStream) Read(p []byte) (int, error) {
	for {
		if s.r == nil {
			_, r, err := s.conn.NextReader()
			if err != nil {
				return 0, err
			}
			s.r = r
		}
		n, err := s.r.Read(p)
		if err == io.EOF {
			// Current message exhausted; move on to the next one.
			s.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	if err := s.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}
