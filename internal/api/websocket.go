package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopapp/backend/internal/notify"
)

// WebSocket message types for the upload feed
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypePong      = "pong"
	MsgTypeError     = "error"
)

const wsWriteTimeout = 10 * time.Second

// WSMessage is the envelope for every frame in both directions.
// Upload events use the event type ("upload:stored", "upload:deleted") with the file as payload.
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is sent for frames the server does not understand
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler pushes upload events to connected clients
type WebSocketHandler struct {
	events   EventSource
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewWebSocketHandler creates a new websocket feed handler
func NewWebSocketHandler(events EventSource, logger *log.Logger) *WebSocketHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &WebSocketHandler{
		events: events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the connection and forwards upload events until the client leaves
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	events, cancel := wsh.events.Subscribe()
	defer cancel()

	wsh.logger.Debug("websocket client connected", "remote", c.RealIP())

	if err := wsh.sendMessage(ws, WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()}); err != nil {
		return nil
	}

	// Only this goroutine writes; the reader hands frames over through incoming.
	incoming := make(chan WSMessage)
	done := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(done)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsh.logger.Warn("websocket read failed", "err", err)
				}
				return
			}
			select {
			case incoming <- msg:
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			wsh.logger.Debug("websocket client disconnected", "remote", c.RealIP())
			return nil

		case msg := <-incoming:
			switch msg.Type {
			case MsgTypePing:
				err = wsh.sendMessage(ws, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
			default:
				err = wsh.sendError(ws, "Unknown message type: "+msg.Type, "INVALID_TYPE")
			}

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			err = wsh.sendEvent(ws, ev)
		}

		if err != nil {
			wsh.logger.Debug("websocket write failed", "err", err)
			return nil
		}
	}
}

func (wsh *WebSocketHandler) sendEvent(ws *websocket.Conn, ev notify.Event) error {
	payload, err := json.Marshal(ev.File)
	if err != nil {
		return err
	}
	return wsh.sendMessage(ws, WSMessage{
		Type:      string(ev.Type),
		Payload:   payload,
		Timestamp: ev.Time.UnixMilli(),
	})
}

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg interface{}) error {
	if err := ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return ws.WriteJSON(msg)
}

func (wsh *WebSocketHandler) sendError(ws *websocket.Conn, message, code string) error {
	return wsh.sendMessage(ws, WSErrorResponse{
		Type:    MsgTypeError,
		Message: message,
		Code:    code,
	})
}
