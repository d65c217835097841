package ws

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"inactivity-service/internal/observability"
)

// ScanWebSocketHandler handles websocket subscriptions to scan results.
type ScanWebSocketHandler struct {
	hub        *Hub
	adminToken string
}

// NewScanWebSocketHandler constructs a ScanWebSocketHandler.
func NewScanWebSocketHandler(hub *Hub, adminToken string) *ScanWebSocketHandler {
	return &ScanWebSocketHandler{hub: hub, adminToken: adminToken}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client in the chat room.
func (h *ScanWebSocketHandler) Handle(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	ctx, span := otel.Tracer("inactivity-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	if !h.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(chatID, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.scans", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"chat_id": chatID,
				"conn_id": info.ConnID,
			},
			"identity": map[string]interface{}{
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(requestID, traceID))

	go h.readLoop(chatID, conn, info)
}

// readLoop drains client frames until the connection drops, then cleans up.
func (h *ScanWebSocketHandler) readLoop(chatID int64, conn *websocket.Conn, info ConnInfo) {
	defer func() {
		conn.Close()
		h.hub.RemoveClient(chatID, conn)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *ScanWebSocketHandler) authorized(c *gin.Context) bool {
	if h.adminToken == "" {
		return true
	}

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	parts := strings.SplitN(token, " ", 2)
	return len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] == h.adminToken
}
