package notification

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cleanbook/internal/domain"
	"cleanbook/internal/pkg/response"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler streams slot events of one service day to a websocket client.
type WSHandler struct {
	hub *Hub
}

func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleSlotStream serves GET /services/:id/slots/ws?date=YYYY-MM-DD.
func (h *WSHandler) HandleSlotStream(c *gin.Context) {
	serviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || serviceID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid service ID")
		return
	}
	date := c.Query("date")
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be formatted as YYYY-MM-DD")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("slot_stream_upgrade_failed service_id=%d error=%v", serviceID, err)
		return
	}

	sub := h.hub.subscribe(serviceID, date, conn)
	defer h.hub.unsubscribe(sub)
	go h.hub.writePump(sub)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Clients only listen; reads keep the pong handler running and detect close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("slot_stream_closed service_id=%d date=%s error=%v", serviceID, date, err)
			}
			return
		}
	}
}
