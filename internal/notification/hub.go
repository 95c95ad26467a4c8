package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	SlotReserved = "slot.reserved"
	SlotReleased = "slot.released"
)

// sendBuffer is how many events a subscriber may lag behind before it is dropped.
const sendBuffer = 64

// SlotEvent tells subscribers of a service day that one of its slots changed.
type SlotEvent struct {
	Type          string `json:"type"`
	ServiceID     int64  `json:"service_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	ReservationID int64  `json:"reservation_id"`
	Status        string `json:"status"`
}

func dayKey(serviceID int64, date string) string {
	return fmt.Sprintf("%d:%s", serviceID, date)
}

// subscriber is one websocket client. Only its writePump touches conn for writing.
type subscriber struct {
	key  string
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps websocket subscribers grouped by service day.
type Hub struct {
	subs  map[string]map[*subscriber]struct{}
	mutex sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

func (h *Hub) subscribe(serviceID int64, date string, conn *websocket.Conn) *subscriber {
	s := &subscriber{
		key:  dayKey(serviceID, date),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.subs[s.key] == nil {
		h.subs[s.key] = make(map[*subscriber]struct{})
	}
	h.subs[s.key][s] = struct{}{}
	return s
}

// unsubscribe removes s and closes its send channel, which stops its writePump.
// Safe to call more than once.
func (h *Hub) unsubscribe(s *subscriber) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns, ok := h.subs[s.key]
	if !ok {
		return
	}
	if _, ok := conns[s]; ok {
		delete(conns, s)
		close(s.send)
	}
	if len(conns) == 0 {
		delete(h.subs, s.key)
	}
}

// PublishSlotEvent queues evt for every subscriber of its service day and
// returns without waiting for delivery. Subscribers whose queue is full are
// dropped.
func (h *Hub) PublishSlotEvent(evt SlotEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("slot_event_encode_failed service_id=%d date=%s error=%v", evt.ServiceID, evt.Date, err)
		return
	}

	var slow []*subscriber
	h.mutex.RLock()
	for s := range h.subs[dayKey(evt.ServiceID, evt.Date)] {
		select {
		case s.send <- data:
		default:
			slow = append(slow, s)
		}
	}
	h.mutex.RUnlock()

	for _, s := range slow {
		log.Printf("slot_subscriber_dropped service_id=%d date=%s reason=send_buffer_full", evt.ServiceID, evt.Date)
		h.unsubscribe(s)
	}
}

// writePump is the only writer on s.conn. It exits when the send channel is
// closed or a write fails, and closes the connection on the way out.
func (h *Hub) writePump(s *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("slot_event_write_failed key=%s error=%v", s.key, err)
				h.unsubscribe(s)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unsubscribe(s)
				return
			}
		}
	}
}

func (h *Hub) SubscriberCount(serviceID int64, date string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.subs[dayKey(serviceID, date)])
}

// Close drops every subscriber. Their write pumps send a close frame and exit.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for key, conns := range h.subs {
		for s := range conns {
			close(s.send)
		}
		delete(h.subs, key)
	}
}
