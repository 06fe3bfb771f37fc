package notify

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"parkingcore/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// slotEvent 推送給訂閱者的事件封包
type slotEvent struct {
	EventID    string    `json:"event_id"`
	FacilityID int       `json:"facility_id"`
	EmittedAt  time.Time `json:"emitted_at"`
	services.SlotChange
}

// Hub 以 WebSocket 廣播車位狀態變更，訂閱者以停車場為單位註冊。
// 傳送失敗直接斷線移除，不重試也不保證送達。
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]int // 連線 -> 訂閱的 facility_id
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]int)}
}

// Emit 實作 services.ChangeNotifier，只在交易提交後被呼叫
func (h *Hub) Emit(facilityID int, change services.SlotChange) {
	event := slotEvent{
		EventID:    uuid.NewString(),
		FacilityID: facilityID,
		EmittedAt:  time.Now().UTC(),
		SlotChange: change,
	}
	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal slot event for facility %d: %v", facilityID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, subscribed := range h.clients {
		if subscribed != facilityID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Failed to write to WebSocket client, dropping: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// HandleWS 將 HTTP 連線升級為 WebSocket 並註冊為指定停車場的訂閱者
func (h *Hub) HandleWS(c *gin.Context, facilityID int) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket connection: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = facilityID
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("WebSocket client subscribed to facility %d. Total: %d", facilityID, total)

	// 讀取迴圈只為了偵測斷線
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				if _, ok := h.clients[conn]; ok {
					delete(h.clients, conn)
					conn.Close()
				}
				total := len(h.clients)
				h.mu.Unlock()
				log.Printf("WebSocket client disconnected. Total: %d", total)
				return
			}
		}
	}()
}
