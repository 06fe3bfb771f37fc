package handlers

import (
	"log"
	"net/http"
	"strconv"

	"parkingcore/models"
	"parkingcore/notify"
	"parkingcore/services"

	"github.com/gin-gonic/gin"
)

// SlotHandler 車位查詢與狀態推送的 HTTP 介面
type SlotHandler struct {
	slots *services.SlotQueryService
	hub   *notify.Hub
}

func NewSlotHandler(slots *services.SlotQueryService, hub *notify.Hub) *SlotHandler {
	return &SlotHandler{slots: slots, hub: hub}
}

// ListSlots 查詢停車場的車位清單，可用 status 和 floor_id 過濾
func (h *SlotHandler) ListSlots(c *gin.Context) {
	facilityID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		log.Printf("Invalid facility ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場 ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	status := c.Query("status")
	var floorID *int
	if floorStr := c.Query("floor_id"); floorStr != "" {
		floor, err := strconv.Atoi(floorStr)
		if err != nil {
			log.Printf("Invalid floor_id %s: %v", floorStr, err)
			ErrorResponse(c, http.StatusBadRequest, "無效的樓層 ID", err.Error(), "ERR_INVALID_FLOOR")
			return
		}
		floorID = &floor
	}

	slots, err := h.slots.ListSlots(facilityID, status, floorID)
	if err != nil {
		bookingErrorResponse(c, err)
		return
	}

	responses := make([]models.SlotResponse, len(slots))
	for i, slot := range slots {
		responses[i] = slot.ToResponse()
	}
	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// SubscribeSlotChanges 訂閱停車場的車位狀態變更推送
func (h *SlotHandler) SubscribeSlotChanges(c *gin.Context) {
	facilityID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		log.Printf("Invalid facility ID for WebSocket subscription: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場 ID", err.Error(), "ERR_INVALID_ID")
		return
	}
	h.hub.HandleWS(c, facilityID)
}
