package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"parkingcore/services"

	"github.com/gin-gonic/gin"
)

// ReserveInput 預約車位的請求
type ReserveInput struct {
	FacilityID  int    `json:"facility_id" binding:"required,gt=0"`
	VehicleType string `json:"vehicle_type" binding:"required,oneof=car bike truck"`
	FloorID     *int   `json:"floor_id" binding:"omitempty,gte=0"`
}

// ConfirmInput 確認入場的請求
type ConfirmInput struct {
	SlotID        int    `json:"slot_id" binding:"required,gt=0"`
	VehicleNumber string `json:"vehicle_number" binding:"required,max=20"`
	VehicleType   string `json:"vehicle_type" binding:"required,oneof=car bike truck"`
}

// CheckoutInput 結帳的請求，未指定出場時間時以現在時間計
type CheckoutInput struct {
	ActualExitTime string `json:"actual_exit_time" binding:"omitempty"`
}

// ExtendInput 延長時數的請求
type ExtendInput struct {
	AdditionalHours int `json:"additional_hours" binding:"required,gt=0"`
}

// BookingHandler 車位預約、確認、結帳與延長的 HTTP 介面
type BookingHandler struct {
	allocator *services.SlotAllocator
	booking   *services.BookingService
	checkout  *services.CheckoutService
}

func NewBookingHandler(allocator *services.SlotAllocator, booking *services.BookingService, checkout *services.CheckoutService) *BookingHandler {
	return &BookingHandler{allocator: allocator, booking: booking, checkout: checkout}
}

// parseExitTime 解析出場時間，接受 RFC 3339 或不帶時區的格式（視為 UTC）
func parseExitTime(timeStr string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, timeStr); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", timeStr); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("time must be in 'YYYY-MM-DDThh:mm:ss' or RFC 3339 format")
}

// currentCustomerID 從 token 取出 customer_id
func currentCustomerID(c *gin.Context) (int, bool) {
	customerID, exists := c.Get("customer_id")
	if !exists {
		log.Printf("Failed to get customer_id from context")
		ErrorResponse(c, http.StatusUnauthorized, "未授權", "customer_id not found in token", "ERR_NO_CUSTOMER_ID")
		return 0, false
	}
	customerIDInt, ok := customerID.(int)
	if !ok {
		log.Printf("Invalid customer_id type in context")
		ErrorResponse(c, http.StatusUnauthorized, "未授權", "invalid customer_id type", "ERR_INVALID_CUSTOMER_ID")
		return 0, false
	}
	return customerIDInt, true
}

// bookingErrorResponse 將核心錯誤分類轉為對應的 HTTP 狀態碼。
// 各分類對使用者必須可區分：競爭失敗是「稍後再試」，查無資料是
// 「沒有可用車位」，保留逾期是「請重新預約」。
func bookingErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, "查無可用車位或票券", err.Error(), "ERR_NOT_FOUND")
	case errors.Is(err, services.ErrContention):
		ErrorResponse(c, http.StatusConflict, "車位競爭失敗，請稍後再試", err.Error(), "ERR_CONTENTION")
	case errors.Is(err, services.ErrSlotUnavailable):
		ErrorResponse(c, http.StatusBadRequest, "車位已被佔用", err.Error(), "ERR_SLOT_UNAVAILABLE")
	case errors.Is(err, services.ErrReservationExpired):
		ErrorResponse(c, http.StatusBadRequest, "保留已逾期，請重新預約", err.Error(), "ERR_RESERVATION_EXPIRED")
	case errors.Is(err, services.ErrInvalidRequest):
		ErrorResponse(c, http.StatusBadRequest, "無效的請求參數", err.Error(), "ERR_INVALID_REQUEST")
	case errors.Is(err, services.ErrConfigurationMissing):
		ErrorResponse(c, http.StatusBadRequest, "尚未設定費率", err.Error(), "ERR_NO_PRICING_RULE")
	default:
		log.Printf("Unexpected error from booking core: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "系統錯誤", err.Error(), "ERR_INTERNAL")
	}
}

// Reserve 預約車位
func (h *BookingHandler) Reserve(c *gin.Context) {
	var input ReserveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid reserve input: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "請提供停車場 ID 和車型", "ERR_INVALID_INPUT")
		return
	}

	customerID, ok := currentCustomerID(c)
	if !ok {
		return
	}

	reservation, err := h.allocator.Reserve(input.FacilityID, input.VehicleType, input.FloorID, customerID)
	if err != nil {
		bookingErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "預約成功", reservation)
}

// Confirm 確認入場並建立票券
func (h *BookingHandler) Confirm(c *gin.Context) {
	var input ConfirmInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid confirm input: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "請提供車位 ID、車牌號碼和車型", "ERR_INVALID_INPUT")
		return
	}

	customerID, ok := currentCustomerID(c)
	if !ok {
		return
	}

	ticket, err := h.booking.Confirm(input.SlotID, customerID, input.VehicleNumber, input.VehicleType)
	if err != nil {
		bookingErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "入場確認成功", ticket.ToResponse())
}

// Checkout 結帳出場
func (h *BookingHandler) Checkout(c *gin.Context) {
	idStr := c.Param("id")
	ticketID, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid ticket ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的票券 ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	// 出場時間可省略，空 body 視為以現在時間結帳
	var input CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		log.Printf("Invalid checkout input: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", err.Error(), "ERR_INVALID_INPUT")
		return
	}

	var exitTime *time.Time
	if input.ActualExitTime != "" {
		parsed, err := parseExitTime(input.ActualExitTime)
		if err != nil {
			log.Printf("Failed to parse actual_exit_time %s: %v", input.ActualExitTime, err)
			ErrorResponse(c, http.StatusBadRequest, "無效的出場時間格式", err.Error(), "ERR_INVALID_TIME_FORMAT")
			return
		}
		exitTime = &parsed
	}

	ticket, breakdown, err := h.checkout.Checkout(ticketID, exitTime)
	if err != nil {
		bookingErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "結帳成功", gin.H{
		"ticket":        ticket.ToResponse(),
		"fee_breakdown": breakdown,
	})
}

// Extend 延長停車時數
func (h *BookingHandler) Extend(c *gin.Context) {
	idStr := c.Param("id")
	ticketID, err := strconv.Atoi(idStr)
	if err != nil {
		log.Printf("Invalid ticket ID: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的票券 ID", err.Error(), "ERR_INVALID_ID")
		return
	}

	var input ExtendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid extend input: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "請提供要延長的時數", "ERR_INVALID_INPUT")
		return
	}

	extension, err := h.checkout.Extend(ticketID, input.AdditionalHours)
	if err != nil {
		bookingErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "延長成功", gin.H{
		"additional_fee": extension.AdditionalFee,
		"new_total_fee":  extension.NewTotalFee,
		"ticket":         extension.Ticket.ToResponse(),
	})
}
