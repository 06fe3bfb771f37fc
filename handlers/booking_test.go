package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parkingcore/models"
	"parkingcore/services"
	"parkingcore/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter 組裝測試用路由，以假的認證中介軟體注入 customer_id
func newTestRouter(st *memstore.MemStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	allocator := services.NewSlotAllocator(st, nil, services.DefaultHoldDuration)
	booking := services.NewBookingService(st, nil)
	checkout := services.NewCheckoutService(st, nil)
	slots := services.NewSlotQueryService(st)

	bookingHandler := NewBookingHandler(allocator, booking, checkout)
	slotHandler := NewSlotHandler(slots, nil)

	r := gin.New()
	r.GET("/facilities/:id/slots", slotHandler.ListSlots)
	authed := r.Group("/bookings")
	authed.Use(func(c *gin.Context) {
		c.Set("customer_id", 42)
		c.Next()
	})
	authed.POST("/reserve", bookingHandler.Reserve)
	authed.POST("/confirm", bookingHandler.Confirm)
	authed.POST("/:id/checkout", bookingHandler.Checkout)
	authed.POST("/:id/extend", bookingHandler.Extend)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func testSlot(slotID, facilityID int, vehicleType string) models.Slot {
	return models.Slot{
		SlotID:      slotID,
		FacilityID:  facilityID,
		VehicleType: vehicleType,
		Status:      models.SlotStatusFree,
		IsActive:    true,
	}
}

func TestReserveEndpoint(t *testing.T) {
	st := memstore.New()
	st.AddSlot(testSlot(1, 10, "car"))
	r := newTestRouter(st)

	w, resp := doJSON(t, r, http.MethodPost, "/bookings/reserve", gin.H{
		"facility_id":  10,
		"vehicle_type": "car",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Status)

	slot, err := st.GetSlot(1)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusReserved, slot.Status)
}

func TestReserveEndpointNoSlots(t *testing.T) {
	r := newTestRouter(memstore.New())

	w, resp := doJSON(t, r, http.MethodPost, "/bookings/reserve", gin.H{
		"facility_id":  10,
		"vehicle_type": "car",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Status)
	assert.Equal(t, "ERR_NOT_FOUND", resp.Code)
}

func TestReserveEndpointInvalidInput(t *testing.T) {
	r := newTestRouter(memstore.New())

	w, resp := doJSON(t, r, http.MethodPost, "/bookings/reserve", gin.H{
		"facility_id":  10,
		"vehicle_type": "hovercraft",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_INPUT", resp.Code)
}

func TestConfirmEndpoint(t *testing.T) {
	st := memstore.New()
	st.AddSlot(testSlot(1, 10, "car"))
	r := newTestRouter(st)

	w, resp := doJSON(t, r, http.MethodPost, "/bookings/confirm", gin.H{
		"slot_id":        1,
		"vehicle_number": "ABC-1234",
		"vehicle_type":   "car",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Status)

	slot, err := st.GetSlot(1)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusOccupied, slot.Status)
}

func TestConfirmEndpointOccupiedSlot(t *testing.T) {
	slot := testSlot(1, 10, "car")
	slot.Status = models.SlotStatusOccupied
	st := memstore.New()
	st.AddSlot(slot)
	r := newTestRouter(st)

	w, resp := doJSON(t, r, http.MethodPost, "/bookings/confirm", gin.H{
		"slot_id":        1,
		"vehicle_number": "ABC-1234",
		"vehicle_type":   "car",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_SLOT_UNAVAILABLE", resp.Code)
}

func TestConfirmEndpointExpiredHold(t *testing.T) {
	expiry := time.Now().Add(-time.Minute)
	slot := testSlot(1, 10, "car")
	slot.Status = models.SlotStatusReserved
	slot.ReservationExpiry = &expiry
	st := memstore.New()
	st.AddSlot(slot)
	r := newTestRouter(st)

	w, resp := doJSON(t, r, http.MethodPost, "/bookings/confirm", gin.H{
		"slot_id":        1,
		"vehicle_number": "ABC-1234",
		"vehicle_type":   "car",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_RESERVATION_EXPIRED", resp.Code)
}

func TestCheckoutEndpoint(t *testing.T) {
	st := memstore.New()
	st.AddRule(models.PricingRule{FacilityID: 10, VehicleType: "car", HourlyRate: 20})
	occupied := testSlot(1, 10, "car")
	occupied.Status = models.SlotStatusOccupied
	st.AddSlot(occupied)
	entry := time.Now().UTC().Add(-90 * time.Minute)
	ticket := &models.Ticket{
		CustomerID:    42,
		SlotID:        1,
		FacilityID:    10,
		VehicleNumber: "ABC-1234",
		VehicleType:   "car",
		EntryTime:     entry,
		Status:        models.TicketStatusActive,
	}
	require.NoError(t, st.CreateTicket(ticket))
	r := newTestRouter(st)

	// 明確給出場時間，入場後兩小時整，應計兩小時費用
	exit := entry.Add(2 * time.Hour)
	w, resp := doJSON(t, r, http.MethodPost, fmt.Sprintf("/bookings/%d/checkout", ticket.TicketID), gin.H{
		"actual_exit_time": exit.Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	breakdown, ok := data["fee_breakdown"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 40.0, breakdown["total_fee"])

	slot, err := st.GetSlot(1)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusFree, slot.Status)
}

func TestCheckoutEndpointEmptyBody(t *testing.T) {
	st := memstore.New()
	st.AddRule(models.PricingRule{FacilityID: 10, VehicleType: "car", HourlyRate: 20})
	occupied := testSlot(1, 10, "car")
	occupied.Status = models.SlotStatusOccupied
	st.AddSlot(occupied)
	ticket := &models.Ticket{
		CustomerID:  42,
		SlotID:      1,
		FacilityID:  10,
		VehicleType: "car",
		EntryTime:   time.Now().UTC().Add(-time.Hour),
		Status:      models.TicketStatusActive,
	}
	require.NoError(t, st.CreateTicket(ticket))
	r := newTestRouter(st)

	// 空 body 視為以現在時間結帳
	w, resp := doJSON(t, r, http.MethodPost, fmt.Sprintf("/bookings/%d/checkout", ticket.TicketID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Status)
}

func TestCheckoutEndpointMissingTicket(t *testing.T) {
	r := newTestRouter(memstore.New())

	w, resp := doJSON(t, r, http.MethodPost, "/bookings/99/checkout", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", resp.Code)
}

func TestCheckoutEndpointBadTimeFormat(t *testing.T) {
	r := newTestRouter(memstore.New())

	w, resp := doJSON(t, r, http.MethodPost, "/bookings/1/checkout", gin.H{
		"actual_exit_time": "next tuesday",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_TIME_FORMAT", resp.Code)
}

func TestExtendEndpointWithoutPricingRule(t *testing.T) {
	st := memstore.New()
	occupied := testSlot(1, 10, "car")
	occupied.Status = models.SlotStatusOccupied
	st.AddSlot(occupied)
	ticket := &models.Ticket{
		CustomerID:  42,
		SlotID:      1,
		FacilityID:  10,
		VehicleType: "car",
		EntryTime:   time.Now().UTC(),
		Status:      models.TicketStatusActive,
	}
	require.NoError(t, st.CreateTicket(ticket))
	r := newTestRouter(st)

	w, resp := doJSON(t, r, http.MethodPost, fmt.Sprintf("/bookings/%d/extend", ticket.TicketID), gin.H{
		"additional_hours": 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_NO_PRICING_RULE", resp.Code)
}

func TestExtendEndpoint(t *testing.T) {
	st := memstore.New()
	st.AddRule(models.PricingRule{FacilityID: 10, VehicleType: "car", HourlyRate: 20})
	occupied := testSlot(1, 10, "car")
	occupied.Status = models.SlotStatusOccupied
	st.AddSlot(occupied)
	ticket := &models.Ticket{
		CustomerID:  42,
		SlotID:      1,
		FacilityID:  10,
		VehicleType: "car",
		EntryTime:   time.Now().UTC(),
		Status:      models.TicketStatusActive,
	}
	require.NoError(t, st.CreateTicket(ticket))
	r := newTestRouter(st)

	w, resp := doJSON(t, r, http.MethodPost, fmt.Sprintf("/bookings/%d/extend", ticket.TicketID), gin.H{
		"additional_hours": 3,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 60.0, data["additional_fee"])
	assert.Equal(t, 60.0, data["new_total_fee"])
}

func TestListSlotsEndpoint(t *testing.T) {
	st := memstore.New()
	st.AddSlot(testSlot(1, 10, "car"))
	occupied := testSlot(2, 10, "car")
	occupied.Status = models.SlotStatusOccupied
	st.AddSlot(occupied)
	st.AddSlot(testSlot(3, 99, "car"))
	r := newTestRouter(st)

	w, resp := doJSON(t, r, http.MethodGet, "/facilities/10/slots?status=free", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	slots, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, slots, 1)
	first, ok := slots[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1.0, first["slot_id"])
}

func TestListSlotsEndpointBadStatus(t *testing.T) {
	r := newTestRouter(memstore.New())

	w, resp := doJSON(t, r, http.MethodGet, "/facilities/10/slots?status=teleporting", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_REQUEST", resp.Code)
}
