package services

import (
	"testing"
	"time"

	"parkingcore/models"
	"parkingcore/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(st *memstore.MemStore, notifier ChangeNotifier) *BookingService {
	booking := NewBookingService(st, notifier)
	booking.now = func() time.Time { return testNow }
	return booking
}

func TestConfirmFromFree(t *testing.T) {
	// 不需要先保留也能直接確認入場
	st := seedStore([]models.Slot{freeSlot(1, 10, "car")}, nil)
	notifier := &recordingNotifier{}
	booking := newTestBooking(st, notifier)

	ticket, err := booking.Confirm(1, 42, "ABC-1234", "car")
	require.NoError(t, err)
	assert.Equal(t, 42, ticket.CustomerID)
	assert.Equal(t, 1, ticket.SlotID)
	assert.Equal(t, 10, ticket.FacilityID)
	assert.Equal(t, "ABC-1234", ticket.VehicleNumber)
	assert.Equal(t, testNow, ticket.EntryTime)
	assert.Equal(t, models.TicketStatusActive, ticket.Status)
	assert.NotZero(t, ticket.TicketID)

	slot, err := st.GetSlot(1)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusOccupied, slot.Status)
	assert.Nil(t, slot.ReservationExpiry)

	events := notifier.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, models.SlotStatusOccupied, events[0].Status)
}

func TestConfirmFromValidHold(t *testing.T) {
	slot := freeSlot(1, 10, "car")
	slot.Status = models.SlotStatusReserved
	slot.ReservationExpiry = tptr(testNow.Add(3 * time.Minute))
	st := seedStore([]models.Slot{slot}, nil)
	booking := newTestBooking(st, nil)

	ticket, err := booking.Confirm(1, 42, "ABC-1234", "car")
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusActive, ticket.Status)

	occupied, err := st.GetSlot(1)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusOccupied, occupied.Status)
	assert.Nil(t, occupied.ReservationExpiry)
}

func TestConfirmExpiredHoldRejected(t *testing.T) {
	// 逾期未回收的保留不可被確認，必須重新預約
	slot := freeSlot(1, 10, "car")
	slot.Status = models.SlotStatusReserved
	slot.ReservationExpiry = tptr(testNow.Add(-time.Second))
	st := seedStore([]models.Slot{slot}, nil)
	booking := newTestBooking(st, nil)

	_, err := booking.Confirm(1, 42, "ABC-1234", "car")
	assert.ErrorIs(t, err, ErrReservationExpired)

	// 交易回滾，沒有殘留票券，車位狀態不變
	_, err = st.GetActiveTicket(1)
	assert.Error(t, err)
	unchanged, err := st.GetSlot(1)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStatusReserved, unchanged.Status)
}

func TestConfirmOccupiedSlot(t *testing.T) {
	slot := freeSlot(1, 10, "car")
	slot.Status = models.SlotStatusOccupied
	st := seedStore([]models.Slot{slot}, nil)
	booking := newTestBooking(st, nil)

	_, err := booking.Confirm(1, 42, "ABC-1234", "car")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestConfirmMaintenanceSlot(t *testing.T) {
	slot := freeSlot(1, 10, "car")
	slot.Status = models.SlotStatusMaintenance
	st := seedStore([]models.Slot{slot}, nil)
	booking := newTestBooking(st, nil)

	_, err := booking.Confirm(1, 42, "ABC-1234", "car")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestConfirmMissingSlot(t *testing.T) {
	st := seedStore(nil, nil)
	booking := newTestBooking(st, nil)

	_, err := booking.Confirm(99, 42, "ABC-1234", "car")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmTwiceSameSlot(t *testing.T) {
	// 同一車位重複確認，第二次必須以車位已佔用失敗
	st := seedStore([]models.Slot{freeSlot(1, 10, "car")}, nil)
	booking := newTestBooking(st, nil)

	_, err := booking.Confirm(1, 42, "ABC-1234", "car")
	require.NoError(t, err)

	_, err = booking.Confirm(1, 43, "XYZ-9999", "car")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestReserveThenConfirmThenConcurrentConfirm(t *testing.T) {
	// 預約 → 確認 → 第三方再確認同一車位，端到端不可能重複入場
	st := seedStore([]models.Slot{freeSlot(1, 10, "car")}, nil)
	allocator := newTestAllocator(st, nil)
	booking := newTestBooking(st, nil)

	reservation, err := allocator.Reserve(10, "car", nil, 42)
	require.NoError(t, err)

	_, err = booking.Confirm(reservation.SlotID, 42, "ABC-1234", "car")
	require.NoError(t, err)

	_, err = booking.Confirm(reservation.SlotID, 77, "ZZZ-0000", "car")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}
