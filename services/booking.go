package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"parkingcore/models"
	"parkingcore/store"
)

// BookingService 將保留中或仍空閒的車位轉為使用中的票券。
// 票券建立與車位轉為 occupied 在同一個交易內完成，
// 兩者不可分開提交。
type BookingService struct {
	store    store.Store
	notifier ChangeNotifier
	now      func() time.Time
}

func NewBookingService(st store.Store, notifier ChangeNotifier) *BookingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &BookingService{store: st, notifier: notifier, now: time.Now}
}

// Confirm 確認入場並建立票券。允許從 free 直接確認，也允許持有
// 仍有效的 reserved 車位確認；不檢查確認者是否為下保留的同一人，
// 收緊這點是產品決策，不在這裡擅自加上。
func (s *BookingService) Confirm(slotID, customerID int, vehicleNumber, vehicleType string) (*models.Ticket, error) {
	now := s.now()
	var ticket *models.Ticket

	err := s.store.InTransaction(func(tx store.Store) error {
		slot, err := tx.GetSlot(slotID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("slot %d: %w", slotID, ErrNotFound)
			}
			return fmt.Errorf("failed to load slot %d: %w", slotID, err)
		}

		if slot.Status == models.SlotStatusOccupied {
			return fmt.Errorf("slot %d is occupied: %w", slotID, ErrSlotUnavailable)
		}
		if slot.Status == models.SlotStatusMaintenance || !slot.IsActive {
			return fmt.Errorf("slot %d is out of service: %w", slotID, ErrSlotUnavailable)
		}
		// 逾期但尚未被回收的保留視同失效，不允許憑過期持有確認
		if slot.Status == models.SlotStatusReserved && slot.ReservationExpiry != nil && slot.ReservationExpiry.Before(now) {
			return fmt.Errorf("hold on slot %d lapsed at %s: %w",
				slotID, slot.ReservationExpiry.Format(time.RFC3339), ErrReservationExpired)
		}

		ticket = &models.Ticket{
			CustomerID:    customerID,
			SlotID:        slot.SlotID,
			FacilityID:    slot.FacilityID,
			VehicleNumber: vehicleNumber,
			VehicleType:   vehicleType,
			EntryTime:     now,
			Status:        models.TicketStatusActive,
		}
		if err := tx.CreateTicket(ticket); err != nil {
			return fmt.Errorf("failed to create ticket for slot %d: %w", slotID, err)
		}

		won, err := tx.OccupySlot(slot.SlotID)
		if err != nil {
			return fmt.Errorf("failed to occupy slot %d: %w", slot.SlotID, err)
		}
		if !won {
			// 讀取之後、更新之前輸掉競爭
			return fmt.Errorf("slot %d was taken concurrently: %w", slot.SlotID, ErrSlotUnavailable)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Customer %d confirmed slot %d, ticket %d entered at %s",
		customerID, ticket.SlotID, ticket.TicketID, ticket.EntryTime.Format(time.RFC3339))
	s.notifier.Emit(ticket.FacilityID, SlotChange{
		SlotID: ticket.SlotID,
		Status: models.SlotStatusOccupied,
	})
	return ticket, nil
}
