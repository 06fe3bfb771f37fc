package services

import (
	"fmt"

	"parkingcore/models"
	"parkingcore/store"
)

// SlotQueryService 車位清單查詢，唯讀
type SlotQueryService struct {
	store store.Store
}

func NewSlotQueryService(st store.Store) *SlotQueryService {
	return &SlotQueryService{store: st}
}

// ListSlots 查詢停車場的車位，可選擇以狀態或樓層過濾
func (s *SlotQueryService) ListSlots(facilityID int, status string, floorID *int) ([]models.Slot, error) {
	switch status {
	case "", models.SlotStatusFree, models.SlotStatusReserved, models.SlotStatusOccupied, models.SlotStatusMaintenance:
	default:
		return nil, fmt.Errorf("invalid status filter %q: %w", status, ErrInvalidRequest)
	}

	slots, err := s.store.ListSlots(facilityID, status, floorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for facility %d: %w", facilityID, err)
	}
	return slots, nil
}
