package services

import (
	"errors"
	"sync"
	"time"

	"parkingcore/models"
	"parkingcore/store"
	"parkingcore/store/memstore"
)

// recordingNotifier 記錄所有收到的事件供測試驗證
type recordingNotifier struct {
	mu     sync.Mutex
	events []SlotChange
}

func (n *recordingNotifier) Emit(facilityID int, change SlotChange) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, change)
}

func (n *recordingNotifier) recorded() []SlotChange {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SlotChange(nil), n.events...)
}

func fptr(f float64) *float64 { return &f }

func tptr(t time.Time) *time.Time { return &t }

func freeSlot(slotID, facilityID int, vehicleType string) models.Slot {
	return models.Slot{
		SlotID:      slotID,
		FacilityID:  facilityID,
		VehicleType: vehicleType,
		Status:      models.SlotStatusFree,
		IsActive:    true,
	}
}

func seedStore(slots []models.Slot, rules []models.PricingRule) *memstore.MemStore {
	st := memstore.New()
	for _, slot := range slots {
		st.AddSlot(slot)
	}
	for _, rule := range rules {
		st.AddRule(rule)
	}
	return st
}

// raceyStore 包裝 Store 並讓每次條件更新都落敗，模擬候選快照
// 全數被搶走的情境
type raceyStore struct {
	store.Store
	attempts int
}

func (s *raceyStore) ReserveSlot(slotID int, expiry time.Time) (bool, error) {
	s.attempts++
	return false, nil
}

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
