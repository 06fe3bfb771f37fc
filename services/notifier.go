package services

import "time"

// SlotChange 車位狀態變更事件
type SlotChange struct {
	SlotID            int        `json:"slot_id"`
	Status            string     `json:"status"`
	ReservationExpiry *time.Time `json:"reservation_expiry,omitempty"`
}

// ChangeNotifier 車位狀態變更的事件接收端。傳送是盡力而為，
// 核心不保證送達，且一律在交易提交之後才呼叫。
type ChangeNotifier interface {
	Emit(facilityID int, change SlotChange)
}

// NopNotifier 預設的空實作
type NopNotifier struct{}

func (NopNotifier) Emit(facilityID int, change SlotChange) {}
