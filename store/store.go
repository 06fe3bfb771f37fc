package store

import (
	"errors"
	"time"

	"parkingcore/models"
)

// ErrNotFound 查無資料
var ErrNotFound = errors.New("record not found")

// SlotStore 車位資料存取。所有狀態變更都必須是單一條件更新，
// 不可拆成先讀後寫，否則併發預約的競爭會重新出現。
type SlotStore interface {
	GetSlot(slotID int) (*models.Slot, error)
	ListSlots(facilityID int, status string, floorID *int) ([]models.Slot, error)
	// FindFreeSlots 回傳某一時間點的候選快照，呼叫端必須容忍快照過期
	FindFreeSlots(facilityID int, vehicleType string, floorID *int, limit int) ([]models.Slot, error)
	// ReserveSlot 僅在車位仍為 free 時設為 reserved，回傳是否搶到
	ReserveSlot(slotID int, expiry time.Time) (bool, error)
	// OccupySlot 僅在車位為 free 或 reserved 時設為 occupied 並清除保留期限
	OccupySlot(slotID int) (bool, error)
	FreeSlot(slotID int) error
	// ReclaimExpired 批次將保留逾期的車位轉回 free，回傳回收筆數
	ReclaimExpired(now time.Time) (int64, error)
}

// TicketStore 票券資料存取
type TicketStore interface {
	CreateTicket(ticket *models.Ticket) error
	GetTicket(ticketID int) (*models.Ticket, error)
	GetActiveTicket(ticketID int) (*models.Ticket, error)
	// CompleteTicket 僅在票券仍為 active 時結束計費，回傳是否成功
	CompleteTicket(ticketID int, exitTime time.Time, totalFee float64) (bool, error)
	// AddTicketFee 僅在票券仍為 active 時累加費用，回傳是否成功
	AddTicketFee(ticketID int, amount float64) (bool, error)
}

// RateLookup 唯讀費率查詢，查無費率時回傳 (nil, nil)
type RateLookup interface {
	GetPricingRule(facilityID int, vehicleType string) (*models.PricingRule, error)
}

// Store 聚合核心需要的所有存取介面。InTransaction 內的所有操作
// 在同一個交易邊界執行，回傳錯誤時整筆回滾。
type Store interface {
	SlotStore
	TicketStore
	RateLookup
	InTransaction(fn func(tx Store) error) error
}
