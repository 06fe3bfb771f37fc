package services

import (
	"fmt"
	"log"
	"time"

	"parkingcore/models"
	"parkingcore/store"
)

const (
	// DefaultHoldDuration 保留未確認的預設持有時間
	DefaultHoldDuration = 5 * time.Minute
	// DefaultCandidateLimit 每次預約最多嘗試的候選車位數。超出這個
	// 範圍即使場內還有空位也回傳競爭失敗，這是對重試成本的刻意上限。
	DefaultCandidateLimit = 5
)

// Reservation 預約成功的結果
type Reservation struct {
	SlotID        int       `json:"slot_id"`
	VehicleType   string    `json:"vehicle_type"`
	ReservedUntil time.Time `json:"reserved_until"`
}

// SlotAllocator 以有限次數的樂觀嘗試從車位池中取得時限保留
type SlotAllocator struct {
	store          store.Store
	notifier       ChangeNotifier
	holdDuration   time.Duration
	candidateLimit int
	now            func() time.Time
}

func NewSlotAllocator(st store.Store, notifier ChangeNotifier, holdDuration time.Duration) *SlotAllocator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if holdDuration <= 0 {
		holdDuration = DefaultHoldDuration
	}
	return &SlotAllocator{
		store:          st,
		notifier:       notifier,
		holdDuration:   holdDuration,
		candidateLimit: DefaultCandidateLimit,
		now:            time.Now,
	}
}

// Reserve 為指定停車場和車型取得一個車位的時限保留。
// 沒有任何候選車位時回傳 ErrNotFound，所有候選都被搶走時回傳
// ErrContention，呼叫端應稍後重試而不是立即重跑。
func (a *SlotAllocator) Reserve(facilityID int, vehicleType string, floorID *int, customerID int) (*Reservation, error) {
	now := a.now()

	// 先順手回收已逾期的保留，即使背景清掃延遲也能讓候選池保持準確
	if reclaimed, err := a.store.ReclaimExpired(now); err != nil {
		log.Printf("Failed to reclaim expired reservations before reserve: %v", err)
	} else if reclaimed > 0 {
		log.Printf("Reclaimed %d expired reservations before candidate search", reclaimed)
	}

	candidates, err := a.store.FindFreeSlots(facilityID, vehicleType, floorID, a.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to find free slots for facility %d: %w", facilityID, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no free %s slot in facility %d: %w", vehicleType, facilityID, ErrNotFound)
	}

	expiry := now.Add(a.holdDuration)
	for _, candidate := range candidates {
		// 條件更新是整個協定唯一依賴的原子操作，
		// 候選快照過期時會在這裡落敗而不是產生重複保留
		won, err := a.store.ReserveSlot(candidate.SlotID, expiry)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve slot %d: %w", candidate.SlotID, err)
		}
		if !won {
			continue
		}

		log.Printf("Customer %d reserved slot %d in facility %d until %s",
			customerID, candidate.SlotID, facilityID, expiry.Format(time.RFC3339))
		a.notifier.Emit(facilityID, SlotChange{
			SlotID:            candidate.SlotID,
			Status:            models.SlotStatusReserved,
			ReservationExpiry: &expiry,
		})
		return &Reservation{
			SlotID:        candidate.SlotID,
			VehicleType:   candidate.VehicleType,
			ReservedUntil: expiry,
		}, nil
	}

	log.Printf("All %d candidate slots in facility %d were taken concurrently", len(candidates), facilityID)
	return nil, fmt.Errorf("lost the race on all %d candidates: %w", len(candidates), ErrContention)
}
