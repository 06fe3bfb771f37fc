package services

import (
	"fmt"
	"log"
	"time"

	"parkingcore/store"
)

// ReservationReaper 回收逾期未確認的保留。核心不擁有計時器，
// 由外部排程器定期呼叫 Sweep；清掃是同一個批次條件更新，
// 與預約時的順手回收併發執行也安全。
type ReservationReaper struct {
	store store.Store
	now   func() time.Time
}

func NewReservationReaper(st store.Store) *ReservationReaper {
	return &ReservationReaper{store: st, now: time.Now}
}

// Sweep 將所有保留逾期的車位轉回 free，回傳回收筆數。冪等。
func (r *ReservationReaper) Sweep() (int64, error) {
	reclaimed, err := r.store.ReclaimExpired(r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim expired reservations: %w", err)
	}
	if reclaimed > 0 {
		log.Printf("Reaper reclaimed %d expired reservations", reclaimed)
	}
	return reclaimed, nil
}
