package gormstore

import (
	"errors"
	"fmt"
	"time"

	"parkingcore/models"
	"parkingcore/store"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// GormStore 以 GORM/MySQL 實作 store.Store。條件更新都寫成單一
// UPDATE ... WHERE status = ? 語句，依賴 MySQL 的單列原子性。
type GormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// InTransaction 在單一資料庫交易內執行 fn
func (s *GormStore) InTransaction(fn func(tx store.Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) GetSlot(slotID int) (*models.Slot, error) {
	var slot models.Slot
	if err := s.db.First(&slot, slotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get slot %d: %w", slotID, err)
	}
	return &slot, nil
}

func (s *GormStore) ListSlots(facilityID int, status string, floorID *int) ([]models.Slot, error) {
	query := s.db.Where("facility_id = ?", facilityID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if floorID != nil {
		query = query.Where("floor_id = ?", *floorID)
	}
	var slots []models.Slot
	if err := query.Order("slot_id").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list slots for facility %d: %w", facilityID, err)
	}
	return slots, nil
}

func (s *GormStore) FindFreeSlots(facilityID int, vehicleType string, floorID *int, limit int) ([]models.Slot, error) {
	query := s.db.
		Where("facility_id = ? AND vehicle_type = ? AND status = ? AND is_active = ?",
			facilityID, vehicleType, models.SlotStatusFree, true)
	if floorID != nil {
		query = query.Where("floor_id = ?", *floorID)
	}
	var slots []models.Slot
	if err := query.Order("slot_id").Limit(limit).Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to find free slots for facility %d: %w", facilityID, err)
	}
	return slots, nil
}

func (s *GormStore) ReserveSlot(slotID int, expiry time.Time) (bool, error) {
	res := s.db.Model(&models.Slot{}).
		Where("slot_id = ? AND status = ?", slotID, models.SlotStatusFree).
		Updates(map[string]interface{}{
			"status":             models.SlotStatusReserved,
			"reservation_expiry": expiry,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to reserve slot %d: %w", slotID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) OccupySlot(slotID int) (bool, error) {
	res := s.db.Model(&models.Slot{}).
		Where("slot_id = ? AND status IN ?", slotID, []string{models.SlotStatusFree, models.SlotStatusReserved}).
		Updates(map[string]interface{}{
			"status":             models.SlotStatusOccupied,
			"reservation_expiry": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to occupy slot %d: %w", slotID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) FreeSlot(slotID int) error {
	res := s.db.Model(&models.Slot{}).
		Where("slot_id = ?", slotID).
		Updates(map[string]interface{}{
			"status":             models.SlotStatusFree,
			"reservation_expiry": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to free slot %d: %w", slotID, res.Error)
	}
	return nil
}

func (s *GormStore) ReclaimExpired(now time.Time) (int64, error) {
	res := s.db.Model(&models.Slot{}).
		Where("status = ? AND reservation_expiry < ?", models.SlotStatusReserved, now).
		Updates(map[string]interface{}{
			"status":             models.SlotStatusFree,
			"reservation_expiry": nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reclaim expired reservations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) CreateTicket(ticket *models.Ticket) error {
	if err := s.db.Create(ticket).Error; err != nil {
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return fmt.Errorf("duplicate ticket for slot %d: %w", ticket.SlotID, err)
		}
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (s *GormStore) GetTicket(ticketID int) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.First(&ticket, ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ticket %d: %w", ticketID, err)
	}
	return &ticket, nil
}

func (s *GormStore) GetActiveTicket(ticketID int) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.db.
		Where("ticket_id = ? AND status = ?", ticketID, models.TicketStatusActive).
		First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active ticket %d: %w", ticketID, err)
	}
	return &ticket, nil
}

func (s *GormStore) CompleteTicket(ticketID int, exitTime time.Time, totalFee float64) (bool, error) {
	res := s.db.Model(&models.Ticket{}).
		Where("ticket_id = ? AND status = ?", ticketID, models.TicketStatusActive).
		Updates(map[string]interface{}{
			"exit_time": exitTime,
			"total_fee": totalFee,
			"status":    models.TicketStatusCompleted,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to complete ticket %d: %w", ticketID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) AddTicketFee(ticketID int, amount float64) (bool, error) {
	res := s.db.Model(&models.Ticket{}).
		Where("ticket_id = ? AND status = ?", ticketID, models.TicketStatusActive).
		Update("total_fee", gorm.Expr("total_fee + ?", amount))
	if res.Error != nil {
		return false, fmt.Errorf("failed to add fee to ticket %d: %w", ticketID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) GetPricingRule(facilityID int, vehicleType string) (*models.PricingRule, error) {
	var rule models.PricingRule
	if err := s.db.
		Where("facility_id = ? AND vehicle_type = ?", facilityID, vehicleType).
		First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 沒設定費率是營運狀態而不是系統錯誤，由計費引擎回傳零費用
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pricing rule for facility %d vehicle %s: %w", facilityID, vehicleType, err)
	}
	return &rule, nil
}
