package models

import "time"

// 票券狀態
const (
	TicketStatusActive    = "active"
	TicketStatusCompleted = "completed"
	TicketStatusCancelled = "cancelled"
)

type Ticket struct {
	TicketID      int        `json:"ticket_id" gorm:"primaryKey;autoIncrement;type:INT"`
	CustomerID    int        `json:"customer_id" gorm:"index;not null;type:INT" binding:"required,gt=0"`
	SlotID        int        `json:"slot_id" gorm:"index;not null;type:INT" binding:"required,gt=0"`
	FacilityID    int        `json:"facility_id" gorm:"index;not null;type:INT"` // 反正規化，方便報表查詢
	VehicleNumber string     `json:"vehicle_number" gorm:"type:varchar(20);not null" binding:"required,max=20"`
	VehicleType   string     `json:"vehicle_type" gorm:"type:enum('car', 'bike', 'truck');not null" binding:"required,oneof=car bike truck"`
	EntryTime     time.Time  `json:"entry_time" gorm:"type:datetime;not null"`
	ExitTime      *time.Time `json:"exit_time" gorm:"type:datetime;default:null"`
	TotalFee      float64    `json:"total_fee" gorm:"type:decimal(10,2);default:0.0" binding:"gte=0"` // 延長時數會累加到這裡
	Status        string     `json:"status" gorm:"type:enum('active', 'completed', 'cancelled');not null;default:'active'"`
	Slot          Slot       `json:"-" gorm:"foreignKey:SlotID;references:SlotID"`
	Facility      Facility   `json:"-" gorm:"foreignKey:FacilityID;references:FacilityID"`
}

func (Ticket) TableName() string {
	return "ticket"
}

type TicketResponse struct {
	TicketID      int        `json:"ticket_id"`
	CustomerID    int        `json:"customer_id"`
	SlotID        int        `json:"slot_id"`
	FacilityID    int        `json:"facility_id"`
	VehicleNumber string     `json:"vehicle_number"`
	VehicleType   string     `json:"vehicle_type"`
	EntryTime     time.Time  `json:"entry_time"`
	ExitTime      *time.Time `json:"exit_time"`
	TotalFee      float64    `json:"total_fee"`
	Status        string     `json:"status"`
}

func (t *Ticket) ToResponse() TicketResponse {
	return TicketResponse{
		TicketID:      t.TicketID,
		CustomerID:    t.CustomerID,
		SlotID:        t.SlotID,
		FacilityID:    t.FacilityID,
		VehicleNumber: t.VehicleNumber,
		VehicleType:   t.VehicleType,
		EntryTime:     t.EntryTime,
		ExitTime:      t.ExitTime,
		TotalFee:      t.TotalFee,
		Status:        t.Status,
	}
}
