package models

import "time"

// 車位狀態
const (
	SlotStatusFree        = "free"
	SlotStatusReserved    = "reserved"
	SlotStatusOccupied    = "occupied"
	SlotStatusMaintenance = "maintenance"
)

type Slot struct {
	SlotID            int        `json:"slot_id" gorm:"primaryKey;autoIncrement;type:INT"`
	FacilityID        int        `json:"facility_id" gorm:"index;not null;type:INT" binding:"required"`
	FloorID           int        `json:"floor_id" gorm:"index;type:INT" binding:"omitempty,gte=0"`
	VehicleType       string     `json:"vehicle_type" gorm:"type:enum('car', 'bike', 'truck');not null" binding:"required,oneof=car bike truck"`
	Status            string     `json:"status" gorm:"type:enum('free', 'reserved', 'occupied', 'maintenance');not null;default:'free'"`
	ReservationExpiry *time.Time `json:"reservation_expiry" gorm:"type:datetime;default:null"` // 僅在 reserved 狀態時有值
	IsActive          bool       `json:"is_active" gorm:"type:tinyint(1);default:1"`
	Facility          Facility   `json:"-" gorm:"foreignKey:FacilityID;references:FacilityID"`
	Tickets           []Ticket   `json:"-" gorm:"foreignKey:SlotID;references:SlotID"`
}

func (Slot) TableName() string {
	return "slot"
}

type SlotResponse struct {
	SlotID            int        `json:"slot_id"`
	FacilityID        int        `json:"facility_id"`
	FloorID           int        `json:"floor_id"`
	VehicleType       string     `json:"vehicle_type"`
	Status            string     `json:"status"`
	ReservationExpiry *time.Time `json:"reservation_expiry,omitempty"`
	IsActive          bool       `json:"is_active"`
}

func (s *Slot) ToResponse() SlotResponse {
	return SlotResponse{
		SlotID:            s.SlotID,
		FacilityID:        s.FacilityID,
		FloorID:           s.FloorID,
		VehicleType:       s.VehicleType,
		Status:            s.Status,
		ReservationExpiry: s.ReservationExpiry,
		IsActive:          s.IsActive,
	}
}
