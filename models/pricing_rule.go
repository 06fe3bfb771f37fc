package models

// PricingRule 每個停車場、每種車型一筆費率，核心僅讀取不修改
type PricingRule struct {
	RuleID           int      `json:"rule_id" gorm:"primaryKey;autoIncrement;type:INT"`
	FacilityID       int      `json:"facility_id" gorm:"uniqueIndex:idx_facility_vehicle;not null;type:INT" binding:"required"`
	VehicleType      string   `json:"vehicle_type" gorm:"uniqueIndex:idx_facility_vehicle;type:enum('car', 'bike', 'truck');not null" binding:"required,oneof=car bike truck"`
	HourlyRate       float64  `json:"hourly_rate" gorm:"type:decimal(10,2);not null" binding:"required,gt=0"`
	DailyMax         *float64 `json:"daily_max" gorm:"type:decimal(10,2);default:null" binding:"omitempty,gt=0"`
	MonthlyPassPrice *float64 `json:"monthly_pass_price" gorm:"type:decimal(10,2);default:null" binding:"omitempty,gt=0"`
}

func (PricingRule) TableName() string {
	return "pricing_rule"
}
