package models

// Facility 定義停車場模型，場地管理由後台負責，核心只讀取
type Facility struct {
	FacilityID   int           `json:"facility_id" gorm:"primaryKey;autoIncrement;type:INT"`
	Name         string        `json:"name" gorm:"type:varchar(50);not null" binding:"required,max=50"`
	Address      string        `json:"address" gorm:"type:varchar(100)" binding:"omitempty,max=100"`
	Slots        []Slot        `json:"slots" gorm:"foreignKey:FacilityID;references:FacilityID"`
	PricingRules []PricingRule `json:"pricing_rules" gorm:"foreignKey:FacilityID;references:FacilityID"`
}

func (Facility) TableName() string {
	return "facility"
}

type FacilityResponse struct {
	FacilityID int    `json:"facility_id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
}

func (f *Facility) ToResponse() FacilityResponse {
	return FacilityResponse{
		FacilityID: f.FacilityID,
		Name:       f.Name,
		Address:    f.Address,
	}
}
