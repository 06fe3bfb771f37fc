package services

import (
	"fmt"
	"math"
	"time"

	"parkingcore/models"
)

// FeeBreakdown 單次停留的費用拆解
type FeeBreakdown struct {
	BaseFee      float64 `json:"base_fee"`
	ExtraCharges float64 `json:"extra_charges"`
	TotalFee     float64 `json:"total_fee"`
	HoursBilled  int     `json:"hours_billed"`
	RuleFound    bool    `json:"rule_found"`
}

// CalculateFee 根據進場和出場時間計算停車費用，不足一小時以一小時計。
// 查無費率時回傳零費用結果而不是錯誤，沒設定費率是營運事件而非系統故障。
func CalculateFee(entryTime, exitTime time.Time, rule *models.PricingRule) (FeeBreakdown, error) {
	if exitTime.Before(entryTime) {
		return FeeBreakdown{}, fmt.Errorf("exit_time %v cannot be earlier than entry_time %v: %w", exitTime, entryTime, ErrInvalidRequest)
	}

	hours := int(math.Ceil(exitTime.Sub(entryTime).Minutes() / 60.0))

	if rule == nil {
		return FeeBreakdown{HoursBilled: hours}, nil
	}

	var baseFee float64
	if rule.DailyMax == nil {
		baseFee = float64(hours) * rule.HourlyRate
	} else {
		// 以每滾動 24 小時為一區塊設上限，不是以日曆天計
		fullDays := hours / 24
		remainder := hours % 24
		baseFee = float64(fullDays)*(*rule.DailyMax) + math.Min(float64(remainder)*rule.HourlyRate, *rule.DailyMax)
	}

	// 逾時罰金的觸發規則尚未定義，維持 0
	extraCharges := 0.0

	return FeeBreakdown{
		BaseFee:      baseFee,
		ExtraCharges: extraCharges,
		TotalFee:     baseFee + extraCharges,
		HoursBilled:  hours,
		RuleFound:    true,
	}, nil
}

// ExtensionFee 計算延長時數的增量費用，按小時費率計價，
// 增量不重複套用每日上限
func ExtensionFee(rule *models.PricingRule, additionalHours int) (float64, error) {
	if additionalHours <= 0 {
		return 0, fmt.Errorf("additional_hours must be positive, got %d: %w", additionalHours, ErrInvalidRequest)
	}
	if rule == nil {
		return 0, fmt.Errorf("cannot price extension without a rate: %w", ErrConfigurationMissing)
	}
	return float64(additionalHours) * rule.HourlyRate, nil
}
