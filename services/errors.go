package services

import "errors"

// 核心錯誤分類，由 API 層轉換為對應的 HTTP 狀態碼，
// 各分類對使用者呈現的訊息必須可區分，不可合併成單一通用錯誤
var (
	ErrNotFound             = errors.New("not found")
	ErrContention           = errors.New("all candidate slots were taken")
	ErrSlotUnavailable      = errors.New("slot is unavailable")
	ErrReservationExpired   = errors.New("reservation hold has expired")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrConfigurationMissing = errors.New("no pricing rule configured")
)
