package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"parkingcore/models"
	"parkingcore/store"
)

// Extension 延長時數的結果
type Extension struct {
	AdditionalFee float64        `json:"additional_fee"`
	NewTotalFee   float64        `json:"new_total_fee"`
	Ticket        *models.Ticket `json:"ticket"`
}

// CheckoutService 結束票券計費並釋放車位，票券結束與車位釋放
// 在同一個交易內完成
type CheckoutService struct {
	store    store.Store
	notifier ChangeNotifier
	now      func() time.Time
}

func NewCheckoutService(st store.Store, notifier ChangeNotifier) *CheckoutService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &CheckoutService{store: st, notifier: notifier, now: time.Now}
}

// Checkout 結束一張使用中的票券。exitTime 未指定時以現在時間計，
// 費用以整段停留重新計算後寫入票券。
func (s *CheckoutService) Checkout(ticketID int, exitTime *time.Time) (*models.Ticket, FeeBreakdown, error) {
	var ticket *models.Ticket
	var breakdown FeeBreakdown

	err := s.store.InTransaction(func(tx store.Store) error {
		t, err := tx.GetActiveTicket(ticketID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("active ticket %d: %w", ticketID, ErrNotFound)
			}
			return fmt.Errorf("failed to load ticket %d: %w", ticketID, err)
		}

		exit := s.now()
		if exitTime != nil {
			exit = *exitTime
		}
		if exit.Before(t.EntryTime) {
			return fmt.Errorf("exit_time %v is before entry_time %v: %w", exit, t.EntryTime, ErrInvalidRequest)
		}

		rule, err := tx.GetPricingRule(t.FacilityID, t.VehicleType)
		if err != nil {
			return fmt.Errorf("failed to look up pricing rule: %w", err)
		}
		breakdown, err = CalculateFee(t.EntryTime, exit, rule)
		if err != nil {
			return err
		}
		if !breakdown.RuleFound {
			log.Printf("No pricing rule for facility %d vehicle %s, ticket %d checked out at zero fee",
				t.FacilityID, t.VehicleType, t.TicketID)
		}

		won, err := tx.CompleteTicket(t.TicketID, exit, breakdown.TotalFee)
		if err != nil {
			return fmt.Errorf("failed to complete ticket %d: %w", t.TicketID, err)
		}
		if !won {
			return fmt.Errorf("ticket %d is no longer active: %w", t.TicketID, ErrNotFound)
		}
		if err := tx.FreeSlot(t.SlotID); err != nil {
			return fmt.Errorf("failed to free slot %d: %w", t.SlotID, err)
		}

		t.ExitTime = &exit
		t.TotalFee = breakdown.TotalFee
		t.Status = models.TicketStatusCompleted
		ticket = t
		return nil
	})
	if err != nil {
		return nil, FeeBreakdown{}, err
	}

	log.Printf("Ticket %d completed, slot %d freed, billed %.2f for %d hours",
		ticket.TicketID, ticket.SlotID, ticket.TotalFee, breakdown.HoursBilled)
	s.notifier.Emit(ticket.FacilityID, SlotChange{
		SlotID: ticket.SlotID,
		Status: models.SlotStatusFree,
	})
	return ticket, breakdown, nil
}

// Extend 為使用中的票券加購時數，增量費用按小時費率累加到票券
// 總額，不改變 entry_time 也不重跑結帳。查無費率時延長必須失敗，
// 與結帳的零費用行為不同。
func (s *CheckoutService) Extend(ticketID int, additionalHours int) (*Extension, error) {
	if additionalHours <= 0 {
		return nil, fmt.Errorf("additional_hours must be positive, got %d: %w", additionalHours, ErrInvalidRequest)
	}

	var result *Extension
	err := s.store.InTransaction(func(tx store.Store) error {
		t, err := tx.GetActiveTicket(ticketID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("active ticket %d: %w", ticketID, ErrNotFound)
			}
			return fmt.Errorf("failed to load ticket %d: %w", ticketID, err)
		}

		rule, err := tx.GetPricingRule(t.FacilityID, t.VehicleType)
		if err != nil {
			return fmt.Errorf("failed to look up pricing rule: %w", err)
		}
		additionalFee, err := ExtensionFee(rule, additionalHours)
		if err != nil {
			return err
		}

		won, err := tx.AddTicketFee(t.TicketID, additionalFee)
		if err != nil {
			return fmt.Errorf("failed to add fee to ticket %d: %w", t.TicketID, err)
		}
		if !won {
			return fmt.Errorf("ticket %d is no longer active: %w", t.TicketID, ErrNotFound)
		}

		t.TotalFee += additionalFee
		result = &Extension{
			AdditionalFee: additionalFee,
			NewTotalFee:   t.TotalFee,
			Ticket:        t,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Ticket %d extended by %d hours, fee +%.2f, total %.2f",
		ticketID, additionalHours, result.AdditionalFee, result.NewTotalFee)
	return result, nil
}
