package memstore

import (
	"sort"
	"sync"
	"time"

	"parkingcore/models"
	"parkingcore/store"
)

// MemStore 供測試使用的記憶體內 Store。以單一互斥鎖模擬資料庫的
// 單列條件更新：每個操作獨立取鎖，交易範圍則整段持鎖並在失敗時
// 還原快照。
type MemStore struct {
	mu sync.Mutex
	st *state
}

type state struct {
	slots        map[int]*models.Slot
	tickets      map[int]*models.Ticket
	rules        []models.PricingRule
	nextTicketID int
}

func New() *MemStore {
	return &MemStore{
		st: &state{
			slots:        make(map[int]*models.Slot),
			tickets:      make(map[int]*models.Ticket),
			nextTicketID: 1,
		},
	}
}

// AddSlot 植入測試車位
func (m *MemStore) AddSlot(slot models.Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := slot
	if slot.ReservationExpiry != nil {
		expiry := *slot.ReservationExpiry
		copied.ReservationExpiry = &expiry
	}
	m.st.slots[slot.SlotID] = &copied
}

// AddRule 植入測試費率
func (m *MemStore) AddRule(rule models.PricingRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.rules = append(m.st.rules, rule)
}

func (m *MemStore) InTransaction(fn func(tx store.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.st.clone()
	if err := fn(&view{st: m.st}); err != nil {
		*m.st = *snapshot
		return err
	}
	return nil
}

func (m *MemStore) GetSlot(slotID int) (*models.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).GetSlot(slotID)
}

func (m *MemStore) ListSlots(facilityID int, status string, floorID *int) ([]models.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).ListSlots(facilityID, status, floorID)
}

func (m *MemStore) FindFreeSlots(facilityID int, vehicleType string, floorID *int, limit int) ([]models.Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).FindFreeSlots(facilityID, vehicleType, floorID, limit)
}

func (m *MemStore) ReserveSlot(slotID int, expiry time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).ReserveSlot(slotID, expiry)
}

func (m *MemStore) OccupySlot(slotID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).OccupySlot(slotID)
}

func (m *MemStore) FreeSlot(slotID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).FreeSlot(slotID)
}

func (m *MemStore) ReclaimExpired(now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).ReclaimExpired(now)
}

func (m *MemStore) CreateTicket(ticket *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).CreateTicket(ticket)
}

func (m *MemStore) GetTicket(ticketID int) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).GetTicket(ticketID)
}

func (m *MemStore) GetActiveTicket(ticketID int) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).GetActiveTicket(ticketID)
}

func (m *MemStore) CompleteTicket(ticketID int, exitTime time.Time, totalFee float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).CompleteTicket(ticketID, exitTime, totalFee)
}

func (m *MemStore) AddTicketFee(ticketID int, amount float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).AddTicketFee(ticketID, amount)
}

func (m *MemStore) GetPricingRule(facilityID int, vehicleType string) (*models.PricingRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&view{st: m.st}).GetPricingRule(facilityID, vehicleType)
}

// view 是不取鎖的內部實作，只在持鎖狀態下使用
type view struct {
	st *state
}

func (v *view) InTransaction(fn func(tx store.Store) error) error {
	// 已在交易範圍內
	return fn(v)
}

func (v *view) GetSlot(slotID int) (*models.Slot, error) {
	slot, ok := v.st.slots[slotID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copySlot(slot), nil
}

func (v *view) ListSlots(facilityID int, status string, floorID *int) ([]models.Slot, error) {
	var slots []models.Slot
	for _, slot := range v.st.slots {
		if slot.FacilityID != facilityID {
			continue
		}
		if status != "" && slot.Status != status {
			continue
		}
		if floorID != nil && slot.FloorID != *floorID {
			continue
		}
		slots = append(slots, *copySlot(slot))
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].SlotID < slots[j].SlotID })
	return slots, nil
}

func (v *view) FindFreeSlots(facilityID int, vehicleType string, floorID *int, limit int) ([]models.Slot, error) {
	var slots []models.Slot
	for _, slot := range v.st.slots {
		if slot.FacilityID != facilityID || slot.VehicleType != vehicleType {
			continue
		}
		if slot.Status != models.SlotStatusFree || !slot.IsActive {
			continue
		}
		if floorID != nil && slot.FloorID != *floorID {
			continue
		}
		slots = append(slots, *copySlot(slot))
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].SlotID < slots[j].SlotID })
	if len(slots) > limit {
		slots = slots[:limit]
	}
	return slots, nil
}

func (v *view) ReserveSlot(slotID int, expiry time.Time) (bool, error) {
	slot, ok := v.st.slots[slotID]
	if !ok || slot.Status != models.SlotStatusFree {
		return false, nil
	}
	expiryCopy := expiry
	slot.Status = models.SlotStatusReserved
	slot.ReservationExpiry = &expiryCopy
	return true, nil
}

func (v *view) OccupySlot(slotID int) (bool, error) {
	slot, ok := v.st.slots[slotID]
	if !ok {
		return false, nil
	}
	if slot.Status != models.SlotStatusFree && slot.Status != models.SlotStatusReserved {
		return false, nil
	}
	slot.Status = models.SlotStatusOccupied
	slot.ReservationExpiry = nil
	return true, nil
}

func (v *view) FreeSlot(slotID int) error {
	slot, ok := v.st.slots[slotID]
	if !ok {
		return nil
	}
	slot.Status = models.SlotStatusFree
	slot.ReservationExpiry = nil
	return nil
}

func (v *view) ReclaimExpired(now time.Time) (int64, error) {
	var reclaimed int64
	for _, slot := range v.st.slots {
		if slot.Status == models.SlotStatusReserved && slot.ReservationExpiry != nil && slot.ReservationExpiry.Before(now) {
			slot.Status = models.SlotStatusFree
			slot.ReservationExpiry = nil
			reclaimed++
		}
	}
	return reclaimed, nil
}

func (v *view) CreateTicket(ticket *models.Ticket) error {
	ticket.TicketID = v.st.nextTicketID
	v.st.nextTicketID++
	copied := *ticket
	v.st.tickets[ticket.TicketID] = &copied
	return nil
}

func (v *view) GetTicket(ticketID int) (*models.Ticket, error) {
	ticket, ok := v.st.tickets[ticketID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyTicket(ticket), nil
}

func (v *view) GetActiveTicket(ticketID int) (*models.Ticket, error) {
	ticket, ok := v.st.tickets[ticketID]
	if !ok || ticket.Status != models.TicketStatusActive {
		return nil, store.ErrNotFound
	}
	return copyTicket(ticket), nil
}

func (v *view) CompleteTicket(ticketID int, exitTime time.Time, totalFee float64) (bool, error) {
	ticket, ok := v.st.tickets[ticketID]
	if !ok || ticket.Status != models.TicketStatusActive {
		return false, nil
	}
	exitCopy := exitTime
	ticket.ExitTime = &exitCopy
	ticket.TotalFee = totalFee
	ticket.Status = models.TicketStatusCompleted
	return true, nil
}

func (v *view) AddTicketFee(ticketID int, amount float64) (bool, error) {
	ticket, ok := v.st.tickets[ticketID]
	if !ok || ticket.Status != models.TicketStatusActive {
		return false, nil
	}
	ticket.TotalFee += amount
	return true, nil
}

func (v *view) GetPricingRule(facilityID int, vehicleType string) (*models.PricingRule, error) {
	for i := range v.st.rules {
		rule := v.st.rules[i]
		if rule.FacilityID == facilityID && rule.VehicleType == vehicleType {
			return &rule, nil
		}
	}
	return nil, nil
}

func (s *state) clone() *state {
	cloned := &state{
		slots:        make(map[int]*models.Slot, len(s.slots)),
		tickets:      make(map[int]*models.Ticket, len(s.tickets)),
		rules:        append([]models.PricingRule(nil), s.rules...),
		nextTicketID: s.nextTicketID,
	}
	for id, slot := range s.slots {
		cloned.slots[id] = copySlot(slot)
	}
	for id, ticket := range s.tickets {
		cloned.tickets[id] = copyTicket(ticket)
	}
	return cloned
}

func copySlot(slot *models.Slot) *models.Slot {
	copied := *slot
	if slot.ReservationExpiry != nil {
		expiry := *slot.ReservationExpiry
		copied.ReservationExpiry = &expiry
	}
	return &copied
}

func copyTicket(ticket *models.Ticket) *models.Ticket {
	copied := *ticket
	if ticket.ExitTime != nil {
		exit := *ticket.ExitTime
		copied.ExitTime = &exit
	}
	return &copied
}
