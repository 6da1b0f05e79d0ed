package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/queue"
	"github.com/iliyamo/conference-commerce/internal/repository"
)

// memStore implements every store interface over in-memory maps with
// a single mutex, mirroring the transactional semantics of the MySQL
// repositories: conditional stock decrements, all-or-nothing seat
// batches, balance-checked debits and first-insert-wins payment
// records. Tests drive the services against it concurrently.
type memStore struct {
	mu sync.Mutex

	items map[string]*model.Item
	packs map[string]*model.Pack
	stock map[variantKey]int

	orders      map[uint64]*model.Order
	ordersByRef map[string]uint64
	nextOrderID uint64

	seats      map[model.SeatRef]model.SeatBooking
	nextSeatID uint64

	ledger     []model.WalletTransaction
	nextTxnID  uint64

	payments   map[uint64]*model.PaymentRecord
	payKeys    map[string]uint64
	nextPayID  uint64
}

type variantKey struct {
	code, size, color string
}

func newMemStore() *memStore {
	return &memStore{
		items:       make(map[string]*model.Item),
		packs:       make(map[string]*model.Pack),
		stock:       make(map[variantKey]int),
		orders:      make(map[uint64]*model.Order),
		ordersByRef: make(map[string]uint64),
		seats:       make(map[model.SeatRef]model.SeatBooking),
		payments:    make(map[uint64]*model.PaymentRecord),
		payKeys:     make(map[string]uint64),
	}
}

// seedItem registers an item with one variant per (size, color) and
// the given stock.
func (m *memStore) seedItem(code, name string, priceCents int64, variants map[[2]string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := &model.Item{
		ID:             uint64(len(m.items) + 1),
		Code:           code,
		Name:           name,
		UnitPriceCents: priceCents,
		Active:         true,
	}
	for sc, stock := range variants {
		item.Variants = append(item.Variants, model.ItemVariant{
			ItemID: item.ID, Size: sc[0], Color: sc[1], Stock: stock,
		})
		m.stock[variantKey{code, sc[0], sc[1]}] = stock
	}
	m.items[code] = item
}

func (m *memStore) seedPack(code, name string, priceCents int64, components map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pack := &model.Pack{
		ID:         uint64(len(m.packs) + 1),
		Code:       code,
		Name:       name,
		PriceCents: priceCents,
		Active:     true,
	}
	for itemCode, qty := range components {
		pack.Items = append(pack.Items, model.PackItem{PackID: pack.ID, ItemCode: itemCode, Quantity: qty})
	}
	m.packs[code] = pack
}

func (m *memStore) stockOf(code, size, color string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[variantKey{code, size, color}]
}

// CatalogStore

func (m *memStore) ListItems(ctx context.Context) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, *it)
	}
	return out, nil
}

func (m *memStore) ItemByCode(ctx context.Context, code string) (*model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *it
	cp.Variants = append([]model.ItemVariant(nil), it.Variants...)
	return &cp, nil
}

func (m *memStore) ListPacks(ctx context.Context) ([]model.Pack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Pack, 0, len(m.packs))
	for _, p := range m.packs {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) PackByCode(ctx context.Context, code string) (*model.Pack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packs[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	cp.Items = append([]model.PackItem(nil), p.Items...)
	return &cp, nil
}

// OrderStore

func (m *memStore) Create(ctx context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Verify first, then apply, so a failing line leaves no decrement.
	for _, l := range order.Items {
		if !l.ReservesStock() {
			continue
		}
		if m.stock[variantKey{l.ItemCode, l.Size, l.Color}] < l.Quantity {
			return repository.ErrInsufficientStock
		}
	}
	for _, l := range order.Items {
		if !l.ReservesStock() {
			continue
		}
		m.stock[variantKey{l.ItemCode, l.Size, l.Color}] -= l.Quantity
	}

	m.nextOrderID++
	order.ID = m.nextOrderID
	order.StatusChangedAt = time.Now().UTC()
	order.CreatedAt = order.StatusChangedAt
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	cp := copyOrder(order)
	m.orders[order.ID] = &cp
	m.ordersByRef[order.PublicCode] = order.ID
	return nil
}

func (m *memStore) ByID(ctx context.Context, id uint64) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := copyOrder(o)
	return &cp, nil
}

func (m *memStore) ByPublicCode(ctx context.Context, code string) (*model.Order, error) {
	m.mu.Lock()
	id, ok := m.ordersByRef[code]
	m.mu.Unlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m.ByID(ctx, id)
}

func (m *memStore) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Order, 0)
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (m *memStore) Transition(ctx context.Context, orderID uint64, from []string, to string, actorID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if o.Status == s {
			o.Status = to
			o.StatusChangedAt = time.Now().UTC()
			o.StatusChangedBy = actorID
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Cancel(ctx context.Context, order *model.Order, from []string, actorID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[order.ID]
	if !ok {
		return false, nil
	}
	matched := false
	for _, s := range from {
		if o.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	o.Status = model.OrderCancelled
	o.StatusChangedAt = time.Now().UTC()
	o.StatusChangedBy = actorID
	for _, l := range order.Items {
		if !l.ReservesStock() {
			continue
		}
		m.stock[variantKey{l.ItemCode, l.Size, l.Color}] += l.Quantity
	}
	return true, nil
}

func copyOrder(o *model.Order) model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return cp
}

// SeatStore

func (m *memStore) Book(ctx context.Context, userID uint64, seats []model.SeatRef, quota int) ([]model.SeatBooking, error) {
	m.mu.Lock()
	held := 0
	for _, b := range m.seats {
		if b.UserID == userID {
			held++
		}
	}
	if held+len(seats) > quota {
		m.mu.Unlock()
		return nil, repository.ErrQuotaExceeded
	}
	for _, ref := range seats {
		if _, taken := m.seats[ref]; taken {
			m.mu.Unlock()
			return nil, repository.ErrSeatTaken
		}
	}
	for _, ref := range seats {
		m.nextSeatID++
		m.seats[ref] = model.SeatBooking{
			ID: m.nextSeatID, UserID: userID,
			TableNo: ref.TableNo, SeatNo: ref.SeatNo,
			CreatedAt: time.Now().UTC(),
		}
	}
	m.mu.Unlock()
	return m.BookingsByUser(ctx, userID)
}

func (m *memStore) Release(ctx context.Context, userID uint64, seat model.SeatRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.seats[seat]
	if !ok || b.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.seats, seat)
	return nil
}

func (m *memStore) BookingsByUser(ctx context.Context, userID uint64) ([]model.SeatBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SeatBooking, 0)
	for _, b := range m.seats {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListAll(ctx context.Context) ([]model.SeatBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SeatBooking, 0, len(m.seats))
	for _, b := range m.seats {
		out = append(out, b)
	}
	return out, nil
}

func (m *memStore) CountByUser(ctx context.Context, userID uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.seats {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

// WalletStore

func (m *memStore) AppendCredit(ctx context.Context, txn *model.WalletTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(txn)
	return nil
}

func (m *memStore) AppendDebit(ctx context.Context, txn *model.WalletTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var balance int64
	for _, t := range m.ledger {
		if t.UserID == txn.UserID {
			balance += t.AmountCents
		}
	}
	if balance+txn.AmountCents < 0 {
		return repository.ErrInsufficientBalance
	}
	m.appendLocked(txn)
	return nil
}

func (m *memStore) appendLocked(txn *model.WalletTransaction) {
	m.nextTxnID++
	txn.ID = m.nextTxnID
	txn.CreatedAt = time.Now().UTC()
	m.ledger = append(m.ledger, *txn)
}

func (m *memStore) Balance(ctx context.Context, userID uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var balance int64
	for _, t := range m.ledger {
		if t.UserID == userID {
			balance += t.AmountCents
		}
	}
	return balance, nil
}

func (m *memStore) TransactionsByUser(ctx context.Context, userID uint64) ([]model.WalletTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.WalletTransaction, 0)
	for i := len(m.ledger) - 1; i >= 0; i-- {
		if m.ledger[i].UserID == userID {
			out = append(out, m.ledger[i])
		}
	}
	return out, nil
}

// PaymentStore

func (m *memStore) Insert(ctx context.Context, rec *model.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rec.Provider + ":" + rec.PaymentID
	if _, dup := m.payKeys[key]; dup {
		return repository.ErrDuplicateNotification
	}
	m.nextPayID++
	rec.ID = m.nextPayID
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	m.payments[rec.ID] = &cp
	m.payKeys[key] = rec.ID
	return nil
}

func (m *memStore) MarkProcessed(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.payments[id]
	if !ok {
		return fmt.Errorf("payment record %d not found", id)
	}
	rec.Processed = true
	return nil
}

func (m *memStore) FlagAnomaly(ctx context.Context, id uint64, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.payments[id]
	if !ok {
		return fmt.Errorf("payment record %d not found", id)
	}
	rec.Anomaly = reason
	return nil
}

func (m *memStore) ListAnomalies(ctx context.Context) ([]model.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.PaymentRecord, 0)
	for _, rec := range m.payments {
		if rec.Anomaly != "" {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// memPublisher records published events for assertions.
type memPublisher struct {
	mu        sync.Mutex
	paid      []queue.OrderPaidEvent
	anomalies []queue.PaymentAnomalyEvent
}

func (p *memPublisher) PublishOrderPaid(ctx context.Context, ev queue.OrderPaidEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, ev)
	return nil
}

func (p *memPublisher) PublishPaymentAnomaly(ctx context.Context, ev queue.PaymentAnomalyEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.anomalies = append(p.anomalies, ev)
	return nil
}
