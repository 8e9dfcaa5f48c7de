package service

// In-memory fakes for the store and gateway interfaces. The capacity and
// redemption fakes guard their state with a mutex and implement the same
// check-and-mutate-in-one-step semantics as the SQL conditional updates,
// so the concurrency tests exercise the real contract with goroutines.

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/arenatix/ticketing/internal/model"
	"github.com/arenatix/ticketing/internal/payment"
	"github.com/arenatix/ticketing/internal/queue"
	"github.com/arenatix/ticketing/internal/repository"
)

type fakeTierStore struct {
	mu    sync.Mutex
	tiers map[uint64]model.TicketTier
}

func newFakeTierStore(tiers ...model.TicketTier) *fakeTierStore {
	s := &fakeTierStore{tiers: make(map[uint64]model.TicketTier)}
	for _, t := range tiers {
		s.tiers[t.ID] = t
	}
	return s
}

func (s *fakeTierStore) GetByID(_ context.Context, id uint64) (model.TicketTier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tiers[id]
	if !ok {
		return model.TicketTier{}, repository.ErrTierNotFound
	}
	return t, nil
}

func (s *fakeTierStore) List(_ context.Context) ([]model.TicketTier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TicketTier, 0, len(s.tiers))
	for _, t := range s.tiers {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeTierStore) ReserveCapacity(_ context.Context, id uint64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tiers[id]
	if !ok {
		return repository.ErrTierNotFound
	}
	if !t.IsActive {
		return repository.ErrTierInactive
	}
	if t.AvailableQuantity < qty {
		return repository.ErrInsufficientCapacity
	}
	t.AvailableQuantity -= qty
	s.tiers[id] = t
	return nil
}

func (s *fakeTierStore) available(id uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tiers[id].AvailableQuantity
}

type fakeSaleStore struct {
	mu     sync.Mutex
	nextID uint64
	sales  map[uint64]model.FlashSale
}

func newFakeSaleStore() *fakeSaleStore {
	return &fakeSaleStore{sales: make(map[uint64]model.FlashSale)}
}

func (s *fakeSaleStore) Create(_ context.Context, sale model.FlashSale) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sale.ID = s.nextID
	s.sales[sale.ID] = sale
	return sale.ID, nil
}

func (s *fakeSaleStore) Update(_ context.Context, id uint64, sale model.FlashSale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[id]; !ok {
		return repository.ErrSaleNotFound
	}
	sale.ID = id
	s.sales[id] = sale
	return nil
}

func (s *fakeSaleStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[id]; !ok {
		return repository.ErrSaleNotFound
	}
	delete(s.sales, id)
	return nil
}

func (s *fakeSaleStore) SetActive(_ context.Context, id uint64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return repository.ErrSaleNotFound
	}
	sale.IsActive = active
	s.sales[id] = sale
	return nil
}

func (s *fakeSaleStore) GetByID(_ context.Context, id uint64) (model.FlashSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales[id]
	if !ok {
		return model.FlashSale{}, repository.ErrSaleNotFound
	}
	return sale, nil
}

func (s *fakeSaleStore) List(_ context.Context) ([]model.FlashSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.FlashSale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, sale)
	}
	return out, nil
}

func (s *fakeSaleStore) ListActiveSharingTiers(_ context.Context, tierIDs []uint64, excludeID uint64) ([]model.FlashSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.FlashSale
	for _, sale := range s.sales {
		if !sale.IsActive || sale.ID == excludeID {
			continue
		}
		for _, tid := range tierIDs {
			if sale.Targets(tid) {
				out = append(out, sale)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeSaleStore) FindActiveForTier(_ context.Context, tierID uint64, now time.Time) (*model.FlashSale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sale := range s.sales {
		if sale.Targets(tierID) && sale.InForce(now) {
			found := sale
			return &found, nil
		}
	}
	return nil, nil
}

type fakeOrderStore struct {
	mu        sync.Mutex
	bySession map[string]*model.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{bySession: make(map[string]*model.Order)}
}

func (s *fakeOrderStore) Create(_ context.Context, o model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bySession[o.SessionID]; ok {
		return repository.ErrDuplicateSession
	}
	copied := o
	copied.Items = append([]model.TicketItem(nil), o.Items...)
	s.bySession[o.SessionID] = &copied
	return nil
}

func (s *fakeOrderStore) GetBySessionID(_ context.Context, sessionID string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.bySession[sessionID]
	if !ok {
		return model.Order{}, repository.ErrOrderNotFound
	}
	return *o, nil
}

func (s *fakeOrderStore) RedeemTicket(_ context.Context, orderID string, ticketNumber int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.bySession {
		if o.OrderID != orderID {
			continue
		}
		for i := range o.Items {
			if o.Items[i].TicketNumber != ticketNumber {
				continue
			}
			if o.Items[i].Used {
				return repository.ErrTicketAlreadyUsed
			}
			o.Items[i].Used = true
			t := now
			o.Items[i].UsedAt = &t
			return nil
		}
		return repository.ErrTicketNotFound
	}
	return repository.ErrTicketNotFound
}

type fakeGateway struct {
	mu       sync.Mutex
	nextID   int
	created  []payment.CreateSessionRequest
	sessions map[string]payment.Session
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: make(map[string]payment.Session)}
}

func (g *fakeGateway) CreateSession(_ context.Context, req payment.CreateSessionRequest) (payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := "sess_" + strconv.Itoa(g.nextID)
	g.created = append(g.created, req)
	s := payment.Session{
		ID:            id,
		RedirectURL:   "https://pay.example/" + id,
		PaymentStatus: "unpaid",
		Metadata:      req.Metadata,
	}
	g.sessions[id] = s
	return s, nil
}

func (g *fakeGateway) RetrieveSession(_ context.Context, id string) (payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return payment.Session{}, &payment.GatewayError{StatusCode: 404, Message: "no such session"}
	}
	return s, nil
}

// markPaid settles a session with the given totals and customer, the way
// the real gateway would after the customer pays.
func (g *fakeGateway) markPaid(id string, total int64, currency, name, email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sessions[id]
	s.PaymentStatus = payment.StatusPaid
	s.AmountTotal = total
	s.Currency = currency
	s.Customer = payment.CustomerDetails{Name: name, Email: email}
	g.sessions[id] = s
}

// session injects a pre-built session, for issuer tests that skip checkout.
func (g *fakeGateway) session(s payment.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[s.ID] = s
}

type fakePrices struct {
	prices map[string]payment.Price
}

func (p *fakePrices) Get(_ context.Context, ref string) (payment.Price, error) {
	price, ok := p.prices[ref]
	if !ok {
		return payment.Price{}, fmt.Errorf("unknown price ref %q", ref)
	}
	return price, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.TicketsIssuedEvent
	err    error
}

func (p *fakePublisher) PublishTicketsIssued(_ context.Context, event queue.TicketsIssuedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}
