package store

import (
	"context"
	"sort"
	"sync"

	"github.com/microshop/microshop/internal/models"
)

// MemoryProducts implements ProductStore over mutex-guarded maps with the
// same conditional-write semantics as the Postgres store. Used by tests.
type MemoryProducts struct {
	mu           sync.Mutex
	products     map[string]models.Product
	reservations map[string]Deduction // by order id
}

func NewMemoryProducts() *MemoryProducts {
	return &MemoryProducts{
		products:     make(map[string]models.Product),
		reservations: make(map[string]Deduction),
	}
}

func (s *MemoryProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryProducts) List(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryProducts) Save(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
	return nil
}

func (s *MemoryProducts) DeductForOrder(ctx context.Context, orderID, productID string, quantity int) (Deduction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.reservations[orderID]; ok {
		return Deduction{Applied: false, NewInventory: prior.NewInventory}, nil
	}

	p, ok := s.products[productID]
	if !ok {
		return Deduction{}, models.ErrNotFound
	}
	if p.Inventory < quantity {
		return Deduction{}, models.ErrInsufficientStock
	}

	p.Inventory -= quantity
	s.products[productID] = p
	d := Deduction{Applied: true, NewInventory: p.Inventory}
	s.reservations[orderID] = d
	return d, nil
}

func (s *MemoryProducts) AdjustInventory(ctx context.Context, productID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return 0, models.ErrNotFound
	}
	if p.Inventory+delta < 0 {
		return 0, models.ErrInsufficientStock
	}
	p.Inventory += delta
	s.products[productID] = p
	return p.Inventory, nil
}

// MemoryOrders implements OrderStore in memory.
type MemoryOrders struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{orders: make(map[string]models.Order)}
}

func (s *MemoryOrders) FindByID(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *MemoryOrders) List(ctx context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryOrders) Save(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = *o
	return nil
}

func (s *MemoryOrders) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.ErrNotFound
	}
	if o.Status != from {
		return models.ErrConflict
	}
	o.Status = to
	s.orders[id] = o
	return nil
}

// MemoryUsers implements UserStore in memory.
type MemoryUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]models.User)}
}

func (s *MemoryUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *MemoryUsers) Save(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}
