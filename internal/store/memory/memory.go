package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"gudangku/backend/internal/domain"
	"gudangku/backend/internal/store"
)

// Store is the in-memory store.Repository used in dev mode and tests.
type Store struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	sales    []domain.Sale
}

func New() *Store {
	return &Store{
		products: make(map[string]domain.Product),
		sales:    make([]domain.Sale, 0, 64),
	}
}

// NewSeeded builds a store preloaded with a small dev catalogue.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()
	for _, p := range []domain.Product{
		{Name: "Kaos Polos Hitam L", SKU: "KPH-L", Quantity: 40, Location: "Rak A1", Supplier: "CV Sandang Jaya"},
		{Name: "Kaos Polos Putih M", SKU: "KPP-M", Quantity: 35, Location: "Rak A1", Supplier: "CV Sandang Jaya"},
		{Name: "Hoodie Abu XL", SKU: "HD-ABU-XL", Quantity: 12, Location: "Rak B2", Supplier: "PT Rajut Nusantara"},
		{Name: "Topi Baseball", SKU: "TP-BB", Quantity: 25, Location: "Rak C3", Supplier: "UD Aksesoris Kita"},
	} {
		p.ID = store.NewID()
		p.CreatedAt = now
		s.products[p.ID] = p
	}
	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = store.NewID()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			found[id] = p
		}
	}
	return found, nil
}

func (s *Store) SetProductQuantity(_ context.Context, id string, quantity int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Quantity = quantity
	s.products[id] = p
	return &p, nil
}

func (s *Store) DecrementProductQuantity(_ context.Context, id string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Quantity < qty {
		return fmt.Errorf("%w: %s", store.ErrInsufficientStock, p.Name)
	}
	p.Quantity -= qty
	s.products[id] = p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.products, id)
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ID == "" {
		sale.ID = store.NewID()
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.Date.IsZero() {
		sale.Date = sale.CreatedAt
	}
	sale.Items = slices.Clone(sale.Items)
	s.sales = append(s.sales, sale)
	return &sale, nil
}

func (s *Store) ListSales(_ context.Context, filter store.SaleFilter) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if filter.Channel != "" && sale.Channel != filter.Channel {
			continue
		}
		if filter.From != nil && sale.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !sale.Date.Before(*filter.To) {
			continue
		}
		sale.Items = slices.Clone(sale.Items)
		sales = append(sales, sale)
	}
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		return b.Date.Compare(a.Date)
	})
	return sales, nil
}

func (s *Store) GetDailySummary(_ context.Context, from time.Time, to time.Time) ([]domain.ChannelSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byChannel := map[string]*domain.ChannelSummary{}
	for _, sale := range s.sales {
		if sale.Date.Before(from) || !sale.Date.Before(to) {
			continue
		}
		entry := byChannel[sale.Channel]
		if entry == nil {
			entry = &domain.ChannelSummary{Channel: sale.Channel}
			byChannel[sale.Channel] = entry
		}
		entry.TotalOrders++
		for _, item := range sale.Items {
			entry.TotalQuantity += int64(item.Quantity)
		}
	}

	channels := make([]domain.ChannelSummary, 0, len(byChannel))
	for _, entry := range byChannel {
		channels = append(channels, *entry)
	}
	slices.SortFunc(channels, func(a, b domain.ChannelSummary) int {
		return strings.Compare(a.Channel, b.Channel)
	})
	return channels, nil
}
