package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/warehub/stocktrack/internal/core/domain"
)

// fakeStore is an in-memory stand-in for the storage engine, implementing
// every port with the same semantics the Redis adapter provides.
type fakeStore struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	index    map[string]int64 // sku -> quantity at last index update
	events   []domain.InventoryEvent
	sales    map[string]int64
	scores   map[string]domain.EfficiencyScore
	seq      int

	failIndex  bool
	failEvents bool
	failSales  bool
	failPing   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[string]*domain.Product),
		index:    make(map[string]int64),
		sales:    make(map[string]int64),
		scores:   make(map[string]domain.EfficiencyScore),
	}
}

func (f *fakeStore) AddStock(_ context.Context, sku string, quantity int64, defaults domain.ProductDefaults) (domain.StockLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[sku]
	if !ok {
		d := defaults.Normalized(sku)
		p = &domain.Product{
			SKU:         sku,
			Name:        d.Name,
			MaxCapacity: d.MaxCapacity,
			Threshold:   d.Threshold,
			Shelf:       d.Shelf,
			Zone:        d.Zone,
			Cost:        d.Cost,
			Price:       d.Price,
			CreatedAt:   time.Now().UTC(),
		}
		f.products[sku] = p
	}
	p.Quantity += quantity
	p.LastUpdatedAt = time.Now().UTC()
	return domain.StockLevel{Quantity: p.Quantity, Threshold: p.Threshold}, nil
}

func (f *fakeStore) RemoveStock(_ context.Context, sku string, quantity int64) (domain.StockLevel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[sku]
	if !ok {
		return domain.StockLevel{}, domain.ErrProductNotFound
	}
	if p.Quantity < quantity {
		return domain.StockLevel{}, domain.ErrInsufficientStock
	}
	p.Quantity -= quantity
	p.LastUpdatedAt = time.Now().UTC()
	return domain.StockLevel{Quantity: p.Quantity, Threshold: p.Threshold}, nil
}

func (f *fakeStore) GetProduct(_ context.Context, sku string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.products[sku]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, sku string, quantity, threshold int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failIndex {
		return errors.New("index unavailable")
	}
	if quantity <= threshold {
		f.index[sku] = quantity
	} else {
		delete(f.index, sku)
	}
	return nil
}

func (f *fakeStore) Range(_ context.Context, limit int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	skus := make([]string, 0, len(f.index))
	for sku := range f.index {
		skus = append(skus, sku)
	}
	// Most depleted first, ties by SKU for stability.
	sort.Slice(skus, func(i, j int) bool {
		if f.index[skus[i]] != f.index[skus[j]] {
			return f.index[skus[i]] < f.index[skus[j]]
		}
		return skus[i] < skus[j]
	})
	if int64(len(skus)) > limit {
		skus = skus[:limit]
	}
	return skus, nil
}

func (f *fakeStore) Append(_ context.Context, event domain.InventoryEvent) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failEvents {
		return "", errors.New("stream unavailable")
	}
	f.seq++
	event.ID = fmt.Sprintf("%d-0", f.seq)
	f.events = append(f.events, event)
	return event.ID, nil
}

func (f *fakeStore) RecordSale(_ context.Context, sku string, quantity int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSales {
		return errors.New("sales unavailable")
	}
	f.sales[salesBucket(sku, at)] += quantity
	return nil
}

func (f *fakeStore) SalesForHour(_ context.Context, sku string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sales[salesBucket(sku, at)], nil
}

func (f *fakeStore) Get(_ context.Context, sku string) (*domain.EfficiencyScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.scores[sku]; ok {
		cp := s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) Set(_ context.Context, score domain.EfficiencyScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[score.SKU] = score
	return nil
}

func (f *fakeStore) Ping(context.Context) error {
	if f.failPing {
		return domain.ErrStorageUnavailable
	}
	return nil
}

func salesBucket(sku string, at time.Time) string {
	return sku + "|" + at.UTC().Format("2006-01-02T15")
}

func newTestInventoryService(f *fakeStore) *InventoryService {
	return NewInventoryService(f, f, f, f, zap.NewNop())
}

func TestAddStock_CreatesWithDefaults(t *testing.T) {
	f := newFakeStore()
	svc := newTestInventoryService(f)

	result, err := svc.AddStock(context.Background(), "SKU-1", 5, domain.ProductDefaults{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NewQuantity != 5 {
		t.Errorf("expected quantity 5, got %d", result.NewQuantity)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}

	p, err := svc.GetProduct(context.Background(), "SKU-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Product SKU-1" {
		t.Errorf("expected default name, got %q", p.Name)
	}
	if p.MaxCapacity != domain.DefaultMaxCapacity || p.Threshold != domain.DefaultThreshold {
		t.Errorf("expected default capacity/threshold, got %d/%d", p.MaxCapacity, p.Threshold)
	}
}

func TestAddStock_InvalidQuantity(t *testing.T) {
	svc := newTestInventoryService(newFakeStore())

	for _, qty := range []int64{0, -3} {
		_, err := svc.AddStock(context.Background(), "SKU-1", qty, domain.ProductDefaults{})
		if !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestRemoveStock_NotFound(t *testing.T) {
	svc := newTestInventoryService(newFakeStore())

	_, err := svc.RemoveStock(context.Background(), "ghost", 1, "SALE")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestRemoveStock_InsufficientStock(t *testing.T) {
	f := newFakeStore()
	svc := newTestInventoryService(f)

	if _, err := svc.AddStock(context.Background(), "SKU-1", 5, domain.ProductDefaults{}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	eventsBefore := len(f.events)

	_, err := svc.RemoveStock(context.Background(), "SKU-1", 10, "SALE")
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	p, _ := svc.GetProduct(context.Background(), "SKU-1")
	if p.Quantity != 5 {
		t.Errorf("expected quantity unchanged at 5, got %d", p.Quantity)
	}
	if len(f.events) != eventsBefore {
		t.Errorf("failed removal must not append an event")
	}
}

func TestRemoveStock_SaleRecordsAggregate(t *testing.T) {
	f := newFakeStore()
	svc := newTestInventoryService(f)

	if _, err := svc.AddStock(context.Background(), "SKU-1", 50, domain.ProductDefaults{}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if _, err := svc.RemoveStock(context.Background(), "SKU-1", 20, "SALE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RemoveStock(context.Background(), "SKU-1", 4, "DAMAGE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sold, _ := f.SalesForHour(context.Background(), "SKU-1", time.Now().UTC())
	if sold != 20 {
		t.Errorf("expected sales aggregate 20 (DAMAGE must not count), got %d", sold)
	}
}

func TestMutation_LowStockMembership(t *testing.T) {
	f := newFakeStore()
	svc := newTestInventoryService(f)
	ctx := context.Background()

	defaults := domain.ProductDefaults{MaxCapacity: 100, Threshold: 10}

	// 5 <= 10: in the index.
	if _, err := svc.AddStock(ctx, "X", 5, defaults); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.index["X"]; !ok {
		t.Error("expected X in low-stock index at quantity 5")
	}

	// 25 > 10: out.
	if _, err := svc.AddStock(ctx, "X", 20, defaults); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.index["X"]; ok {
		t.Error("expected X out of low-stock index at quantity 25")
	}

	// Back to 5: in again.
	if _, err := svc.RemoveStock(ctx, "X", 20, "SALE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.index["X"]; !ok {
		t.Error("expected X back in low-stock index at quantity 5")
	}
}

func TestMutation_AppendsOneEventEach(t *testing.T) {
	f := newFakeStore()
	svc := newTestInventoryService(f)
	ctx := context.Background()

	svc.AddStock(ctx, "A", 10, domain.ProductDefaults{})
	svc.AddStock(ctx, "A", 5, domain.ProductDefaults{})
	svc.RemoveStock(ctx, "A", 3, "DAMAGE")

	if len(f.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(f.events))
	}
	if f.events[0].Action != domain.ActionAddStock {
		t.Errorf("expected ADD_STOCK, got %s", f.events[0].Action)
	}
	if f.events[2].Action != "REMOVE_STOCK_DAMAGE" {
		t.Errorf("expected REMOVE_STOCK_DAMAGE, got %s", f.events[2].Action)
	}
	for i := 1; i < len(f.events); i++ {
		if f.events[i].ID <= f.events[i-1].ID {
			t.Errorf("event IDs not strictly increasing: %s then %s", f.events[i-1].ID, f.events[i].ID)
		}
	}
}

func TestMutation_SideEffectFailuresSurfaceWarnings(t *testing.T) {
	f := newFakeStore()
	f.failIndex = true
	f.failEvents = true
	svc := newTestInventoryService(f)

	result, err := svc.AddStock(context.Background(), "SKU-1", 5, domain.ProductDefaults{})
	if err != nil {
		t.Fatalf("mutation must succeed despite side-effect failures, got %v", err)
	}
	if result.NewQuantity != 5 {
		t.Errorf("expected quantity 5, got %d", result.NewQuantity)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", result.Warnings)
	}
	if result.Warnings[0] != WarnIndexUpdateFailed || result.Warnings[1] != WarnEventAppendFailed {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestRemoveStock_SalesFailureSurfacesWarning(t *testing.T) {
	f := newFakeStore()
	svc := newTestInventoryService(f)
	ctx := context.Background()

	if _, err := svc.AddStock(ctx, "SKU-1", 10, domain.ProductDefaults{}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	f.failSales = true
	result, err := svc.RemoveStock(ctx, "SKU-1", 2, "SALE")
	if err != nil {
		t.Fatalf("mutation must succeed, got %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != WarnSalesRecordFailed {
		t.Errorf("expected sales warning, got %v", result.Warnings)
	}
}

// Mirrors the canonical lifecycle: create, cross the threshold both ways,
// reject an oversized removal, record a sale.
func TestLifecycleScenario(t *testing.T) {
	f := newFakeStore()
	svc := newTestInventoryService(f)
	ctx := context.Background()

	defaults := domain.ProductDefaults{MaxCapacity: 100, Threshold: 10}

	result, err := svc.AddStock(ctx, "X", 5, defaults)
	if err != nil || result.NewQuantity != 5 {
		t.Fatalf("addStock(X,5): got %v, %v", result, err)
	}
	if _, ok := f.index["X"]; !ok {
		t.Error("expected X in index after addStock(X,5)")
	}

	result, err = svc.AddStock(ctx, "X", 20, defaults)
	if err != nil || result.NewQuantity != 25 {
		t.Fatalf("addStock(X,20): got %v, %v", result, err)
	}
	if _, ok := f.index["X"]; ok {
		t.Error("expected X out of index at quantity 25")
	}

	if _, err = svc.RemoveStock(ctx, "X", 30, "SALE"); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("removeStock(X,30): expected ErrInsufficientStock, got %v", err)
	}
	p, _ := svc.GetProduct(ctx, "X")
	if p.Quantity != 25 {
		t.Fatalf("quantity must stay 25 after rejected removal, got %d", p.Quantity)
	}

	result, err = svc.RemoveStock(ctx, "X", 20, "SALE")
	if err != nil || result.NewQuantity != 5 {
		t.Fatalf("removeStock(X,20): got %v, %v", result, err)
	}
	if _, ok := f.index["X"]; !ok {
		t.Error("expected X back in index at quantity 5")
	}
	sold, _ := f.SalesForHour(ctx, "X", time.Now().UTC())
	if sold != 20 {
		t.Errorf("expected sales aggregate 20, got %d", sold)
	}
}

func TestListLowStock_LimitAndOrder(t *testing.T) {
	f := newFakeStore()
	svc := newTestInventoryService(f)
	ctx := context.Background()

	defaults := domain.ProductDefaults{Threshold: 50, MaxCapacity: 100}
	svc.AddStock(ctx, "A", 30, defaults)
	svc.AddStock(ctx, "B", 5, defaults)
	svc.AddStock(ctx, "C", 12, defaults)

	products, err := svc.ListLowStock(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if products[0].SKU != "B" || products[1].SKU != "C" {
		t.Errorf("expected most depleted first [B C], got [%s %s]", products[0].SKU, products[1].SKU)
	}
	for _, p := range products {
		if p.Quantity > p.Threshold {
			t.Errorf("%s: quantity %d above threshold %d", p.SKU, p.Quantity, p.Threshold)
		}
	}
}

func TestListLowStock_SkipsDanglingIndexEntries(t *testing.T) {
	f := newFakeStore()
	svc := newTestInventoryService(f)
	ctx := context.Background()

	svc.AddStock(ctx, "A", 2, domain.ProductDefaults{})
	f.index["ghost"] = 1 // index entry with no backing record

	products, err := svc.ListLowStock(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 1 || products[0].SKU != "A" {
		t.Errorf("expected only A, got %v", products)
	}
}

func TestConcurrentMutations_NoLostUpdates(t *testing.T) {
	f := newFakeStore()
	svc := newTestInventoryService(f)
	ctx := context.Background()

	if _, err := svc.AddStock(ctx, "X", 1000, domain.ProductDefaults{MaxCapacity: 5000}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.AddStock(ctx, "X", 3, domain.ProductDefaults{})
		}()
		go func() {
			defer wg.Done()
			svc.RemoveStock(ctx, "X", 2, "SALE")
		}()
	}
	wg.Wait()

	p, err := svc.GetProduct(ctx, "X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := int64(1000 + workers*3 - workers*2)
	if p.Quantity != want {
		t.Errorf("expected quantity %d, got %d", want, p.Quantity)
	}
}
