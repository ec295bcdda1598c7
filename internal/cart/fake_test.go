package cart_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/toko-dyntax/internal/db/gen"
)

type memQueries struct {
	mu       sync.Mutex
	carts    map[pgtype.UUID]dbgen.Cart
	items    []dbgen.CartItem
	products map[pgtype.UUID]dbgen.GetProductForCartRow
	seq      int
}

func newMemQueries() *memQueries {
	return &memQueries{
		carts:    map[pgtype.UUID]dbgen.Cart{},
		products: map[pgtype.UUID]dbgen.GetProductForCartRow{},
	}
}

func newID() pgtype.UUID {
	return pgtype.UUID{Bytes: uuid.New(), Valid: true}
}

func (m *memQueries) addProduct(title, price string) pgtype.UUID {
	id := newID()
	m.products[id] = dbgen.GetProductForCartRow{ID: id, Title: title, Slug: title, Price: decimal.RequireFromString(price)}
	return id
}

func (m *memQueries) CreateCart(_ context.Context, arg dbgen.CreateCartParams) (dbgen.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := dbgen.Cart{ID: newID(), AnonID: arg.AnonID, ExpiresAt: arg.ExpiresAt}
	m.carts[c.ID] = c
	return c, nil
}

func (m *memQueries) GetCartByID(_ context.Context, id pgtype.UUID) (dbgen.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return dbgen.Cart{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *memQueries) GetActiveCartByAnon(_ context.Context, anonID pgtype.Text) (dbgen.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.AnonID == anonID && c.ExpiresAt.Time.After(time.Now()) {
			return c, nil
		}
	}
	return dbgen.Cart{}, pgx.ErrNoRows
}

func (m *memQueries) TouchCart(_ context.Context, arg dbgen.TouchCartParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[arg.ID]
	if ok {
		c.ExpiresAt = arg.ExpiresAt
		m.carts[arg.ID] = c
	}
	return nil
}

func (m *memQueries) FindCartItemByProduct(_ context.Context, arg dbgen.FindCartItemByProductParams) (dbgen.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.CartID == arg.CartID && it.ProductID == arg.ProductID {
			return it, nil
		}
	}
	return dbgen.CartItem{}, pgx.ErrNoRows
}

func (m *memQueries) GetCartItemByID(_ context.Context, id pgtype.UUID) (dbgen.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return dbgen.CartItem{}, pgx.ErrNoRows
}

func (m *memQueries) CreateCartItem(_ context.Context, arg dbgen.CreateCartItemParams) (dbgen.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	it := dbgen.CartItem{
		ID:        newID(),
		CartID:    arg.CartID,
		ProductID: arg.ProductID,
		Title:     arg.Title,
		Slug:      arg.Slug,
		Qty:       arg.Qty,
		UnitPrice: arg.UnitPrice,
		Subtotal:  arg.Subtotal,
		CreatedAt: pgtype.Timestamptz{Time: time.Unix(int64(m.seq), 0), Valid: true},
	}
	m.items = append(m.items, it)
	return it, nil
}

func (m *memQueries) UpdateCartItemQty(_ context.Context, arg dbgen.UpdateCartItemQtyParams) (dbgen.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.ID == arg.ID {
			m.items[i].Qty = arg.Qty
			m.items[i].Subtotal = arg.Subtotal
			return m.items[i], nil
		}
	}
	return dbgen.CartItem{}, pgx.ErrNoRows
}

func (m *memQueries) DeleteCartItem(_ context.Context, arg dbgen.DeleteCartItemParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	for _, it := range m.items {
		if it.ID == arg.ID && it.CartID == arg.CartID {
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return nil
}

func (m *memQueries) ListCartItems(_ context.Context, cartID pgtype.UUID) ([]dbgen.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []dbgen.CartItem
	for _, it := range m.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memQueries) GetProductForCart(_ context.Context, id pgtype.UUID) (dbgen.GetProductForCartRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return dbgen.GetProductForCartRow{}, pgx.ErrNoRows
	}
	return p, nil
}

type staticCategories map[string][]int64

func (s staticCategories) ProductCategoryIDs(_ context.Context, ids []string) (map[string][]int64, error) {
	out := map[string][]int64{}
	for _, id := range ids {
		if cats, ok := s[id]; ok {
			out[id] = cats
		}
	}
	return out, nil
}
