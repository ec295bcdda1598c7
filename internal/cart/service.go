package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-dyntax/internal/db"
	dbgen "github.com/noah-isme/toko-dyntax/internal/db/gen"
)

// ErrNotFound indicates the requested cart or item could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Querier is the subset of generated queries the cart service uses.
type Querier interface {
	CreateCart(ctx context.Context, arg dbgen.CreateCartParams) (dbgen.Cart, error)
	GetCartByID(ctx context.Context, id pgtype.UUID) (dbgen.Cart, error)
	GetActiveCartByAnon(ctx context.Context, anonID pgtype.Text) (dbgen.Cart, error)
	TouchCart(ctx context.Context, arg dbgen.TouchCartParams) error
	FindCartItemByProduct(ctx context.Context, arg dbgen.FindCartItemByProductParams) (dbgen.CartItem, error)
	GetCartItemByID(ctx context.Context, id pgtype.UUID) (dbgen.CartItem, error)
	CreateCartItem(ctx context.Context, arg dbgen.CreateCartItemParams) (dbgen.CartItem, error)
	UpdateCartItemQty(ctx context.Context, arg dbgen.UpdateCartItemQtyParams) (dbgen.CartItem, error)
	DeleteCartItem(ctx context.Context, arg dbgen.DeleteCartItemParams) error
	ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]dbgen.CartItem, error)
	GetProductForCart(ctx context.Context, id pgtype.UUID) (dbgen.GetProductForCartRow, error)
}

// CategoryResolver maps product ids to their directly assigned category ids.
type CategoryResolver interface {
	ProductCategoryIDs(ctx context.Context, productIDs []string) (map[string][]int64, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Q          Querier
	Categories CategoryResolver
	TTL        time.Duration
	Now        func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) expiry() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: s.now().Add(s.ttl()), Valid: true}
}

func (s *Service) ready() error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	return nil
}

func (s *Service) touch(ctx context.Context, cartID pgtype.UUID) {
	_ = s.Q.TouchCart(ctx, dbgen.TouchCartParams{ID: cartID, ExpiresAt: s.expiry()})
}

func parseID(kind, value string) (pgtype.UUID, error) {
	id, err := db.UUID(strings.TrimSpace(value))
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("%s id: %w", kind, ErrInvalidInput)
	}
	return id, nil
}

// EnsureCart loads the active cart for anonID or creates one.
func (s *Service) EnsureCart(ctx context.Context, anonID string) (dbgen.Cart, error) {
	if err := s.ready(); err != nil {
		return dbgen.Cart{}, err
	}
	anonID = strings.TrimSpace(anonID)
	if anonID == "" {
		return dbgen.Cart{}, fmt.Errorf("anon id required: %w", ErrInvalidInput)
	}
	anon := pgtype.Text{String: anonID, Valid: true}
	existing, err := s.Q.GetActiveCartByAnon(ctx, anon)
	if err == nil {
		s.touch(ctx, existing.ID)
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return dbgen.Cart{}, err
	}
	return s.Q.CreateCart(ctx, dbgen.CreateCartParams{AnonID: anon, ExpiresAt: s.expiry()})
}

func (s *Service) activeCart(ctx context.Context, cartID string) (dbgen.Cart, error) {
	id, err := parseID("cart", cartID)
	if err != nil {
		return dbgen.Cart{}, err
	}
	found, err := s.Q.GetCartByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.Cart{}, ErrNotFound
		}
		return dbgen.Cart{}, err
	}
	if found.ExpiresAt.Valid && found.ExpiresAt.Time.Before(s.now()) {
		return dbgen.Cart{}, ErrNotFound
	}
	return found, nil
}

// checkQty rejects quantities the int4 qty column cannot hold.
func checkQty(qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	if qty > math.MaxInt32 {
		return fmt.Errorf("qty exceeds %d: %w", math.MaxInt32, ErrInvalidInput)
	}
	return nil
}

// AddItem inserts a product line or increments the existing line's quantity.
func (s *Service) AddItem(ctx context.Context, cartID, productID string, qty int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := checkQty(int64(qty)); err != nil {
		return err
	}
	current, err := s.activeCart(ctx, cartID)
	if err != nil {
		return err
	}
	pID, err := parseID("product", productID)
	if err != nil {
		return err
	}

	item, err := s.Q.FindCartItemByProduct(ctx, dbgen.FindCartItemByProductParams{CartID: current.ID, ProductID: pID})
	if err == nil {
		total := int64(item.Qty) + int64(qty)
		if err := checkQty(total); err != nil {
			return err
		}
		newQty := int32(total)
		if _, err := s.Q.UpdateCartItemQty(ctx, dbgen.UpdateCartItemQtyParams{
			ID:       item.ID,
			Qty:      newQty,
			Subtotal: lineSubtotal(item.UnitPrice, newQty),
		}); err != nil {
			return err
		}
		s.touch(ctx, current.ID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	product, err := s.Q.GetProductForCart(ctx, pID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("product not found: %w", ErrInvalidInput)
		}
		return err
	}
	if _, err := s.Q.CreateCartItem(ctx, dbgen.CreateCartItemParams{
		CartID:    current.ID,
		ProductID: pID,
		Title:     product.Title,
		Slug:      product.Slug,
		Qty:       int32(qty),
		UnitPrice: product.Price,
		Subtotal:  lineSubtotal(product.Price, int32(qty)),
	}); err != nil {
		return err
	}
	s.touch(ctx, current.ID)
	return nil
}

// UpdateQty sets the quantity of an item belonging to cartID.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID string, qty int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := checkQty(int64(qty)); err != nil {
		return err
	}
	current, err := s.activeCart(ctx, cartID)
	if err != nil {
		return err
	}
	id, err := parseID("item", itemID)
	if err != nil {
		return err
	}
	item, err := s.Q.GetCartItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if item.CartID != current.ID {
		return ErrNotFound
	}
	if _, err := s.Q.UpdateCartItemQty(ctx, dbgen.UpdateCartItemQtyParams{
		ID:       item.ID,
		Qty:      int32(qty),
		Subtotal: lineSubtotal(item.UnitPrice, int32(qty)),
	}); err != nil {
		return err
	}
	s.touch(ctx, current.ID)
	return nil
}

// RemoveItem deletes an item from cartID.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	current, err := s.activeCart(ctx, cartID)
	if err != nil {
		return err
	}
	id, err := parseID("item", itemID)
	if err != nil {
		return err
	}
	if err := s.Q.DeleteCartItem(ctx, dbgen.DeleteCartItemParams{ID: id, CartID: current.ID}); err != nil {
		return err
	}
	s.touch(ctx, current.ID)
	return nil
}

// Load returns the cart with its items resolved to product categories. Fees are
// not loaded; callers fire the fee recalculation event on the result.
func (s *Service) Load(ctx context.Context, cartID string) (*Cart, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	current, err := s.activeCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	rows, err := s.Q.ListCartItems(ctx, current.ID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		productIDs = append(productIDs, db.UUIDString(row.ProductID))
	}
	categories := map[string][]int64{}
	if s.Categories != nil && len(productIDs) > 0 {
		categories, err = s.Categories.ProductCategoryIDs(ctx, productIDs)
		if err != nil {
			return nil, fmt.Errorf("resolve categories: %w", err)
		}
	}

	items := make([]Item, 0, len(rows))
	for i, row := range rows {
		items = append(items, Item{
			ID:          db.UUIDString(row.ID),
			ProductID:   productIDs[i],
			Title:       row.Title,
			Slug:        row.Slug,
			Qty:         int(row.Qty),
			UnitPrice:   row.UnitPrice,
			Subtotal:    row.Subtotal,
			CategoryIDs: categories[productIDs[i]],
		})
	}
	loaded := New(db.UUIDString(current.ID), items)
	if current.AnonID.Valid {
		loaded.AnonID = current.AnonID.String
	}
	return loaded, nil
}

func lineSubtotal(unitPrice decimal.Decimal, qty int32) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt32(qty))
}
