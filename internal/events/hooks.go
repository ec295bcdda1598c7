package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/noah-isme/toko-dyntax/internal/cart"
	"github.com/noah-isme/toko-dyntax/internal/obs"
)

// CartFeeHandler reacts to a cart fee recalculation by adding or removing fee lines.
type CartFeeHandler interface {
	HandleCartFees(ctx context.Context, c *cart.Cart) error
}

// CartFeeHandlerFunc adapts a function to CartFeeHandler.
type CartFeeHandlerFunc func(ctx context.Context, c *cart.Cart) error

// HandleCartFees calls f.
func (f CartFeeHandlerFunc) HandleCartFees(ctx context.Context, c *cart.Cart) error {
	return f(ctx, c)
}

// Hooks holds the handlers registered for cart lifecycle events.
type Hooks struct {
	mu          sync.RWMutex
	feeHandlers []CartFeeHandler
}

// RegisterCartFeeHandler adds h to the fee recalculation chain.
func (h *Hooks) RegisterCartFeeHandler(handler CartFeeHandler) {
	if h == nil || handler == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.feeHandlers = append(h.feeHandlers, handler)
}

// CartFeeHandlers returns the number of registered fee handlers.
func (h *Hooks) CartFeeHandlers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.feeHandlers)
}

// CalculateFees fires the fee recalculation event on c. Handlers run in
// registration order; a failing handler does not stop the rest.
func (h *Hooks) CalculateFees(ctx context.Context, c *cart.Cart) error {
	if h == nil || c == nil {
		return nil
	}
	h.mu.RLock()
	handlers := append([]CartFeeHandler(nil), h.feeHandlers...)
	h.mu.RUnlock()

	obs.ObserveCartFeeRecalculation()
	var joined error
	for _, handler := range handlers {
		if err := handler.HandleCartFees(ctx, c); err != nil {
			joined = errors.Join(joined, fmt.Errorf("events: cart fee handler: %w", err))
		}
	}
	return joined
}
