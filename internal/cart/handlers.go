package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-dyntax/internal/common"
	"github.com/noah-isme/toko-dyntax/internal/db"
	"github.com/noah-isme/toko-dyntax/internal/pricing"
)

// errFeesUnavailable reports that a fee handler could not finish.
var errFeesUnavailable = errors.New("cart fees unavailable")

// FeeCalculator fires the cart fee recalculation event.
type FeeCalculator interface {
	CalculateFees(ctx context.Context, c *Cart) error
}

// Handler wires cart services to HTTP.
type Handler struct {
	Svc      *Service
	Fees     FeeCalculator
	TaxBps   int
	Currency string
	Logger   zerolog.Logger
}

var errorMappings = []common.ErrorMapping{
	{Target: ErrInvalidInput, Status: http.StatusBadRequest, Code: "BAD_REQUEST"},
	{Target: ErrNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
	{Target: errFeesUnavailable, Status: http.StatusServiceUnavailable, Code: "FEES_UNAVAILABLE"},
}

type cartResponse struct {
	ID       string          `json:"id"`
	AnonID   string          `json:"anonId,omitempty"`
	Items    []Item          `json:"items"`
	Fees     []Fee           `json:"fees"`
	Pricing  pricing.Summary `json:"pricing"`
	Currency string          `json:"currency"`
}

// Create creates or returns a guest cart identifier.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload struct {
		AnonID string `json:"anonId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)
	anonID := strings.TrimSpace(payload.AnonID)
	if anonID == "" {
		anonID = uuid.NewString()
	}
	created, err := h.Svc.EnsureCart(r.Context(), anonID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, map[string]any{
		"cartId": db.UUIDString(created.ID),
		"anonId": anonID,
	})
}

// Get returns cart contents with freshly calculated fees and a pricing preview.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadWithFees(w, r)
	if !ok {
		return
	}
	items := c.Items()
	fees := c.Fees()
	pricingItems := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		pricingItems = append(pricingItems, pricing.Item{Qty: it.Qty, UnitPrice: it.UnitPrice})
	}
	pricingFees := make([]pricing.Fee, 0, len(fees))
	for _, fee := range fees {
		pricingFees = append(pricingFees, pricing.Fee{Amount: fee.Amount, Taxable: fee.Taxable})
	}
	common.Data(w, http.StatusOK, cartResponse{
		ID:       c.ID,
		AnonID:   c.AnonID,
		Items:    items,
		Fees:     fees,
		Pricing:  pricing.Compute(pricingItems, pricingFees, h.TaxBps),
		Currency: h.Currency,
	})
}

// QuoteFees returns only the fee lines the cart would carry right now.
func (h *Handler) QuoteFees(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadWithFees(w, r)
	if !ok {
		return
	}
	common.Data(w, http.StatusOK, map[string]any{
		"fees":  c.Fees(),
		"total": c.FeeTotal(),
	})
}

func (h *Handler) loadWithFees(w http.ResponseWriter, r *http.Request) (*Cart, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return nil, false
	}
	ctx := r.Context()
	c, err := h.Svc.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return nil, false
	}
	if h.Fees != nil {
		if err := h.Fees.CalculateFees(ctx, c); err != nil {
			h.Logger.Error().Err(err).Str("cart_id", c.ID).Msg("cart fee recalculation failed")
			h.writeError(w, errFeesUnavailable)
			return nil, false
		}
	}
	return c, true
}

// AddItem adds or increments a cart line item.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.ProductID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "productId is required", nil)
		return
	}
	if err := h.Svc.AddItem(r.Context(), chi.URLParam(r, "id"), payload.ProductID, payload.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// UpdateItem updates the quantity for a cart line item.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.Svc.UpdateQty(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), payload.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

// RemoveItem deletes a cart item.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId")); err != nil {
		h.writeError(w, err)
		return
	}
	h.Get(w, r)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	common.WriteError(w, err, errorMappings...)
}
