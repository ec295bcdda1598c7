package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noah-isme/toko-dyntax/internal/catalog"
	"github.com/noah-isme/toko-dyntax/internal/common"
	"github.com/noah-isme/toko-dyntax/internal/dyntax"
	"github.com/noah-isme/toko-dyntax/internal/lock"
	"github.com/noah-isme/toko-dyntax/internal/resilience"
)

// Handler exposes the JSON admin API for the dynamic tax rule.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type ruleResponse struct {
	Form       Form               `json:"form"`
	Rule       *dyntax.TaxRule    `json:"rule"`
	Active     bool               `json:"active"`
	Categories []catalog.Category `json:"categories,omitempty"`
}

var errorMappings = []common.ErrorMapping{
	{Target: dyntax.ErrMalformedRule, Status: http.StatusConflict, Code: "MALFORMED_RULE"},
	{Target: lock.ErrBusy, Status: http.StatusConflict, Code: "SETTINGS_BUSY"},
	{Target: resilience.ErrOpenCircuit, Status: http.StatusServiceUnavailable, Code: "SETTINGS_UNAVAILABLE"},
}

// Get handles GET /api/v1/admin/dynamic-taxes.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, err := h.service.Current(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	categories, err := h.service.Categories(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := ruleResponse{Form: form, Categories: categories}
	if rule, err := h.service.ReadRule(ctx); err == nil {
		resp.Rule = &rule
		resp.Active = rule.Active()
	} else if !errors.Is(err, dyntax.ErrMalformedRule) {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, resp)
}

// Put handles PUT /api/v1/admin/dynamic-taxes, replacing the whole rule.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var form Form
	if err := decodeJSON(r, &form); err != nil {
		h.writeError(w, err)
		return
	}
	rule, err := h.service.Save(r.Context(), form)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRule(w, rule)
}

// Patch handles PATCH /api/v1/admin/dynamic-taxes, merging supplied fields.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	var patch PatchForm
	if err := decodeJSON(r, &patch); err != nil {
		h.writeError(w, err)
		return
	}
	rule, err := h.service.Patch(r.Context(), patch)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeRule(w, rule)
}

func (h *Handler) writeRule(w http.ResponseWriter, rule dyntax.TaxRule) {
	common.Data(w, http.StatusOK, map[string]any{
		"rule":   rule,
		"active": rule.Active(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "invalid dynamic tax settings", verr.Fields)
		return
	}
	common.WriteError(w, err, errorMappings...)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return common.NewAppError("INVALID_JSON", "request body must be valid JSON", http.StatusBadRequest, err)
	}
	return nil
}
