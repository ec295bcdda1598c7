package settings

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-dyntax/internal/catalog"
	"github.com/noah-isme/toko-dyntax/internal/common"
	"github.com/noah-isme/toko-dyntax/internal/dyntax"
	"github.com/noah-isme/toko-dyntax/internal/obs"
)

// ErrInvalidForm is returned when a submitted rule fails validation.
var ErrInvalidForm = errors.New("settings: invalid form")

// ValidationError lists the rejected fields keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return "settings: invalid form: " + strings.Join(parts, ", ")
}

// Unwrap lets callers match ErrInvalidForm.
func (e *ValidationError) Unwrap() error { return ErrInvalidForm }

// Catalog is the category lookup the settings form needs.
type Catalog interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
}

// Locker serialises read-modify-write cycles across instances.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Form carries the rule fields exactly as submitted.
type Form struct {
	Name     string `json:"name" validate:"max=200"`
	Amount   string `json:"amount" validate:"omitempty,numeric"`
	Category string `json:"category" validate:"omitempty,number"`
}

// PatchForm carries a partial update; nil fields keep their stored value.
type PatchForm struct {
	Name     *string `json:"name"`
	Amount   *string `json:"amount"`
	Category *string `json:"category"`
}

func formFromValues(values map[string]string) Form {
	return Form{
		Name:     values[dyntax.FieldName],
		Amount:   values[dyntax.FieldAmount],
		Category: values[dyntax.FieldCategory],
	}
}

func (f Form) normalized() Form {
	return Form{
		Name:     strings.TrimSpace(f.Name),
		Amount:   strings.TrimSpace(f.Amount),
		Category: strings.TrimSpace(f.Category),
	}
}

func (f Form) values() map[string]string {
	return map[string]string{
		dyntax.FieldName:     f.Name,
		dyntax.FieldAmount:   f.Amount,
		dyntax.FieldCategory: f.Category,
	}
}

// Service reads and writes the dynamic tax settings record.
type Service struct {
	store    Store
	catalog  Catalog
	locker   Locker
	lockTTL  time.Duration
	validate *validator.Validate
	logger   zerolog.Logger
}

// ServiceConfig groups Service dependencies. Locker is optional; without it
// Patch runs unserialised.
type ServiceConfig struct {
	Store   Store
	Catalog Catalog
	Locker  Locker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("settings: store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("settings: catalog is required")
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Service{
		store:    cfg.Store,
		catalog:  cfg.Catalog,
		locker:   cfg.Locker,
		lockTTL:  ttl,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   cfg.Logger.With().Str("component", "settings").Logger(),
	}, nil
}

// ReadRule loads the stored rule. A missing record yields an inactive rule;
// an unusable record yields dyntax.ErrMalformedRule.
func (s *Service) ReadRule(ctx context.Context) (dyntax.TaxRule, error) {
	values, ok, err := s.store.Get(ctx, dyntax.OptionName)
	if err != nil {
		return dyntax.TaxRule{}, err
	}
	if !ok {
		return dyntax.TaxRule{}, nil
	}
	return dyntax.RuleFromValues(values)
}

// Current returns the stored form fields, empty when nothing was saved yet.
func (s *Service) Current(ctx context.Context) (Form, error) {
	values, _, err := s.store.Get(ctx, dyntax.OptionName)
	if err != nil {
		return Form{}, err
	}
	return formFromValues(values), nil
}

// Categories lists the choices for the category select.
func (s *Service) Categories(ctx context.Context) ([]catalog.Category, error) {
	return s.catalog.ListCategories(ctx)
}

// Save validates form and replaces the whole stored record with it.
func (s *Service) Save(ctx context.Context, form Form) (dyntax.TaxRule, error) {
	rule, err := s.save(ctx, form)
	obs.ObserveSettingsWrite("save", err)
	return rule, err
}

// Patch merges the supplied fields into the stored record under a lock.
func (s *Service) Patch(ctx context.Context, patch PatchForm) (dyntax.TaxRule, error) {
	var rule dyntax.TaxRule
	apply := func(ctx context.Context) error {
		current, err := s.Current(ctx)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			current.Name = *patch.Name
		}
		if patch.Amount != nil {
			current.Amount = *patch.Amount
		}
		if patch.Category != nil {
			current.Category = *patch.Category
		}
		rule, err = s.save(ctx, current)
		return err
	}

	var err error
	if s.locker == nil {
		err = apply(ctx)
	} else {
		err = s.locker.WithLock(ctx, dyntax.OptionName, s.lockTTL, apply)
	}
	obs.ObserveSettingsWrite("patch", err)
	return rule, err
}

func (s *Service) save(ctx context.Context, form Form) (dyntax.TaxRule, error) {
	form = form.normalized()
	if err := s.check(ctx, form); err != nil {
		return dyntax.TaxRule{}, err
	}
	values := form.values()
	if err := s.store.Put(ctx, dyntax.OptionName, values); err != nil {
		return dyntax.TaxRule{}, err
	}
	rule, err := dyntax.RuleFromValues(values)
	if err != nil {
		return dyntax.TaxRule{}, err
	}
	event := s.logger.Info().Str("name", rule.Name).Str("amount", rule.Amount.String())
	if rule.Active() {
		event = event.Int64("category_id", *rule.CategoryID)
	}
	if subject, ok := common.UserID(ctx); ok {
		event = event.Str("subject", subject)
	}
	event.Msg("dynamic tax rule saved")
	return rule, nil
}

func (s *Service) check(ctx context.Context, form Form) error {
	fields := map[string]string{}
	if err := s.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("settings: validate: %w", err)
		}
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	if form.Category != "" && fields["category"] == "" {
		id, err := strconv.ParseInt(form.Category, 10, 64)
		if err != nil {
			fields["category"] = "number"
		} else {
			ok, err := s.catalog.CategoryExists(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				fields["category"] = "exists"
			}
		}
	}
	if form.Category != "" && form.Amount == "" && fields["amount"] == "" {
		fields["amount"] = "required_with"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
