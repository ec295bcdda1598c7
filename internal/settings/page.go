package settings

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-dyntax/internal/catalog"
	"github.com/noah-isme/toko-dyntax/internal/dyntax"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/dynamic_taxes.html.tmpl"))

// TokenSource issues the anti-forgery token embedded in the form.
type TokenSource interface {
	Token(w http.ResponseWriter, r *http.Request) string
}

// Page serves the HTML admin form for the dynamic tax rule.
type Page struct {
	service   *Service
	tokens    TokenSource
	csrfField string
	logger    zerolog.Logger
}

// PageConfig groups Page dependencies.
type PageConfig struct {
	Service   *Service
	Tokens    TokenSource
	CSRFField string
	Logger    zerolog.Logger
}

// NewPage constructs a Page.
func NewPage(cfg PageConfig) (*Page, error) {
	if cfg.Service == nil {
		return nil, errors.New("settings: service is required")
	}
	field := cfg.CSRFField
	if field == "" {
		field = "_csrf"
	}
	return &Page{
		service:   cfg.Service,
		tokens:    cfg.Tokens,
		csrfField: field,
		logger:    cfg.Logger.With().Str("component", "settings_page").Logger(),
	}, nil
}

type formFields struct {
	Name     string
	Amount   string
	Category string
}

type pageData struct {
	Action     string
	Updated    bool
	Errors     map[string]string
	Form       Form
	Categories []catalog.Category
	Fields     formFields
	CSRFField  string
	CSRFToken  string
}

// Render handles GET /admin/dynamic-taxes.
func (p *Page) Render(w http.ResponseWriter, r *http.Request) {
	form, err := p.service.Current(r.Context())
	if err != nil {
		p.fail(w, err)
		return
	}
	p.render(w, r, http.StatusOK, form, nil)
}

// Submit handles POST /admin/dynamic-taxes and redirects back on success.
func (p *Page) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	form := Form{
		Name:     r.PostForm.Get(dyntax.FieldName),
		Amount:   r.PostForm.Get(dyntax.FieldAmount),
		Category: r.PostForm.Get(dyntax.FieldCategory),
	}
	if _, err := p.service.Save(r.Context(), form); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			p.render(w, r, http.StatusUnprocessableEntity, form, verr.Fields)
			return
		}
		p.fail(w, err)
		return
	}
	http.Redirect(w, r, r.URL.Path+"?settings-updated=true", http.StatusSeeOther)
}

func (p *Page) render(w http.ResponseWriter, r *http.Request, status int, form Form, fieldErrors map[string]string) {
	categories, err := p.service.Categories(r.Context())
	if err != nil {
		p.fail(w, err)
		return
	}
	data := pageData{
		Action:     r.URL.Path,
		Updated:    r.URL.Query().Get("settings-updated") == "true",
		Errors:     fieldErrors,
		Form:       form,
		Categories: categories,
		Fields: formFields{
			Name:     dyntax.FieldName,
			Amount:   dyntax.FieldAmount,
			Category: dyntax.FieldCategory,
		},
		CSRFField: p.csrfField,
	}
	if p.tokens != nil {
		data.CSRFToken = p.tokens.Token(w, r)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		p.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (p *Page) fail(w http.ResponseWriter, err error) {
	p.logger.Error().Err(err).Msg("dynamic taxes page failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}
