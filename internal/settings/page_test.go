package settings_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-dyntax/internal/dyntax"
	"github.com/noah-isme/toko-dyntax/internal/settings"
)

type staticToken string

func (s staticToken) Token(http.ResponseWriter, *http.Request) string { return string(s) }

func newPage(t *testing.T, svc *settings.Service) *settings.Page {
	t.Helper()
	page, err := settings.NewPage(settings.PageConfig{Service: svc, Tokens: staticToken("tok-123"), Logger: zerolog.Nop()})
	require.NoError(t, err)
	return page
}

func TestRenderListsAllCategories(t *testing.T) {
	svc := newService(t, memoryStore(t), nil)
	_, err := svc.Save(context.Background(), settings.Form{Name: "Eco Tax", Amount: "2.00", Category: "7"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	newPage(t, svc).Render(rec, httptest.NewRequest(http.MethodGet, "/admin/dynamic-taxes", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	require.Contains(t, body, `<option value="">---</option>`)
	require.Contains(t, body, `<option value="5">Electronics</option>`)
	require.Contains(t, body, `<option value="7" selected>Garden</option>`)
	require.Contains(t, body, `<option value="11">Empty Shelf</option>`)
	require.Contains(t, body, `name="`+dyntax.FieldName+`" value="Eco Tax"`)
	require.Contains(t, body, `name="`+dyntax.FieldAmount+`" value="2.00"`)
	require.Contains(t, body, `value="tok-123"`)
	require.NotContains(t, body, "Settings saved.")
}

func TestRenderWithoutRecordSelectsBlank(t *testing.T) {
	svc := newService(t, memoryStore(t), nil)
	rec := httptest.NewRecorder()
	newPage(t, svc).Render(rec, httptest.NewRequest(http.MethodGet, "/admin/dynamic-taxes?settings-updated=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.NotContains(t, body, " selected")
	require.Contains(t, body, "Settings saved.")
}

func TestRenderEscapesStoredName(t *testing.T) {
	svc := newService(t, memoryStore(t), nil)
	_, err := svc.Save(context.Background(), settings.Form{Name: `<script>alert(1)</script>`, Amount: "1", Category: ""})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	newPage(t, svc).Render(rec, httptest.NewRequest(http.MethodGet, "/admin/dynamic-taxes", nil))
	require.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/admin/dynamic-taxes", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSubmitSavesAndRedirects(t *testing.T) {
	svc := newService(t, memoryStore(t), nil)
	rec := httptest.NewRecorder()
	newPage(t, svc).Submit(rec, postForm(url.Values{
		dyntax.FieldName:     {"Eco Tax"},
		dyntax.FieldAmount:   {"2.00"},
		dyntax.FieldCategory: {"5"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dynamic-taxes?settings-updated=true", rec.Header().Get("Location"))

	rule, err := svc.ReadRule(context.Background())
	require.NoError(t, err)
	require.True(t, rule.Active())
	require.EqualValues(t, 5, *rule.CategoryID)
}

func TestSubmitRerendersOnInvalidInput(t *testing.T) {
	svc := newService(t, memoryStore(t), nil)
	rec := httptest.NewRecorder()
	newPage(t, svc).Submit(rec, postForm(url.Values{
		dyntax.FieldName:     {"Eco Tax"},
		dyntax.FieldAmount:   {"lots"},
		dyntax.FieldCategory: {"5"},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "amount: numeric")
	require.Contains(t, body, `value="lots"`)

	form, err := svc.Current(context.Background())
	require.NoError(t, err)
	require.Empty(t, form.Name)
}

func TestNewPageRequiresService(t *testing.T) {
	_, err := settings.NewPage(settings.PageConfig{})
	require.Error(t, err)
}
