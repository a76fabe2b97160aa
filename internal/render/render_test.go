package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"watchstore/internal/middleware"
	"watchstore/internal/models"
	"watchstore/internal/session"
)

// fakeImages resolves keys under a fixed CDN host.
type fakeImages struct{}

func (fakeImages) URL(key string) string      { return "https://cdn.test/" + key }
func (fakeImages) ThumbURL(key string) string { return "https://cdn.test/thumb/" + key }

func helperSession(role models.Role) *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "test@watchstore.local",
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   true,
	}
}

// helperRequest builds a request whose context carries sess, as
// LoadSession would.
func helperRequest(target string, sess *session.Data) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sess != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.SessionKey, sess))
	}
	return req
}

func helperRenderer(t *testing.T) *Renderer {
	t.Helper()
	rn, err := New(fakeImages{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return rn
}

func TestNew(t *testing.T) {
	rn := helperRenderer(t)

	pages := []string{
		"shop/home", "shop/products", "shop/product", "shop/categories",
		"shop/cart", "shop/checkout", "shop/confirmation", "shop/order",
		"shop/history", "shop/login", "shop/register", "shop/error",
		"admin/dashboard", "admin/categories_list", "admin/category_form",
		"admin/products_list", "admin/product_form", "admin/orders_list",
		"admin/order_detail", "admin/users_list", "admin/error",
		"auth/2fa_setup", "auth/2fa_verify",
	}
	for _, name := range pages {
		if !rn.Has(name) {
			t.Errorf("expected template %q to be parsed", name)
		}
	}

	for _, layout := range []string{"shop/base", "admin/base"} {
		if rn.Has(layout) {
			t.Errorf("layout %q should not be registered as a page", layout)
		}
	}
}

func TestNewWithoutImages(t *testing.T) {
	rn, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) error: %v", err)
	}

	img := "products/2026/01/a.jpg"
	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/products/x", nil), "shop/product", &PageData{
		Title: "Watch",
		Data: map[string]any{
			"Product": &models.Product{ID: uuid.New(), Name: "Seiko 5", Price: decimal.NewFromInt(199), Stock: 1, Image: &img},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), img) {
		t.Error("image key should not be rendered without an image store")
	}
}

func TestShopPageRendering(t *testing.T) {
	rn := helperRenderer(t)

	img := "products/2026/01/sub.jpg"
	p := &models.Product{
		ID:          uuid.New(),
		Name:        "Rolex Submariner",
		Description: "Boîtier **acier**",
		Price:       decimal.RequireFromString("8500"),
		Brand:       "Rolex",
		Stock:       3,
		Image:       &img,
	}
	related := []models.Product{{ID: uuid.New(), Name: "Omega Seamaster", Price: decimal.NewFromInt(5000), Stock: 0}}

	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/products/"+p.ID.String(), nil), "shop/product", &PageData{
		Title:   p.Name,
		Section: "products",
		Nav:     []models.Category{{ID: uuid.New(), Name: "Homme", Slug: "homme", IsMainCategory: true}},
		Data:    map[string]any{"Product": p, "Related": related},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"Rolex Submariner",
		"8500.00 €",
		"<strong>acier</strong>",
		"https://cdn.test/" + img,
		"Omega Seamaster",
		"Out of stock",
		"/products?category=homme",
		"Sign in to order",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered product page missing %q", want)
		}
	}
}

func TestAdminPageRendering(t *testing.T) {
	rn := helperRenderer(t)
	sess := helperSession(models.RoleAdmin)

	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/admin", sess), "admin/dashboard", &PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"ProductCount": 12, "CategoryCount": 4, "OrderCount": 0,
			"PendingCount": 0, "CustomerCount": 2,
		},
		Flashes: []Flash{{Type: "success", Message: "Saved."}},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{"Watch<span>store</span>", "No orders yet.", "flash-success", "Saved.", "Test User"} {
		if !strings.Contains(body, want) {
			t.Errorf("rendered dashboard missing %q", want)
		}
	}
}

func TestStandaloneTemplates(t *testing.T) {
	rn := helperRenderer(t)
	sess := helperSession(models.RoleAdmin)

	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"auth/2fa_setup", map[string]any{"QRCode": "iVBORw0KGgo=", "Secret": "JBSWY3DPEHPK3PXP"}, "JBSWY3DPEHPK3PXP"},
		{"auth/2fa_verify", map[string]any{"Error": "Invalid code. Please try again."}, "Invalid code."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			rn.Page(w, helperRequest("/admin/2fa", sess), tt.name, &PageData{Title: "Two-Factor Authentication", Data: tt.data})

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			body := w.Body.String()
			if !strings.Contains(body, "<!DOCTYPE html>") {
				t.Error("standalone template should carry its own document")
			}
			if strings.Contains(body, `class="sidebar"`) {
				t.Error("standalone template should not contain the admin sidebar")
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
		})
	}
}

func TestQRCodeDataURL(t *testing.T) {
	rn := helperRenderer(t)

	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/admin/2fa/setup", helperSession(models.RoleAdmin)), "auth/2fa_setup", &PageData{
		Data: map[string]any{"QRCode": "aGVsbG8+d29ybGQ/", "Secret": "S"},
	})
	if !strings.Contains(w.Body.String(), `src="data:image/png;base64,aGVsbG8+d29ybGQ/"`) {
		t.Errorf("QR code data URL was altered: %s", w.Body.String())
	}
}

func TestPageStatus(t *testing.T) {
	rn := helperRenderer(t)

	w := httptest.NewRecorder()
	rn.PageStatus(w, helperRequest("/missing", nil), http.StatusNotFound, "shop/error", &PageData{
		Title: "Not Found",
		Data:  map[string]any{"Status": http.StatusNotFound, "Message": "The page you are looking for does not exist."},
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "does not exist") {
		t.Error("error page should contain the message")
	}
}

func TestMissingTemplate(t *testing.T) {
	rn := helperRenderer(t)

	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/nowhere", nil), "shop/nonexistent", &PageData{Title: "Not Found"})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not found") {
		t.Error("error response should mention template not found")
	}
}

func TestTemplateErrorWritesNothingPartial(t *testing.T) {
	rn := helperRenderer(t)

	// A nil product makes the page fail midway through execution.
	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/products/x", nil), "shop/product", &PageData{
		Data: map[string]any{"Product": (*models.Product)(nil)},
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("a failed page must not be partially written")
	}
}

func TestPageDataCSRFInjection(t *testing.T) {
	rn := helperRenderer(t)

	var captured *http.Request
	h := middleware.NewCSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/login", nil))
	if captured == nil {
		t.Fatal("CSRF middleware did not call inner handler")
	}
	token := middleware.CSRFTokenFromCtx(captured.Context())
	if token == "" {
		t.Fatal("CSRF token not found in context")
	}

	w := httptest.NewRecorder()
	data := &PageData{Title: "Sign in", Data: map[string]any{}}
	rn.Page(w, captured, "shop/login", data)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `name="csrf_token" value="`+token+`"`) {
		t.Error("login form should carry the CSRF token from context")
	}
	if data.CSRFToken != token {
		t.Errorf("PageData.CSRFToken: got %q, want %q", data.CSRFToken, token)
	}
}

func TestSessionInjectionFromContext(t *testing.T) {
	rn := helperRenderer(t)
	sess := helperSession(models.RoleCustomer)

	data := &PageData{Title: "Sign in", Data: map[string]any{}}
	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/", sess), "shop/login", data)

	if data.Session != sess {
		t.Error("expected Session to be injected from context")
	}
	if !strings.Contains(w.Body.String(), "Test User") {
		t.Error("header should show the signed-in customer")
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00 €"},
		{"8500", "8500.00 €"},
		{"449.99", "449.99 €"},
		{"19.999", "20.00 €"},
	}
	for _, tt := range tests {
		if got := Money(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("Money(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		in   models.OrderStatus
		want string
	}{
		{models.OrderStatusPending, "Pending"},
		{models.OrderStatusShipped, "Shipped"},
		{models.OrderStatusCancelled, "Cancelled"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := StatusLabel(tt.in); got != tt.want {
			t.Errorf("StatusLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPageQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		page  int
		want  string
	}{
		{"first page without filters", "", 1, ""},
		{"first page drops page", "page=3", 1, ""},
		{"keeps filters", "brand=Rolex&page=1", 2, "?brand=Rolex&page=2"},
		{"replaces page", "page=4&search=dive", 5, "?page=5&search=dive"},
		{"first page keeps filters", "category=homme&page=2", 1, "?category=homme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if got := PageQuery(q, tt.page); got != tt.want {
				t.Errorf("PageQuery(%q, %d) = %q, want %q", tt.query, tt.page, got, tt.want)
			}
		})
	}
}

func TestDict(t *testing.T) {
	m, err := dict("Path", "/admin/orders", "Page", 2)
	if err != nil {
		t.Fatalf("dict error: %v", err)
	}
	if m["Path"] != "/admin/orders" || m["Page"] != 2 {
		t.Errorf("dict = %v", m)
	}

	if _, err := dict("odd"); err == nil {
		t.Error("expected error for odd number of arguments")
	}
	if _, err := dict(1, "x"); err == nil {
		t.Error("expected error for non-string key")
	}
}
