package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"watchstore/internal/catalog"
	"watchstore/internal/models"
	"watchstore/internal/validation"
)

// Form limits that are not enforced by the services.
const (
	maxQuantity      = 99
	maxUploadBytes   = 8 << 20
	maxFormMemory    = 10 << 20
	defaultQuantity  = 1
	checkboxChecked  = "on"
	fieldInvalidUUID = "Invalid selection."
)

// formErrors collects per-field messages of a submitted form.
type formErrors map[string]string

func (fe formErrors) add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// merge adds the fields of a validation error, keeping earlier messages.
func (fe formErrors) merge(err error) bool {
	fields, ok := validationFields(err)
	if !ok {
		return false
	}
	for k, v := range fields {
		fe.add(k, v)
	}
	return true
}

func (fe formErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return &models.ValidationError{Fields: fe}
}

// optionalUUID parses an optional id field. Blank means nil.
func optionalUUID(r *http.Request, field string, fe formErrors) *uuid.UUID {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		fe.add(field, fieldInvalidUUID)
		return nil
	}
	return &id
}

// parsePrice accepts "1234.5", "1234,50" and "1 234,50".
func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseCategoryForm reads the category form.
func parseCategoryForm(r *http.Request) (catalog.CategoryInput, formErrors) {
	fe := formErrors{}
	in := catalog.CategoryInput{
		Name:             r.FormValue("name"),
		Description:      r.FormValue("description"),
		IsActive:         r.FormValue("is_active") == checkboxChecked,
		MainCategoryType: r.FormValue("main_category_type"),
		ParentID:         optionalUUID(r, "parent_id", fe),
	}
	if v := strings.TrimSpace(r.FormValue("sort_order")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fe.add("sort_order", "Must be a whole number.")
		} else {
			in.SortOrder = &n
		}
	}
	return in, fe
}

// parseProductForm reads the product form. The brand comes from the
// select of existing brands unless a new one is typed.
func parseProductForm(r *http.Request) (catalog.ProductInput, formErrors) {
	fe := formErrors{}
	in := catalog.ProductInput{
		Name:        r.FormValue("name"),
		Description: strings.TrimSpace(r.FormValue("description")),
		Brand:       strings.TrimSpace(r.FormValue("brand_new")),
		Model:       strings.TrimSpace(r.FormValue("model")),
		IsActive:    r.FormValue("is_active") == checkboxChecked,
		CategoryID:  optionalUUID(r, "subcategory_id", fe),
	}
	// The subcategory select narrows the main category one.
	if in.CategoryID == nil {
		in.CategoryID = optionalUUID(r, "category_id", fe)
	}
	if in.Brand == "" {
		in.Brand = r.FormValue("brand")
	}

	if price, ok := parsePrice(r.FormValue("price")); ok {
		in.Price = price
	} else {
		fe.add("price", "Enter a price such as 149.90.")
	}

	stock, err := strconv.Atoi(strings.TrimSpace(r.FormValue("stock")))
	if err != nil {
		fe.add("stock", "Must be a whole number.")
	}
	in.Stock = stock
	return in, fe
}

// parseShippingForm reads the checkout form. Trimming and validation
// happen in the order service.
func parseShippingForm(r *http.Request) models.ShippingDetails {
	d := models.ShippingDetails{
		FirstName:  r.FormValue("first_name"),
		LastName:   r.FormValue("last_name"),
		Address:    r.FormValue("address"),
		PostalCode: r.FormValue("postal_code"),
		City:       r.FormValue("city"),
		Phone:      r.FormValue("phone"),
	}
	if notes := r.FormValue("notes"); notes != "" {
		d.Notes = &notes
	}
	return d
}

// parseQuantity reads a cart quantity, clamped to [0, maxQuantity]. A
// missing or malformed value means one unit.
func parseQuantity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultQuantity
	}
	return min(max(n, 0), maxQuantity)
}

// registration is the sign-up form.
type registration struct {
	Email     string `json:"email" validate:"required,email,max=180"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Confirm   string `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
}

func parseRegistration(r *http.Request) (registration, error) {
	reg := registration{
		Email:     strings.TrimSpace(r.FormValue("email")),
		Password:  r.FormValue("password"),
		Confirm:   r.FormValue("password_confirm"),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
	}
	return reg, validation.Struct(reg)
}

// safeNext returns next when it is a local path, otherwise fallback. It
// keeps login redirects from leaving the site.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
