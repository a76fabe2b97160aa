package handlers

import (
	"errors"
	"net/http"

	"watchstore/internal/checkout"
	"watchstore/internal/middleware"
	"watchstore/internal/models"
	"watchstore/internal/render"
)

// Shop groups the cart and order pages of a signed-in customer. Every
// route sits behind RequireAuth, so a session is always present.
type Shop struct {
	*Shell
	orders *checkout.OrderService
}

// NewShop creates the shop handler group.
func NewShop(shell *Shell, orders *checkout.OrderService) *Shop {
	return &Shop{Shell: shell, orders: orders}
}

// Cart renders the shopper's cart.
func (s *Shop) Cart(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	cart, err := s.carts.GetCart(sess.UserID)
	if err != nil {
		s.fail(w, r, err, "load cart failed")
		return
	}
	s.page(w, r, "shop/cart", &render.PageData{
		Title:   "Cart",
		Section: "cart",
		Data:    map[string]any{"Cart": cart},
	})
}

// CartAdd puts a product in the cart, adding to an existing line.
func (s *Shop) CartAdd(w http.ResponseWriter, r *http.Request) {
	productID, ok := urlID(r, "id")
	if !ok {
		s.errorPage(w, r, http.StatusNotFound, messageFor(http.StatusNotFound))
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if _, err := s.carts.AddProduct(sess.UserID, productID, parseQuantity(r.FormValue("quantity"))); err != nil {
		s.fail(w, r, err, "add to cart failed")
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CartUpdate changes the quantity of a line. Zero removes it.
func (s *Shop) CartUpdate(w http.ResponseWriter, r *http.Request) {
	productID, ok := urlID(r, "id")
	if !ok {
		s.errorPage(w, r, http.StatusNotFound, messageFor(http.StatusNotFound))
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if _, err := s.carts.UpdateQuantity(sess.UserID, productID, parseQuantity(r.FormValue("quantity"))); err != nil {
		s.fail(w, r, err, "update cart failed")
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CartRemove drops a line from the cart.
func (s *Shop) CartRemove(w http.ResponseWriter, r *http.Request) {
	productID, ok := urlID(r, "id")
	if !ok {
		s.errorPage(w, r, http.StatusNotFound, messageFor(http.StatusNotFound))
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	if _, err := s.carts.RemoveProduct(sess.UserID, productID); err != nil {
		s.fail(w, r, err, "remove from cart failed")
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CartClear empties the cart.
func (s *Shop) CartClear(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if err := s.carts.Clear(sess.UserID); err != nil {
		s.fail(w, r, err, "clear cart failed")
		return
	}
	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// CheckoutPage renders the shipping form with the cart summary. An empty
// cart sends the shopper back to the cart page.
func (s *Shop) CheckoutPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	cart, err := s.carts.GetCart(sess.UserID)
	if err != nil {
		s.fail(w, r, err, "load cart failed")
		return
	}
	if cart.IsEmpty() {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}
	s.checkoutForm(w, r, http.StatusOK, cart, models.ShippingDetails{}, nil)
}

func (s *Shop) checkoutForm(w http.ResponseWriter, r *http.Request, status int, cart *models.Cart, shipping models.ShippingDetails, errs map[string]string) {
	s.pageStatus(w, r, status, "shop/checkout", &render.PageData{
		Title:   "Checkout",
		Section: "cart",
		Data: map[string]any{
			"Cart":     cart,
			"Shipping": shipping,
			"Errors":   errs,
		},
	})
}

// CheckoutSubmit turns the cart into an order.
func (s *Shop) CheckoutSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	shipping := parseShippingForm(r)

	order, err := s.orders.PlaceOrder(sess.UserID, shipping)
	if err == nil {
		http.Redirect(w, r, "/order/confirmation/"+order.ID.String(), http.StatusSeeOther)
		return
	}

	if fields, ok := validationFields(err); ok {
		cart, cerr := s.carts.GetCart(sess.UserID)
		if cerr != nil {
			s.fail(w, r, cerr, "load cart failed")
			return
		}
		s.checkoutForm(w, r, http.StatusUnprocessableEntity, cart, shipping, fields)
		return
	}
	if errors.Is(err, models.ErrEmptyCart) {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	s.errorPage(w, r, http.StatusInternalServerError,
		"Your order could not be placed. Your cart has not been changed, please try again.")
}

// Confirmation renders the thank-you page of a freshly placed order.
func (s *Shop) Confirmation(w http.ResponseWriter, r *http.Request) {
	s.showOrder(w, r, "shop/confirmation", "Order confirmed")
}

// OrderDetail renders one of the customer's orders.
func (s *Shop) OrderDetail(w http.ResponseWriter, r *http.Request) {
	s.showOrder(w, r, "shop/order", "Order")
}

func (s *Shop) showOrder(w http.ResponseWriter, r *http.Request, tmpl, title string) {
	id, ok := urlID(r, "id")
	if !ok {
		s.errorPage(w, r, http.StatusNotFound, messageFor(http.StatusNotFound))
		return
	}
	sess := middleware.SessionFromCtx(r.Context())
	order, err := s.orders.OrderFor(sess.UserID, id)
	if err != nil {
		s.fail(w, r, err, "load order failed")
		return
	}
	s.page(w, r, tmpl, &render.PageData{
		Title:   title + " " + order.Reference(),
		Section: "orders",
		Data:    map[string]any{"Order": order},
	})
}

// History lists the customer's orders, newest first.
func (s *Shop) History(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	orders, err := s.orders.History(sess.UserID)
	if err != nil {
		s.fail(w, r, err, "load order history failed")
		return
	}
	s.page(w, r, "shop/history", &render.PageData{
		Title:   "My orders",
		Section: "orders",
		Data:    map[string]any{"Orders": orders},
	})
}
