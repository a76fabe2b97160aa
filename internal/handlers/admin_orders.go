package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"watchstore/internal/checkout"
	"watchstore/internal/middleware"
	"watchstore/internal/models"
	"watchstore/internal/render"
)

// --- Orders ---

// OrdersList renders the order screen, optionally filtered by status.
func (a *Admin) OrdersList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	result, err := a.orders.ListOrders(models.OrderStatus(q.Get("status")), page, checkout.OrderPageSize)
	if err != nil {
		a.fail(w, r, err, "list orders failed")
		return
	}
	counts, err := a.orders.CountByStatus()
	if err != nil {
		slog.Error("count orders failed", "error", err)
	}

	a.page(w, r, http.StatusOK, "admin/orders_list", &render.PageData{
		Title:   "Orders",
		Section: "orders",
		Data: map[string]any{
			"Result":   result,
			"RawQuery": q,
			"Statuses": models.OrderStatuses,
			"Counts":   counts,
		},
	})
}

// OrderDetail renders an order with its lines and shipping details.
func (a *Admin) OrderDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	order, err := a.orders.Order(id)
	if err != nil {
		a.fail(w, r, err, "load order failed")
		return
	}
	a.page(w, r, http.StatusOK, "admin/order_detail", &render.PageData{
		Title:   "Order " + order.Reference(),
		Section: "orders",
		Data: map[string]any{
			"Order":    order,
			"Statuses": models.OrderStatuses,
		},
	})
}

// OrderStatus moves an order to another status.
func (a *Admin) OrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	if err := a.orders.UpdateStatus(id, models.OrderStatus(r.FormValue("status"))); err != nil {
		a.fail(w, r, err, "update order status failed")
		return
	}
	redirectDone(w, r, "/admin/orders/"+id.String(), "status")
}

// --- Users ---

// UsersList renders all accounts, optionally filtered by role.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	role := models.Role(r.URL.Query().Get("role"))
	if role != models.RoleAdmin && role != models.RoleCustomer {
		role = ""
	}
	users, err := a.userStore.List(role)
	if err != nil {
		a.fail(w, r, err, "list users failed")
		return
	}
	a.page(w, r, http.StatusOK, "admin/users_list", &render.PageData{
		Title:   "Users",
		Section: "users",
		Data: map[string]any{
			"Users": users,
			"Role":  role,
		},
	})
}

// UserRole promotes a customer to admin or demotes an admin. Admins
// cannot change their own role, so the back office never loses its last
// admin by accident.
func (a *Admin) UserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil && sess.UserID == id {
		redirectDone(w, r, "/admin/users", "self")
		return
	}

	role := models.Role(r.FormValue("role"))
	if role != models.RoleAdmin && role != models.RoleCustomer {
		a.fail(w, r, models.NewValidationError("role", "Unknown role."), "")
		return
	}
	user, err := a.userStore.FindByID(id)
	if err != nil {
		a.fail(w, r, err, "load user failed")
		return
	}
	if user == nil {
		a.notFound(w, r)
		return
	}

	if err := a.userStore.SetRole(id, role); err != nil {
		a.fail(w, r, err, "set user role failed")
		return
	}
	// A demoted admin starts over with 2FA if promoted again.
	if role == models.RoleCustomer && user.TOTPEnabled {
		if err := a.userStore.ResetTOTP(id); err != nil {
			slog.Error("reset totp failed", "error", err, "user_id", id)
		}
	}
	slog.Info("user role changed", "user_id", id, "role", role)
	redirectDone(w, r, "/admin/users", "role")
}

// UserResetTwoFA clears the TOTP enrolment of an admin, who will set it
// up again on the next login.
func (a *Admin) UserResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		a.notFound(w, r)
		return
	}
	if err := a.userStore.ResetTOTP(id); err != nil {
		a.fail(w, r, err, "reset totp failed")
		return
	}
	slog.Info("totp reset", "user_id", id)
	redirectDone(w, r, "/admin/users", "2fa-reset")
}
