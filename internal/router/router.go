// Package router sets up all HTTP routes and middleware chains of the
// shop. Routes are grouped into the storefront, the customer area, the
// sign-in forms and the back office, each with its own middleware stack.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"watchstore/internal/handlers"
	"watchstore/internal/middleware"
	"watchstore/internal/session"
	"watchstore/web"
)

// Options carries the settings that shape the middleware chain.
type Options struct {
	// MediaOrigin is where uploaded pictures are served from. It is added
	// to the image sources of the content security policy.
	MediaOrigin string
	// SecureCookies sets the Secure flag on the CSRF cookie.
	SecureCookies bool
	// AuthLimiter throttles the login and registration forms. Nil disables
	// throttling.
	AuthLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options, sessionStore *session.Store, admin *handlers.Admin, auth *handlers.Auth, public *handlers.Public, shop *handlers.Shop) chi.Router {
	r := chi.NewRouter()

	var mediaOrigins []string
	if opts.MediaOrigin != "" {
		mediaOrigins = append(mediaOrigins, opts.MediaOrigin)
	}

	// Global middleware.
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders(mediaOrigins...))
	r.Use(middleware.Logger)

	// Static assets and health check: no session, no CSRF.
	r.Handle("/static/*", staticHandler())
	r.Get("/health", healthHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(sessionStore))
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		// Storefront.
		r.Get("/", public.Home)
		r.Get("/products", public.Products)
		r.Get("/products/{id}", public.Product)
		r.Get("/categories", public.Categories)
		r.Get("/categories/{slug}", public.Category)

		// Sign-in and sign-up.
		r.Group(func(r chi.Router) {
			if opts.AuthLimiter != nil {
				r.Use(opts.AuthLimiter.Middleware)
			}
			r.Get("/login", auth.LoginPage)
			r.Post("/login", auth.LoginSubmit)
			r.Get("/register", auth.RegisterPage)
			r.Post("/register", auth.RegisterSubmit)
		})
		r.Post("/logout", auth.Logout)

		// Customer area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", shop.Cart)
				r.Post("/add/{id}", shop.CartAdd)
				r.Post("/update/{id}", shop.CartUpdate)
				r.Post("/remove/{id}", shop.CartRemove)
				r.Post("/clear", shop.CartClear)
			})

			r.Route("/order", func(r chi.Router) {
				r.Get("/checkout", shop.CheckoutPage)
				r.Post("/checkout", shop.CheckoutSubmit)
				r.Get("/confirmation/{id}", shop.Confirmation)
				r.Get("/history", shop.History)
				r.Get("/{id}", shop.OrderDetail)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireAdmin)

			// 2FA: requires an admin session but NOT completed 2FA.
			r.Group(func(r chi.Router) {
				if opts.AuthLimiter != nil {
					r.Use(opts.AuthLimiter.Middleware)
				}
				r.Get("/2fa/setup", auth.TwoFASetupPage)
				r.Get("/2fa/verify", auth.TwoFAVerifyPage)
				r.Post("/2fa/verify", auth.TwoFAVerifySubmit)
			})

			// 2FA-verified back office.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Require2FA)

				r.Get("/", admin.Dashboard)

				r.Route("/categories", func(r chi.Router) {
					r.Get("/", admin.CategoriesList)
					r.Get("/new", admin.CategoryNew)
					r.Post("/", admin.CategoryCreate)
					r.Get("/{id}/edit", admin.CategoryEdit)
					r.Post("/{id}", admin.CategoryUpdate)
					r.Post("/{id}/toggle", admin.CategoryToggle)
					r.Post("/{id}/delete", admin.CategoryDelete)
					r.Get("/{id}/subcategories", admin.Subcategories)
				})

				r.Route("/products", func(r chi.Router) {
					r.Get("/", admin.ProductsList)
					r.Get("/new", admin.ProductNew)
					r.Post("/", admin.ProductCreate)
					r.Get("/{id}/edit", admin.ProductEdit)
					r.Post("/{id}", admin.ProductUpdate)
					r.Post("/{id}/delete", admin.ProductDelete)
				})

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", admin.OrdersList)
					r.Get("/{id}", admin.OrderDetail)
					r.Post("/{id}/status", admin.OrderStatus)
				})

				r.Route("/users", func(r chi.Router) {
					r.Get("/", admin.UsersList)
					r.Post("/{id}/role", admin.UserRole)
					r.Post("/{id}/reset-2fa", admin.UserResetTwoFA)
				})
			})
		})
	})

	return r
}

// staticHandler serves the embedded stylesheet and scripts.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("router: embedded static directory missing: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
