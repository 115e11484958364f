// Package router sets up all HTTP routes and middleware chains for the
// storefront and the back-office.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bimberek/internal/handlers"
	"bimberek/internal/metrics"
	"bimberek/internal/middleware"
	"bimberek/internal/session"
	"bimberek/web"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Sessions   *session.Store
	Collector  *metrics.Collector
	Gatherer   http.Handler
	Secure     bool
	Auth       *handlers.Auth
	OAuth      *handlers.OAuth
	Shop       *handlers.Shop
	Cart       *handlers.CartHandlers
	Checkout   *handlers.Checkout
	Blog       *handlers.Blog
	Comments   *handlers.Comments
	Profile    *handlers.Profile
	Moderation *handlers.Moderation
	Admin      *handlers.Admin
	Webhook    *handlers.Webhook
}

// New creates the configured chi router.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Metrics(d.Collector))

	// Health and metrics endpoints bypass sessions and CSRF.
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", d.Gatherer)

	// Embedded assets. URL paths mirror the embedded directory layout,
	// so no prefix stripping is needed.
	r.Handle("/static/*", http.FileServer(http.FS(web.StaticFS)))

	// The payment webhook authenticates with the gateway signature and
	// must stay outside the CSRF and session middleware.
	r.Post("/webhooks/stripe", d.Webhook.Handle)

	// Everything below carries a session and CSRF protection.
	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSession(d.Sessions))
		r.Use(middleware.CSRF(d.Secure))

		// Brute-force protection on credential and checkout endpoints.
		authLimiter := middleware.NewRateLimiter(10, time.Minute)
		checkoutLimiter := middleware.NewRateLimiter(20, time.Minute)

		// Public storefront.
		r.Get("/", d.Shop.Home)
		r.Get("/categories/{slug}", d.Shop.Category)
		r.Get("/products/{slug}", d.Shop.Product)
		r.Get("/search", d.Shop.Search)

		// Cart works for anonymous visitors.
		r.Get("/cart", d.Cart.View)
		r.Post("/cart/add", d.Cart.Add)
		r.Post("/cart/update", d.Cart.Update)
		r.Post("/cart/remove", d.Cart.Remove)

		// Blog.
		r.Get("/blog", d.Blog.List)
		r.Get("/blog/{slug}", d.Blog.Detail)

		// Accounts.
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Get("/login", d.Auth.LoginPage)
			r.Post("/login", d.Auth.LoginSubmit)
			r.Get("/register", d.Auth.RegisterPage)
			r.Post("/register", d.Auth.RegisterSubmit)
			r.Get("/auth/{provider}", d.OAuth.Redirect)
			r.Get("/auth/{provider}/callback", d.OAuth.Callback)
		})
		r.Post("/logout", d.Auth.Logout)

		// Signed-in customers.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/profile", d.Profile.Page)
			r.Post("/profile/theme", d.Profile.SetTheme)

			r.Group(func(r chi.Router) {
				r.Use(checkoutLimiter.Middleware)
				r.Get("/checkout", d.Checkout.Page)
				r.Post("/checkout", d.Checkout.Submit)
			})
			r.Get("/orders", d.Checkout.List)
			r.Get("/orders/{id}", d.Checkout.Detail)
			r.Post("/orders/{id}/pay", d.Checkout.Pay)
			r.Post("/orders/{id}/cancel", d.Checkout.Cancel)

			r.Get("/blog/new", d.Blog.NewPage)
			r.Post("/blog/new", d.Blog.NewSubmit)
			r.Post("/blog/{id}/comments", d.Blog.CommentSubmit)
			r.Post("/products/{id}/comments", d.Comments.CreateForProduct)
			r.Post("/comments/{id}/vote", d.Comments.Vote)
			r.Post("/comments/{id}/report", d.Comments.ReportComment)
			r.Post("/posts/{id}/report", d.Comments.ReportPost)

			// 2FA enrollment happens after login, before the staff gate.
			r.Get("/admin/2fa/setup", d.Auth.TwoFASetupPage)
			r.Post("/admin/2fa/setup", d.Auth.TwoFASetupSubmit)
			r.Get("/admin/2fa/verify", d.Auth.TwoFAVerifyPage)
			r.Post("/admin/2fa/verify", d.Auth.TwoFAVerifySubmit)
		})

		// Staff: moderators and admins, 2FA verified.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireRole("admin", "moderator"))
			r.Use(middleware.Require2FA)

			r.Get("/admin", d.Admin.Dashboard)

			r.Route("/moderation", func(r chi.Router) {
				r.Get("/", d.Moderation.CommentQueue)
				r.Get("/posts", d.Moderation.PostQueue)
				r.Post("/comments/{id}/approve", d.Moderation.ApproveComment)
				r.Post("/comments/{id}/reject", d.Moderation.RejectComment)
				r.Post("/posts/{id}/approve", d.Moderation.ApprovePost)
				r.Post("/posts/{id}/reject", d.Moderation.RejectPost)
				r.Get("/reports", d.Moderation.Reports)
				r.Get("/reports/{id}", d.Moderation.ReportDetail)
				r.Post("/reports/{id}/messages", d.Moderation.ReportMessage)
				r.Post("/reports/{id}/close", d.Moderation.ReportClose)
			})
		})

		// Shop management: admin only, 2FA verified.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireRole("admin"))
			r.Use(middleware.Require2FA)

			r.Route("/admin/products", func(r chi.Router) {
				r.Get("/", d.Admin.Products)
				r.Get("/new", d.Admin.ProductNew)
				r.Post("/", d.Admin.ProductCreate)
				r.Get("/{id}", d.Admin.ProductEdit)
				r.Post("/{id}", d.Admin.ProductUpdate)
				r.Post("/{id}/delete", d.Admin.ProductDelete)
			})

			r.Route("/admin/categories", func(r chi.Router) {
				r.Get("/", d.Admin.Categories)
				r.Post("/", d.Admin.CategoryCreate)
				r.Post("/{id}", d.Admin.CategoryUpdate)
				r.Post("/{id}/delete", d.Admin.CategoryDelete)
			})

			r.Route("/admin/themes", func(r chi.Router) {
				r.Get("/", d.Admin.Themes)
				r.Post("/", d.Admin.ThemeCreate)
				r.Post("/{id}", d.Admin.ThemeUpdate)
				r.Post("/{id}/delete", d.Admin.ThemeDelete)
			})

			r.Route("/admin/media", func(r chi.Router) {
				r.Get("/", d.Admin.MediaLibrary)
				r.Post("/", d.Admin.MediaUpload)
				r.Post("/{id}", d.Admin.MediaUpdate)
				r.Post("/{id}/delete", d.Admin.MediaDelete)
			})

			r.Route("/admin/sliders", func(r chi.Router) {
				r.Get("/", d.Admin.Sliders)
				r.Post("/", d.Admin.SliderCreate)
				r.Get("/{id}", d.Admin.SliderDetail)
				r.Post("/{id}", d.Admin.SliderRename)
				r.Post("/{id}/activate", d.Admin.SliderActivate)
				r.Post("/{id}/deactivate", d.Admin.SliderDeactivate)
				r.Post("/{id}/delete", d.Admin.SliderDelete)
				r.Post("/{id}/items", d.Admin.SliderItemAdd)
				r.Post("/{id}/items/{itemID}/delete", d.Admin.SliderItemRemove)
				r.Post("/{id}/reorder", d.Admin.SliderReorder)
			})

			r.Route("/admin/orders", func(r chi.Router) {
				r.Get("/", d.Admin.Orders)
				r.Post("/{id}/status", d.Admin.OrderSetStatus)
			})

			r.Route("/admin/users", func(r chi.Router) {
				r.Get("/", d.Admin.Users)
				r.Post("/{id}/role", d.Admin.UserSetRole)
				r.Post("/{id}/reset-2fa", d.Admin.UserReset2FA)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
