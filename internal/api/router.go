/**
 * @description
 * This file sets up the HTTP router using the go-chi/chi router. It defines
 * the API routes, applies middleware for logging, CORS, sessions and rate
 * limiting, and maps the routes to their handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps bundles the handlers and middleware the router wires together.
// RateLimit may be nil when no limiter is configured.
type RouterDeps struct {
	Payments  *Handler
	Content   *ContentHandlers
	SEO       *SEOHandlers
	Auth      *AuthHandlers
	Session   func(http.Handler) http.Handler
	RateLimit func(http.Handler) http.Handler
}

// NewRouter creates a new Chi router and registers all routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))
	r.Use(deps.Session)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Public content and SEO surfaces
	r.Get("/feed.xml", deps.SEO.FeedHandler)
	r.Get("/sitemap.xml", deps.SEO.SitemapHandler)
	r.Get("/robots.txt", deps.SEO.RobotsHandler)
	r.Get("/api/posts", deps.Content.ListPostsHandler)
	r.Get("/api/posts/{slug}", deps.Content.GetPostHandler)

	// Session establishment
	r.Get("/api/auth/callback", deps.Auth.CallbackHandler)

	// Payment and billing routes; handlers enforce the session themselves
	// so that an unconfigured auth service degrades to 401, not 500.
	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit)
		}

		r.Post("/api/payments/create", deps.Payments.CreatePaymentHandler)
		r.Post("/api/payments/confirm", deps.Payments.ConfirmPaymentHandler)
		r.Post("/api/billing/issue", deps.Payments.IssueBillingKeyHandler)
		r.Post("/api/billing/pay", deps.Payments.PayBillingHandler)
		r.Post("/api/billing/subscribe", deps.Payments.SubscribeHandler)
		r.Get("/api/subscriptions/me", deps.Payments.SubscriptionStatusHandler)
	})

	return r
}
