package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"dummyshop/storefront/internal/account"
	"dummyshop/storefront/internal/cart"
	"dummyshop/storefront/internal/catalog"
	"dummyshop/storefront/internal/config"
	"dummyshop/storefront/internal/domain"
	"dummyshop/storefront/internal/dummyjson"
)

type SessionView interface {
	User() (domain.User, bool)
}

type AccountService interface {
	Login(ctx context.Context, username, password string) (domain.User, error)
	Register(ctx context.Context, in account.RegisterInput) (domain.User, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	Logout(ctx context.Context) error
}

type CatalogService interface {
	FetchPage(ctx context.Context, f catalog.Filter, page int) (domain.ProductPage, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Product(ctx context.Context, id int) (domain.Product, error)
}

type CartService interface {
	Current(ctx context.Context) (domain.Cart, error)
	SetQuantity(ctx context.Context, cartID, productID, qty int) (domain.Cart, error)
	Increment(ctx context.Context, productID int) (domain.Cart, error)
	Decrement(ctx context.Context, productID int) (domain.Cart, error)
}

type Deps struct {
	Session  SessionView
	Accounts AccountService
	Catalog  CatalogService
	Feeds    *catalog.Feeds
	Cart     CartService
	Log      *zap.Logger
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewHandler(deps),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewHandler(deps Deps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(auditContext)
	r.Use(requestLogger(deps.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Get("/v1/info", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "storefront-gateway",
			"version": "0.1.0",
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/session", h.session)
		r.Post("/session/login", h.login)
		r.Post("/session/logout", h.logout)

		r.Post("/users", h.register)
		r.Get("/users/availability", h.usernameAvailability)

		r.Get("/categories", h.categories)
		r.Get("/products", h.products)
		r.Get("/products/{id}", h.product)
		r.Get("/feed", h.feed)
		r.Post("/feed/next", h.feedNext)
		r.Delete("/feed", h.forgetFeed)

		r.Get("/cart", h.cart)
		r.Put("/cart/{cartID}/items/{productID}", h.setCartQuantity)
		r.Post("/cart/items/{productID}/increment", h.incrementCartItem)
		r.Post("/cart/items/{productID}/decrement", h.decrementCartItem)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain and remote errors onto status codes. Remote
// details are logged, never echoed.
func (h *handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, account.ErrMissingFields),
		errors.Is(err, account.ErrPasswordMismatch),
		errors.Is(err, catalog.ErrInvalidFilter),
		errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username already taken")
	case errors.Is(err, cart.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "login required")
	case errors.Is(err, cart.ErrEmptyCart):
		writeError(w, http.StatusNotFound, "cart not found")
	case errors.Is(err, cart.ErrItemNotInCart):
		writeError(w, http.StatusNotFound, "product not in cart")
	case errors.Is(err, catalog.ErrNoMorePages):
		writeError(w, http.StatusConflict, "no more pages")
	case errors.Is(err, catalog.ErrFetchInProgress):
		writeError(w, http.StatusConflict, "page fetch already in progress")
	case errors.Is(err, catalog.ErrStaleResponse):
		writeError(w, http.StatusConflict, "filter changed while loading")
	case errors.Is(err, dummyjson.ErrFetch), errors.Is(err, dummyjson.ErrInvalidResponse):
		h.logFor(r).Warn("upstream request failed", zap.Error(err), zap.Int("upstream_status", dummyjson.StatusCode(err)))
		writeError(w, http.StatusBadGateway, "upstream request failed")
	default:
		h.logFor(r).Error(fallback, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *handlers) logFor(r *http.Request) *zap.Logger {
	return h.deps.Log.With(zap.String("request_id", requestIDFromContext(r.Context())))
}
