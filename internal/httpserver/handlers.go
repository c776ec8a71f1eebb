package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"dummyshop/storefront/internal/account"
	"dummyshop/storefront/internal/catalog"
	"dummyshop/storefront/internal/domain"
	"dummyshop/storefront/internal/dummyjson"
)

type handlers struct {
	deps Deps
}

type sessionResponse struct {
	State string       `json:"state"`
	User  *domain.User `json:"user,omitempty"`
}

func (h *handlers) session(w http.ResponseWriter, _ *http.Request) {
	if h.deps.Session == nil {
		writeError(w, http.StatusServiceUnavailable, "session unavailable")
		return
	}
	if u, ok := h.deps.Session.User(); ok {
		writeJSON(w, http.StatusOK, sessionResponse{State: "authenticated", User: &u})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: "anonymous"})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	if h.deps.Accounts == nil {
		writeError(w, http.StatusServiceUnavailable, "account service unavailable")
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	u, err := h.deps.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if status := dummyjson.StatusCode(err); status == http.StatusBadRequest || status == http.StatusUnauthorized {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.writeServiceError(w, r, err, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{State: "authenticated", User: &u})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if h.deps.Accounts == nil {
		writeError(w, http.StatusServiceUnavailable, "account service unavailable")
		return
	}
	if err := h.deps.Accounts.Logout(r.Context()); err != nil {
		h.writeServiceError(w, r, err, "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	if h.deps.Accounts == nil {
		writeError(w, http.StatusServiceUnavailable, "account service unavailable")
		return
	}
	var req account.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.deps.Accounts.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{State: "authenticated", User: &u})
}

func (h *handlers) usernameAvailability(w http.ResponseWriter, r *http.Request) {
	if h.deps.Accounts == nil {
		writeError(w, http.StatusServiceUnavailable, "account service unavailable")
		return
	}
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	ok, err := h.deps.Accounts.UsernameAvailable(r.Context(), username)
	if err != nil {
		h.writeServiceError(w, r, err, "username check failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": username, "available": ok})
}

func (h *handlers) categories(w http.ResponseWriter, r *http.Request) {
	if h.deps.Catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	cats, err := h.deps.Catalog.Categories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "list categories failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cats})
}

type pageResponse struct {
	Filter   catalog.Filter          `json:"filter"`
	Page     int                     `json:"page"`
	Products []domain.ProductSummary `json:"products"`
	Total    int                     `json:"total"`
	Skip     int                     `json:"skip"`
	Limit    int                     `json:"limit"`
	HasMore  bool                    `json:"has_more"`
}

func (h *handlers) products(w http.ResponseWriter, r *http.Request) {
	if h.deps.Catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	f := filterFromQuery(r)
	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = n
	}

	p, err := h.deps.Catalog.FetchPage(r.Context(), f, page)
	if err != nil {
		h.writeServiceError(w, r, err, "list products failed")
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{
		Filter:   f,
		Page:     page,
		Products: p.Products,
		Total:    p.Total,
		Skip:     p.Skip,
		Limit:    p.Limit,
		HasMore:  catalog.HasMore([]domain.ProductPage{p}),
	})
}

func (h *handlers) product(w http.ResponseWriter, r *http.Request) {
	if h.deps.Catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.deps.Catalog.Product(r.Context(), id)
	if err != nil {
		if dummyjson.StatusCode(err) == http.StatusNotFound {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.writeServiceError(w, r, err, "get product failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type feedResponse struct {
	Filter     catalog.Filter          `json:"filter"`
	Generation uint64                  `json:"generation"`
	Pages      int                     `json:"pages"`
	Products   []domain.ProductSummary `json:"products"`
	HasMore    bool                    `json:"has_more"`
}

func newFeedResponse(snap catalog.Snapshot) feedResponse {
	return feedResponse{
		Filter:     snap.Filter,
		Generation: snap.Generation,
		Pages:      len(snap.Pages),
		Products:   snap.Products(),
		HasMore:    snap.HasMore,
	}
}

func (h *handlers) feed(w http.ResponseWriter, r *http.Request) {
	if h.deps.Feeds == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	_, snap := h.deps.Feeds.For(clientID(r), filterFromQuery(r))
	writeJSON(w, http.StatusOK, newFeedResponse(snap))
}

func (h *handlers) feedNext(w http.ResponseWriter, r *http.Request) {
	if h.deps.Feeds == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	f := filterFromQuery(r)
	fd, _ := h.deps.Feeds.For(clientID(r), f)
	snap, err := fd.NextFor(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, err, "load next page failed")
		return
	}
	writeJSON(w, http.StatusOK, newFeedResponse(snap))
}

func (h *handlers) forgetFeed(w http.ResponseWriter, r *http.Request) {
	if h.deps.Feeds == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}
	h.deps.Feeds.Forget(clientID(r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) cart(w http.ResponseWriter, r *http.Request) {
	if h.deps.Cart == nil {
		writeError(w, http.StatusServiceUnavailable, "cart unavailable")
		return
	}
	c, err := h.deps.Cart.Current(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "get cart failed")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handlers) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	if h.deps.Cart == nil {
		writeError(w, http.StatusServiceUnavailable, "cart unavailable")
		return
	}
	cartID, ok := pathID(w, r, "cartID")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	c, err := h.deps.Cart.SetQuantity(r.Context(), cartID, productID, *req.Quantity)
	if err != nil {
		h.writeServiceError(w, r, err, "update cart failed")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handlers) incrementCartItem(w http.ResponseWriter, r *http.Request) {
	h.adjustCartItem(w, r, true)
}

func (h *handlers) decrementCartItem(w http.ResponseWriter, r *http.Request) {
	h.adjustCartItem(w, r, false)
}

func (h *handlers) adjustCartItem(w http.ResponseWriter, r *http.Request, up bool) {
	if h.deps.Cart == nil {
		writeError(w, http.StatusServiceUnavailable, "cart unavailable")
		return
	}
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	adjust := h.deps.Cart.Decrement
	if up {
		adjust = h.deps.Cart.Increment
	}
	c, err := adjust(r.Context(), productID)
	if err != nil {
		h.writeServiceError(w, r, err, "update cart failed")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func filterFromQuery(r *http.Request) catalog.Filter {
	q := r.URL.Query()
	return catalog.NewFilter(q.Get("category"), q.Get("sortOrder"), q.Get("query"))
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
