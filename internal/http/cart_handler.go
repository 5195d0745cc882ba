package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kartixk/sweet-shop-management-system/internal/cart"
	"github.com/kartixk/sweet-shop-management-system/internal/sales"
)

// CheckoutEngine is implemented by checkout.Engine.
type CheckoutEngine interface {
	ConfirmCart(ctx context.Context, userID string) (*sales.Sale, error)
	BuyNow(ctx context.Context, userID, itemID string, quantity int) (*sales.Sale, error)
}

type CartHandler struct {
	store  *cart.Store
	engine CheckoutEngine
}

func NewCartHandler(store *cart.Store, engine CheckoutEngine) *CartHandler {
	return &CartHandler{store: store, engine: engine}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Get(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type setLineRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

func (h *CartHandler) SetLine(w http.ResponseWriter, r *http.Request) {
	var req setLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "missing itemId")
		return
	}

	c, err := h.store.SetLine(r.Context(), GetUserID(r.Context()), req.ItemID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type adjustLineRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) AdjustLine(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	var req adjustLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	c, err := h.store.AdjustLine(r.Context(), GetUserID(r.Context()), itemID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	c, err := h.store.RemoveLine(r.Context(), GetUserID(r.Context()), itemID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	sale, err := h.engine.ConfirmCart(r.Context(), GetUserID(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

type buyNowRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

func (h *CartHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	var req buyNowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "missing itemId")
		return
	}

	sale, err := h.engine.BuyNow(r.Context(), GetUserID(r.Context()), req.ItemID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

type purchaseRequest struct {
	Quantity int `json:"quantity"`
}

// Purchase is the item-page fast path: buy-now addressed by URL.
func (h *CartHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	req := purchaseRequest{Quantity: 1}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	}

	sale, err := h.engine.BuyNow(r.Context(), GetUserID(r.Context()), itemID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}
