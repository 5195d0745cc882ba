package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kartixk/sweet-shop-management-system/internal/checkout"
	"github.com/kartixk/sweet-shop-management-system/internal/inventory"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

// writeDomainError maps the typed domain failures onto HTTP statuses.
// Anything unrecognized is a persistence or internal failure.
func writeDomainError(w http.ResponseWriter, err error) {
	var ise *inventory.InsufficientStockError
	switch {
	case errors.As(err, &ise):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     ise.Error(),
			"itemId":    ise.ItemID,
			"requested": ise.Requested,
			"available": ise.Available,
		})
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, inventory.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "cart is empty")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
