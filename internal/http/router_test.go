package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kartixk/sweet-shop-management-system/internal/cart"
	"github.com/kartixk/sweet-shop-management-system/internal/inventory"
	"github.com/kartixk/sweet-shop-management-system/internal/sales"
)

// fakeInventoryRepo implements inventory.Repository in memory.
type fakeInventoryRepo struct {
	items map[string]inventory.Item
}

func newFakeInventoryRepo(items ...inventory.Item) *fakeInventoryRepo {
	m := map[string]inventory.Item{}
	for _, it := range items {
		m[it.ID] = it
	}
	return &fakeInventoryRepo{items: m}
}

func (f *fakeInventoryRepo) Get(ctx context.Context, itemID string) (inventory.Item, error) {
	if it, ok := f.items[itemID]; ok {
		return it, nil
	}
	return inventory.Item{}, inventory.ErrNotFound
}

func (f *fakeInventoryRepo) GetByName(ctx context.Context, name string) (inventory.Item, error) {
	canonical := inventory.CanonicalName(name)
	for _, it := range f.items {
		if it.Name == canonical {
			return it, nil
		}
	}
	return inventory.Item{}, inventory.ErrNotFound
}

func (f *fakeInventoryRepo) List(ctx context.Context) ([]inventory.Item, error) {
	var out []inventory.Item
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeInventoryRepo) UpsertByName(ctx context.Context, attrs inventory.ItemAttrs) (inventory.Item, error) {
	name := inventory.CanonicalName(attrs.Name)
	if name == "" || attrs.Price < 0 || attrs.Quantity < 0 {
		return inventory.Item{}, inventory.ErrValidation
	}
	for id, it := range f.items {
		if it.Name == name {
			it.Category = attrs.Category
			it.Price = attrs.Price
			it.Available = attrs.Quantity
			f.items[id] = it
			return it, nil
		}
	}
	it := inventory.Item{ID: "item-" + strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Name: name, Category: attrs.Category, Price: attrs.Price, Available: attrs.Quantity, ImageURL: attrs.ImageURL}
	f.items[it.ID] = it
	return it, nil
}

func (f *fakeInventoryRepo) Update(ctx context.Context, itemID string, patch inventory.ItemPatch) (inventory.Item, error) {
	it, ok := f.items[itemID]
	if !ok {
		return inventory.Item{}, inventory.ErrNotFound
	}
	if patch.Quantity != nil {
		it.Available = *patch.Quantity
	}
	if patch.Price != nil {
		it.Price = *patch.Price
	}
	f.items[itemID] = it
	return it, nil
}

func (f *fakeInventoryRepo) Delete(ctx context.Context, itemID string) error {
	if _, ok := f.items[itemID]; !ok {
		return inventory.ErrNotFound
	}
	delete(f.items, itemID)
	return nil
}

func (f *fakeInventoryRepo) Restock(ctx context.Context, itemID string, amount int) (inventory.Item, error) {
	if amount <= 0 {
		return inventory.Item{}, inventory.ErrValidation
	}
	it, ok := f.items[itemID]
	if !ok {
		return inventory.Item{}, inventory.ErrNotFound
	}
	it.Available += amount
	f.items[itemID] = it
	return it, nil
}

func (f *fakeInventoryRepo) Reserve(ctx context.Context, lines []inventory.Line) (inventory.ReserveResult, error) {
	return inventory.ReserveResult{}, nil
}

func (f *fakeInventoryRepo) ReserveOne(ctx context.Context, itemID string, quantity int) (inventory.ReservedLine, error) {
	return inventory.ReservedLine{}, nil
}

func (f *fakeInventoryRepo) Release(ctx context.Context, lines []inventory.Line) error {
	return nil
}

// fakeCartRepo keeps carts in memory.
type fakeCartRepo struct {
	carts map[string]*cart.Cart
}

func (r *fakeCartRepo) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	if c, ok := r.carts[userID]; ok {
		return c, nil
	}
	return nil, nil
}

func (r *fakeCartRepo) UpsertCart(ctx context.Context, c *cart.Cart) error {
	r.carts[c.UserID] = c
	return nil
}

func (r *fakeCartRepo) ClearCart(ctx context.Context, userID string) error {
	delete(r.carts, userID)
	return nil
}

type fakeEngine struct {
	sale *sales.Sale
	err  error
}

func (f *fakeEngine) ConfirmCart(ctx context.Context, userID string) (*sales.Sale, error) {
	return f.sale, f.err
}

func (f *fakeEngine) BuyNow(ctx context.Context, userID, itemID string, quantity int) (*sales.Sale, error) {
	return f.sale, f.err
}

type fakeSalesRepo struct {
	sales []sales.Sale
}

func (f *fakeSalesRepo) Record(ctx context.Context, s *sales.Sale) error { return nil }

func (f *fakeSalesRepo) Query(ctx context.Context, filter sales.Filter) ([]sales.Sale, error) {
	return f.sales, nil
}

func (f *fakeSalesRepo) Summarize(ctx context.Context, filter sales.Filter) (sales.Summary, error) {
	total := 0.0
	for _, s := range f.sales {
		total += s.OrderTotal
	}
	return sales.Summary{Count: len(f.sales), TotalAmount: total}, nil
}

func newTestRouter(invRepo inventory.Repository, engine CheckoutEngine, salesRepo sales.Repository) http.Handler {
	if invRepo == nil {
		invRepo = newFakeInventoryRepo()
	}
	if engine == nil {
		engine = &fakeEngine{}
	}
	if salesRepo == nil {
		salesRepo = &fakeSalesRepo{}
	}
	store := cart.NewStore(&fakeCartRepo{carts: map[string]*cart.Cart{}}, invRepo)
	return NewRouter(
		NewInventoryHandler(invRepo),
		NewCartHandler(store, engine),
		NewReportHandler(salesRepo, time.UTC),
	)
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var asUser = map[string]string{HeaderUserID: "user-1"}
var asAdmin = map[string]string{HeaderUserID: "admin-1", HeaderUserRole: "ADMIN"}

func TestHealth(t *testing.T) {
	rec := doRequest(t, newTestRouter(nil, nil, nil), http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", strings.TrimSpace(rec.Body.String()))
}

func TestListSweetsIsPublic(t *testing.T) {
	repo := newFakeInventoryRepo(inventory.Item{ID: "item-1", Name: "Ladoo", Price: 10, Available: 20})
	rec := doRequest(t, newTestRouter(repo, nil, nil), http.MethodGet, "/api/sweets", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []inventory.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
}

func TestUpsertRequiresAdmin(t *testing.T) {
	router := newTestRouter(nil, nil, nil)
	body := inventory.ItemAttrs{Name: "Ladoo", Category: "c", Price: 10, Quantity: 20, ImageURL: "u"}

	rec := doRequest(t, router, http.MethodPost, "/api/sweets", body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/sweets", body, asUser)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/sweets", body, asAdmin)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestUpsertValidationError(t *testing.T) {
	body := inventory.ItemAttrs{Name: "Ladoo", Category: "c", Price: -1, Quantity: 20, ImageURL: "u"}
	rec := doRequest(t, newTestRouter(nil, nil, nil), http.MethodPost, "/api/sweets", body, asAdmin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRestockMissingItem(t *testing.T) {
	rec := doRequest(t, newTestRouter(nil, nil, nil), http.MethodPost, "/api/sweets/ghost/restock",
		map[string]int{"quantity": 5}, asAdmin)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartRequiresUser(t *testing.T) {
	rec := doRequest(t, newTestRouter(nil, nil, nil), http.MethodGet, "/api/cart", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartSetLine(t *testing.T) {
	repo := newFakeInventoryRepo(inventory.Item{ID: "item-1", Name: "Ladoo", Price: 10, Available: 20})
	router := newTestRouter(repo, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/cart/items",
		map[string]any{"itemId": "item-1", "quantity": 5}, asUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var c cart.Cart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	require.Equal(t, 50.0, c.Total)
}

func TestCartSetLineInsufficientStock(t *testing.T) {
	repo := newFakeInventoryRepo(inventory.Item{ID: "item-1", Name: "Ladoo", Price: 10, Available: 3})
	router := newTestRouter(repo, nil, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/cart/items",
		map[string]any{"itemId": "item-1", "quantity": 5}, asUser)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.EqualValues(t, 3, body["available"])
	require.EqualValues(t, 5, body["requested"])
}

func TestConfirmMapsInsufficientStock(t *testing.T) {
	engine := &fakeEngine{err: &inventory.InsufficientStockError{
		ItemID: "item-1", Name: "Ladoo", Requested: 5, Available: 2,
	}}
	rec := doRequest(t, newTestRouter(nil, engine, nil), http.MethodPost, "/api/cart/confirm", nil, asUser)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Ladoo")
}

func TestConfirmReturnsSale(t *testing.T) {
	engine := &fakeEngine{sale: &sales.Sale{ID: "sale-1", UserID: "user-1", OrderTotal: 50}}
	rec := doRequest(t, newTestRouter(nil, engine, nil), http.MethodPost, "/api/cart/confirm", nil, asUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var s sales.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	require.Equal(t, "sale-1", s.ID)
}

func TestPurchaseDefaultsQuantity(t *testing.T) {
	engine := &fakeEngine{sale: &sales.Sale{ID: "sale-1", OrderTotal: 10}}
	rec := doRequest(t, newTestRouter(nil, engine, nil), http.MethodPost, "/api/sweets/item-1/purchase", nil, asUser)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReportRequiresAdmin(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/reports/sales?type=day", nil, asUser)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/reports/sales?type=day", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReportSummary(t *testing.T) {
	repo := &fakeSalesRepo{sales: []sales.Sale{
		{ID: "sale-1", OrderTotal: 50},
		{ID: "sale-2", OrderTotal: 30},
	}}
	rec := doRequest(t, newTestRouter(nil, nil, repo), http.MethodGet, "/api/reports/sales?type=all", nil, asAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		Count       int     `json:"count"`
		TotalAmount float64 `json:"totalAmount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, 2, report.Count)
	require.Equal(t, 80.0, report.TotalAmount)
}

func TestReportUnknownPeriod(t *testing.T) {
	rec := doRequest(t, newTestRouter(nil, nil, nil), http.MethodGet, "/api/reports/sales?type=fortnight", nil, asAdmin)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
