package controllers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/drstein77/istore/internal/logger"
	"github.com/drstein77/istore/internal/models"
	"github.com/drstein77/istore/internal/storage"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	router *chi.Mux
	cookie *http.Cookie
}

func setupClient(t *testing.T) *client {
	store := storage.NewMemoryStorage(context.Background(), time.Hour, nil, logger.Logger{})
	t.Cleanup(store.Close)

	return &client{
		t:      t,
		router: NewBaseController(store, logger.Logger{}).Route(),
	}
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) snapshot(method, path, body string, wantStatus int) models.Snapshot {
	rec := c.do(method, path, body)
	require.Equal(c.t, wantStatus, rec.Code, rec.Body.String())

	var snap models.Snapshot
	require.NoError(c.t, json.NewDecoder(rec.Body).Decode(&snap))
	return snap
}

func TestGetStorefront_NewSession(t *testing.T) {
	c := setupClient(t)

	snap := c.snapshot(http.MethodGet, "/api/v0/storefront", "", http.StatusOK)

	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)
	assert.Equal(t, "all", snap.Category)
	assert.Len(t, snap.VisibleProducts, 3)
	assert.Empty(t, snap.CartLineItems)
	assert.Equal(t, 0, snap.TotalItemCount)
}

func TestCart_FullFlow(t *testing.T) {
	c := setupClient(t)

	snap := c.snapshot(http.MethodPost, "/api/v0/cart/items", `{"product_id": 1}`, http.StatusCreated)
	assert.Equal(t, 1, snap.TotalItemCount)

	c.snapshot(http.MethodPost, "/api/v0/cart/items", `{"product_id": 1}`, http.StatusCreated)
	snap = c.snapshot(http.MethodPost, "/api/v0/cart/items", `{"product_id": 3}`, http.StatusCreated)
	require.Len(t, snap.CartLineItems, 2)
	assert.Equal(t, int64(2797), snap.TotalPrice)

	snap = c.snapshot(http.MethodPost, "/api/v0/cart/items/3/increment", "", http.StatusOK)
	assert.Equal(t, 4, snap.TotalItemCount)

	snap = c.snapshot(http.MethodPost, "/api/v0/cart/items/1/decrement", "", http.StatusOK)
	assert.Equal(t, 1, snap.CartLineItems[0].Quantity)

	snap = c.snapshot(http.MethodPut, "/api/v0/cart/items/3", `{"quantity": 5}`, http.StatusOK)
	assert.Equal(t, int64(999+5*799), snap.TotalPrice)

	snap = c.snapshot(http.MethodPut, "/api/v0/cart/items/3", `{"quantity": 0}`, http.StatusOK)
	require.Len(t, snap.CartLineItems, 1)
	assert.Equal(t, int64(1), snap.CartLineItems[0].ID)

	snap = c.snapshot(http.MethodDelete, "/api/v0/cart/items/1", "", http.StatusOK)
	assert.Empty(t, snap.CartLineItems)
	assert.Equal(t, int64(0), snap.TotalPrice)
}

func TestCart_SessionsDoNotShareCarts(t *testing.T) {
	alice := setupClient(t)
	alice.snapshot(http.MethodPost, "/api/v0/cart/items", `{"product_id": 2}`, http.StatusCreated)

	bob := &client{t: t, router: alice.router}
	snap := bob.snapshot(http.MethodGet, "/api/v0/storefront", "", http.StatusOK)

	assert.Empty(t, snap.CartLineItems)
	assert.NotEqual(t, alice.cookie.Value, bob.cookie.Value)
}

func TestCart_ExpiredCookieStartsNewSession(t *testing.T) {
	c := setupClient(t)
	c.cookie = &http.Cookie{Name: SessionCookie, Value: "stale"}

	snap := c.snapshot(http.MethodGet, "/api/v0/storefront", "", http.StatusOK)

	assert.Empty(t, snap.CartLineItems)
	assert.NotEqual(t, "stale", c.cookie.Value)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	c := setupClient(t)

	rec := c.do(http.MethodPost, "/api/v0/cart/items", `{"product_id": 77}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "unknown_product", resp.Code)
}

func TestAddItem_InvalidBody(t *testing.T) {
	c := setupClient(t)

	rec := c.do(http.MethodPost, "/api/v0/cart/items", `{"product_id":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetQuantity_Validation(t *testing.T) {
	c := setupClient(t)

	rec := c.do(http.MethodPut, "/api/v0/cart/items/abc", `{"quantity": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPut, "/api/v0/cart/items/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveItem_UnknownIDIsNoop(t *testing.T) {
	c := setupClient(t)
	before := c.snapshot(http.MethodPost, "/api/v0/cart/items", `{"product_id": 2}`, http.StatusCreated)

	after := c.snapshot(http.MethodDelete, "/api/v0/cart/items/99", "", http.StatusOK)

	assert.Equal(t, before.CartLineItems, after.CartLineItems)
}

func TestCategory(t *testing.T) {
	c := setupClient(t)

	snap := c.snapshot(http.MethodPut, "/api/v0/category", `{"category": "iphone"}`, http.StatusOK)
	require.Len(t, snap.VisibleProducts, 1)
	assert.Equal(t, "iPhone 15 Pro", snap.VisibleProducts[0].Name)

	rec := c.do(http.MethodGet, "/api/v0/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list models.CategoryList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, []string{"all", "iphone", "mac", "ipad"}, list.Categories)
	assert.Equal(t, "iphone", list.Selected)

	snap = c.snapshot(http.MethodPut, "/api/v0/category", `{"category": "tv"}`, http.StatusOK)
	assert.Empty(t, snap.VisibleProducts)
}

func TestExportCatalog_Zip(t *testing.T) {
	c := setupClient(t)

	rec := c.do(http.MethodGet, "/api/v0/catalog/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	body := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	records, err := csv.NewReader(rc).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, []string{"1", "iPhone 15 Pro", "iPhone", "999"}, records[1][:4])
}

func TestPing(t *testing.T) {
	c := setupClient(t)
	c.do(http.MethodGet, "/api/v0/storefront", "")

	rec := c.do(http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Sessions)
}

func TestEndSession_DropsCart(t *testing.T) {
	store := storage.NewMemoryStorage(context.Background(), time.Hour, nil, logger.Logger{})
	t.Cleanup(store.Close)
	c := &client{t: t, router: NewBaseController(store, logger.Logger{}).Route()}

	c.snapshot(http.MethodPost, "/api/v0/cart/items", `{"product_id": 1}`, http.StatusCreated)
	require.Equal(t, 1, store.Len())
	ended := *c.cookie

	rec := c.do(http.MethodDelete, "/api/v0/session", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, store.Len())
	require.NotNil(t, c.cookie)
	assert.Empty(t, c.cookie.Value)

	// the old id no longer resolves to the filled cart
	c.cookie = &ended
	snap := c.snapshot(http.MethodGet, "/api/v0/storefront", "", http.StatusOK)
	assert.Empty(t, snap.CartLineItems)
	assert.NotEqual(t, ended.Value, c.cookie.Value)
}

func TestEndSession_WithoutCookie(t *testing.T) {
	c := setupClient(t)

	rec := c.do(http.MethodDelete, "/api/v0/session", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type deadStorage struct {
	*storage.MemoryStorage
}

func (deadStorage) Ping(context.Context) bool { return false }

func TestPing_DatabaseDown(t *testing.T) {
	store := storage.NewMemoryStorage(context.Background(), time.Hour, nil, logger.Logger{})
	t.Cleanup(store.Close)
	router := NewBaseController(deadStorage{store}, logger.Logger{}).Route()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
