package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/drstein77/istore/internal/middleware"
	"github.com/drstein77/istore/internal/storage"
	"github.com/drstein77/istore/internal/storefront"
	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

const SessionCookie = "istore_session"

// Storage interface for session operations
type Storage interface {
	CreateSession() (string, *storefront.Session)
	Session(id string) (*storefront.Session, error)
	DeleteSession(id string)
	Len() int
	Ping(context.Context) bool
}

// Log interface for logging
type Log interface {
	Debug(string, ...zap.Field)
	Info(string, ...zap.Field)
	Warn(string, ...zap.Field)
	Error(string, ...zap.Field)
}

// BaseController struct for handling requests
type BaseController struct {
	storage Storage
	log     Log
}

type categoryRequest struct {
	Category string `json:"category"`
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewBaseController creates a new BaseController instance
func NewBaseController(storage Storage, log Log) *BaseController {
	return &BaseController{
		storage: storage,
		log:     log,
	}
}

// Route sets up the routes for the BaseController
func (h *BaseController) Route() *chi.Mux {
	r := chi.NewRouter()

	r.Get("/ping", h.ping)

	r.Route("/api/v0", func(r chi.Router) {
		r.Get("/storefront", h.getStorefront)
		r.Delete("/session", h.endSession)
		r.Get("/categories", h.getCategories)
		r.Put("/category", h.putCategory)

		r.Route("/cart/items", func(r chi.Router) {
			r.Post("/", h.addItem)
			r.Put("/{product_id}", h.setQuantity)
			r.Delete("/{product_id}", h.removeItem)
			r.Post("/{product_id}/increment", h.incrementItem)
			r.Post("/{product_id}/decrement", h.decrementItem)
		})

		r.With(middleware.ArchiveTypeMiddleware("catalog.csv", h.log)).Get("/catalog/export", h.exportCatalog)
	})

	return r
}

func (h *BaseController) ping(w http.ResponseWriter, r *http.Request) {
	if !h.storage.Ping(r.Context()) {
		respondError(w, http.StatusInternalServerError, "db_unavailable", "database is unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.storage.Len(),
	})
}

func (h *BaseController) getStorefront(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	respondJSON(w, http.StatusOK, sess.Snapshot())
}

// endSession drops the caller's session and cart and expires the cookie.
func (h *BaseController) endSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		h.storage.DeleteSession(c.Value)
		h.log.Debug("session ended")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *BaseController) getCategories(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	respondJSON(w, http.StatusOK, sess.Categories())
}

func (h *BaseController) putCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess := h.session(w, r)
	respondJSON(w, http.StatusOK, sess.SelectCategory(req.Category))
}

func (h *BaseController) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	sess := h.session(w, r)
	snap, err := sess.AddToCart(req.ProductID)
	if errors.Is(err, storefront.ErrUnknownProduct) {
		h.log.Warn("unknown product", zap.Int64("product_id", req.ProductID))
		respondError(w, http.StatusNotFound, "unknown_product", err.Error())
		return
	}

	h.log.Debug("item added", zap.Int64("product_id", req.ProductID), zap.Int("total_items", snap.TotalItemCount))
	respondJSON(w, http.StatusCreated, snap)
}

func (h *BaseController) setQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "quantity is required")
		return
	}

	sess := h.session(w, r)
	respondJSON(w, http.StatusOK, sess.SetQuantity(productID, *req.Quantity))
}

func (h *BaseController) removeItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	sess := h.session(w, r)
	respondJSON(w, http.StatusOK, sess.RemoveFromCart(productID))
}

func (h *BaseController) incrementItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	sess := h.session(w, r)
	respondJSON(w, http.StatusOK, sess.IncrementQuantity(productID))
}

func (h *BaseController) decrementItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	sess := h.session(w, r)
	respondJSON(w, http.StatusOK, sess.DecrementQuantity(productID))
}

// session resolves the caller's session from the cookie, starting a new one
// when the cookie is missing or its session has expired.
func (h *BaseController) session(w http.ResponseWriter, r *http.Request) *storefront.Session {
	if c, err := r.Cookie(SessionCookie); err == nil {
		sess, err := h.storage.Session(c.Value)
		if err == nil {
			return sess
		}
		if !errors.Is(err, storage.ErrNotFound) {
			h.log.Error("session lookup failed", zap.Error(err))
		}
	}

	id, sess := h.storage.CreateSession()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be an integer")
		return 0, false
	}
	return productID, true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
