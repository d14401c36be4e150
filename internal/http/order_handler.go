package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shynadja/lapm-store-backend/internal/order"
)

type OrderHandler struct {
	repo order.Repository
}

func NewOrderHandler(repo order.Repository) *OrderHandler {
	return &OrderHandler{repo: repo}
}

type orderItemPayload struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

func (p orderItemPayload) validate() error {
	if p.ProductID == "" {
		return errors.New("product_id is required")
	}
	if p.Quantity <= 0 {
		return errors.New("quantity must be a positive integer")
	}
	if p.Price < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}

type createOrderRequest struct {
	UserID string `json:"user_id"`
	// Pointer so an absent items field is rejected while an explicit
	// empty list still creates an order with no items.
	Items          *[]orderItemPayload `json:"items"`
	DeliveryMethod string              `json:"delivery_method"`
	PaymentMethod  string              `json:"payment_method"`
}

type updateOrderRequest struct {
	// Pointers distinguish omitted fields from present-but-empty ones:
	// an explicit empty items list clears the order.
	Status *string             `json:"status"`
	Items  *[]orderItemPayload `json:"items"`
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.repo.List(ctx, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Items == nil {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}
	for i, it := range *req.Items {
		if err := it.validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("items[%d]: %v", i, err))
			return
		}
	}

	delivery := order.DeliveryPickup
	if req.DeliveryMethod != "" {
		var err error
		if delivery, err = order.ParseDeliveryMethod(req.DeliveryMethod); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	payment := order.PaymentCashOnDelivery
	if req.PaymentMethod != "" {
		var err error
		if payment, err = order.ParsePaymentMethod(req.PaymentMethod); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	o := &order.Order{
		UserID:         req.UserID,
		Status:         order.StatusCreated,
		DeliveryMethod: delivery,
		PaymentMethod:  payment,
		CreatedAt:      time.Now().UTC(),
		Items:          toItems(*req.Items),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.Create(ctx, o); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var upd order.Update
	if req.Status != nil {
		st, err := order.ParseStatus(*req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd.Status = &st
	}
	if req.Items != nil {
		for i, it := range *req.Items {
			if err := it.validate(); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("items[%d]: %v", i, err))
				return
			}
		}
		items := toItems(*req.Items)
		upd.Items = &items
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.repo.Update(ctx, orderID, upd)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func toItems(payload []orderItemPayload) []order.Item {
	items := make([]order.Item, 0, len(payload))
	for _, p := range payload {
		items = append(items, order.Item{
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			Price:     p.Price,
		})
	}
	return items
}
