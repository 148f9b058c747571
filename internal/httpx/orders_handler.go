package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-order-catalog/internal/apperr"
	"github.com/ariefcatur/go-order-catalog/internal/audit"
	"github.com/ariefcatur/go-order-catalog/internal/orders"
)

type CreateOrderReq struct {
	ProductID int64      `json:"product_id" validate:"required,gt=0"`
	Quantity  int        `json:"quantity" validate:"required,gt=0,max=2147483647"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type UpdateStatusReq struct {
	Status string `json:"status" validate:"required"`
}

// EventHistory is satisfied by audit.Repo.
type EventHistory interface {
	History(ctx context.Context, orderID int64) ([]audit.Entry, error)
}

type OrdersHandler struct {
	Manager *orders.Manager
	// History serves GET /orders/{id}/events when set.
	History EventHistory
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}", h.updateStatus)
		r.Delete("/{id}", h.deleteOrder)
		if h.History != nil {
			r.Get("/{id}/events", h.orderEvents)
		}
	})
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var createdAt time.Time
	if req.CreatedAt != nil {
		createdAt = *req.CreatedAt
	}
	o, err := h.Manager.PlaceOrder(r.Context(), req.ProductID, req.Quantity, createdAt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Order created successfully", map[string]any{"order": o})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f := orders.ListFilter{Limit: page.Limit, Offset: page.Offset}
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, apperr.New(apperr.KindInvalidInput, "invalid product_id"))
			return
		}
		f.ProductID = id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, err := orders.ParseStatus(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Status = s
	}

	list, total, err := h.Manager.ListOrders(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeOK(w, http.StatusOK, "Orders fetched successfully", map[string]any{
		"orders":     list,
		"pagination": Pagination{TotalCount: total, Limit: page.Limit, Offset: page.Offset},
	})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Manager.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Order fetched successfully", map[string]any{"order": o})
}

// updateStatus takes the new status from ?status_update= when present and
// from a {"status": ...} body otherwise.
func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := r.URL.Query().Get("status_update")
	if status == "" {
		var req UpdateStatusReq
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		status = req.Status
	}
	o, err := h.Manager.UpdateStatus(r.Context(), id, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Order status updated successfully", map[string]any{
		"order_id":   o.ID,
		"new_status": o.Status,
		"order":      o,
	})
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Manager.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Order deleted successfully", nil)
}

// orderEvents lists the audit trail of an order. Deleted orders keep theirs.
func (h *OrdersHandler) orderEvents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	events, err := h.History.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Entry{}
	}
	writeOK(w, http.StatusOK, "Order events fetched successfully", map[string]any{
		"order_id": id,
		"events":   events,
	})
}
