package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-order-catalog/internal/catalog"
)

type ProductReq struct {
	SKU           string     `json:"sku" validate:"required,max=64"`
	Name          string     `json:"product_name" validate:"required,max=255"`
	Price         float64    `json:"price" validate:"gt=0"`
	StockQuantity int        `json:"stock_quantity" validate:"gte=0,max=2147483647"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

func (req ProductReq) input() catalog.ProductInput {
	in := catalog.ProductInput{
		SKU:           req.SKU,
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}
	if req.CreatedAt != nil {
		in.CreatedAt = *req.CreatedAt
	}
	return in
}

type ProductsHandler struct {
	Service *catalog.Service
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Post("/", h.createProduct)
		r.Get("/", h.listProducts)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
}

func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Service.CreateProduct(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Product created successfully", map[string]any{"product": p})
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := queryPage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ps, total, err := h.Service.ListProducts(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ps == nil {
		ps = []catalog.Product{}
	}
	writeOK(w, http.StatusOK, "Products fetched successfully", map[string]any{
		"products":   ps,
		"pagination": Pagination{TotalCount: total, Limit: page.Limit, Offset: page.Offset},
	})
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Service.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Product fetched successfully", map[string]any{"product": p})
}

func (h *ProductsHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req ProductReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.Service.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Product updated successfully", map[string]any{"product": p})
}

func (h *ProductsHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteProduct(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Product deleted successfully", nil)
}
