package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shynadja/lapm-store-backend/internal/product"
)

type ProductHandler struct {
	repo product.Repository
}

func NewProductHandler(repo product.Repository) *ProductHandler {
	return &ProductHandler{repo: repo}
}

// productPayload is the create body and, for PUT, the full replacement set
// of fields. There is no partial product patch. The string fields are
// pointers so an absent field is rejected while an explicit empty string
// passes.
type productPayload struct {
	Name        string  `json:"name"`
	TypeID      int     `json:"type_id"`
	Power       *string `json:"power"`
	Lifespan    *string `json:"lifespan"`
	Price       float64 `json:"price"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	Discount    float64 `json:"discount"`
}

func (p productPayload) validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.TypeID <= 0 {
		return errors.New("type_id is required")
	}
	if p.Power == nil {
		return errors.New("power is required")
	}
	if p.Lifespan == nil {
		return errors.New("lifespan is required")
	}
	if p.Description == nil {
		return errors.New("description is required")
	}
	if p.ImageURL == nil {
		return errors.New("image_url is required")
	}
	if p.Price < 0 {
		return errors.New("price must not be negative")
	}
	if p.Discount < 0 || p.Discount > 1 {
		return errors.New("discount must be a fraction between 0 and 1")
	}
	return nil
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	products, err := h.repo.List(ctx, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.repo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := req.toProduct("")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.Create(ctx, p); err != nil {
		if errors.Is(err, product.ErrInvalidType) {
			writeError(w, http.StatusBadRequest, "Invalid type_id")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var req productPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := req.toProduct(productID)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, product.ErrInvalidType):
			writeError(w, http.StatusBadRequest, "Invalid type_id")
		case errors.Is(err, product.ErrNotFound):
			writeError(w, http.StatusNotFound, "Product not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.Delete(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func (h *ProductHandler) ListProductTypes(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	types, err := h.repo.ListTypes(ctx, skip, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load product types")
		return
	}

	writeJSON(w, http.StatusOK, types)
}

func (h *ProductHandler) CreateProductType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	t, err := h.repo.CreateType(ctx, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create product type")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (p productPayload) toProduct(id string) *product.Product {
	return &product.Product{
		ID:          id,
		Name:        p.Name,
		TypeID:      p.TypeID,
		Power:       *p.Power,
		Lifespan:    *p.Lifespan,
		Price:       p.Price,
		Description: *p.Description,
		ImageURL:    *p.ImageURL,
		Discount:    p.Discount,
	}
}
