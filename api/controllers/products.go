package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clickmarket/clickmarket-backend/api/responses"
	"github.com/clickmarket/clickmarket-backend/api/validators"
	"github.com/clickmarket/clickmarket-backend/internal/products"
	"github.com/clickmarket/clickmarket-backend/internal/users"
	"github.com/clickmarket/clickmarket-backend/pkg/enums"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
	"github.com/clickmarket/clickmarket-backend/pkg/logger"
)

type createProductPayload struct {
	SupplierID    *string  `json:"supplierId,omitempty" validate:"omitempty,uuid"`
	Name          string   `json:"name" validate:"required,min=1,max=200"`
	Description   *string  `json:"description,omitempty"`
	Type          string   `json:"type" validate:"required"`
	Unit          string   `json:"unit,omitempty"`
	PriceCents    int      `json:"priceCents" validate:"min=0"`
	StockQuantity int      `json:"stockQuantity" validate:"min=0"`
	Origin        *string  `json:"origin,omitempty"`
	Images        []string `json:"images,omitempty"`
}

type updateProductPayload struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description   *string  `json:"description,omitempty"`
	Unit          *string  `json:"unit,omitempty"`
	PriceCents    *int     `json:"priceCents,omitempty" validate:"omitempty,min=0"`
	StockQuantity *int     `json:"stockQuantity,omitempty" validate:"omitempty,min=0"`
	Origin        *string  `json:"origin,omitempty"`
	Images        []string `json:"images,omitempty"`
	IsActive      *bool    `json:"isActive,omitempty"`
}

// ProductList returns the active catalog, optionally filtered by type or a
// name search.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filters := products.ListFilters{OnlyActive: true}
		if rawType := strings.TrimSpace(r.URL.Query().Get("type")); rawType != "" {
			productType, err := enums.ParseProductType(rawType)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type"))
				return
			}
			filters.Type = &productType
		}
		filters.Search = strings.TrimSpace(r.URL.Query().Get("recherche"))

		dtos, err := svc.ListProducts(ctx, filters)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"produits": dtos})
	}
}

// ProductDetail returns a single catalog listing.
func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.GetProduct(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"produit": dto})
	}
}

// AdminProductCreate lists a new product, validating the supplier reference.
func AdminProductCreate(svc products.Service, userSvc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload createProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productType, err := enums.ParseProductType(payload.Type)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type"))
			return
		}

		input := products.CreateProductInput{
			Name:          payload.Name,
			Description:   payload.Description,
			Type:          productType,
			Unit:          payload.Unit,
			PriceCents:    payload.PriceCents,
			StockQuantity: payload.StockQuantity,
			Origin:        payload.Origin,
			Images:        payload.Images,
		}
		if payload.SupplierID != nil {
			supplierID, err := uuid.Parse(*payload.SupplierID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id"))
				return
			}
			if err := userSvc.EnsureSupplierExists(ctx, supplierID); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.SupplierID = &supplierID
		}

		dto, err := svc.CreateProduct(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"produit": dto})
	}
}

// AdminProductUpdate applies a partial update to a listing.
func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateProductPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.UpdateProduct(ctx, productID, products.UpdateProductInput{
			Name:          payload.Name,
			Description:   payload.Description,
			Unit:          payload.Unit,
			PriceCents:    payload.PriceCents,
			StockQuantity: payload.StockQuantity,
			Origin:        payload.Origin,
			Images:        payload.Images,
			IsActive:      payload.IsActive,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"produit": dto})
	}
}

// AdminProductDelete deactivates the listing; rows stay for order history.
func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeactivateProduct(ctx, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deactivated": true})
	}
}
