package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clickmarket/clickmarket-backend/api/middleware"
	"github.com/clickmarket/clickmarket-backend/api/responses"
	"github.com/clickmarket/clickmarket-backend/api/validators"
	"github.com/clickmarket/clickmarket-backend/internal/cart"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
	"github.com/clickmarket/clickmarket-backend/pkg/logger"
)

type addCartItemPayload struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantite  int    `json:"quantite" validate:"required,min=1"`
}

type updateCartItemPayload struct {
	ProductID *string `json:"productId,omitempty" validate:"omitempty,uuid"`
	Quantite  *int    `json:"quantite,omitempty" validate:"omitempty,min=1"`
}

type mergeCartPayload struct {
	SessionID *string `json:"sessionId,omitempty"`
}

// CartFetch returns the caller's cart, creating an empty one on first use.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, err := middleware.IdentityFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "cart owner missing"))
			return
		}

		dto, err := svc.GetOrCreate(ctx, owner)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"panier": dto})
	}
}

// CartAddItem puts a product in the cart.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, err := middleware.IdentityFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "cart owner missing"))
			return
		}

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		dto, err := svc.AddItem(ctx, owner, productID, payload.Quantite)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"panier": dto})
	}
}

// CartUpdateItem changes the quantity or the product of an existing line.
func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, err := middleware.IdentityFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "cart owner missing"))
			return
		}

		itemID, err := parseIDParam(r, "articleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := cart.UpdateItemInput{Quantity: payload.Quantite}
		if payload.ProductID != nil {
			productID, err := uuid.Parse(*payload.ProductID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			input.ProductID = &productID
		}

		dto, err := svc.UpdateItem(ctx, owner, itemID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"panier": dto})
	}
}

// CartRemoveItem removes a line from the cart.
func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, err := middleware.IdentityFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "cart owner missing"))
			return
		}

		itemID, err := parseIDParam(r, "articleId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.RemoveItem(ctx, owner, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"panier": dto})
	}
}

// CartClear empties the cart without deleting it.
func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		owner, err := middleware.IdentityFromContext(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "cart owner missing"))
			return
		}

		dto, err := svc.Clear(ctx, owner)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"panier": dto})
	}
}

// CartMerge folds the guest cart into the authenticated user's cart. The
// session id can come from the body, the X-Session-ID header, or the cookie.
func CartMerge(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload mergeCartPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		sessionID := ""
		if payload.SessionID != nil {
			sessionID = strings.TrimSpace(*payload.SessionID)
		}
		if sessionID == "" {
			sessionID = strings.TrimSpace(r.Header.Get("X-Session-ID"))
		}
		if sessionID == "" {
			if cookie, cookieErr := r.Cookie("cartSessionId"); cookieErr == nil {
				sessionID = strings.TrimSpace(cookie.Value)
			}
		}
		if sessionID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is required"))
			return
		}

		result, err := svc.MergeOnLogin(ctx, userID, sessionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"panier":            result.Cart,
			"sessionIdToDelete": result.SessionIDToDelete,
			"merged":            result.Merged,
		})
	}
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}

func requireUserID(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return userID, nil
}
