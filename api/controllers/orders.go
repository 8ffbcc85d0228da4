package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clickmarket/clickmarket-backend/api/middleware"
	"github.com/clickmarket/clickmarket-backend/api/responses"
	"github.com/clickmarket/clickmarket-backend/api/validators"
	"github.com/clickmarket/clickmarket-backend/internal/orders"
	"github.com/clickmarket/clickmarket-backend/pkg/enums"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
	"github.com/clickmarket/clickmarket-backend/pkg/logger"
)

type createOrderPayload struct {
	DeliveryRequested bool    `json:"deliveryRequested"`
	DeliveryAddress   *string `json:"deliveryAddress,omitempty"`
	DeliveryZoneID    *string `json:"deliveryZoneId,omitempty" validate:"omitempty,uuid"`
	DesiredDate       *string `json:"desiredDate,omitempty"`
}

type statusChangePayload struct {
	Statut string  `json:"statut" validate:"required"`
	Raison *string `json:"raison,omitempty"`
}

type cancelOrderPayload struct {
	Raison *string `json:"raison,omitempty"`
}

type addCommentPayload struct {
	Message string `json:"message" validate:"required,min=1,max=2000"`
}

// OrderCreate snapshots the user's cart into a new order.
func OrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := requireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload createOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := orders.CreateOrderInput{
			DeliveryRequested: payload.DeliveryRequested,
			DeliveryAddress:   payload.DeliveryAddress,
		}
		if payload.DeliveryZoneID != nil {
			zoneID, err := uuid.Parse(*payload.DeliveryZoneID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery zone id"))
				return
			}
			input.DeliveryZoneID = &zoneID
		}
		if payload.DesiredDate != nil {
			desired, err := time.Parse(time.RFC3339, *payload.DesiredDate)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid desired date"))
				return
			}
			input.DesiredDate = &desired
		}

		dto, err := svc.Create(ctx, userID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"commande": dto})
	}
}

// OrderList returns the caller's orders; privileged roles see every order.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := requireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dtos, err := svc.List(ctx, actor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"commandes": dtos})
	}
}

// OrderDetail returns the full order including lines, audit log, and comments.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := requireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.Get(ctx, actor, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"commande": dto})
	}
}

// OrderUpdateStatus advances the fulfillment state machine.
func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := requireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload statusChangePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(payload.Statut)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		dto, err := svc.UpdateStatus(ctx, actor, orderID, status, payload.Raison)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"commande": dto})
	}
}

// OrderUpdatePayment advances the payment state machine.
func OrderUpdatePayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := requireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload statusChangePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := enums.ParsePaymentStatus(payload.Statut)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		dto, err := svc.UpdatePayment(ctx, actor, orderID, status, payload.Raison)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"commande": dto})
	}
}

// OrderCancel cancels the order when its state still allows it.
func OrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := requireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cancelOrderPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.Cancel(ctx, actor, orderID, payload.Raison)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"commande": dto})
	}
}

// OrderAddComment appends a comment to the order thread.
func OrderAddComment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := requireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload addCommentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.AddComment(ctx, actor, orderID, payload.Message)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"commande": dto})
	}
}

func requireActor(ctx context.Context) (orders.Actor, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return orders.Actor{}, err
	}
	role, err := enums.ParseUserRole(strings.TrimSpace(middleware.RoleFromContext(ctx)))
	if err != nil {
		return orders.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor role")
	}
	return orders.Actor{ID: userID, Role: role}, nil
}
