package controllers

import (
	"net/http"

	"github.com/clickmarket/clickmarket-backend/api/responses"
	"github.com/clickmarket/clickmarket-backend/api/validators"
	"github.com/clickmarket/clickmarket-backend/internal/zones"
	"github.com/clickmarket/clickmarket-backend/pkg/logger"
)

type upsertZonePayload struct {
	Name          string   `json:"name" validate:"required,min=1,max=120"`
	PostalCodes   []string `json:"postalCodes,omitempty"`
	DeliveryDays  []string `json:"deliveryDays,omitempty"`
	FeeCents      int      `json:"feeCents" validate:"min=0"`
	MinOrderCents int      `json:"minOrderCents" validate:"min=0"`
	IsActive      *bool    `json:"isActive,omitempty"`
}

// ZoneList returns the active delivery zones for the storefront.
func ZoneList(svc zones.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		dtos, err := svc.ListZones(ctx, true)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"zones": dtos})
	}
}

// AdminZoneList returns every zone including inactive ones.
func AdminZoneList(svc zones.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		dtos, err := svc.ListZones(ctx, false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"zones": dtos})
	}
}

// AdminZoneCreate registers a new delivery zone.
func AdminZoneCreate(svc zones.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload upsertZonePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.CreateZone(ctx, zones.UpsertZoneInput{
			Name:          payload.Name,
			PostalCodes:   payload.PostalCodes,
			DeliveryDays:  payload.DeliveryDays,
			FeeCents:      payload.FeeCents,
			MinOrderCents: payload.MinOrderCents,
			IsActive:      payload.IsActive,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"zone": dto})
	}
}

// AdminZoneUpdate replaces the mutable fields of a zone.
func AdminZoneUpdate(svc zones.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		zoneID, err := parseIDParam(r, "zoneId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload upsertZonePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.UpdateZone(ctx, zoneID, zones.UpsertZoneInput{
			Name:          payload.Name,
			PostalCodes:   payload.PostalCodes,
			DeliveryDays:  payload.DeliveryDays,
			FeeCents:      payload.FeeCents,
			MinOrderCents: payload.MinOrderCents,
			IsActive:      payload.IsActive,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"zone": dto})
	}
}
