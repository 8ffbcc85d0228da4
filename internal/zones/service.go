package zones

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/clickmarket/clickmarket-backend/pkg/db"
	"github.com/clickmarket/clickmarket-backend/pkg/db/models"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
)

// Service exposes business rules for delivery zone management.
type Service interface {
	ListZones(ctx context.Context, onlyActive bool) ([]ZoneDTO, error)
	GetZone(ctx context.Context, id uuid.UUID) (ZoneDTO, error)
	CreateZone(ctx context.Context, input UpsertZoneInput) (ZoneDTO, error)
	UpdateZone(ctx context.Context, id uuid.UUID, input UpsertZoneInput) (ZoneDTO, error)
}

type service struct {
	repo Repository
}

// NewService builds a zones service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "zones repo is required")
	}
	return &service{repo: repo}, nil
}

// ListZones returns delivery zones ordered by name.
func (s *service) ListZones(ctx context.Context, onlyActive bool) ([]ZoneDTO, error) {
	records, err := s.repo.List(ctx, onlyActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list zones")
	}
	dtos := make([]ZoneDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, ToDTO(record))
	}
	return dtos, nil
}

// GetZone returns a single delivery zone.
func (s *service) GetZone(ctx context.Context, id uuid.UUID) (ZoneDTO, error) {
	if id == uuid.Nil {
		return ZoneDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "zone id is required")
	}
	zone, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ZoneDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "zone not found")
		}
		return ZoneDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load zone")
	}
	return ToDTO(*zone), nil
}

// CreateZone validates and inserts a new delivery zone.
func (s *service) CreateZone(ctx context.Context, input UpsertZoneInput) (ZoneDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ZoneDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "zone name is required")
	}
	if input.FeeCents < 0 || input.MinOrderCents < 0 {
		return ZoneDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}

	zone := &models.DeliveryZone{
		ID:            uuid.New(),
		Name:          name,
		PostalCodes:   pq.StringArray(input.PostalCodes),
		DeliveryDays:  pq.StringArray(input.DeliveryDays),
		FeeCents:      input.FeeCents,
		MinOrderCents: input.MinOrderCents,
		IsActive:      true,
	}
	if input.IsActive != nil {
		zone.IsActive = *input.IsActive
	}

	created, err := s.repo.Create(ctx, zone)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return ZoneDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "zone name already exists")
		}
		return ZoneDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create zone")
	}
	return ToDTO(*created), nil
}

// UpdateZone replaces the mutable fields of a zone.
func (s *service) UpdateZone(ctx context.Context, id uuid.UUID, input UpsertZoneInput) (ZoneDTO, error) {
	if id == uuid.Nil {
		return ZoneDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "zone id is required")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ZoneDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "zone not found")
		}
		return ZoneDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load zone")
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(input.Name); name != "" {
		updates["name"] = name
	}
	if input.PostalCodes != nil {
		updates["postal_codes"] = pq.StringArray(input.PostalCodes)
	}
	if input.DeliveryDays != nil {
		updates["delivery_days"] = pq.StringArray(input.DeliveryDays)
	}
	if input.FeeCents >= 0 {
		updates["fee_cents"] = input.FeeCents
	}
	if input.MinOrderCents >= 0 {
		updates["min_order_cents"] = input.MinOrderCents
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return ZoneDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update zone")
	}

	fresh, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ZoneDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload zone")
	}
	return ToDTO(*fresh), nil
}
