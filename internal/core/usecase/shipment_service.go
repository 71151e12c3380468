package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/ports"
)

// ShipmentInput is the client-supplied part of a shipment.
type ShipmentInput struct {
	ID                string   `json:"id"`
	ShippedReference  string   `json:"shipped_reference"`
	ExpectedReference string   `json:"expected_reference"`
	CubicMeasurement  *float64 `json:"cubic_measurement"`
	CartonCount       *int     `json:"carton_count"`
}

type ShipmentService struct {
	store ports.ShipmentStore
	saver *SaveService
	now   func() time.Time
}

func NewShipmentService(store ports.ShipmentStore, saver *SaveService) *ShipmentService {
	return &ShipmentService{store: store, saver: saver, now: time.Now}
}

func (s *ShipmentService) Upsert(ctx context.Context, in ShipmentInput, actor string) (domain.Shipment, error) {
	out, err := s.UpsertBatch(ctx, []ShipmentInput{in}, actor)
	if err != nil {
		return domain.Shipment{}, err
	}
	return out[0], nil
}

// UpsertBatch commits every item in one unit of work. Items without an ID
// are created with a generated one.
func (s *ShipmentService) UpsertBatch(ctx context.Context, items []ShipmentInput, actor string) ([]domain.Shipment, error) {
	uow := s.store.Begin()
	now := s.now().UTC()
	seen := make(map[string]struct{}, len(items))
	tracked := make([]*domain.Shipment, 0, len(items))

	for _, in := range items {
		if in.ID == "" {
			in.ID = uuid.NewString()
		}
		if err := domain.ValidateID(in.ID); err != nil {
			return nil, err
		}
		if _, dup := seen[in.ID]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, in.ID)
		}
		seen[in.ID] = struct{}{}

		shipment, err := s.store.Get(ctx, in.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			shipment = &domain.Shipment{ID: in.ID}
			applyInput(shipment, in, actor, now)
			uow.Add(shipment)
		case err != nil:
			return nil, fmt.Errorf("load shipment %s: %w", in.ID, err)
		default:
			uow.Attach(shipment)
			applyInput(shipment, in, actor, now)
		}
		tracked = append(tracked, shipment)
	}

	if err := s.saver.Save(ctx, uow.SaveChanges, uow); err != nil {
		return nil, err
	}

	out := make([]domain.Shipment, 0, len(tracked))
	for _, sh := range tracked {
		saved, err := s.store.Get(ctx, sh.ID)
		if err != nil {
			return nil, fmt.Errorf("reload shipment %s: %w", sh.ID, err)
		}
		out = append(out, *saved)
	}
	return out, nil
}

func (s *ShipmentService) Get(ctx context.Context, id string) (domain.Shipment, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Shipment{}, err
	}
	shipment, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Shipment{}, err
	}
	return *shipment, nil
}

func (s *ShipmentService) List(ctx context.Context, filter domain.ShipmentFilter) ([]domain.Shipment, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.store.List(ctx, filter)
}

func (s *ShipmentService) Delete(ctx context.Context, id string) (bool, error) {
	if err := domain.ValidateID(id); err != nil {
		return false, err
	}
	shipment, err := s.store.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	uow := s.store.Begin()
	uow.Remove(shipment)
	if err := s.saver.Save(ctx, uow.SaveChanges, uow); err != nil {
		return false, err
	}
	return true, nil
}

func applyInput(sh *domain.Shipment, in ShipmentInput, actor string, now time.Time) {
	sh.ShippedReference = in.ShippedReference
	sh.ExpectedReference = in.ExpectedReference
	sh.CubicMeasurement = in.CubicMeasurement
	sh.CartonCount = in.CartonCount
	sh.UpdatedBy = actor
	sh.UpdatedAt = now
}
