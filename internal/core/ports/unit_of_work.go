package ports

import (
	"context"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
)

// ChangeTracker enumerates the entities a pending commit would touch.
type ChangeTracker interface {
	Entries() []domain.EntitySnapshot
}

// UnitOfWork tracks entity changes and commits them in one transaction.
//
// SaveChanges returns *domain.ValidationError when an entity fails field
// validation and *domain.UpdateError when the store rejects the write.
type UnitOfWork interface {
	ChangeTracker
	Add(entity domain.Entity)
	Attach(entity domain.Entity)
	Remove(entity domain.Entity)
	SaveChanges(ctx context.Context) error
}

type ShipmentStore interface {
	Begin() UnitOfWork
	Get(ctx context.Context, id string) (*domain.Shipment, error)
	List(ctx context.Context, filter domain.ShipmentFilter) ([]domain.Shipment, error)
}
