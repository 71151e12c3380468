package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/atvirokodosprendimai/saveclarify/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/ports"
)

type shipmentModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	ShippedReference  string    `gorm:"column:shipped_reference;not null"`
	ExpectedReference string    `gorm:"column:expected_reference;not null"`
	CubicMeasurement  *float64  `gorm:"column:cubic_measurement"`
	CartonCount       *int      `gorm:"column:carton_count"`
	UpdatedBy         string    `gorm:"column:updated_by;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;not null"`
	UpdatedAt         time.Time `gorm:"column:updated_at;not null"`
}

func (shipmentModel) TableName() string {
	return "shipments"
}

// ShipmentStore reads shipments and hands out units of work for writing them.
type ShipmentStore struct {
	db *gormsqlite.DB
}

var _ ports.ShipmentStore = (*ShipmentStore)(nil)

func NewShipmentStore(db *gormsqlite.DB) *ShipmentStore {
	return &ShipmentStore{db: db}
}

func (s *ShipmentStore) Begin() ports.UnitOfWork {
	return NewUnitOfWork(s.db)
}

func (s *ShipmentStore) Get(ctx context.Context, id string) (*domain.Shipment, error) {
	var model shipmentModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	shipment := toDomain(model)
	return &shipment, nil
}

func (s *ShipmentStore) List(ctx context.Context, filter domain.ShipmentFilter) ([]domain.Shipment, error) {
	var models []shipmentModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&shipmentModel{})
		if filter.AfterID != "" {
			query = query.Where("id > ?", filter.AfterID)
		}
		return query.Order("id ASC").Limit(filter.Limit).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}

	shipments := make([]domain.Shipment, 0, len(models))
	for _, model := range models {
		shipments = append(shipments, toDomain(model))
	}
	return shipments, nil
}

func toDomain(model shipmentModel) domain.Shipment {
	return domain.Shipment{
		ID:                model.ID,
		ShippedReference:  model.ShippedReference,
		ExpectedReference: model.ExpectedReference,
		CubicMeasurement:  model.CubicMeasurement,
		CartonCount:       model.CartonCount,
		UpdatedBy:         model.UpdatedBy,
		UpdatedAt:         model.UpdatedAt,
		CreatedAt:         model.CreatedAt,
	}
}
