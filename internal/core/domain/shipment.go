package domain

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrInvalidID   = errors.New("invalid id")
	ErrNotFound    = errors.New("not found")
	ErrDuplicateID = errors.New("duplicate id in batch")
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9._:-]+$`)

const maxIDLength = 64

// Shipment property identifiers. Composite identifiers carry the business
// code after CompositeMarker.
const (
	PropID                = "Id"
	PropShippedReference  = "ShippedReferencevvvV94SDR"
	PropExpectedReference = "ExpectedReferencevvvV94XDR"
	PropCubicMeasurement  = "CubicMeasurementvvvV93CUB"
	PropCartonCount       = "CartonCountvvvV74CTNS"
	PropUpdatedBy         = "UpdatedBy"
	PropUpdatedAt         = "UpdatedAt"
)

// Shipment is one inbound or outbound consignment line.
type Shipment struct {
	ID                string    `prop:"Id" validate:"required,max=64"`
	ShippedReference  string    `prop:"ShippedReferencevvvV94SDR" validate:"max=8"`
	ExpectedReference string    `prop:"ExpectedReferencevvvV94XDR" validate:"max=8"`
	CubicMeasurement  *float64  `prop:"CubicMeasurementvvvV93CUB" validate:"omitempty,gte=0"`
	CartonCount       *int      `prop:"CartonCountvvvV74CTNS" validate:"omitempty,gte=0,lte=9999"`
	UpdatedBy         string    `prop:"UpdatedBy"`
	UpdatedAt         time.Time `prop:"UpdatedAt"`
	CreatedAt         time.Time `prop:"-"`
}

func (*Shipment) TableName() string {
	return "shipments"
}

func (s *Shipment) Properties() []Property {
	return []Property{
		{Name: PropID, Column: "id", Value: s.ID, Key: true},
		{Name: PropShippedReference, Column: "shipped_reference", Value: s.ShippedReference, Facets: Facets{MaxLength: 8}},
		{Name: PropExpectedReference, Column: "expected_reference", Value: s.ExpectedReference, Facets: Facets{MaxLength: 8}},
		{Name: PropCubicMeasurement, Column: "cubic_measurement", Value: s.CubicMeasurement, Facets: Facets{Precision: 9, Scale: 3}},
		{Name: PropCartonCount, Column: "carton_count", Value: s.CartonCount, Facets: Facets{Precision: 4}},
		{Name: PropUpdatedBy, Column: "updated_by", Value: s.UpdatedBy, Facets: Facets{MaxLength: 128}},
		{Name: PropUpdatedAt, Column: "updated_at", Value: s.UpdatedAt},
	}
}

func ValidateID(id string) error {
	if id == "" || len(id) > maxIDLength || !idPattern.MatchString(id) {
		return ErrInvalidID
	}
	return nil
}

type ShipmentFilter struct {
	AfterID string
	Limit   int
}

func (f ShipmentFilter) Validate() error {
	if f.AfterID != "" {
		return ValidateID(f.AfterID)
	}
	return nil
}
