package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	for _, id := range []string{"SH-1", "a.b:c_d", strings.Repeat("x", 64)} {
		assert.NoError(t, ValidateID(id), id)
	}
	for _, id := range []string{"", "bad id", "a/b", strings.Repeat("x", 65)} {
		assert.ErrorIs(t, ValidateID(id), ErrInvalidID, id)
	}
}

func TestShipmentPropertiesDeclarationOrder(t *testing.T) {
	s := &Shipment{ID: "SH-1"}
	var names []string
	for _, p := range s.Properties() {
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{
		PropID, PropShippedReference, PropExpectedReference, PropCubicMeasurement,
		PropCartonCount, PropUpdatedBy, PropUpdatedAt,
	}, names)
}
