package sqlite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/clarify"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
)

func ptr[T any](v T) *T { return &v }

func newShipment(id, ref string) *domain.Shipment {
	return &domain.Shipment{
		ID:               id,
		ShippedReference: ref,
		CartonCount:      ptr(3),
		UpdatedBy:        "test",
		UpdatedAt:        time.Now().UTC(),
	}
}

func TestUnitOfWorkInsertsAddedEntities(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewShipmentStore(db)

	uow := store.Begin()
	uow.Add(newShipment("SH-1", "REF1"))
	uow.Add(newShipment("SH-2", "REF2"))
	require.NoError(t, uow.SaveChanges(ctx))

	got, err := store.Get(ctx, "SH-1")
	require.NoError(t, err)
	assert.Equal(t, "REF1", got.ShippedReference)
	require.NotNil(t, got.CartonCount)
	assert.Equal(t, 3, *got.CartonCount)
	assert.Nil(t, got.CubicMeasurement)

	for _, e := range uow.Entries() {
		assert.Equal(t, domain.StateUnchanged, e.State())
	}

	list, err := store.List(ctx, domain.ShipmentFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "SH-2", list[1].ID)
}

func TestUnitOfWorkValidationFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewShipmentStore(db)

	uow := store.Begin()
	shipment := newShipment("SH-1", "123456789")
	shipment.ExpectedReference = "ABCDEFGHI"
	uow.Add(shipment)
	uow.Add(newShipment("SH-2", "REF2"))

	err := uow.SaveChanges(ctx)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Groups, 1)

	group := verr.Groups[0]
	require.Len(t, group.Errors, 2)
	assert.Equal(t, domain.PropShippedReference, group.Errors[0].PropertyIdentifier)
	assert.Equal(t, "The field ShippedReferencevvvV94SDR must be a string or array type with a maximum length of '8'.", group.Errors[0].Message)
	assert.Equal(t, domain.PropExpectedReference, group.Errors[1].PropertyIdentifier)

	value, ok := group.Entry.CurrentValue(domain.PropShippedReference)
	require.True(t, ok)
	assert.Equal(t, "123456789", value)

	_, err = store.Get(ctx, "SH-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	msg, ok := clarify.TranslateValidation(verr.Groups, "2025-11-02T22:09:44.047")
	require.True(t, ok)
	assert.Equal(t, "Error code 2025-11-02T22:09:44.047.\n"+
		"The field code 'ShippedReference ◙ V94SDR' with value '123456789' should be text with a maximum length of '8'. "+
		"The field code 'ExpectedReference ◙ V94XDR' with value 'ABCDEFGHI' should be text with a maximum length of '8'.", msg)
}

func TestUnitOfWorkRequiredFieldIsNotTranslatable(t *testing.T) {
	uow := NewShipmentStore(openTestDB(t)).Begin()
	uow.Add(newShipment("", "REF1"))

	err := uow.SaveChanges(context.Background())
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "The Id field is required.", verr.Groups[0].Errors[0].Message)

	_, ok := clarify.TranslateValidation(verr.Groups, "ts")
	assert.False(t, ok)
}

func TestUnitOfWorkOutOfRangeDecimalIsArgumentError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewShipmentStore(db)

	seed := store.Begin()
	seed.Add(newShipment("SH-1", "REF1"))
	require.NoError(t, seed.SaveChanges(ctx))

	loaded, err := store.Get(ctx, "SH-1")
	require.NoError(t, err)

	uow := store.Begin()
	uow.Attach(loaded)
	loaded.CubicMeasurement = ptr(16.9166666667)

	err = uow.SaveChanges(ctx)
	var uerr *domain.UpdateError
	require.True(t, errors.As(err, &uerr))

	chain := domain.NewUpdateFailureChain(uerr.Err)
	require.Len(t, chain, 2)
	assert.Equal(t, domain.CauseGeneric, chain[0].Kind)
	assert.Equal(t, domain.CauseArgumentInvalid, chain[1].Kind)

	entries := uow.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.StateModified, entries[0].State())
	assert.True(t, entries[0].IsModified(domain.PropCubicMeasurement))
	assert.False(t, entries[0].IsModified(domain.PropShippedReference))

	msg, ok := clarify.TranslateUpdate(chain, entries, "2025-11-02T22:09:44.047")
	require.True(t, ok)
	assert.Equal(t, "Error code 2025-11-02T22:09:44.047 ◙ CubicMeasurement ◙ V93CUB. Parameter value '16.9166666667' is out of range.", msg)

	reloaded, err := store.Get(ctx, "SH-1")
	require.NoError(t, err)
	assert.Nil(t, reloaded.CubicMeasurement)
}

func TestUnitOfWorkUniqueViolationIsGenericCause(t *testing.T) {
	ctx := context.Background()
	store := NewShipmentStore(openTestDB(t))

	uow := store.Begin()
	uow.Add(newShipment("SH-1", "SAME"))
	uow.Add(newShipment("SH-2", "SAME"))

	err := uow.SaveChanges(ctx)
	var uerr *domain.UpdateError
	require.True(t, errors.As(err, &uerr))
	for _, cause := range domain.NewUpdateFailureChain(uerr.Err) {
		assert.Equal(t, domain.CauseGeneric, cause.Kind)
	}

	_, err = store.Get(ctx, "SH-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnitOfWorkUpdatesOnlyModifiedColumns(t *testing.T) {
	ctx := context.Background()
	store := NewShipmentStore(openTestDB(t))

	seed := store.Begin()
	seed.Add(newShipment("SH-1", "REF1"))
	require.NoError(t, seed.SaveChanges(ctx))

	loaded, err := store.Get(ctx, "SH-1")
	require.NoError(t, err)

	uow := store.Begin()
	uow.Attach(loaded)
	assert.Equal(t, domain.StateUnchanged, uow.Entries()[0].State())

	loaded.ExpectedReference = "EXP1"
	require.NoError(t, uow.SaveChanges(ctx))

	got, err := store.Get(ctx, "SH-1")
	require.NoError(t, err)
	assert.Equal(t, "REF1", got.ShippedReference)
	assert.Equal(t, "EXP1", got.ExpectedReference)
}

func TestUnitOfWorkRemove(t *testing.T) {
	ctx := context.Background()
	store := NewShipmentStore(openTestDB(t))

	seed := store.Begin()
	seed.Add(newShipment("SH-1", "REF1"))
	require.NoError(t, seed.SaveChanges(ctx))

	loaded, err := store.Get(ctx, "SH-1")
	require.NoError(t, err)

	uow := store.Begin()
	uow.Remove(loaded)
	assert.Equal(t, domain.StateDeleted, uow.Entries()[0].State())
	require.NoError(t, uow.SaveChanges(ctx))
	assert.Empty(t, uow.Entries())

	_, err = store.Get(ctx, "SH-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnitOfWorkRemoveAddedEntityForgetsIt(t *testing.T) {
	uow := NewUnitOfWork(nil)
	shipment := newShipment("SH-1", "REF1")
	uow.Add(shipment)
	uow.Remove(shipment)
	assert.Empty(t, uow.Entries())
}

// labelEntity is an entity whose underlying type is not a struct.
type labelEntity string

func (labelEntity) TableName() string { return "labels" }

func (l labelEntity) Properties() []domain.Property {
	return []domain.Property{{Name: "Label", Column: "label", Value: string(l), Key: true}}
}

func TestUnitOfWorkUninspectableEntityFailsCommit(t *testing.T) {
	uow := NewUnitOfWork(nil)
	uow.Add(labelEntity("pallet"))

	err := uow.SaveChanges(context.Background())
	require.Error(t, err)

	var invalid *validator.InvalidValidationError
	assert.True(t, errors.As(err, &invalid))
	var verr *domain.ValidationError
	assert.False(t, errors.As(err, &verr))
	assert.Equal(t, domain.FailureOther, domain.ClassifyFailure(err))
}

func TestUnitOfWorkOversizeActorIsArgumentError(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewShipmentStore(db)

	shipment := newShipment("SH-1", "REF1")
	shipment.UpdatedBy = strings.Repeat("a", 129)

	uow := store.Begin()
	uow.Add(shipment)
	err := uow.SaveChanges(ctx)

	var uerr *domain.UpdateError
	require.True(t, errors.As(err, &uerr))
	chain := domain.NewUpdateFailureChain(uerr.Err)
	require.Len(t, chain, 2)
	assert.Equal(t, domain.CauseArgumentInvalid, chain[1].Kind)

	msg, ok := clarify.TranslateUpdate(chain, uow.Entries(), "2025-11-02T22:09:44.047")
	require.True(t, ok)
	assert.Equal(t,
		"Error code 2025-11-02T22:09:44.047 ◙ UpdatedBy. Parameter value '"+shipment.UpdatedBy+"' exceeds the column size of 128.",
		msg)

	_, err = store.Get(ctx, "SH-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
