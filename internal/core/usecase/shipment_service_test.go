package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/ports"
)

type stubStore struct {
	rows    map[string]domain.Shipment
	saveErr error
	uows    []*stubUnitOfWork
	filter  domain.ShipmentFilter
}

func newStubStore() *stubStore {
	return &stubStore{rows: map[string]domain.Shipment{}}
}

func (s *stubStore) Begin() ports.UnitOfWork {
	u := &stubUnitOfWork{store: s}
	s.uows = append(s.uows, u)
	return u
}

func (s *stubStore) Get(_ context.Context, id string) (*domain.Shipment, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &row, nil
}

func (s *stubStore) List(_ context.Context, filter domain.ShipmentFilter) ([]domain.Shipment, error) {
	s.filter = filter
	return nil, nil
}

type stubUnitOfWork struct {
	store    *stubStore
	added    []*domain.Shipment
	attached []*domain.Shipment
	removed  []*domain.Shipment
}

func (u *stubUnitOfWork) Entries() []domain.EntitySnapshot { return nil }

func (u *stubUnitOfWork) Add(e domain.Entity) {
	u.added = append(u.added, e.(*domain.Shipment))
}

func (u *stubUnitOfWork) Attach(e domain.Entity) {
	u.attached = append(u.attached, e.(*domain.Shipment))
}

func (u *stubUnitOfWork) Remove(e domain.Entity) {
	u.removed = append(u.removed, e.(*domain.Shipment))
}

func (u *stubUnitOfWork) SaveChanges(context.Context) error {
	if u.store.saveErr != nil {
		return u.store.saveErr
	}
	for _, s := range u.added {
		u.store.rows[s.ID] = *s
	}
	for _, s := range u.attached {
		u.store.rows[s.ID] = *s
	}
	for _, s := range u.removed {
		delete(u.store.rows, s.ID)
	}
	return nil
}

func newTestShipmentService(store *stubStore) *ShipmentService {
	svc := NewShipmentService(store, NewSaveService(nil, WithClock(func() time.Time { return fixedNow })))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestShipmentServiceUpsertAddsNewShipment(t *testing.T) {
	store := newStubStore()
	svc := newTestShipmentService(store)

	got, err := svc.Upsert(context.Background(), ShipmentInput{ID: "SH-1", ShippedReference: "REF1"}, "alice")
	require.NoError(t, err)

	assert.Equal(t, "REF1", got.ShippedReference)
	assert.Equal(t, "alice", got.UpdatedBy)
	assert.Equal(t, fixedNow.UTC(), got.UpdatedAt)
	require.Len(t, store.uows, 1)
	assert.Len(t, store.uows[0].added, 1)
	assert.Empty(t, store.uows[0].attached)
}

func TestShipmentServiceUpsertAttachesExistingShipment(t *testing.T) {
	store := newStubStore()
	store.rows["SH-1"] = domain.Shipment{ID: "SH-1", ShippedReference: "OLD"}
	svc := newTestShipmentService(store)

	got, err := svc.Upsert(context.Background(), ShipmentInput{ID: "SH-1", ShippedReference: "NEW"}, "bob")
	require.NoError(t, err)

	assert.Equal(t, "NEW", got.ShippedReference)
	assert.Len(t, store.uows[0].attached, 1)
	assert.Empty(t, store.uows[0].added)
}

func TestShipmentServiceUpsertGeneratesID(t *testing.T) {
	svc := newTestShipmentService(newStubStore())

	got, err := svc.Upsert(context.Background(), ShipmentInput{}, "alice")
	require.NoError(t, err)
	assert.NoError(t, domain.ValidateID(got.ID))
}

func TestShipmentServiceUpsertBatchRejectsDuplicates(t *testing.T) {
	svc := newTestShipmentService(newStubStore())

	_, err := svc.UpsertBatch(context.Background(), []ShipmentInput{{ID: "SH-1"}, {ID: "SH-1"}}, "alice")
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
}

func TestShipmentServiceUpsertRejectsInvalidID(t *testing.T) {
	svc := newTestShipmentService(newStubStore())

	_, err := svc.Upsert(context.Background(), ShipmentInput{ID: "bad id"}, "alice")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestShipmentServiceUpsertSurfacesSaveError(t *testing.T) {
	store := newStubStore()
	store.saveErr = &domain.UpdateError{Err: errors.New("disk I/O error")}
	svc := newTestShipmentService(store)

	_, err := svc.Upsert(context.Background(), ShipmentInput{ID: "SH-1"}, "alice")

	var saveErr *domain.SaveError
	require.True(t, errors.As(err, &saveErr))
	assert.Equal(t, domain.FailureUpdate, saveErr.Kind)
	assert.Equal(t, "Error code 2025-11-02T22:09:44.047. Cannot update the data.", saveErr.Message)
	assert.Empty(t, store.rows)
}

func TestShipmentServiceListClampsLimit(t *testing.T) {
	store := newStubStore()
	svc := newTestShipmentService(store)

	_, err := svc.List(context.Background(), domain.ShipmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 100, store.filter.Limit)

	_, err = svc.List(context.Background(), domain.ShipmentFilter{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 1000, store.filter.Limit)
}

func TestShipmentServiceDelete(t *testing.T) {
	store := newStubStore()
	store.rows["SH-1"] = domain.Shipment{ID: "SH-1"}
	svc := newTestShipmentService(store)

	deleted, err := svc.Delete(context.Background(), "SH-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, store.rows)

	deleted, err = svc.Delete(context.Background(), "SH-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}
