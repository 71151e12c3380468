package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/saveclarify/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/ports"
)

type originalValue struct {
	null bool
	text string
}

func captureValue(v any) originalValue {
	return originalValue{null: domain.IsNull(v), text: domain.FormatValue(v)}
}

// entry tracks one entity. It implements domain.EntitySnapshot.
type entry struct {
	entity   domain.Entity
	state    domain.EntityState
	original map[string]originalValue
}

var _ domain.EntitySnapshot = (*entry)(nil)

func (e *entry) State() domain.EntityState { return e.state }

func (e *entry) PropertyNames() []string {
	props := e.entity.Properties()
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.Name)
	}
	return names
}

func (e *entry) CurrentValue(name string) (any, bool) {
	for _, p := range e.entity.Properties() {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

func (e *entry) IsModified(name string) bool {
	switch e.state {
	case domain.StateAdded:
		return true
	case domain.StateDeleted:
		return false
	}
	current, ok := e.CurrentValue(name)
	if !ok {
		return false
	}
	return captureValue(current) != e.original[name]
}

func (e *entry) snapshotOriginal() {
	e.original = make(map[string]originalValue)
	for _, p := range e.entity.Properties() {
		e.original[p.Name] = captureValue(p.Value)
	}
}

func (e *entry) detectChanges() {
	if e.state != domain.StateUnchanged {
		return
	}
	for _, p := range e.entity.Properties() {
		if captureValue(p.Value) != e.original[p.Name] {
			e.state = domain.StateModified
			return
		}
	}
}

// UnitOfWork collects entity changes and writes them in one transaction.
// It is not safe for concurrent use.
type UnitOfWork struct {
	db        *gormsqlite.DB
	validator *entityValidator
	entries   []*entry
	byEntity  map[domain.Entity]*entry
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gormsqlite.DB) *UnitOfWork {
	return &UnitOfWork{
		db:        db,
		validator: newEntityValidator(),
		byEntity:  make(map[domain.Entity]*entry),
	}
}

func (u *UnitOfWork) track(entity domain.Entity, state domain.EntityState) *entry {
	if e, ok := u.byEntity[entity]; ok {
		e.state = state
		return e
	}
	e := &entry{entity: entity, state: state}
	u.entries = append(u.entries, e)
	u.byEntity[entity] = e
	return e
}

// Add marks entity for insertion.
func (u *UnitOfWork) Add(entity domain.Entity) {
	u.track(entity, domain.StateAdded)
}

// Attach starts tracking an entity loaded from the store. Later changes to
// its properties mark it modified.
func (u *UnitOfWork) Attach(entity domain.Entity) {
	u.track(entity, domain.StateUnchanged).snapshotOriginal()
}

// Remove marks entity for deletion. An entity added in this unit of work is
// simply forgotten.
func (u *UnitOfWork) Remove(entity domain.Entity) {
	if e, ok := u.byEntity[entity]; ok && e.state == domain.StateAdded {
		u.forget(e)
		return
	}
	u.track(entity, domain.StateDeleted)
}

func (u *UnitOfWork) forget(e *entry) {
	delete(u.byEntity, e.entity)
	for i, cur := range u.entries {
		if cur == e {
			u.entries = append(u.entries[:i], u.entries[i+1:]...)
			return
		}
	}
}

// Entries returns every tracked entity after detecting pending changes.
func (u *UnitOfWork) Entries() []domain.EntitySnapshot {
	out := make([]domain.EntitySnapshot, 0, len(u.entries))
	for _, e := range u.entries {
		e.detectChanges()
		out = append(out, e)
	}
	return out
}

// SaveChanges validates added and modified entities, then writes every change
// in one transaction. Validation failures return *domain.ValidationError and
// nothing is written. Write failures return *domain.UpdateError and the
// transaction is rolled back. Tracking state is only accepted on success.
func (u *UnitOfWork) SaveChanges(ctx context.Context) error {
	u.Entries()

	var groups []domain.EntityValidationGroup
	for _, e := range u.entries {
		if e.state != domain.StateAdded && e.state != domain.StateModified {
			continue
		}
		g, failed, err := u.validator.group(e)
		if err != nil {
			return err
		}
		if failed {
			groups = append(groups, g)
		}
	}
	if len(groups) > 0 {
		return &domain.ValidationError{Groups: groups}
	}

	err := u.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		for _, e := range u.entries {
			var err error
			switch e.state {
			case domain.StateAdded:
				err = insertEntity(tx, e)
			case domain.StateModified:
				err = updateEntity(tx, e)
			case domain.StateDeleted:
				err = deleteEntity(tx, e)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.UpdateError{Err: err}
	}

	u.acceptChanges()
	return nil
}

func (u *UnitOfWork) acceptChanges() {
	kept := u.entries[:0]
	for _, e := range u.entries {
		if e.state == domain.StateDeleted {
			delete(u.byEntity, e.entity)
			continue
		}
		e.state = domain.StateUnchanged
		e.snapshotOriginal()
		kept = append(kept, e)
	}
	u.entries = kept
}

func insertEntity(tx *gormsqlite.Tx, e *entry) error {
	table := e.entity.TableName()
	values := make(map[string]any)
	for _, p := range e.entity.Properties() {
		v, err := bindValue(p)
		if err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
		if v != nil {
			values[p.Column] = v
		}
	}
	if err := tx.Table(table).Create(values).Error; err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func updateEntity(tx *gormsqlite.Tx, e *entry) error {
	table := e.entity.TableName()
	keys := make(map[string]any)
	values := make(map[string]any)
	for _, p := range e.entity.Properties() {
		if p.Key {
			keys[p.Column] = deref(p.Value)
			continue
		}
		if !e.IsModified(p.Name) {
			continue
		}
		v, err := bindValue(p)
		if err != nil {
			return fmt.Errorf("update %s: %w", table, err)
		}
		values[p.Column] = v
	}
	if len(values) == 0 {
		return nil
	}

	res := tx.Table(table).Where(keys).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update %s: %w", table, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s: %w", table, domain.ErrNotFound)
	}
	return nil
}

func deleteEntity(tx *gormsqlite.Tx, e *entry) error {
	table := e.entity.TableName()
	var conds []string
	var args []any
	for _, p := range e.entity.Properties() {
		if p.Key {
			conds = append(conds, p.Column+" = ?")
			args = append(args, deref(p.Value))
		}
	}
	if len(conds) == 0 {
		return fmt.Errorf("delete %s: entity has no key", table)
	}

	if err := tx.Exec("DELETE FROM "+table+" WHERE "+strings.Join(conds, " AND "), args...).Error; err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}
