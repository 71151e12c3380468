package domain

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// EntityState is the change state of a tracked entity at commit time.
type EntityState int

const (
	StateUnchanged EntityState = iota
	StateAdded
	StateModified
	StateDeleted
)

func (s EntityState) String() string {
	switch s {
	case StateAdded:
		return "added"
	case StateModified:
		return "modified"
	case StateDeleted:
		return "deleted"
	default:
		return "unchanged"
	}
}

// EntitySnapshot exposes what a tracked entity is about to commit.
type EntitySnapshot interface {
	State() EntityState
	// PropertyNames returns property identifiers in declaration order.
	PropertyNames() []string
	CurrentValue(name string) (any, bool)
	IsModified(name string) bool
}

// Entity is anything a unit of work can persist.
type Entity interface {
	TableName() string
	Properties() []Property
}

// Property is one column of an entity. Name is the business-facing property
// identifier and may embed CompositeMarker; Column is the storage name.
type Property struct {
	Name   string
	Column string
	Value  any
	Key    bool
	Facets Facets
}

// Facets describe the column the value is bound to. Zero means unbounded.
type Facets struct {
	MaxLength int
	Precision int
	Scale     int
}

// FormatValue renders a property value the way it appears in store messages.
// Pointers are rendered through to their target; nil renders as the empty
// string.
func FormatValue(v any) string {
	if IsNull(v) {
		return ""
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		v = reflect.Indirect(rv).Interface()
	}

	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// IsNull reports whether v carries no value, including typed nil pointers.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
