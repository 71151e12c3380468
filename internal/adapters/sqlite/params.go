package sqlite

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
)

// bindValue resolves a property to the value handed to the driver and refuses
// values the column cannot hold. Refusals are *domain.ArgumentError and echo
// the value in single quotes.
func bindValue(p domain.Property) (any, error) {
	v := deref(p.Value)
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if p.Facets.MaxLength > 0 && utf8.RuneCountInString(x) > p.Facets.MaxLength {
			return nil, &domain.ArgumentError{
				Column:  p.Column,
				Message: fmt.Sprintf("Parameter value '%s' exceeds the column size of %d.", x, p.Facets.MaxLength),
			}
		}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) || !fitsDecimal(domain.FormatValue(x), p.Facets) {
			return nil, outOfRange(p, x)
		}
	case int:
		if !fitsDecimal(domain.FormatValue(x), p.Facets) {
			return nil, outOfRange(p, x)
		}
	}
	return v, nil
}

func outOfRange(p domain.Property, v any) error {
	return &domain.ArgumentError{
		Column:  p.Column,
		Message: fmt.Sprintf("Parameter value '%s' is out of range.", domain.FormatValue(v)),
	}
}

// fitsDecimal reports whether a plain decimal literal is representable in
// the facets' precision and scale without rounding. Zero precision is unbounded.
func fitsDecimal(text string, f domain.Facets) bool {
	if f.Precision <= 0 {
		return true
	}
	text = strings.TrimLeft(text, "+-")
	intPart, fracPart, _ := strings.Cut(text, ".")
	intDigits := len(strings.TrimLeft(intPart, "0"))
	fracDigits := len(strings.TrimRight(fracPart, "0"))
	return fracDigits <= f.Scale && intDigits <= f.Precision-f.Scale
}

// deref returns the target of a pointer value, or nil for a nil pointer.
func deref(v any) any {
	if domain.IsNull(v) {
		return nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		return rv.Elem().Interface()
	}
	return v
}
