package clarify

import (
	"strings"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
)

// NormalizeFieldCode expands every composite marker in a property identifier
// to the error code separator.
func NormalizeFieldCode(identifier string) string {
	return strings.ReplaceAll(identifier, domain.CompositeMarker, domain.ErrorCodeSeparator)
}
