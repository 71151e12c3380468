package domain

import (
	"fmt"
	"strings"
)

// ErrSchemaViolation is returned when an inbound shipment document does not
// conform to the payload schema. The Errors field contains machine-readable details.
type ErrSchemaViolation struct {
	Errors []string
}

func (e *ErrSchemaViolation) Error() string {
	return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Errors, "; "))
}
