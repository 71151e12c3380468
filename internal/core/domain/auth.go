package domain

import (
	"errors"
	"time"
)

var ErrInvalidAPIKey = errors.New("invalid api key")

// defaultActor is recorded when a key has no name.
const defaultActor = "api"

// APIKey authenticates a shipment client. Only the token hash is stored.
type APIKey struct {
	TokenHash  string
	Name       string
	Active     bool
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// Actor is the name written to UpdatedBy on shipments the key changes.
func (k APIKey) Actor() string {
	if k.Name == "" {
		return defaultActor
	}
	return k.Name
}
