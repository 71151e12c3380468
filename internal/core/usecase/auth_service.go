package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/ports"
)

var ErrUnauthorized = errors.New("unauthorized")

// AuthService registers API keys and resolves the ones shipment clients
// present into the actor recorded on their writes.
type AuthService struct {
	repo ports.APIKeyRepository
	now  func() time.Time
}

func NewAuthService(repo ports.APIKeyRepository) *AuthService {
	return &AuthService{repo: repo, now: time.Now}
}

// Register stores token under name as an active key.
func (s *AuthService) Register(ctx context.Context, token, name string) (domain.APIKey, error) {
	token = strings.TrimSpace(token)
	name = strings.TrimSpace(name)
	if token == "" || name == "" {
		return domain.APIKey{}, fmt.Errorf("%w: token and name are required", domain.ErrInvalidAPIKey)
	}

	key := domain.APIKey{
		TokenHash: HashToken(token),
		Name:      name,
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, key); err != nil {
		return domain.APIKey{}, err
	}
	return key, nil
}

// Authenticate resolves token to an active key and records its use.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.APIKey, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.APIKey{}, ErrUnauthorized
	}

	apiKey, err := s.repo.FindByTokenHash(ctx, HashToken(token))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.APIKey{}, ErrUnauthorized
	case err != nil:
		return domain.APIKey{}, err
	case !apiKey.Active:
		return domain.APIKey{}, ErrUnauthorized
	}

	usedAt := s.now().UTC()
	if err := s.repo.MarkUsed(ctx, apiKey.TokenHash, usedAt); err != nil {
		return domain.APIKey{}, err
	}
	apiKey.LastUsedAt = &usedAt
	return apiKey, nil
}

func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
