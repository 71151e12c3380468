package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atvirokodosprendimai/saveclarify/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
	"github.com/atvirokodosprendimai/saveclarify/internal/core/ports"
)

type apiKeyRow struct {
	TokenHash  string     `gorm:"column:token_hash;primaryKey"`
	Name       string     `gorm:"column:name"`
	Active     bool       `gorm:"column:active"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	LastUsedAt *time.Time `gorm:"column:last_used_at"`
}

func (apiKeyRow) TableName() string { return "api_keys" }

func (r apiKeyRow) toDomain() domain.APIKey {
	return domain.APIKey{
		TokenHash:  r.TokenHash,
		Name:       r.Name,
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
		LastUsedAt: r.LastUsedAt,
	}
}

// APIKeyRepository keeps client key hashes next to the shipments they write.
type APIKeyRepository struct {
	db *gormsqlite.DB
}

var _ ports.APIKeyRepository = (*APIKeyRepository)(nil)

func NewAPIKeyRepository(db *gormsqlite.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) FindByTokenHash(ctx context.Context, tokenHash string) (domain.APIKey, error) {
	var row apiKeyRow
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Take(&row, "token_hash = ?", tokenHash).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.APIKey{}, domain.ErrNotFound
	case err != nil:
		return domain.APIKey{}, fmt.Errorf("find api key: %w", err)
	}
	return row.toDomain(), nil
}

func (r *APIKeyRepository) Upsert(ctx context.Context, key domain.APIKey) error {
	row := apiKeyRow{
		TokenHash: key.TokenHash,
		Name:      key.Name,
		Active:    key.Active,
		CreatedAt: key.CreatedAt,
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "active"}),
		}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("upsert api key %q: %w", key.Name, err)
	}
	return nil
}

// MarkUsed stamps the last time a key authenticated a request.
func (r *APIKeyRepository) MarkUsed(ctx context.Context, tokenHash string, at time.Time) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&apiKeyRow{}).Where("token_hash = ?", tokenHash).Update("last_used_at", at)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark api key used: %w", err)
	}
	return nil
}
