package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"mediaworker/internal/domain"
	"mediaworker/internal/infra"
	"mediaworker/internal/sqlinline"
)

// AssetRepositoryPG implements domain.AssetRepository against PostgreSQL.
type AssetRepositoryPG struct {
	db infra.SQLExecutor
}

// NewAssetRepository constructs an asset repository instance.
func NewAssetRepository(db infra.SQLExecutor) *AssetRepositoryPG {
	return &AssetRepositoryPG{db: db}
}

// Insert persists one generated asset row.
func (r *AssetRepositoryPG) Insert(ctx context.Context, asset *domain.Asset) error {
	meta, err := json.Marshal(asset.Meta)
	if err != nil {
		return fmt.Errorf("encode asset meta: %w", err)
	}
	if _, err := r.db.Exec(ctx, sqlinline.QInsertAsset,
		asset.ID,
		asset.JobID,
		asset.StoreID,
		asset.UserID,
		asset.Type,
		asset.Provider,
		asset.ProviderModel,
		asset.Prompt,
		asset.StoragePath,
		asset.Filename,
		asset.PublicURL,
		asset.SignedURL,
		asset.SignedExpiresAt,
		asset.MIMEType,
		meta,
	); err != nil {
		return fmt.Errorf("insert asset for job %s: %w", asset.JobID, err)
	}
	return nil
}

var _ domain.AssetRepository = (*AssetRepositoryPG)(nil)
