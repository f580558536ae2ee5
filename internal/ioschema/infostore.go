package ioschema

import (
	"context"

	"github.com/gnames/gnsos/pkg/db"
	"github.com/gnames/gnsos/pkg/harvest"
	"github.com/gnames/gnsos/pkg/schema"
	"gorm.io/gorm"
)

type infoStore struct {
	db *gorm.DB
}

// NewInfoStore creates harvest.InfoStore that keeps results of harvests
// in the harvest_infos table.
func NewInfoStore(op db.Operator) (harvest.InfoStore, error) {
	gormDB, err := openGORM(op)
	if err != nil {
		return nil, err
	}
	return &infoStore{db: gormDB}, nil
}

// Save inserts the result of a run. Saving the same run again updates
// it.
func (s *infoStore) Save(ctx context.Context, info *harvest.Info) error {
	row := schema.NewHarvestInfo(info)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return SaveInfoError(info.ID, err)
	}
	return nil
}

// LastSuccess returns the latest successful run of the provider.
func (s *infoStore) LastSuccess(
	ctx context.Context,
	identifier string,
) (*harvest.Info, error) {
	var rows []schema.HarvestInfo
	err := s.db.WithContext(ctx).
		Where("identifier = ? AND status = ?",
			identifier, harvest.Success.String()).
		Order("ended_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, LoadInfoError(identifier, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToInfo(), nil
}
