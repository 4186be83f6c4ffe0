package repository

import (
	"context"
	"errors"

	"github.com/appditto/capture-server/models/dbmodels"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ids break timestamp ties, they are time ordered as well
var newestFirst = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "timestamp"}, Desc: true},
	{Column: clause.Column{Name: "id"}, Desc: true},
}}

// Repository for image records
type ImageRepo struct {
	DB *gorm.DB
}

// Create persists a record for imageUrl, id and timestamp are set by the model hook
func (repo *ImageRepo) Create(ctx context.Context, imageUrl string) (*dbmodels.Image, error) {
	image := &dbmodels.Image{ImageUrl: imageUrl}
	if err := repo.DB.WithContext(ctx).Create(image).Error; err != nil {
		return nil, err
	}
	return image, nil
}

func (repo *ImageRepo) GetLatest(ctx context.Context) (*dbmodels.Image, error) {
	var image dbmodels.Image
	err := repo.DB.WithContext(ctx).Order(newestFirst).First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &image, nil
}

// GetRecent returns at most limit records, newest first
func (repo *ImageRepo) GetRecent(ctx context.Context, limit int) ([]dbmodels.Image, error) {
	var images []dbmodels.Image
	if err := repo.DB.WithContext(ctx).Order(newestFirst).Limit(limit).Find(&images).Error; err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrNotFound
	}
	return images, nil
}
