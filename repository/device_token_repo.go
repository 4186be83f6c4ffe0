package repository

import (
	"context"
	"time"

	"github.com/appditto/capture-server/models/dbmodels"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository for push notification targets
type DeviceTokenRepo struct {
	DB *gorm.DB
}

// AddOrUpdateToken inserts token, or bumps updated_at when it already exists
func (repo *DeviceTokenRepo) AddOrUpdateToken(ctx context.Context, token string) error {
	deviceToken := &dbmodels.DeviceToken{Token: token}
	return repo.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": time.Now().UTC()}),
	}).Create(deviceToken).Error
}

func (repo *DeviceTokenRepo) GetAllTokens(ctx context.Context) ([]string, error) {
	var tokens []string
	if err := repo.DB.WithContext(ctx).Model(&dbmodels.DeviceToken{}).Pluck("token", &tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (repo *DeviceTokenRepo) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return repo.DB.WithContext(ctx).Where("token IN ?", tokens).Delete(&dbmodels.DeviceToken{}).Error
}
