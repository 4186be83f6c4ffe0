package repository

import (
	"context"
	"testing"

	"github.com/appditto/capture-server/models/dbmodels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOrUpdateTokenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tokenRepo := &DeviceTokenRepo{DB: db}

	require.Nil(t, tokenRepo.AddOrUpdateToken(ctx, "t1"))
	var first dbmodels.DeviceToken
	require.Nil(t, db.Where("token = ?", "t1").First(&first).Error)

	require.Nil(t, tokenRepo.AddOrUpdateToken(ctx, "t1"))

	var count int64
	require.Nil(t, db.Model(&dbmodels.DeviceToken{}).Where("token = ?", "t1").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var second dbmodels.DeviceToken
	require.Nil(t, db.Where("token = ?", "t1").First(&second).Error)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestGetAllTokens(t *testing.T) {
	ctx := context.Background()
	tokenRepo := &DeviceTokenRepo{DB: newTestDB(t)}

	tokens, err := tokenRepo.GetAllTokens(ctx)
	require.Nil(t, err)
	assert.Len(t, tokens, 0)

	require.Nil(t, tokenRepo.AddOrUpdateToken(ctx, "token1"))
	require.Nil(t, tokenRepo.AddOrUpdateToken(ctx, "token2"))
	require.Nil(t, tokenRepo.AddOrUpdateToken(ctx, "token2"))

	tokens, err = tokenRepo.GetAllTokens(ctx)
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"token1", "token2"}, tokens)
}

func TestDeleteTokens(t *testing.T) {
	ctx := context.Background()
	tokenRepo := &DeviceTokenRepo{DB: newTestDB(t)}

	for _, token := range []string{"token1", "token2", "token3"} {
		require.Nil(t, tokenRepo.AddOrUpdateToken(ctx, token))
	}

	require.Nil(t, tokenRepo.DeleteTokens(ctx, []string{"token1", "token3", "unknown"}))
	require.Nil(t, tokenRepo.DeleteTokens(ctx, nil))

	tokens, err := tokenRepo.GetAllTokens(ctx)
	require.Nil(t, err)
	assert.Equal(t, []string{"token2"}, tokens)
}
