package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMerchantUpsertUpdate_ReinstallClearsUninstallMark(t *testing.T) {
	installed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := installed.Add(time.Minute)

	update := merchantUpsertUpdate("enc-token", installed, now)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Contains(t, set, "uninstalled_at")
	assert.Nil(t, set["uninstalled_at"])
	assert.Equal(t, "enc-token", set["access_token"])
	assert.Equal(t, installed, set["installed_at"])
	assert.Equal(t, now, set["updated_at"])
	assert.NotContains(t, set, "created_at")
	assert.NotContains(t, set, "shop_domain")

	onInsert, ok := update["$setOnInsert"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"created_at": installed}, onInsert)
}

func TestMarkUninstalledUpdate_KeepsFirstTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	pipeline := markUninstalledUpdate(now)

	require.Len(t, pipeline, 1)
	require.Len(t, pipeline[0], 1)
	assert.Equal(t, "$set", pipeline[0][0].Key)

	set, ok := pipeline[0][0].Value.(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"$ifNull": bson.A{"$uninstalled_at", now}}, set["uninstalled_at"])
	assert.Equal(t, now, set["updated_at"])
	assert.NotContains(t, set, "installed_at")
	assert.NotContains(t, set, "access_token")
}
