package config

import (
	"context"
	"testing"
	"time"

	"meal-planner/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("DATA_DIR", "")
		t.Setenv("STORAGE_BACKEND", "")
		t.Setenv("LLM_PROVIDER", "")
		t.Setenv("PLAN_SEED", "")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "data", cfg.DataDir)
		assert.Equal(t, BackendFile, cfg.StorageBackend)
		assert.Equal(t, "data/meal-planner.db", cfg.DatabasePath)
		assert.Equal(t, ProviderGroq, cfg.LLMProvider)
		assert.Equal(t, 30*time.Second, cfg.ExtractionTimeout)
		assert.Equal(t, 128, cfg.ExtractionCacheSize)
		assert.Nil(t, cfg.PlanSeed)
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("DATA_DIR", "/tmp/meals")
		t.Setenv("STORAGE_BACKEND", "SQLite")
		t.Setenv("LLM_PROVIDER", "gemini")
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("EXTRACTION_TIMEOUT", "5s")
		t.Setenv("PLAN_SEED", "42")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "1, 2")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, BackendSQLite, cfg.StorageBackend)
		assert.Equal(t, "/tmp/meals/meal-planner.db", cfg.DatabasePath)
		assert.Equal(t, 5*time.Second, cfg.ExtractionTimeout)
		require.NotNil(t, cfg.PlanSeed)
		assert.Equal(t, uint64(42), *cfg.PlanSeed)
		assert.Equal(t, []int64{1, 2}, cfg.TelegramAllowedUserIDs)

		key, err := cfg.LLMAPIKey()
		require.NoError(t, err)
		assert.Equal(t, "gemini_key", key)
	})

	t.Run("InvalidBackend", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("STORAGE_BACKEND", "postgres")

		_, err := NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("InvalidTimeout", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("EXTRACTION_TIMEOUT", "soon")

		_, err := NewFromEnv()
		assert.Error(t, err)
	})

	t.Run("MissingProviderKey", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("LLM_PROVIDER", "groq")
		t.Setenv("GROQ_API_KEY", "")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		_, err = cfg.LLMAPIKey()
		require.Error(t, err)
		assert.Equal(t, "GROQ_API_KEY environment variable not set", err.Error())
	})

	t.Run("MissingTelegramToken", func(t *testing.T) {
		cfg := &Config{}
		err := cfg.RequireTelegram()
		require.Error(t, err)
		assert.Equal(t, "TELEGRAM_BOT_TOKEN environment variable not set", err.Error())
	})
}

func TestHousehold(t *testing.T) {
	ctx := context.Background()
	docs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	t.Run("DefaultsWhenMissing", func(t *testing.T) {
		h, err := LoadHousehold(ctx, docs)
		require.NoError(t, err)
		assert.Equal(t, DefaultHousehold(), h)
	})

	t.Run("PartialRecordKeepsDefaults", func(t *testing.T) {
		require.NoError(t, docs.Put(ctx, storage.KeyConfig, []byte(`{"family_size": 2}`)))

		h, err := LoadHousehold(ctx, docs)
		require.NoError(t, err)
		assert.Equal(t, 2, h.FamilySize)
		assert.Equal(t, 2, h.MaxRepeatPerWeek)
		assert.True(t, h.AllowRepeatsIfNeeded)
	})

	t.Run("ClampsToOne", func(t *testing.T) {
		require.NoError(t, docs.Put(ctx, storage.KeyConfig, []byte(`{"family_size": 0, "max_repeat_per_week": -3}`)))

		h, err := LoadHousehold(ctx, docs)
		require.NoError(t, err)
		assert.Equal(t, 1, h.FamilySize)
		assert.Equal(t, 1, h.MaxRepeatPerWeek)
	})

	t.Run("UnreadableFallsBack", func(t *testing.T) {
		require.NoError(t, docs.Put(ctx, storage.KeyConfig, []byte(`{"family_size": "many"}`)))

		h, err := LoadHousehold(ctx, docs)
		require.NoError(t, err)
		assert.Equal(t, DefaultHousehold(), h)
	})

	t.Run("SaveValidates", func(t *testing.T) {
		assert.Error(t, SaveHousehold(ctx, docs, Household{FamilySize: 0, MaxRepeatPerWeek: 1}))
		require.NoError(t, SaveHousehold(ctx, docs, Household{FamilySize: 3, MaxRepeatPerWeek: 1}))

		h, err := LoadHousehold(ctx, docs)
		require.NoError(t, err)
		assert.Equal(t, 3, h.FamilySize)
		assert.False(t, h.AllowRepeatsIfNeeded)
	})
}
