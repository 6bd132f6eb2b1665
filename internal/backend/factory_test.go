package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"networth/internal/config"
	"networth/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:     "sqlite",
		SQLiteDBPath:    "x.db",
		UpdateEntryDate: true,
		GoalLimit:       4,
		AMQPURL:         "amqp://localhost/",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, 4, cfg.GoalLimit)
	assert.True(t, cfg.UpdateEntryDate)
	assert.Equal(t, "amqp://localhost/", cfg.AMQPURL)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Type: "postgres"}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, GoalLimit: 1, UpdateEntryDate: true})
	require.NoError(t, err)
	defer res.Cleanup()

	b := res.Backend
	assert.Nil(t, b.Publisher)
	assert.Equal(t, 1, b.Goals.Limit())

	_, err = b.Entries.Create(ctx, core.Entry{Date: core.NewDate(2024, 1, 1), Class: core.Asset, Subcategory: "Cash", Value: core.Money{Cents: 10}})
	require.NoError(t, err)

	totals, err := b.Reports.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), totals.NetWorth.Cents)
}

func TestCreateSQLiteBackendWithCategoriesFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cats := filepath.Join(dir, "categories.yaml")
	require.NoError(t, os.WriteFile(cats, []byte("asset:\n  - Gold\n"), 0o600))

	res, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type:           SQLiteBackend,
		SQLiteDBPath:   filepath.Join(dir, "networth.db"),
		CategoriesFile: cats,
		GoalLimit:      3,
	})
	require.NoError(t, err)
	defer res.Cleanup()

	assert.Equal(t, []string{"Gold"}, res.Backend.Registry.Subcategories(core.Asset))

	_, err = res.Backend.Entries.Create(ctx, core.Entry{Date: core.NewDate(2024, 1, 1), Class: core.Asset, Subcategory: "Cash", Value: core.Money{Cents: 1}})
	assert.ErrorIs(t, err, core.ErrValidation, "Cash is no longer an asset subcategory")

	_, err = res.Backend.Entries.Create(ctx, core.Entry{Date: core.NewDate(2024, 1, 1), Class: core.Asset, Subcategory: "Gold", Value: core.Money{Cents: 1}})
	assert.NoError(t, err)
}

func TestCreateBackendBadCategoriesFile(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:           MemoryBackend,
		CategoriesFile: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	assert.Error(t, err)
}
