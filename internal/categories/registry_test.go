package categories

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"networth/internal/core"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	assert.True(t, r.Contains(core.Asset, "Cash"))
	assert.True(t, r.Contains(core.Liability, "Student Loans"))
	assert.True(t, r.Contains(core.CashFlow, "Salary"))
	assert.True(t, r.Contains(core.Asset, "Mortgage"))
	assert.True(t, r.Contains(core.Liability, "Mortgage"))

	assert.False(t, r.Contains(core.Asset, "Salary"))
	assert.False(t, r.Contains(core.Asset, "cash"), "matching is exact")
}

func TestCheck(t *testing.T) {
	r := Default()
	require.NoError(t, r.Check(core.Asset, "Stocks"))

	for _, tc := range []struct {
		class core.Class
		name  string
	}{
		{core.Asset, "Student Loans"},
		{core.Liability, ""},
		{"equity", "Cash"},
	} {
		err := r.Check(tc.class, tc.name)
		require.Error(t, err, "%s/%s", tc.class, tc.name)
		assert.True(t, errors.Is(err, core.ErrValidation))
	}
}

func TestSubcategoriesReturnsCopy(t *testing.T) {
	r := Default()
	l := r.Subcategories(core.Asset)
	l[0] = "mutated"
	assert.Equal(t, "Cash", r.Subcategories(core.Asset)[0])
	assert.Nil(t, r.Subcategories("unknown"))
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.yaml")
	content := "assets:\n  - Cash\n  - Gold\n  - Gold\ncash flow: [Salary, Pension]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Cash", "Gold"}, r.Subcategories(core.Asset))
	assert.Equal(t, []string{"Salary", "Pension"}, r.Subcategories(core.CashFlow))
	// untouched class keeps defaults
	assert.True(t, r.Contains(core.Liability, "Student Loans"))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("equity: [Shares]\n"), 0o600))
	_, err = Load(bad)
	require.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("asset: []\n"), 0o600))
	_, err = Load(empty)
	require.Error(t, err)

	r, err := Load("")
	require.NoError(t, err)
	assert.True(t, r.Contains(core.Asset, "Cash"))
}
