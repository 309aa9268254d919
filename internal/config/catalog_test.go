package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogConfigDefaultsWithoutFile(t *testing.T) {
	holder, err := LoadCatalogConfig(t.TempDir())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, OrphanPolicyDrop, cfg.OrphanPolicy)
	assert.Equal(t, "ROLE_SUPER_ADMIN", cfg.AdminRole)
	assert.NotEmpty(t, cfg.InsufficientFundsMessage)
}

func TestLoadCatalogConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := "catalog:\n  orphanPolicy: Placeholder\n  adminRole: ROLE_ADMIN\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yml"), []byte(content), 0o600))

	holder, err := LoadCatalogConfig(dir)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, OrphanPolicyPlaceholder, cfg.OrphanPolicy)
	assert.Equal(t, "ROLE_ADMIN", cfg.AdminRole)
}

func TestLoadCatalogConfigRejectsUnknownPolicy(t *testing.T) {
	dir := t.TempDir()
	content := "catalog:\n  orphanPolicy: merge\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yml"), []byte(content), 0o600))

	_, err := LoadCatalogConfig(dir)
	require.Error(t, err)
}

func TestBillingBaseURL(t *testing.T) {
	cfg := BillingClientConfig{Host: "billing.local:8081", APIVersion: "v1"}
	assert.Equal(t, "http://billing.local:8081/api/v1", cfg.BaseURL())

	cfg.Scheme = "https"
	assert.Equal(t, "https://billing.local:8081/api/v1", cfg.BaseURL())
}
