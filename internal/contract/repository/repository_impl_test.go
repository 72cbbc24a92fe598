package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/reefward/diveops/internal/contract/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, domain.Registry) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Contract{}))
	return db, Provide()
}

func TestFindEffective_PrefersNewestWindow(t *testing.T) {
	db, registry := setup(t)
	siteID := snowflake.ID(5)
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create([]domain.Contract{
		{ID: 1, Tag: domain.TagVendorPricing, ScopeKind: domain.ScopeKindSite, ScopeRef: siteID, CounterpartyID: 2, ValidFrom: jan},
		{ID: 2, Tag: domain.TagVendorPricing, ScopeKind: domain.ScopeKindSite, ScopeRef: siteID, CounterpartyID: 3, ValidFrom: jun},
	}).Error)

	got, err := registry.FindEffective(context.Background(), db, domain.TagVendorPricing, domain.ScopeKindSite, siteID, jun.Add(24*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snowflake.ID(2), got.ID)

	got, err = registry.FindEffective(context.Background(), db, domain.TagVendorPricing, domain.ScopeKindSite, siteID, jan.Add(24*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snowflake.ID(1), got.ID)
}

func TestFindEffective_WindowEndIsExclusive(t *testing.T) {
	db, registry := setup(t)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&domain.Contract{
		ID: 1, Tag: domain.TagGasPricing, ScopeKind: domain.ScopeKindOrganization,
		ScopeRef: 1, CounterpartyID: 2, ValidFrom: from, ValidTo: &to,
	}).Error)

	got, err := registry.FindEffective(context.Background(), db, domain.TagGasPricing, domain.ScopeKindOrganization, 1, to)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = registry.FindEffective(context.Background(), db, domain.TagGasPricing, domain.ScopeKindOrganization, 1, to.Add(-time.Second))
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestFindEffective_MissIsNilNotError(t *testing.T) {
	db, registry := setup(t)

	got, err := registry.FindEffective(context.Background(), db, domain.TagVendorPricing, domain.ScopeKindSite, 99, time.Now())
	require.NoError(t, err)
	assert.Nil(t, got)
}
