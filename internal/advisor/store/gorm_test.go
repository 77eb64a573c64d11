package store

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/loan-advisor/internal/model"
)

func newTestGormCatalog(t *testing.T) *GormCatalog {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	c := NewGormCatalog(db)
	require.NoError(t, c.Migrate(context.Background()))
	return c
}

func TestGormCatalogListAllOrdersByAPR(t *testing.T) {
	ctx := context.Background()
	c := newTestGormCatalog(t)

	n, err := c.Seed(ctx, sampleProducts())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	products, err := c.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, []string{"Green Auto", "Scholar Plus", "Everyday Personal"},
		[]string{products[0].Name, products[1].Name, products[2].Name})

	assert.Equal(t, model.Document{"Can I prepay?": "Yes, after 6 months."}, products[0].FAQ)
	require.NotNil(t, products[0].TenureMaxMonths)
	assert.Equal(t, 72, *products[0].TenureMaxMonths)
	assert.Nil(t, products[1].TenureMaxMonths)
}

func TestGormCatalogEmpty(t *testing.T) {
	c := newTestGormCatalog(t)
	products, err := c.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestGormCatalogGetByID(t *testing.T) {
	ctx := context.Background()
	c := newTestGormCatalog(t)
	_, err := c.Seed(ctx, sampleProducts())
	require.NoError(t, err)

	p, err := c.GetByID(ctx, "6f1c2b9e-9d7f-4c55-9a55-0c1d7e1f0a03")
	require.NoError(t, err)
	assert.Equal(t, "Scholar Plus", p.Name)

	_, err = c.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGormCatalogSeedUpserts(t *testing.T) {
	ctx := context.Background()
	c := newTestGormCatalog(t)
	_, err := c.Seed(ctx, sampleProducts())
	require.NoError(t, err)

	updated := sampleProducts()[:1]
	updated[0].RateAPR = 11.0
	_, err = c.Seed(ctx, updated)
	require.NoError(t, err)

	products, err := c.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)

	p, err := c.GetByID(ctx, updated[0].ID)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, p.RateAPR, 1e-9)
}

func TestGormCatalogReseedFixturesWithoutID(t *testing.T) {
	ctx := context.Background()
	c := newTestGormCatalog(t)
	for range 2 {
		products, err := ParseFixtures([]byte(yamlFixture), ".yaml")
		require.NoError(t, err)
		_, err = c.Seed(ctx, products)
		require.NoError(t, err)
	}

	products, err := c.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestGormCatalogSeedAssignsID(t *testing.T) {
	ctx := context.Background()
	c := newTestGormCatalog(t)

	p := &model.LoanProduct{Name: "No ID", Bank: "B", Type: model.LoanTypeHome, RateAPR: 7}
	_, err := c.Seed(ctx, []*model.LoanProduct{p})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	got, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "No ID", got.Name)
}
