package products

import (
	"context"
	"testing"

	"github.com/dperea/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dperea/storefront-backend/pkg/errors"
	"github.com/dperea/storefront-backend/pkg/oid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc, db
}

func TestCreateAndGetProduct(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:       "  widget  ",
		PriceCents: 1500,
		Stock:      10,
		CreatedBy:  oid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, "widget", created.Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 10, got.Stock)
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	creator := oid.New()

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"missing name", CreateProductInput{PriceCents: 100, CreatedBy: creator}},
		{"zero price", CreateProductInput{Name: "x", PriceCents: 0, CreatedBy: creator}},
		{"negative stock", CreateProductInput{Name: "x", PriceCents: 100, Stock: -1, CreatedBy: creator}},
		{"missing creator", CreateProductInput{Name: "x", PriceCents: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			require.Error(t, err)
			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
		})
	}
}

func TestUpdateProductLeavesStockAlone(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:       "widget",
		PriceCents: 1000,
		Stock:      7,
		CreatedBy:  oid.New(),
	})
	require.NoError(t, err)

	newName := "super widget"
	newPrice := int64(1250)
	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{Name: &newName, PriceCents: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, "super widget", updated.Name)
	assert.Equal(t, int64(1250), updated.PriceCents)

	var persisted models.Product
	require.NoError(t, db.First(&persisted, "id = ?", created.ID).Error)
	assert.Equal(t, 7, persisted.Stock)
}

func TestDeleteProduct(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Name:       "widget",
		PriceCents: 100,
		CreatedBy:  oid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	err = svc.Delete(ctx, created.ID)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestSearchProductsMatchesNameSubstring(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	creator := oid.New()

	for _, name := range []string{"Red Widget", "Blue Widget", "Gadget"} {
		_, err := svc.Create(ctx, CreateProductInput{
			Name:       name,
			PriceCents: 100,
			CreatedBy:  creator,
		})
		require.NoError(t, err)
	}

	rows, err := svc.Search(ctx, "widget")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Contains(t, row.Name, "Widget")
	}

	none, err := svc.Search(ctx, "anvil")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.Search(ctx, "   ")
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Equal(t, "Invalid search query", appErr.Message())
}

func TestListMineFiltersByCreator(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	mine := oid.New()
	other := oid.New()

	_, err := svc.Create(ctx, CreateProductInput{Name: "mine-a", PriceCents: 100, CreatedBy: mine})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateProductInput{Name: "mine-b", PriceCents: 100, CreatedBy: mine})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateProductInput{Name: "theirs", PriceCents: 100, CreatedBy: other})
	require.NoError(t, err)

	rows, err := svc.ListMine(ctx, mine)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, mine, row.CreatedBy)
	}
}
