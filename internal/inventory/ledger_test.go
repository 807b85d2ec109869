package inventory

import (
	"context"
	"testing"

	"github.com/dperea/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dperea/storefront-backend/pkg/errors"
	"github.com/dperea/storefront-backend/pkg/logger"
	"github.com/dperea/storefront-backend/pkg/oid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}

func newTestLedger(t *testing.T) Ledger {
	t.Helper()
	led, err := NewLedger(logger.New(logger.Options{Level: zerolog.ErrorLevel}))
	require.NoError(t, err)
	return led
}

func seedProduct(t *testing.T, db *gorm.DB, name string, priceCents int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         oid.New(),
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		CreatedBy:  oid.New(),
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func currentStock(t *testing.T, db *gorm.DB, id oid.ID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", id).Error)
	return product.Stock
}

func TestCheckAndReserveDecrementsStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	led := newTestLedger(t)
	ctx := context.Background()

	widget := seedProduct(t, db, "widget", 1299, 20)
	gadget := seedProduct(t, db, "gadget", 450, 5)

	var reserved []ReservedLine
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		reserved, terr = led.CheckAndReserve(ctx, tx, []Line{
			{ProductID: widget.ID, Quantity: 2},
			{ProductID: gadget.ID, Quantity: 1},
		})
		return terr
	})
	require.NoError(t, err)
	require.Len(t, reserved, 2)

	assert.Equal(t, "widget", reserved[0].ProductName)
	assert.Equal(t, int64(1299), reserved[0].UnitPriceCents)
	assert.Equal(t, 2, reserved[0].Quantity)

	assert.Equal(t, 18, currentStock(t, db, widget.ID))
	assert.Equal(t, 4, currentStock(t, db, gadget.ID))
}

func TestCheckAndReserveRollsBackWholeBatch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	led := newTestLedger(t)
	ctx := context.Background()

	plentiful := seedProduct(t, db, "plentiful", 100, 50)
	scarce := seedProduct(t, db, "scarce", 100, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := led.CheckAndReserve(ctx, tx, []Line{
			{ProductID: plentiful.ID, Quantity: 10},
			{ProductID: scarce.ID, Quantity: 3},
		})
		return terr
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, appErr.Code())
	assert.Contains(t, appErr.Message(), "scarce")

	// earlier decrement rolled back with the transaction
	assert.Equal(t, 50, currentStock(t, db, plentiful.ID))
	assert.Equal(t, 1, currentStock(t, db, scarce.ID))
}

func TestCheckAndReserveUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	led := newTestLedger(t)
	ctx := context.Background()

	missing := oid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := led.CheckAndReserve(ctx, tx, []Line{{ProductID: missing, Quantity: 1}})
		return terr
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
	assert.Contains(t, appErr.Message(), missing.String())
}

func TestReleaseReturnsStockAndSkipsMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	led := newTestLedger(t)
	ctx := context.Background()

	widget := seedProduct(t, db, "widget", 100, 18)

	err := db.Transaction(func(tx *gorm.DB) error {
		return led.Release(ctx, tx, []Line{
			{ProductID: widget.ID, Quantity: 2},
			{ProductID: oid.New(), Quantity: 5},
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 20, currentStock(t, db, widget.ID))
}

func TestReconcileHeadroomIncludesHeldQuantity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	led := newTestLedger(t)
	ctx := context.Background()

	// stock 5 with 1 already held: headroom is 6
	product := seedProduct(t, db, "limited", 100, 5)
	held := []Line{{ProductID: product.ID, Quantity: 1}}

	err := db.Transaction(func(tx *gorm.DB) error {
		reserved, terr := led.Reconcile(ctx, tx, held, []Line{{ProductID: product.ID, Quantity: 6}})
		if terr != nil {
			return terr
		}
		require.Len(t, reserved, 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, currentStock(t, db, product.ID))
}

func TestReconcileRejectsBeyondHeadroom(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	led := newTestLedger(t)
	ctx := context.Background()

	product := seedProduct(t, db, "limited", 100, 5)
	held := []Line{{ProductID: product.ID, Quantity: 1}}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := led.Reconcile(ctx, tx, held, []Line{{ProductID: product.ID, Quantity: 7}})
		return terr
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, appErr.Code())
	assert.Equal(t, 5, currentStock(t, db, product.ID))
}

func TestReconcileReleasesRemovedProducts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	led := newTestLedger(t)
	ctx := context.Background()

	kept := seedProduct(t, db, "kept", 100, 10)
	dropped := seedProduct(t, db, "dropped", 100, 0)

	old := []Line{
		{ProductID: kept.ID, Quantity: 2},
		{ProductID: dropped.ID, Quantity: 3},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		reserved, terr := led.Reconcile(ctx, tx, old, []Line{{ProductID: kept.ID, Quantity: 4}})
		if terr != nil {
			return terr
		}
		require.Len(t, reserved, 1)
		assert.Equal(t, "kept", reserved[0].ProductName)
		return nil
	})
	require.NoError(t, err)

	// kept needed 2 more on top of its held 2; dropped got all 3 back
	assert.Equal(t, 8, currentStock(t, db, kept.ID))
	assert.Equal(t, 3, currentStock(t, db, dropped.ID))
}

func TestReconcileShrinkReturnsStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	led := newTestLedger(t)
	ctx := context.Background()

	product := seedProduct(t, db, "widget", 100, 18)
	held := []Line{{ProductID: product.ID, Quantity: 2}}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := led.Reconcile(ctx, tx, held, []Line{{ProductID: product.ID, Quantity: 1}})
		return terr
	})
	require.NoError(t, err)
	assert.Equal(t, 19, currentStock(t, db, product.ID))
}
