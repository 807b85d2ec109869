package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/dperea/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dperea/storefront-backend/pkg/errors"
	"github.com/dperea/storefront-backend/pkg/logger"
	"github.com/dperea/storefront-backend/pkg/oid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// Line is a stock movement request against a single product.
type Line struct {
	ProductID oid.ID
	Quantity  int
}

// ReservedLine is a successful reservation with the product snapshot taken at
// reservation time, so totals never drift if the catalog changes afterwards.
type ReservedLine struct {
	ProductID      oid.ID
	ProductName    string
	Quantity       int
	UnitPriceCents int64
}

// Ledger applies stock movements inside a caller-supplied transaction. Checks
// and decrements are issued as conditional updates so concurrent requests can
// never drive stock negative.
type Ledger interface {
	CheckAndReserve(ctx context.Context, tx *gorm.DB, lines []Line) ([]ReservedLine, error)
	Release(ctx context.Context, tx *gorm.DB, lines []Line) error
	Reconcile(ctx context.Context, tx *gorm.DB, oldLines, newLines []Line) ([]ReservedLine, error)
}

type ledger struct {
	logg *logger.Logger
}

// NewLedger builds the stock ledger.
func NewLedger(logg *logger.Logger) (Ledger, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &ledger{logg: logg}, nil
}

// CheckAndReserve decrements stock for every line, in order, failing fast on
// the first line whose product is missing or understocked. Callers run it in
// a transaction, so a failure rolls back decrements already applied.
func (l *ledger) CheckAndReserve(ctx context.Context, tx *gorm.DB, lines []Line) ([]ReservedLine, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	reserved := make([]ReservedLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}

		product, err := loadProduct(ctx, tx, line.ProductID)
		if err != nil {
			return nil, err
		}

		if err := decrementStock(ctx, tx, product, line.Quantity); err != nil {
			return nil, err
		}

		reserved = append(reserved, ReservedLine{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceCents,
		})
	}
	return reserved, nil
}

// Release returns stock for every line. Products that no longer exist are
// logged and skipped; storage failures are aggregated so one bad line does
// not abandon the rest of the release.
func (l *ledger) Release(ctx context.Context, tx *gorm.DB, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	var errs error
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		result := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", line.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", line.Quantity))
		if result.Error != nil {
			errs = multierr.Append(errs, fmt.Errorf("release product %s: %w", line.ProductID, result.Error))
			continue
		}
		if result.RowsAffected == 0 {
			l.logg.Warn(l.logg.WithFields(ctx, map[string]any{"product_id": line.ProductID.String()}),
				"skipping stock release for missing product")
		}
	}
	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "release stock")
	}
	return nil
}

// Reconcile moves stock from an order's old item set to its new one. Each
// product's headroom is its current stock plus whatever the old set already
// holds for it, so editing a line never competes with its own reservation.
func (l *ledger) Reconcile(ctx context.Context, tx *gorm.DB, oldLines, newLines []Line) ([]ReservedLine, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	oldQty := make(map[oid.ID]int, len(oldLines))
	for _, line := range oldLines {
		oldQty[line.ProductID] += line.Quantity
	}

	newQty := make(map[oid.ID]int, len(newLines))
	for _, line := range newLines {
		newQty[line.ProductID] += line.Quantity
	}

	reserved := make([]ReservedLine, 0, len(newLines))
	seen := make(map[oid.ID]bool, len(newLines))
	for _, line := range newLines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}

		product, err := loadProduct(ctx, tx, line.ProductID)
		if err != nil {
			return nil, err
		}

		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			held := oldQty[line.ProductID]
			want := newQty[line.ProductID]
			if want > product.Stock+held {
				return nil, insufficientStock(product)
			}
			if delta := want - held; delta > 0 {
				if err := decrementStock(ctx, tx, product, delta); err != nil {
					return nil, err
				}
			} else if delta < 0 {
				if err := incrementStock(ctx, tx, product.ID, -delta); err != nil {
					return nil, err
				}
			}
		}

		reserved = append(reserved, ReservedLine{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceCents,
		})
	}

	// products dropped from the order give their stock back
	for _, line := range oldLines {
		if _, kept := newQty[line.ProductID]; kept {
			continue
		}
		if err := incrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return nil, err
		}
	}

	return reserved, nil
}

func loadProduct(ctx context.Context, tx *gorm.DB, id oid.ID) (*models.Product, error) {
	var product models.Product
	if err := tx.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Product not found: %s", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &product, nil
}

func decrementStock(ctx context.Context, tx *gorm.DB, product *models.Product, qty int) error {
	result := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", product.ID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "reserve stock")
	}
	if result.RowsAffected == 0 {
		return insufficientStock(product)
	}
	return nil
}

func incrementStock(ctx context.Context, tx *gorm.DB, id oid.ID, qty int) error {
	result := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "return stock")
	}
	return nil
}

func insufficientStock(product *models.Product) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("Insufficient stock for product: %s", product.Name))
}
