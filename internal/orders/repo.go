package orders

import (
	"context"

	"github.com/dperea/storefront-backend/pkg/db/models"
	"github.com/dperea/storefront-backend/pkg/oid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository is the persistence surface the order engine depends on.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	Save(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id oid.ID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id oid.ID) (*models.Order, error)
	ReplaceItems(ctx context.Context, orderID oid.ID, items []models.OrderItem) error
	ListAll(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID oid.ID) ([]models.Order, error)
}

// Repository exposes persistence operations for orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new order with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Save persists the order row without touching its item associations.
func (r *Repository) Save(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items", "User").Save(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads the order with its items and products expanded.
func (r *Repository) FindByID(ctx context.Context, id oid.ID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Preload("Items.Product").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate loads the order row locked for the current transaction.
// Items come from a follow-up read; only the order row itself needs the lock.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id oid.ID) (*models.Order, error) {
	query := r.db.WithContext(ctx)
	// sqlite has no SELECT ... FOR UPDATE; its single-writer lock covers us
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	err := query.
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("position ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ReplaceItems atomically replaces the order's item set.
func (r *Repository) ReplaceItems(ctx context.Context, orderID oid.ID, items []models.OrderItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return tx.Create(&items).Error
}

// ListAll returns every order with owner and products expanded.
func (r *Repository) ListAll(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Items", itemOrder).
		Preload("Items.Product").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByUser returns the orders owned by the given user.
func (r *Repository) ListByUser(ctx context.Context, userID oid.ID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemOrder).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func itemOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
