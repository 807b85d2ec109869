package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/dperea/storefront-backend/internal/inventory"
	"github.com/dperea/storefront-backend/internal/notifications"
	"github.com/dperea/storefront-backend/pkg/db/models"
	"github.com/dperea/storefront-backend/pkg/enums"
	pkgerrors "github.com/dperea/storefront-backend/pkg/errors"
	"github.com/dperea/storefront-backend/pkg/logger"
	"github.com/dperea/storefront-backend/pkg/metrics"
	"github.com/dperea/storefront-backend/pkg/oid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the order lifecycle: placement, item edits, status moves and
// cancellation. Every mutation runs in one transaction with the order row
// locked, and events reach subscribers only after that transaction commits.
type Service interface {
	Place(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	UpdateItems(ctx context.Context, input UpdateOrderItemsInput) (*models.Order, error)
	ChangeStatus(ctx context.Context, input ChangeStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelOrderInput) (*models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	ListMine(ctx context.Context, userID oid.ID) ([]models.Order, error)
}

type service struct {
	repo    OrderRepository
	tx      txRunner
	ledger  inventory.Ledger
	hub     notifications.Publisher
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

// NewService builds the order engine backed by the provided stack.
func NewService(repo OrderRepository, tx txRunner, ledger inventory.Ledger, hub notifications.Publisher, m *metrics.OrderMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if hub == nil {
		return nil, fmt.Errorf("notification hub required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		ledger:  ledger,
		hub:     hub,
		metrics: m,
		logg:    logg,
	}, nil
}

// Place reserves stock for every requested line and persists the order with
// its priced snapshot. A failing line aborts the whole batch.
func (s *service) Place(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if !input.UserID.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	lines, err := parseLines(input.Items)
	if err != nil {
		return nil, err
	}

	var saved *models.Order
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reserved, terr := s.ledger.CheckAndReserve(ctx, tx, lines)
		if terr != nil {
			return terr
		}

		order := &models.Order{
			ID:         oid.New(),
			UserID:     input.UserID,
			Status:     enums.OrderStatusPlaced,
			Items:      buildItems(reserved),
			TotalCents: totalCents(reserved),
		}

		txRepo := s.repo.WithTx(tx)
		if _, terr := txRepo.Create(ctx, order); terr != nil {
			return terr
		}
		saved, terr = txRepo.FindByID(ctx, order.ID)
		return terr
	}); err != nil {
		return nil, coerce(err, "place order")
	}

	s.metrics.IncPlaced()
	s.hub.Publish(notifications.Event{
		Name:    enums.OrderEventPlaced,
		Message: "Order placed successfully",
		Order:   saved,
	})
	return saved, nil
}

// UpdateItems replaces the order's item set, reconciling stock against what
// the order already holds. Only the owner may edit, and only while placed.
func (s *service) UpdateItems(ctx context.Context, input UpdateOrderItemsInput) (*models.Order, error) {
	lines, err := parseLines(input.Items)
	if err != nil {
		return nil, err
	}

	var saved *models.Order
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, terr := lockOrder(ctx, txRepo, input.OrderID)
		if terr != nil {
			return terr
		}
		if order.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "You are not authorized to update this order")
		}
		if order.Status != enums.OrderStatusPlaced {
			return invalidState(order.Status)
		}

		reserved, terr := s.ledger.Reconcile(ctx, tx, itemLines(order.Items), lines)
		if terr != nil {
			return terr
		}

		if terr := txRepo.ReplaceItems(ctx, order.ID, buildItems(reserved)); terr != nil {
			return terr
		}
		order.Items = nil
		order.TotalCents = totalCents(reserved)
		if _, terr := txRepo.Save(ctx, order); terr != nil {
			return terr
		}
		saved, terr = txRepo.FindByID(ctx, order.ID)
		return terr
	}); err != nil {
		return nil, coerce(err, "update order items")
	}

	s.metrics.IncUpdated()
	s.hub.Publish(notifications.Event{
		Name:    enums.OrderEventUpdated,
		Message: "Order updated successfully",
		Order:   saved,
	})
	return saved, nil
}

// ChangeStatus overwrites the order status. Reserved for privileged callers;
// enforcement lives in the HTTP layer. Stock is untouched either way.
func (s *service) ChangeStatus(ctx context.Context, input ChangeStatusInput) (*models.Order, error) {
	target, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status: %s", input.Status))
	}

	var saved *models.Order
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, terr := lockOrder(ctx, txRepo, input.OrderID)
		if terr != nil {
			return terr
		}
		if order.Status == target {
			return pkgerrors.New(pkgerrors.CodeNoChangeNeeded, fmt.Sprintf("Order already has status: %s", target))
		}
		if order.Status.IsTerminal() {
			return invalidState(order.Status)
		}

		order.Status = target
		if _, terr := txRepo.Save(ctx, order); terr != nil {
			return terr
		}
		saved, terr = txRepo.FindByID(ctx, order.ID)
		return terr
	}); err != nil {
		return nil, coerce(err, "change order status")
	}

	s.metrics.IncTransition(target.String())
	s.hub.Publish(notifications.Event{
		Name:    enums.OrderEventUpdated,
		Message: "Order updated successfully",
		Order:   saved,
	})
	return saved, nil
}

// Cancel moves a placed order to canceled and returns every reserved line to
// stock. Only the owner may cancel.
func (s *service) Cancel(ctx context.Context, input CancelOrderInput) (*models.Order, error) {
	var saved *models.Order
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, terr := lockOrder(ctx, txRepo, input.OrderID)
		if terr != nil {
			return terr
		}
		if order.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "You are not authorized to update this order")
		}
		if order.Status != enums.OrderStatusPlaced {
			return invalidState(order.Status)
		}

		if terr := s.ledger.Release(ctx, tx, itemLines(order.Items)); terr != nil {
			return terr
		}
		order.Status = enums.OrderStatusCanceled
		if _, terr := txRepo.Save(ctx, order); terr != nil {
			return terr
		}
		saved, terr = txRepo.FindByID(ctx, order.ID)
		return terr
	}); err != nil {
		return nil, coerce(err, "cancel order")
	}

	s.metrics.IncCanceled()
	s.hub.Publish(notifications.Event{
		Name:    enums.OrderEventCancelled,
		Message: "Order cancelled successfully",
		Order:   saved,
	})
	return saved, nil
}

// ListAll returns every order with owner and products expanded.
func (s *service) ListAll(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

// ListMine returns the caller's orders.
func (s *service) ListMine(ctx context.Context, userID oid.ID) ([]models.Order, error) {
	if !userID.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

// parseLines validates identifier shape and quantity for every requested
// line before anything touches storage; the first bad line wins.
func parseLines(items []ItemInput) ([]inventory.Line, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	lines := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		id, err := oid.Parse(item.ProductID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, fmt.Sprintf("Invalid product id: %s", item.ProductID))
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be positive for product: %s", id))
		}
		lines = append(lines, inventory.Line{ProductID: id, Quantity: item.Quantity})
	}
	return lines, nil
}

func lockOrder(ctx context.Context, repo OrderRepository, id oid.ID) (*models.Order, error) {
	if !id.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, fmt.Sprintf("Invalid order id: %s", id))
	}
	order, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Order not found: %s", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func invalidState(status enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidState, fmt.Sprintf("Cant update the order, The order is: %s", status))
}

func itemLines(items []models.OrderItem) []inventory.Line {
	lines := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

func buildItems(reserved []inventory.ReservedLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(reserved))
	for i, line := range reserved {
		items = append(items, models.OrderItem{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			Position:       i,
		})
	}
	return items
}

func totalCents(reserved []inventory.ReservedLine) int64 {
	var total int64
	for _, line := range reserved {
		total += int64(line.Quantity) * line.UnitPriceCents
	}
	return total
}

// coerce keeps typed failures intact and wraps anything else as a storage
// dependency problem with a generic public message.
func coerce(err error, action string) error {
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
