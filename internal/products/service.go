package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dperea/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dperea/storefront-backend/pkg/errors"
	"github.com/dperea/storefront-backend/pkg/oid"
	"gorm.io/gorm"
)

// CreateProductInput captures a new catalog entry. Stock is writable only
// here; afterwards the order ledger owns it.
type CreateProductInput struct {
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	ImageURL    *string
	CreatedBy   oid.ID
}

// UpdateProductInput edits catalog fields. Nil pointers leave the current
// value alone.
type UpdateProductInput struct {
	Name        *string
	Description *string
	PriceCents  *int64
	ImageURL    *string
}

// Service exposes catalog operations.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Get(ctx context.Context, id oid.ID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Search(ctx context.Context, name string) ([]models.Product, error)
	ListMine(ctx context.Context, creator oid.ID) ([]models.Product, error)
	Update(ctx context.Context, id oid.ID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, id oid.ID) error
}

type service struct {
	repo ProductRepository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo ProductRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

// Create validates and persists a new product.
func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if !input.CreatedBy.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id is required")
	}

	product := &models.Product{
		ID:          oid.New(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Stock:       input.Stock,
		ImageURL:    input.ImageURL,
		CreatedBy:   input.CreatedBy,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

// Get returns a single product.
func (s *service) Get(ctx context.Context, id oid.ID) (*models.Product, error) {
	return s.load(ctx, id)
}

// List returns the whole catalog.
func (s *service) List(ctx context.Context) ([]models.Product, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return rows, nil
}

// Search returns products whose name contains the query, case-insensitively.
func (s *service) Search(ctx context.Context, name string) ([]models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid search query")
	}
	rows, err := s.repo.SearchByName(ctx, name)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return rows, nil
}

// ListMine returns the catalog entries the caller created.
func (s *service) ListMine(ctx context.Context, creator oid.ID) ([]models.Product, error) {
	if !creator.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id is required")
	}
	rows, err := s.repo.ListByCreator(ctx, creator)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list own products")
	}
	return rows, nil
}

// Update applies the provided edits. Stock stays untouched; the ledger owns
// it after creation.
func (s *service) Update(ctx context.Context, id oid.ID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return updated, nil
}

// Delete removes the product.
func (s *service) Delete(ctx context.Context, id oid.ID) error {
	if !id.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInvalidIdentifier, fmt.Sprintf("Invalid product id: %s", id))
	}
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Product not found: %s", id))
	}
	return nil
}

func (s *service) load(ctx context.Context, id oid.ID) (*models.Product, error) {
	if !id.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentifier, fmt.Sprintf("Invalid product id: %s", id))
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Product not found: %s", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
