package service

import (
	"context"
	"errors"

	"homeserve/internal/model"
	"homeserve/internal/repository"

	"gorm.io/gorm"
)

var ErrInvalidPrice = errors.New("价格必须大于0")

// CatalogService 服务目录：品类、服务项、技师
type CatalogService struct {
	catalogRepo *repository.CatalogRepository
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{
		catalogRepo: repository.NewCatalogRepository(db),
	}
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID, productType string) ([]*model.Product, error) {
	return s.catalogRepo.ListProducts(ctx, categoryID, productType)
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	return s.catalogRepo.GetProduct(ctx, productID)
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *model.Product) error {
	if product.Price <= 0 {
		return ErrInvalidPrice
	}
	if product.Type == "" {
		product.Type = model.ProductTypeProduct
	}
	return s.catalogRepo.CreateProduct(ctx, product)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.catalogRepo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, category *model.Category) error {
	return s.catalogRepo.CreateCategory(ctx, category)
}

func (s *CatalogService) ListProfessionals(ctx context.Context) ([]*model.Professional, error) {
	return s.catalogRepo.ListProfessionals(ctx)
}
