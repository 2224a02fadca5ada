package repository

import (
	"context"
	"errors"

	"homeserve/internal/model"

	"gorm.io/gorm"
)

var (
	ErrProductNotFound        = errors.New("服务商品不存在")
	ErrNoActiveProfessional   = errors.New("当前没有在职技师可指派")
	ErrProfessionalNotFound   = errors.New("技师不存在")
)

// CatalogRepository 目录仓储：商品、分类、技师
// 对结算引擎而言这些都是只读协作方，写入口只有管理端的薄封装
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context, categoryID, productType string) ([]*model.Product, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if productType != "" {
		query = query.Where("type = ?", productType)
	}

	var products []*model.Product
	err := query.Find(&products).Error
	return products, err
}

func (r *CatalogRepository) CreateProduct(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	err := r.db.WithContext(ctx).Find(&categories).Error
	return categories, err
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *CatalogRepository) ListProfessionals(ctx context.Context) ([]*model.Professional, error) {
	var professionals []*model.Professional
	err := r.db.WithContext(ctx).Find(&professionals).Error
	return professionals, err
}

// GetFirstActiveProfessional 取一名在职技师做自动指派
func (r *CatalogRepository) GetFirstActiveProfessional(ctx context.Context) (*model.Professional, error) {
	var professional model.Professional
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ProfessionalStatusActive).
		Order("id ASC").
		First(&professional).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveProfessional
		}
		return nil, err
	}
	return &professional, nil
}

// GetProfessionalByUserID 按登录身份反查技师档案（技师端接口鉴权用）
func (r *CatalogRepository) GetProfessionalByUserID(ctx context.Context, userID string) (*model.Professional, error) {
	var professional model.Professional
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&professional).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}
	return &professional, nil
}
