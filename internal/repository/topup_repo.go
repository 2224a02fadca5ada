package repository

import (
	"context"
	"errors"

	"homeserve/internal/model"

	"gorm.io/gorm"
)

var ErrOfferNotFound = errors.New("充值档位不存在")

type TopupOfferRepository struct {
	db *gorm.DB
}

func NewTopupOfferRepository(db *gorm.DB) *TopupOfferRepository {
	return &TopupOfferRepository{db: db}
}

func (r *TopupOfferRepository) Create(ctx context.Context, offer *model.TopupOffer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *TopupOfferRepository) GetByOfferID(ctx context.Context, offerID string) (*model.TopupOffer, error) {
	var offer model.TopupOffer
	err := r.db.WithContext(ctx).Where("offer_id = ?", offerID).First(&offer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return &offer, nil
}

func (r *TopupOfferRepository) ListActive(ctx context.Context) ([]*model.TopupOffer, error) {
	var offers []*model.TopupOffer
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("amount ASC").
		Find(&offers).Error
	return offers, err
}
