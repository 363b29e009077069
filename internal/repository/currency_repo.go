package repository

import (
	"context"

	"github.com/kassemKu/sibai-transactions-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CurrencyRepository interface {
	Create(ctx context.Context, c *model.Currency) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Currency, error)
	FindByCode(ctx context.Context, code string) (*model.Currency, error)
	FindAll(ctx context.Context) ([]model.Currency, error)
	Update(ctx context.Context, c *model.Currency) error
}

type currencyRepo struct{ db *gorm.DB }

func NewCurrencyRepository(db *gorm.DB) CurrencyRepository { return &currencyRepo{db: db} }

func (r *currencyRepo) Create(ctx context.Context, c *model.Currency) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *currencyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Currency, error) {
	var c model.Currency
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *currencyRepo) FindByCode(ctx context.Context, code string) (*model.Currency, error) {
	var c model.Currency
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	return &c, err
}

func (r *currencyRepo) FindAll(ctx context.Context) ([]model.Currency, error) {
	var currencies []model.Currency
	err := r.db.WithContext(ctx).Order("code ASC").Find(&currencies).Error
	return currencies, err
}

func (r *currencyRepo) Update(ctx context.Context, c *model.Currency) error {
	return r.db.WithContext(ctx).Save(c).Error
}
