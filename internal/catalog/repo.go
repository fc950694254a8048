package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pedidosapp/pedidos/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Get(ctx context.Context, id uuid.UUID) (*models.Dish, error) {
	var d models.Dish
	if err := r.DB.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *GormRepo) List(ctx context.Context, category string) ([]models.Dish, error) {
	q := r.DB.WithContext(ctx).Model(&models.Dish{})
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var dishes []models.Dish
	if err := q.Order("name ASC").Find(&dishes).Error; err != nil {
		return nil, err
	}
	return dishes, nil
}

// SearchByName is the fallback used when no search index is configured.
func (r *GormRepo) SearchByName(ctx context.Context, query string) ([]models.Dish, error) {
	var dishes []models.Dish
	err := r.DB.WithContext(ctx).
		Where("LOWER(name) LIKE ?", "%"+query+"%").
		Order("name ASC").
		Find(&dishes).Error
	if err != nil {
		return nil, err
	}
	return dishes, nil
}

func (r *GormRepo) Create(ctx context.Context, d *models.Dish) error {
	return r.DB.WithContext(ctx).Create(d).Error
}

func (r *GormRepo) Save(ctx context.Context, d *models.Dish) error {
	return r.DB.WithContext(ctx).Save(d).Error
}

func (r *GormRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Delete(&models.Dish{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
