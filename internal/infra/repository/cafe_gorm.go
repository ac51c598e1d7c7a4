package repository

import (
	"context"

	"cafeshop/internal/domain/model"
	repo "cafeshop/internal/repository"

	"gorm.io/gorm"
)

type CafeGormRepository struct {
	db *gorm.DB
}

// DI
func NewCafeGormRepository(db *gorm.DB) *CafeGormRepository {
	return &CafeGormRepository{db: db}
}

// 全件をid順で返す
func (r *CafeGormRepository) ListAll(ctx context.Context) ([]model.Cafe, error) {
	var cafes []model.Cafe
	if err := r.db.WithContext(ctx).Order("id asc").Find(&cafes).Error; err != nil {
		return []model.Cafe{}, err
	}
	return cafes, nil
}

// IDでカフェを取得
func (r *CafeGormRepository) FindByID(ctx context.Context, id int64) (model.Cafe, error) {
	var c model.Cafe
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return model.Cafe{}, translate(err)
	}
	return c, nil
}

// 名前が重複していたらErrDuplicate
func (r *CafeGormRepository) Create(ctx context.Context, c model.Cafe) (model.Cafe, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Cafe{}, translate(err)
	}
	return c, nil
}

// 全項目を上書き
func (r *CafeGormRepository) Update(ctx context.Context, c model.Cafe) error {
	res := r.db.WithContext(ctx).
		Model(&model.Cafe{}).
		Where("id = ?", c.ID).
		Select("name", "map_url", "img_url", "location", "seats",
			"has_toilet", "has_wifi", "has_sockets", "can_take_calls",
			"price", "currency", "updated_at").
		Updates(&c)

	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CafeGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Cafe{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

var _ repo.CafeRepository = (*CafeGormRepository)(nil)

