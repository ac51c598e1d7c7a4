package repository

import (
	"cafeshop/internal/domain/model"
	repo "cafeshop/internal/repository"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカート明細を一覧取得
func (r *CartGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 明細を取得
func (r *CartGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var item model.CartItem

	err := r.db.WithContext(ctx).
		Where("id = ?", cartItemID).
		First(&item).Error
	if err != nil {
		return model.CartItem{}, translate(err)
	}
	return item, nil
}

// 同一カフェは数量加算
// 同時に作成されてunique制約に当たったら、もう一度加算として実行する
func (r *CartGormRepository) UpsertByUserAndCafe(ctx context.Context, userID int64, cafe model.Cafe, addQty int64) (model.CartItem, error) {
	if addQty <= 0 {
		return model.CartItem{}, errors.New("invalid quantity")
	}

	var (
		out model.CartItem
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		out, err = r.upsertOnce(ctx, userID, cafe, addQty)
		if err == nil || !isDuplicate(err) {
			break
		}
	}
	if err != nil {
		return model.CartItem{}, translate(err)
	}
	return out, nil
}

func (r *CartGormRepository) upsertOnce(ctx context.Context, userID int64, cafe model.Cafe, addQty int64) (model.CartItem, error) {
	var out model.CartItem

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.CartItem

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND cafe_id = ?", userID, cafe.ID).
			First(&item).Error

		if err == nil {
			// 既存ありだったら数量を増やす
			item.Quantity += addQty
			res := tx.Model(&model.CartItem{}).
				Where("id = ?", item.ID).
				Updates(map[string]any{"quantity": item.Quantity, "updated_at": time.Now()})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrNotFound
			}
			out = item
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		//無い場合は追加時点の名前・価格で新規作成
		newItem := model.CartItem{
			UserID:            userID,
			CafeID:            cafe.ID,
			Name:              cafe.Name,
			UnitPriceSnapshot: cafe.Price,
			Currency:          cafe.Currency,
			ImgURL:            cafe.ImgURL,
			Quantity:          addQty,
		}
		if err := tx.Create(&newItem).Error; err != nil {
			return err
		}
		out = newItem
		return nil
	})
	return out, err
}

// 数量をdeltaだけ変更。1未満になる場合は削除する
func (r *CartGormRepository) AdjustQuantity(ctx context.Context, cartItemID int64, delta int64) (model.CartItem, bool, error) {
	var (
		out     model.CartItem
		deleted bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.CartItem
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", cartItemID).
			First(&item).Error; err != nil {
			return translate(err)
		}

		newQty := item.Quantity + delta
		if newQty < 1 {
			if err := tx.Delete(&model.CartItem{}, item.ID).Error; err != nil {
				return err
			}
			item.Quantity = 0
			out, deleted = item, true
			return nil
		}

		if err := tx.Model(&model.CartItem{}).
			Where("id = ?", item.ID).
			Updates(map[string]any{"quantity": newQty, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		item.Quantity = newQty
		out = item
		return nil
	})
	if err != nil {
		return model.CartItem{}, false, err
	}
	return out, deleted, nil
}

// 明細を削除
func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// カフェ削除に合わせて全ユーザーの明細を消す
func (r *CartGormRepository) DeleteByCafeID(ctx context.Context, cafeID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("cafe_id = ?", cafeID).Delete(&model.CartItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// 決済済みの数量だけ減らし、0以下なら行を消す。行が無ければ何もしない
func (r *CartGormRepository) SubtractByUserAndCafe(ctx context.Context, userID int64, cafeID int64, qty int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.CartItem
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND cafe_id = ?", userID, cafeID).
			First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if item.Quantity-qty < 1 {
			return tx.Delete(&model.CartItem{}, item.ID).Error
		}
		return tx.Model(&model.CartItem{}).
			Where("id = ?", item.ID).
			Updates(map[string]any{"quantity": item.Quantity - qty, "updated_at": time.Now()}).Error
	})
}

// cartItemがそのuserのものかを判定
func (r *CartGormRepository) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.CartItem{}).
		Where("id = ? AND user_id = ?", cartItemID, userID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

var _ repo.CartItemRepository = (*CartGormRepository)(nil)
