package repository

import (
	"context"

	"cafeshop/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)

	// 同一カフェは数量加算。無ければcafeのスナップショットで作成
	UpsertByUserAndCafe(ctx context.Context, userID int64, cafe model.Cafe, addQty int64) (model.CartItem, error)

	// 数量をdeltaだけ動かす。1未満になったら行を消してdeleted=true
	AdjustQuantity(ctx context.Context, cartItemID int64, delta int64) (item model.CartItem, deleted bool, err error)

	DeleteByID(ctx context.Context, cartItemID int64) error
	DeleteByCafeID(ctx context.Context, cafeID int64) (int64, error)
	SubtractByUserAndCafe(ctx context.Context, userID int64, cafeID int64, qty int64) error
	IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error)
}
