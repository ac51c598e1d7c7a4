package repository

import (
	"context"

	"cafeshop/internal/domain/model"
)

// 注文明細。作成はチェックアウト時のみで、以後は読むだけ
type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	// 注文履歴画面用。注文IDごとにまとめて返す
	ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error)
}
