package repository

import (
	"cafeshop/internal/domain/model"
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	//unique制約違反
	ErrDuplicate = errors.New("duplicate")
)

// カフェの永続化（保存・取得）だけを約束。
type CafeRepository interface {
	//id順の全件
	ListAll(ctx context.Context) ([]model.Cafe, error)
	FindByID(ctx context.Context, id int64) (model.Cafe, error)

	Create(ctx context.Context, c model.Cafe) (model.Cafe, error)
	Update(ctx context.Context, c model.Cafe) error
	Delete(ctx context.Context, id int64) error
}
