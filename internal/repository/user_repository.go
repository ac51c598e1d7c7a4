package repository

import (
	"cafeshop/internal/domain/model"
	"context"
)

// 保存・取得を約束
// Find系は見つからないとき (nil, nil) を返す
type UserRepository interface {
	//新規ユーザー作成。email重複はErrDuplicate
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// 最後のログイン・ロールの変更など
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
