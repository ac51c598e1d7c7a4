package auth

import (
	"context"

	"cafeshop/internal/repository"
)

// token_versionを上げて、発行済みのセッションを全部無効にする
type LogoutUsecase struct {
	userRepo repository.UserRepository
}

func NewLogoutUsecase(userRepo repository.UserRepository) *LogoutUsecase {
	return &LogoutUsecase{userRepo: userRepo}
}

func (u *LogoutUsecase) Execute(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrValidation
	}
	return u.userRepo.IncrementTokenVersion(ctx, userID)
}
