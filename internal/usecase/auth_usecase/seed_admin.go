package auth

import (
	"context"
	"strings"

	"cafeshop/internal/domain/model"
	"cafeshop/internal/repository"
)

type SeedAdminInput struct {
	Email    string
	Password string
	Name     string
}

// 管理者を作る。既にいるユーザーならADMINに昇格させる
type SeedAdminUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	clock    Clock
}

// DI
func NewSeedAdminUsecase(userRepo repository.UserRepository, hasher PasswordHasher, clock Clock) *SeedAdminUsecase {
	return &SeedAdminUsecase{userRepo: userRepo, hasher: hasher, clock: clock}
}

func (u *SeedAdminUsecase) Execute(ctx context.Context, in SeedAdminInput) (model.User, bool, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return model.User{}, false, ErrValidation
	}
	if !isValidEmailFormat(email) {
		return model.User{}, false, ErrInvalidEmailFormat
	}

	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return model.User{}, false, err
	}
	if existing != nil {
		if existing.Role == model.RoleAdmin {
			return *existing, false, nil
		}
		existing.Role = model.RoleAdmin
		existing.UpdatedAt = u.clock.Now()
		if err := u.userRepo.Update(ctx, existing); err != nil {
			return model.User{}, false, err
		}
		return *existing, false, nil
	}

	//新規作成はパスワード必須
	if in.Password == "" {
		return model.User{}, false, ErrValidation
	}
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, false, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Admin"
	}
	now := u.clock.Now()
	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		Role:         model.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return model.User{}, false, err
	}
	return *user, true, nil
}
