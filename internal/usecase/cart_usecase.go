package usecase

import (
	"context"
	"errors"
	"net/http"

	"cafeshop/internal/domain/model"
	repo "cafeshop/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// 明細はユーザーに直接ぶら下がり、(user, cafe) で1行。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	cafeRepo     repo.CafeRepository
}

func NewCartUsecase(
	cartItemRepo repo.CartItemRepository,
	cafeRepo repo.CafeRepository,
) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		cafeRepo:     cafeRepo,
	}
}

type CartView struct {
	Items    []model.CartItem
	Total    int64
	Currency string
}

func (v CartView) DisplayTotal() string {
	return model.FormatPrice(v.Total, v.Currency)
}

func (v CartView) IsEmpty() bool {
	return len(v.Items) == 0
}

// View はユーザーの明細と合計を返す
func (u *CartUsecase) View(ctx context.Context, userID int64) (CartView, error) {
	if userID <= 0 {
		return CartView{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	view := CartView{Items: items}
	for _, it := range items {
		view.Total += it.Subtotal()
		if view.Currency == "" {
			view.Currency = it.Currency
		}
	}
	return view, nil
}

// AddToCart は1つ追加（同一カフェは数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, cafeID int64) (model.CartItem, error) {
	if userID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cafeID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusBadRequest, "invalid cafe id")
	}

	cafe, err := u.cafeRepo.FindByID(ctx, cafeID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.CartItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	item, err := u.cartItemRepo.UpsertByUserAndCafe(ctx, userID, cafe, 1)
	if err != nil {
		return model.CartItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return item, nil
}

// 数量+1
func (u *CartUsecase) Increment(ctx context.Context, userID int64, cartItemID int64) (model.CartItem, error) {
	item, _, err := u.adjust(ctx, userID, cartItemID, 1)
	return item, err
}

// 数量-1。1のときは明細を消す
func (u *CartUsecase) Decrement(ctx context.Context, userID int64, cartItemID int64) (model.CartItem, bool, error) {
	return u.adjust(ctx, userID, cartItemID, -1)
}

func (u *CartUsecase) adjust(ctx context.Context, userID int64, cartItemID int64, delta int64) (model.CartItem, bool, error) {
	if err := u.checkOwner(ctx, userID, cartItemID); err != nil {
		return model.CartItem{}, false, err
	}

	item, deleted, err := u.cartItemRepo.AdjustQuantity(ctx, cartItemID, delta)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, false, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.CartItem{}, false, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return item, deleted, nil
}

// 明細削除
func (u *CartUsecase) Remove(ctx context.Context, userID int64, cartItemID int64) error {
	if err := u.checkOwner(ctx, userID, cartItemID); err != nil {
		return err
	}

	err := u.cartItemRepo.DeleteByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// 他人の明細は存在しないものとして扱う
func (u *CartUsecase) checkOwner(ctx context.Context, userID int64, cartItemID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	return nil
}
