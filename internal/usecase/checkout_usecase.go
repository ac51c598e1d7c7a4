package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"cafeshop/internal/domain/model"
	repo "cafeshop/internal/repository"
)

// カフェ→ゲートウェイ価格の解決
type PriceResolver interface {
	Resolve(ctx context.Context, c model.Cafe) (PriceRef, error)
}

// 冪等キーの生成
type KeyGenerator interface {
	NewID() string
}

type CheckoutUsecase struct {
	cartItemRepo  repo.CartItemRepository
	cafeRepo      repo.CafeRepository
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
	txm           repo.TransactionManager
	prices        PriceResolver
	gateway       PaymentGateway
	keys          KeyGenerator
	baseURL       string
}

// DI
func NewCheckoutUsecase(
	cartItemRepo repo.CartItemRepository,
	cafeRepo repo.CafeRepository,
	orderRepo repo.OrderRepository,
	orderItemRepo repo.OrderItemRepository,
	txm repo.TransactionManager,
	prices PriceResolver,
	gateway PaymentGateway,
	keys KeyGenerator,
	baseURL string,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		cartItemRepo:  cartItemRepo,
		cafeRepo:      cafeRepo,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		txm:           txm,
		prices:        prices,
		gateway:       gateway,
		keys:          keys,
		baseURL:       baseURL,
	}
}

// CreateCheckoutSession は明細1行分の決済ページを作る。
// ゲートウェイのエラーは *GatewayError のまま返す（リトライしない）
func (u *CheckoutUsecase) CreateCheckoutSession(ctx context.Context, userID int64, cartItemID int64) (CheckoutSession, error) {
	if userID <= 0 {
		return CheckoutSession{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return CheckoutSession{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return CheckoutSession{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	line, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutSession{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CheckoutSession{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//明細の元になったカフェ
	cafe, err := u.cafeRepo.FindByID(ctx, line.CafeID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutSession{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CheckoutSession{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	ref, err := u.prices.Resolve(ctx, cafe)
	if err != nil {
		return CheckoutSession{}, err
	}

	key := u.keys.NewID()
	sess, err := u.gateway.CreateCheckoutSession(ctx, CheckoutSessionInput{
		PriceID:        ref.PriceID,
		Quantity:       line.Quantity,
		SuccessURL:     u.baseURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:      u.baseURL + "/cancel?key=" + url.QueryEscape(key),
		IdempotencyKey: key,
	})
	if err != nil {
		return CheckoutSession{}, err
	}

	//PENDINGの注文を記録
	err = u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:            userID,
			Status:            model.OrderStatusPending,
			TotalPrice:        ref.UnitAmount * line.Quantity,
			Currency:          ref.Currency,
			CheckoutSessionID: sess.ID,
			IdempotencyKey:    key,
		})
		if err != nil {
			return err
		}
		return r.OrderItems().CreateBulk(ctx, orderID, []model.OrderItem{{
			CafeID:              cafe.ID,
			CartItemID:          line.ID,
			ProductNameSnapshot: cafe.Name,
			UnitPriceSnapshot:   ref.UnitAmount,
			Quantity:            line.Quantity,
			CreatedAt:           time.Now(),
		}})
	})
	if err != nil {
		return CheckoutSession{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return sess, nil
}

// ConfirmPayment は /success で呼ばれる。何度呼ばれても結果は同じ
func (u *CheckoutUsecase) ConfirmPayment(ctx context.Context, userID int64, sessionID string) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if sessionID == "" {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "session_id required")
	}

	order, err := u.orderRepo.FindByCheckoutSessionID(ctx, sessionID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if order.UserID != userID {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	switch order.Status {
	case model.OrderStatusPaid:
		return order, nil
	case model.OrderStatusCanceled:
		return model.Order{}, NewHTTPError(http.StatusConflict, "order canceled")
	}

	sess, err := u.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return model.Order{}, err
	}
	if !sess.Paid {
		return model.Order{}, NewHTTPError(http.StatusConflict, "payment not completed")
	}

	//PAIDにして、買った数量だけカートから減らす
	err = u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPaid); err != nil {
			return err
		}
		items, err := r.OrderItems().ListByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := r.CartItems().SubtractByUserAndCafe(ctx, userID, it.CafeID, it.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	order.Status = model.OrderStatusPaid
	return order, nil
}

// CancelCheckout はPENDINGの注文をCANCELEDにする。カートは触らない
func (u *CheckoutUsecase) CancelCheckout(ctx context.Context, userID int64, key string) (model.Order, error) {
	if userID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if key == "" {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "key required")
	}

	order, found, err := u.orderRepo.FindByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !found {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if order.Status != model.OrderStatusPending {
		return order, nil
	}

	if err := u.orderRepo.UpdateStatus(ctx, order.ID, model.OrderStatusCanceled); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	order.Status = model.OrderStatusCanceled
	return order, nil
}

type OrderView struct {
	Order model.Order
	Items []model.OrderItem
}

func (v OrderView) DisplayTotal() string {
	return model.FormatPrice(v.Order.TotalPrice, v.Order.Currency)
}

// 新しい順
func (u *CheckoutUsecase) ListOrders(ctx context.Context, userID int64) ([]OrderView, error) {
	if userID <= 0 {
		return []OrderView{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orders, err := u.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return []OrderView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := u.orderItemRepo.ListByOrderIDs(ctx, ids)
	if err != nil {
		return []OrderView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderView{Order: o, Items: byOrder[o.ID]})
	}
	return out, nil
}
