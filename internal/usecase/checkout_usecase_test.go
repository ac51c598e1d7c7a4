package usecase_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"cafeshop/internal/domain/model"
	"cafeshop/internal/testutil"
	"cafeshop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	env
	gw      *testutil.FakeGateway
	prices  *usecase.PriceCatalog
	cart    *usecase.CartUsecase
	uc      *usecase.CheckoutUsecase
	cafe    model.Cafe
	line    model.CartItem
	ownerID int64
}

func newCheckoutFixture(t *testing.T) checkoutFixture {
	t.Helper()
	e := newEnv(t)
	gw := testutil.NewFakeGateway()
	prices := usecase.NewPriceCatalog(gw, e.cafes)
	cart := usecase.NewCartUsecase(e.cartItems, e.cafes)
	uc := usecase.NewCheckoutUsecase(e.cartItems, e.cafes, e.orders, e.orderItems, e.txm, prices, gw, &seqKeys{}, "http://shop.test")

	cafe := e.seedCafe(t, "Mare Street Market", 280)
	_, err := cart.AddToCart(context.Background(), 1, cafe.ID)
	require.NoError(t, err)
	line, err := cart.AddToCart(context.Background(), 1, cafe.ID)
	require.NoError(t, err)

	return checkoutFixture{env: e, gw: gw, prices: prices, cart: cart, uc: uc, cafe: cafe, line: line, ownerID: 1}
}

func TestCheckoutUsecase_CreateSession(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	sess, err := f.uc.CreateCheckoutSession(ctx, f.ownerID, f.line.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.URL, "https://checkout.example/"))

	in, ok := f.gw.Session(sess.ID)
	require.True(t, ok)
	assert.Equal(t, int64(2), in.Quantity)
	assert.Equal(t, "http://shop.test/success?session_id={CHECKOUT_SESSION_ID}", in.SuccessURL)
	assert.Equal(t, "http://shop.test/cancel?key=key-1", in.CancelURL)
	assert.Equal(t, "key-1", in.IdempotencyKey)

	//価格は登録済みになる
	ref, ok := f.prices.Lookup(f.cafe.ID)
	require.True(t, ok)
	assert.Equal(t, ref.PriceID, in.PriceID)

	order, err := f.orders.FindByCheckoutSessionID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, int64(560), order.TotalPrice)

	items, err := f.orderItems.ListByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mare Street Market", items[0].ProductNameSnapshot)

	//決済前はカートに残る
	view, err := f.cart.View(ctx, f.ownerID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestCheckoutUsecase_CafeAddedLaterCanBeCheckedOut(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	n, err := f.prices.SyncAll(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	later := f.seedCafe(t, "The Peckham Pelican", 230)
	line, err := f.cart.AddToCart(ctx, f.ownerID, later.ID)
	require.NoError(t, err)

	sess, err := f.uc.CreateCheckoutSession(ctx, f.ownerID, line.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.URL)
	assert.Equal(t, 2, f.prices.Len())
}

func TestCheckoutUsecase_GatewayErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)
	f.gw.CheckoutErr = &usecase.GatewayError{Message: "Invalid API Key provided: sk_test_***"}

	_, err := f.uc.CreateCheckoutSession(ctx, f.ownerID, f.line.ID)
	require.Error(t, err)

	ge, ok := usecase.AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid API Key provided: sk_test_***", ge.Message)

	//注文は作られない
	orders, err := f.orders.ListByUserID(ctx, f.ownerID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCheckoutUsecase_OtherUsersLine(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.uc.CreateCheckoutSession(context.Background(), 2, f.line.ID)
	requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, 0, f.gw.CheckoutCalls)
}

func TestCheckoutUsecase_ConfirmPayment(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	sess, err := f.uc.CreateCheckoutSession(ctx, f.ownerID, f.line.ID)
	require.NoError(t, err)

	_, err = f.uc.ConfirmPayment(ctx, f.ownerID, sess.ID)
	requireStatus(t, err, http.StatusConflict)

	f.gw.MarkPaid(sess.ID)

	//他人のセッションは見えない
	_, err = f.uc.ConfirmPayment(ctx, 2, sess.ID)
	requireStatus(t, err, http.StatusNotFound)

	order, err := f.uc.ConfirmPayment(ctx, f.ownerID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, order.Status)

	view, err := f.cart.View(ctx, f.ownerID)
	require.NoError(t, err)
	assert.True(t, view.IsEmpty())

	//2回目も同じ結果
	again, err := f.uc.ConfirmPayment(ctx, f.ownerID, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, again.ID)
	assert.Equal(t, model.OrderStatusPaid, again.Status)

	list, err := f.uc.ListOrders(ctx, f.ownerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "£5.60", list[0].DisplayTotal())
	assert.Len(t, list[0].Items, 1)
}

func TestCheckoutUsecase_ConfirmKeepsQuantityAddedAfterCheckout(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	sess, err := f.uc.CreateCheckoutSession(ctx, f.ownerID, f.line.ID)
	require.NoError(t, err)

	//決済画面にいる間に1個追加
	_, err = f.cart.AddToCart(ctx, f.ownerID, f.cafe.ID)
	require.NoError(t, err)

	f.gw.MarkPaid(sess.ID)
	_, err = f.uc.ConfirmPayment(ctx, f.ownerID, sess.ID)
	require.NoError(t, err)

	view, err := f.cart.View(ctx, f.ownerID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(1), view.Items[0].Quantity)
	assert.Equal(t, "£2.80", view.DisplayTotal())

	//2回目で減らしすぎない
	_, err = f.uc.ConfirmPayment(ctx, f.ownerID, sess.ID)
	require.NoError(t, err)
	view, err = f.cart.View(ctx, f.ownerID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(1), view.Items[0].Quantity)
}

func TestCheckoutUsecase_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newCheckoutFixture(t)

	sess, err := f.uc.CreateCheckoutSession(ctx, f.ownerID, f.line.ID)
	require.NoError(t, err)
	in, _ := f.gw.Session(sess.ID)

	_, err = f.uc.CancelCheckout(ctx, 2, in.IdempotencyKey)
	requireStatus(t, err, http.StatusNotFound)

	order, err := f.uc.CancelCheckout(ctx, f.ownerID, in.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, order.Status)

	//カートはそのまま
	view, err := f.cart.View(ctx, f.ownerID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	f.gw.MarkPaid(sess.ID)
	_, err = f.uc.ConfirmPayment(ctx, f.ownerID, sess.ID)
	requireStatus(t, err, http.StatusConflict)

	_, err = f.uc.CancelCheckout(ctx, f.ownerID, "")
	requireStatus(t, err, http.StatusBadRequest)
}
