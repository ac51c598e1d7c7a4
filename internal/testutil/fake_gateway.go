package testutil

import (
	"context"
	"fmt"
	"sync"

	"cafeshop/internal/usecase"
)

// FakeGateway はメモリ上で動く決済ゲートウェイ
type FakeGateway struct {
	mu sync.Mutex

	products map[string]usecase.ProductInput
	prices   map[string]usecase.PriceInput
	sessions map[string]*fakeSession

	// 設定するとその呼び出しが失敗する
	ProductErr  error
	PriceErr    error
	CheckoutErr error

	ProductCalls  int
	PriceCalls    int
	CheckoutCalls int

	hold *productHold
}

type productHold struct {
	entered chan struct{}
	release chan struct{}
}

type fakeSession struct {
	in   usecase.CheckoutSessionInput
	paid bool
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		products: make(map[string]usecase.ProductInput),
		prices:   make(map[string]usecase.PriceInput),
		sessions: make(map[string]*fakeSession),
	}
}

func (g *FakeGateway) RegisterProduct(ctx context.Context, in usecase.ProductInput) (string, error) {
	g.mu.Lock()
	hold := g.hold
	g.mu.Unlock()
	if hold != nil {
		hold.entered <- struct{}{}
		<-hold.release
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.ProductCalls++
	if g.ProductErr != nil {
		return "", g.ProductErr
	}
	id := fmt.Sprintf("prod_%d", g.ProductCalls)
	g.products[id] = in
	return id, nil
}

func (g *FakeGateway) RegisterPrice(ctx context.Context, in usecase.PriceInput) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.PriceCalls++
	if g.PriceErr != nil {
		return "", g.PriceErr
	}
	if _, ok := g.products[in.ProductID]; !ok {
		return "", &usecase.GatewayError{Message: "No such product: '" + in.ProductID + "'"}
	}
	id := fmt.Sprintf("price_%d", g.PriceCalls)
	g.prices[id] = in
	return id, nil
}

func (g *FakeGateway) CreateCheckoutSession(ctx context.Context, in usecase.CheckoutSessionInput) (usecase.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CheckoutCalls++
	if g.CheckoutErr != nil {
		return usecase.CheckoutSession{}, g.CheckoutErr
	}
	if _, ok := g.prices[in.PriceID]; !ok {
		return usecase.CheckoutSession{}, &usecase.GatewayError{Message: "No such price: '" + in.PriceID + "'"}
	}
	id := fmt.Sprintf("cs_test_%d", g.CheckoutCalls)
	g.sessions[id] = &fakeSession{in: in}
	return usecase.CheckoutSession{ID: id, URL: "https://checkout.example/" + id}, nil
}

func (g *FakeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (usecase.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return usecase.CheckoutSession{}, &usecase.GatewayError{Message: "No such checkout.session: '" + sessionID + "'"}
	}
	return usecase.CheckoutSession{ID: sessionID, URL: "https://checkout.example/" + sessionID, Paid: s.paid}, nil
}

// HoldProducts は release を呼ぶまで RegisterProduct を止める。
// entered には止まった呼び出しごとに1回通知が来る
func (g *FakeGateway) HoldProducts() (entered <-chan struct{}, release func()) {
	h := &productHold{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
	g.mu.Lock()
	g.hold = h
	g.mu.Unlock()

	var once sync.Once
	return h.entered, func() { once.Do(func() { close(h.release) }) }
}

// SetCheckoutErr はサーバー経由のテストで使う
func (g *FakeGateway) SetCheckoutErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CheckoutErr = err
}

// MarkPaid は決済完了をシミュレートする
func (g *FakeGateway) MarkPaid(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[sessionID]; ok {
		s.paid = true
	}
}

// Session は作成時の入力を返す
func (g *FakeGateway) Session(sessionID string) (usecase.CheckoutSessionInput, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return usecase.CheckoutSessionInput{}, false
	}
	return s.in, true
}

func (g *FakeGateway) Price(priceID string) (usecase.PriceInput, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.prices[priceID]
	return p, ok
}

var _ usecase.PaymentGateway = (*FakeGateway)(nil)
