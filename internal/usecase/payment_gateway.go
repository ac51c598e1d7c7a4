package usecase

import "context"

type ProductInput struct {
	Name   string
	Images []string
}

type PriceInput struct {
	ProductID  string
	Currency   string
	UnitAmount int64
}

type CheckoutSessionInput struct {
	PriceID        string
	Quantity       int64
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

type CheckoutSession struct {
	ID   string
	URL  string
	Paid bool
}

// 決済サービス（Stripe）の約束。
// 失敗は *GatewayError で返す
type PaymentGateway interface {
	RegisterProduct(ctx context.Context, in ProductInput) (string, error)
	RegisterPrice(ctx context.Context, in PriceInput) (string, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error)
}
