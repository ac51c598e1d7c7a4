package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cafeshop/internal/usecase"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

type StripeConfig struct {
	SecretKey string
	// stripe-mockなどに向けるとき
	APIURL  string
	Timeout time.Duration
}

// StripeGateway は usecase.PaymentGateway のStripe実装
type StripeGateway struct {
	sc *client.API
}

// DI
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	bc := &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: timeout},
		//失敗はそのまま画面に返すのでリトライしない
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.APIURL != "" {
		bc.URL = stripe.String(cfg.APIURL)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, bc)
	backends := &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	}

	return &StripeGateway{sc: client.New(cfg.SecretKey, backends)}
}

func (g *StripeGateway) RegisterProduct(ctx context.Context, in usecase.ProductInput) (string, error) {
	params := &stripe.ProductParams{
		Name:   stripe.String(in.Name),
		Images: stripe.StringSlice(in.Images),
	}
	params.Context = ctx

	p, err := g.sc.Products.New(params)
	if err != nil {
		return "", wrap(err)
	}
	return p.ID, nil
}

func (g *StripeGateway) RegisterPrice(ctx context.Context, in usecase.PriceInput) (string, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(in.ProductID),
		Currency:   stripe.String(in.Currency),
		UnitAmount: stripe.Int64(in.UnitAmount),
	}
	params.Context = ctx

	p, err := g.sc.Prices.New(params)
	if err != nil {
		return "", wrap(err)
	}
	return p.ID, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, in usecase.CheckoutSessionInput) (usecase.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(in.Quantity),
			},
		},
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}
	params.Context = ctx
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return usecase.CheckoutSession{}, wrap(err)
	}
	return toSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (usecase.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return usecase.CheckoutSession{}, wrap(err)
	}
	return toSession(s), nil
}

func toSession(s *stripe.CheckoutSession) usecase.CheckoutSession {
	return usecase.CheckoutSession{
		ID:   s.ID,
		URL:  s.URL,
		Paid: s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
}

// Stripeのメッセージだけを取り出す
func wrap(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		return &usecase.GatewayError{Message: se.Msg, Err: err}
	}
	return &usecase.GatewayError{Message: err.Error(), Err: err}
}

var _ usecase.PaymentGateway = (*StripeGateway)(nil)
