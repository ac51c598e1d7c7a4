package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cafeshop/internal/domain/model"
	repo "cafeshop/internal/repository"

	"golang.org/x/sync/singleflight"
)

// ゲートウェイ側の商品・価格のID
type PriceRef struct {
	ProductID  string
	PriceID    string
	UnitAmount int64
	Currency   string
}

func (p PriceRef) matches(c model.Cafe) bool {
	return p.UnitAmount == c.Price && strings.EqualFold(p.Currency, c.Currency)
}

// PriceCatalogはカフェID→ゲートウェイ価格の対応をメモリに持つ。
// 起動時に全件登録し、チェックアウト時に足りなければその場で登録する。
type PriceCatalog struct {
	gateway  PaymentGateway
	cafeRepo repo.CafeRepository

	mu   sync.RWMutex
	refs map[int64]PriceRef

	group singleflight.Group
}

// DI
func NewPriceCatalog(gateway PaymentGateway, cafeRepo repo.CafeRepository) *PriceCatalog {
	return &PriceCatalog{
		gateway:  gateway,
		cafeRepo: cafeRepo,
		refs:     make(map[int64]PriceRef),
	}
}

// SyncAllは全カフェを登録する。
// 1件の失敗で止めず、失敗はまとめて返す
func (p *PriceCatalog) SyncAll(ctx context.Context) (int, error) {
	cafes, err := p.cafeRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list cafes: %w", err)
	}

	var (
		errs []error
		ok   int
	)
	for _, c := range cafes {
		if _, err := p.Resolve(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("cafe %d (%s): %w", c.ID, c.Name, err))
			continue
		}
		ok++
	}
	return ok, errors.Join(errs...)
}

// Resolveはキャッシュを引き、無いか金額が変わっていれば登録し直す
func (p *PriceCatalog) Resolve(ctx context.Context, c model.Cafe) (PriceRef, error) {
	if ref, ok := p.Lookup(c.ID); ok && ref.matches(c) {
		return ref, nil
	}

	//同じ金額・通貨の登録だけをまとめる
	key := fmt.Sprintf("%d:%d:%s", c.ID, c.Price, strings.ToLower(c.Currency))
	ch := p.group.DoChan(key, func() (any, error) {
		//待っている間に他が登録したかもしれない
		if ref, ok := p.Lookup(c.ID); ok && ref.matches(c) {
			return ref, nil
		}
		//呼び出し元の1人が切断しても他の待ち手には結果を返す
		return p.register(context.WithoutCancel(ctx), c)
	})

	select {
	case <-ctx.Done():
		return PriceRef{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return PriceRef{}, res.Err
		}
		ref := res.Val.(PriceRef)
		if !ref.matches(c) {
			return p.register(ctx, c)
		}
		return ref, nil
	}
}

func (p *PriceCatalog) register(ctx context.Context, c model.Cafe) (PriceRef, error) {
	images := make([]string, 0, 2)
	for _, u := range []string{c.ImgURL, c.MapURL} {
		if u != "" {
			images = append(images, u)
		}
	}

	productID, err := p.gateway.RegisterProduct(ctx, ProductInput{Name: c.Name, Images: images})
	if err != nil {
		return PriceRef{}, err
	}
	priceID, err := p.gateway.RegisterPrice(ctx, PriceInput{
		ProductID:  productID,
		Currency:   c.Currency,
		UnitAmount: c.Price,
	})
	if err != nil {
		return PriceRef{}, err
	}

	ref := PriceRef{
		ProductID:  productID,
		PriceID:    priceID,
		UnitAmount: c.Price,
		Currency:   c.Currency,
	}

	p.mu.Lock()
	p.refs[c.ID] = ref
	p.mu.Unlock()

	return ref, nil
}

func (p *PriceCatalog) Lookup(cafeID int64) (PriceRef, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ref, ok := p.refs[cafeID]
	return ref, ok
}

// 編集・削除のあとに呼ぶ
func (p *PriceCatalog) Invalidate(cafeID int64) {
	p.mu.Lock()
	delete(p.refs, cafeID)
	p.mu.Unlock()
}

// 登録済みの件数
func (p *PriceCatalog) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.refs)
}
