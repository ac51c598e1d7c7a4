package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"cafeshop/internal/domain/model"
	gormrepo "cafeshop/internal/infra/repository"
	repo "cafeshop/internal/repository"
	"cafeshop/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	db         *gorm.DB
	cafes      repo.CafeRepository
	cartItems  repo.CartItemRepository
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	auditLogs  repo.AuditLogRepository
	txm        repo.TransactionManager
}

func newEnv(t *testing.T) env {
	t.Helper()
	gdb := testutil.NewTestDB(t)
	return env{
		db:         gdb,
		cafes:      gormrepo.NewCafeGormRepository(gdb),
		cartItems:  gormrepo.NewCartGormRepository(gdb),
		orders:     gormrepo.NewOrderGormRepository(gdb),
		orderItems: gormrepo.NewOrderItemGormRepository(gdb),
		auditLogs:  gormrepo.NewAuditLogGormRepository(gdb),
		txm:        gormrepo.NewTxManagerGorm(gdb),
	}
}

func (e env) seedCafe(t *testing.T, name string, price int64) model.Cafe {
	t.Helper()
	c, err := e.cafes.Create(context.Background(), model.Cafe{
		Name:     name,
		MapURL:   "https://maps.example/" + name,
		ImgURL:   "https://img.example/" + name + ".jpg",
		Location: "Peckham",
		Seats:    "30-40",
		Price:    price,
		Currency: "gbp",
	})
	require.NoError(t, err)
	return c
}

// 連番の冪等キー
type seqKeys struct {
	mu sync.Mutex
	n  int
}

func (s *seqKeys) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("key-%d", s.n)
}
