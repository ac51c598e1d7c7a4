package server

import (
	"fmt"

	"cafeshop/internal/config"
	"cafeshop/internal/handler"
	infraRepo "cafeshop/internal/infra/repository"
	"cafeshop/internal/repository"
	"cafeshop/internal/usecase"
	auth "cafeshop/internal/usecase/auth_usecase"
	"cafeshop/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

// 組み立て済みのアプリ
type App struct {
	Echo     *echo.Echo
	Prices   *usecase.PriceCatalog
	Cafes    *usecase.CafeUsecase
	Users    repository.UserRepository
	SeedUser *auth.SeedAdminUsecase
}

// Build はRepository→Usecase→Handlerの順に組み立てる
func Build(cfg config.Config, gdb *gorm.DB, gateway usecase.PaymentGateway) (*App, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gdb)
	cafeRepo := infraRepo.NewCafeGormRepository(gdb)
	cartRepo := infraRepo.NewCartGormRepository(gdb)
	orderRepo := infraRepo.NewOrderGormRepository(gdb)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gdb)
	auditRepo := infraRepo.NewAuditLogGormRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)

	//usecaseに渡す部品
	ids := auth.UUIDGenerator{}
	clock := auth.SystemClock{}
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.SessionTTL)

	//Usecase生成
	prices := usecase.NewPriceCatalog(gateway, cafeRepo)
	cafeUC := usecase.NewCafeUsecase(cafeRepo, auditRepo, txm, prices, cfg.Currency)
	cartUC := usecase.NewCartUsecase(cartRepo, cafeRepo)
	checkoutUC := usecase.NewCheckoutUsecase(cartRepo, cafeRepo, orderRepo, orderItemRepo, txm, prices, gateway, ids, cfg.BaseURL)
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, issuer, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	logoutUC := auth.NewLogoutUsecase(userRepo)
	seedUC := auth.NewSeedAdminUsecase(userRepo, hasher, clock)

	//Handler生成
	h := Handlers{
		Auth:     handler.NewAuthHandler(registerUC, loginUC, logoutUC, cfg.CookieSecure),
		Cafe:     handler.NewCafeHandler(cafeUC),
		Cart:     handler.NewCartHandler(cartUC),
		Checkout: handler.NewCheckoutHandler(checkoutUC),
		Import:   handler.NewImportHandler(cafeUC),
		Health:   handler.NewHealthHandler(sqlDB),
	}

	e, err := New(cfg)
	if err != nil {
		return nil, err
	}
	RegisterRoutes(e, cfg, userRepo, h)

	return &App{
		Echo:     e,
		Prices:   prices,
		Cafes:    cafeUC,
		Users:    userRepo,
		SeedUser: seedUC,
	}, nil
}

// New はechoの共通設定（ログ・リカバリ・テンプレート・バリデータ）
func New(cfg config.Config) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	if cfg.IsDev() {
		e.Logger.SetLevel(log.DEBUG)
	} else {
		e.Logger.SetLevel(log.INFO)
	}

	renderer, err := handler.NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	e.Renderer = renderer
	e.Validator = validator.New()

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	return e, nil
}

func Start(e *echo.Echo, port string) error {
	addr := port
	if addr == "" || addr[0] != ':' {
		addr = ":" + addr
	}
	return e.Start(addr)
}
