package server

import (
	"cafeshop/internal/config"
	"cafeshop/internal/handler"
	"cafeshop/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Cafe     *handler.CafeHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Import   *handler.ImportHandler
	Health   *handler.HealthHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	h.Health.RegisterRoutes(e)
	h.Auth.RegisterRoutes(e, cfg, userRepo)
	h.Cafe.RegisterRoutes(e, cfg, userRepo)
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Checkout.RegisterRoutes(e, cfg, userRepo)
	h.Import.RegisterRoutes(e, cfg, userRepo)
}
