package handler

import (
	"net/http"

	"cafeshop/internal/config"
	"cafeshop/internal/middleware"
	"cafeshop/internal/repository"
	"cafeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// ボタン名がそのままフィールド名
type addToCartRequest struct {
	CafeID int64 `form:"cart-button" json:"cart-button"`
}

type addOneRequest struct {
	CartItemID int64 `form:"add-button" json:"add-button"`
}

type minusOneRequest struct {
	CartItemID int64 `form:"minus-button" json:"minus-button"`
}

type deleteFromCartRequest struct {
	CartItemID int64 `form:"cart-delete" json:"cart-delete"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	session := []echo.MiddlewareFunc{middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo)}

	e.GET("/cart", h.view, session...)
	e.POST("/cart", h.add, session...)
	e.POST("/add-one", h.addOne, session...)
	e.POST("/minus-one", h.minusOne, session...)
	e.POST("/delete-from-cart", h.remove, session...)
}

// GET /cart
func (h *CartHandler) view(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	cart, err := h.uc.View(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	page := newPage(c, "Cart")
	page.Cart = cart
	return c.Render(http.StatusOK, "cart.html", page)
}

// POST /cart
func (h *CartHandler) add(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if _, err := h.uc.AddToCart(c.Request().Context(), userID, req.CafeID); err != nil {
		return writeError(c, err)
	}
	return c.Redirect(http.StatusFound, "/cart")
}

// POST /add-one
func (h *CartHandler) addOne(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req addOneRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if _, err := h.uc.Increment(c.Request().Context(), userID, req.CartItemID); err != nil {
		return writeError(c, err)
	}
	return c.Redirect(http.StatusFound, "/cart")
}

// POST /minus-one
func (h *CartHandler) minusOne(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req minusOneRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if _, _, err := h.uc.Decrement(c.Request().Context(), userID, req.CartItemID); err != nil {
		return writeError(c, err)
	}
	return c.Redirect(http.StatusFound, "/cart")
}

// POST /delete-from-cart
func (h *CartHandler) remove(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req deleteFromCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.Remove(c.Request().Context(), userID, req.CartItemID); err != nil {
		return writeError(c, err)
	}
	return c.Redirect(http.StatusFound, "/cart")
}
