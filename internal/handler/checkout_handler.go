package handler

import (
	"net/http"
	"strconv"

	"cafeshop/internal/config"
	"cafeshop/internal/middleware"
	"cafeshop/internal/repository"
	"cafeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 決済と注文履歴
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type checkoutRequest struct {
	CartItemID int64 `form:"checkout-button" json:"checkout-button"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	session := []echo.MiddlewareFunc{middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo)}

	e.POST("/create-checkout-session", h.createSession, session...)
	e.GET("/success", h.success, session...)
	e.GET("/cancel", h.cancel, session...)
	e.GET("/orders", h.orders, session...)
}

// POST /create-checkout-session
// 成功したら決済ページへ303、失敗したらゲートウェイの文言を502で返す
func (h *CheckoutHandler) createSession(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	sess, err := h.uc.CreateCheckoutSession(c.Request().Context(), userID, req.CartItemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, sess.URL)
}

// GET /success?session_id=
func (h *CheckoutHandler) success(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	order, err := h.uc.ConfirmPayment(c.Request().Context(), userID, c.QueryParam("session_id"))
	if err != nil {
		return writeError(c, err)
	}

	page := newPage(c, "Thank you for your order!")
	page.Message = "Order #" + strconv.FormatInt(order.ID, 10) + " is paid."
	return c.Render(http.StatusOK, "message.html", page)
}

// GET /cancel?key=
func (h *CheckoutHandler) cancel(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if _, err := h.uc.CancelCheckout(c.Request().Context(), userID, c.QueryParam("key")); err != nil {
		return writeError(c, err)
	}

	page := newPage(c, "Checkout canceled")
	page.Message = "Your cart has been kept."
	return c.Render(http.StatusOK, "message.html", page)
}

// GET /orders
func (h *CheckoutHandler) orders(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	orders, err := h.uc.ListOrders(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	page := newPage(c, "Orders")
	page.Orders = orders
	return c.Render(http.StatusOK, "orders.html", page)
}
