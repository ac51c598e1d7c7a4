package handler

import (
	"net/http"

	"cafeshop/internal/domain/model"
	"cafeshop/internal/middleware"
	"cafeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}
	//ゲートウェイの文言をそのまま返す
	if ge, ok := usecase.AsGatewayError(err); ok {
		return c.String(http.StatusBadGateway, ge.Message)
	}

	//500
	c.Logger().Errorf("unexpected error: %v", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok || id <= 0 {
		return 0, false
	}

	return id, true
}

func isAdminFromContext(c echo.Context) bool {
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	return role == string(model.RoleAdmin)
}
