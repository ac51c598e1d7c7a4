package middleware

import (
	"net/http"

	"cafeshop/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// カフェの編集・削除・一括取り込みの前に置く。
// TokenVersionGuardがDBから入れたロールを見て、ADMIN以外は403で止める
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			switch model.Role(role) {
			case model.RoleAdmin:
				return next(c)
			case "":
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			default:
				//カタログは変更しない
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}
		}
	}
}
