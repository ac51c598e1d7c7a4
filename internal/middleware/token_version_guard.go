package middleware

import (
	"net/http"

	"cafeshop/internal/domain/model"
	"cafeshop/internal/repository"

	"github.com/labstack/echo/v4"
)

// ログアウト済みのセッションcookieを401で弾く。
// 通ったリクエストにはDB上のロールを入れ直す
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := sessionUser(c, userRepo)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			c.Set(CtxUserRoleKey, string(user.Role))
			return next(c)
		}
	}
}

// AuthJWTが入れたuser_id/tvをDBのユーザーと突き合わせる
func sessionUser(c echo.Context, userRepo repository.UserRepository) (*model.User, bool) {
	userID, ok := c.Get(CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return nil, false
	}
	tv, ok := c.Get(CtxTokenVersionKey).(int)
	if !ok || tv < 0 {
		return nil, false
	}

	user, err := userRepo.FindByID(c.Request().Context(), userID)
	if err != nil || user == nil {
		return nil, false
	}
	//ログアウトでtoken_versionが進んでいれば無効
	if user.TokenVersion != tv {
		return nil, false
	}
	return user, true
}
