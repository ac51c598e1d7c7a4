package handler

import (
	"errors"
	"net/http"
	"time"

	"cafeshop/internal/config"
	"cafeshop/internal/middleware"
	"cafeshop/internal/repository"
	auth "cafeshop/internal/usecase/auth_usecase"
	"cafeshop/internal/validator"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	registerUC   *auth.RegisterUserUsecase // 会員登録usecase
	loginUC      *auth.LoginUsecase        // ログインusecase
	logoutUC     *auth.LogoutUsecase
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	logoutUC *auth.LogoutUsecase,
	cookieSecure bool,
) *AuthHandler {
	return &AuthHandler{
		registerUC:   registerUC,
		loginUC:      loginUC,
		logoutUC:     logoutUC,
		cookieSecure: cookieSecure,
	}
}

// /register のフォーム
type registerRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email" label:"Email"`
	Password string `form:"password" json:"password" validate:"required" label:"Password"`
	Name     string `form:"name" json:"name" validate:"required" label:"Your Name"`
}

// /login のフォーム
type loginRequest struct {
	Email    string `form:"email" json:"email" validate:"required" label:"Email"`
	Password string `form:"password" json:"password" validate:"required" label:"Password"`
}

const (
	msgAlreadySignedUp = "You already have signed up with that email, log in instead."
	msgNoSuchUser      = "No user with that email exists."
	msgInvalidPassword = "Invalid Password"
)

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	e.GET("/register", h.registerPage)
	e.POST("/register", h.register)
	e.GET("/login", h.loginPage)
	e.POST("/login", h.login)
	e.GET("/logout", h.logout, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))
}

func (h *AuthHandler) registerPage(c echo.Context) error {
	return c.Render(http.StatusOK, "register.html", newPage(c, "Register"))
}

func (h *AuthHandler) loginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", newPage(c, "Log In"))
}

// POST /register
func (h *AuthHandler) register(c echo.Context) error {
	page := newPage(c, "Register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		page.Error = "invalid body"
		return c.Render(http.StatusBadRequest, "register.html", page)
	}
	page.Email, page.Name = req.Email, req.Name
	if err := c.Validate(&req); err != nil {
		page.Errors = validator.Messages(err)
		return c.Render(http.StatusBadRequest, "register.html", page)
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrEmailAlreadyExists):
		//登録済みならログイン画面へ
		login := newPage(c, "Log In")
		login.Email = req.Email
		login.Error = msgAlreadySignedUp
		return c.Render(http.StatusConflict, "login.html", login)
	case errors.Is(err, auth.ErrValidation), errors.Is(err, auth.ErrInvalidEmailFormat):
		page.Error = "Please enter a valid email, password and name."
		return c.Render(http.StatusBadRequest, "register.html", page)
	default:
		return writeError(c, err)
	}

	h.setSessionCookie(c, out.Token, out.ExpiresAt)
	return c.Redirect(http.StatusFound, "/")
}

// POST /login
func (h *AuthHandler) login(c echo.Context) error {
	page := newPage(c, "Log In")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		page.Error = "invalid body"
		return c.Render(http.StatusBadRequest, "login.html", page)
	}
	page.Email = req.Email
	if err := c.Validate(&req); err != nil {
		page.Errors = validator.Messages(err)
		return c.Render(http.StatusBadRequest, "login.html", page)
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUserNotFound):
		page.Error = msgNoSuchUser
		return c.Render(http.StatusUnauthorized, "login.html", page)
	case errors.Is(err, auth.ErrInvalidPassword):
		page.Error = msgInvalidPassword
		return c.Render(http.StatusUnauthorized, "login.html", page)
	default:
		return writeError(c, err)
	}

	h.setSessionCookie(c, out.Token, out.ExpiresAt)
	return c.Redirect(http.StatusFound, "/")
}

// GET /logout
func (h *AuthHandler) logout(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.logoutUC.Execute(c.Request().Context(), userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return writeError(c, err)
	}

	h.clearSessionCookie(c)
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) setSessionCookie(c echo.Context, token string, expiresAt time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
