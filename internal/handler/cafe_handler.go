package handler

import (
	"net/http"
	"strconv"

	"cafeshop/internal/config"
	"cafeshop/internal/domain/model"
	"cafeshop/internal/middleware"
	"cafeshop/internal/repository"
	"cafeshop/internal/usecase"
	"cafeshop/internal/validator"

	"github.com/labstack/echo/v4"
)

// 追加・編集フォーム。項目名は画面のinput名
type cafeForm struct {
	Name         string `form:"name" json:"name" validate:"required" label:"Cafe Name"`
	Location     string `form:"location" json:"location" validate:"required" label:"Location"`
	MapURL       string `form:"map_url" json:"map_url" validate:"required,url" label:"Google Map URL"`
	ImgURL       string `form:"img_url" json:"img_url" validate:"required,url" label:"Cafe Image URL"`
	Seats        string `form:"seats" json:"seats" validate:"required" label:"Number of Seats"`
	HasToilet    string `form:"has_toilet" json:"has_toilet" validate:"required" label:"Toilet"`
	HasWifi      string `form:"has_wifi" json:"has_wifi" validate:"required" label:"WiFi"`
	HasSockets   string `form:"has_sockets" json:"has_sockets" validate:"required" label:"Power Sockets"`
	CanTakeCalls string `form:"can_take_calls" json:"can_take_calls" validate:"required" label:"Calls"`
	CoffeePrice  string `form:"coffee_price" json:"coffee_price" validate:"required,price" label:"Coffee Price"`
}

// validate済みの前提
func (f cafeForm) toInput() usecase.CafeInput {
	price, _ := model.ParsePrice(f.CoffeePrice)
	return usecase.CafeInput{
		Name:         f.Name,
		MapURL:       f.MapURL,
		ImgURL:       f.ImgURL,
		Location:     f.Location,
		Seats:        f.Seats,
		HasToilet:    model.IsYes(f.HasToilet),
		HasWifi:      model.IsYes(f.HasWifi),
		HasSockets:   model.IsYes(f.HasSockets),
		CanTakeCalls: model.IsYes(f.CanTakeCalls),
		Price:        price,
	}
}

// 編集画面の初期値
func formFromCafe(c model.Cafe) cafeForm {
	return cafeForm{
		Name:         c.Name,
		Location:     c.Location,
		MapURL:       c.MapURL,
		ImgURL:       c.ImgURL,
		Seats:        c.Seats,
		HasToilet:    yesNo(c.HasToilet),
		HasWifi:      yesNo(c.HasWifi),
		HasSockets:   yesNo(c.HasSockets),
		CanTakeCalls: yesNo(c.CanTakeCalls),
		CoffeePrice:  model.DecimalPrice(c.Price),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

type deleteRequest struct {
	Action string `form:"action" json:"action"`
}

// カタログ（一覧・追加・編集・削除）
type CafeHandler struct {
	uc *usecase.CafeUsecase
}

// DI
func NewCafeHandler(uc *usecase.CafeUsecase) *CafeHandler {
	return &CafeHandler{uc: uc}
}

func (h *CafeHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	e.GET("/", h.home, middleware.OptionalAuthJWT(cfg, userRepo))

	//ログインユーザー
	session := []echo.MiddlewareFunc{middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo)}
	e.GET("/add_cafe", h.addPage, session...)
	e.POST("/add_cafe", h.add, session...)

	//管理者だけ
	admin := append(session, middleware.AdminRoleGuard())
	e.GET("/edit-post/:id", h.editPage, admin...)
	e.POST("/edit-post/:id", h.edit, admin...)
	e.GET("/delete/:id", h.deletePage, admin...)
	e.POST("/delete/:id", h.delete, admin...)
}

// GET /
func (h *CafeHandler) home(c echo.Context) error {
	cafes, err := h.uc.ListAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	page := newPage(c, "All Cafes")
	page.Cafes = cafes
	return c.Render(http.StatusOK, "index.html", page)
}

func (h *CafeHandler) addPage(c echo.Context) error {
	page := newPage(c, "Add a Cafe")
	page.Action = "/add_cafe"
	return c.Render(http.StatusOK, "cafe_form.html", page)
}

// POST /add_cafe
func (h *CafeHandler) add(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	page := newPage(c, "Add a Cafe")
	page.Action = "/add_cafe"

	form, status, err := h.bindForm(c, &page)
	if err != nil {
		return c.Render(status, "cafe_form.html", page)
	}

	if _, err := h.uc.Create(c.Request().Context(), userID, form.toInput()); err != nil {
		return h.renderFormError(c, page, err)
	}
	return c.Redirect(http.StatusFound, "/")
}

// GET /edit-post/:id
func (h *CafeHandler) editPage(c echo.Context) error {
	cafeID, ok := parseIDParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}

	cafe, err := h.uc.Get(c.Request().Context(), cafeID)
	if err != nil {
		return writeError(c, err)
	}

	page := newPage(c, "Edit Cafe")
	page.Action = "/edit-post/" + strconv.FormatInt(cafe.ID, 10)
	page.Form = formFromCafe(cafe)
	return c.Render(http.StatusOK, "cafe_form.html", page)
}

// POST /edit-post/:id
func (h *CafeHandler) edit(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	cafeID, ok := parseIDParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}

	page := newPage(c, "Edit Cafe")
	page.Action = "/edit-post/" + strconv.FormatInt(cafeID, 10)

	form, status, err := h.bindForm(c, &page)
	if err != nil {
		return c.Render(status, "cafe_form.html", page)
	}

	if _, err := h.uc.Update(c.Request().Context(), adminID, cafeID, form.toInput()); err != nil {
		if he, ok := usecase.AsHTTPError(err); ok && he.Status == http.StatusNotFound {
			return writeError(c, err)
		}
		return h.renderFormError(c, page, err)
	}
	return c.Redirect(http.StatusFound, "/")
}

// GET /delete/:id
func (h *CafeHandler) deletePage(c echo.Context) error {
	cafeID, ok := parseIDParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}

	cafe, err := h.uc.Get(c.Request().Context(), cafeID)
	if err != nil {
		return writeError(c, err)
	}

	page := newPage(c, "Delete Cafe")
	page.Cafe = cafe
	return c.Render(http.StatusOK, "delete_confirm.html", page)
}

// POST /delete/:id
// action=cancel は何もしない
func (h *CafeHandler) delete(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	cafeID, ok := parseIDParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}

	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	switch req.Action {
	case "cancel":
		return c.Redirect(http.StatusFound, "/")
	case "delete":
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid action"})
	}

	if err := h.uc.Delete(c.Request().Context(), adminID, cafeID); err != nil {
		return writeError(c, err)
	}
	return c.Redirect(http.StatusFound, "/")
}

// 入力エラーはフォームを出し直す
func (h *CafeHandler) bindForm(c echo.Context, page *pageData) (cafeForm, int, error) {
	var form cafeForm
	if err := c.Bind(&form); err != nil {
		page.Error = "invalid body"
		return form, http.StatusBadRequest, err
	}
	page.Form = form
	if err := c.Validate(&form); err != nil {
		page.Errors = validator.Messages(err)
		return form, http.StatusBadRequest, err
	}
	return form, http.StatusOK, nil
}

func (h *CafeHandler) renderFormError(c echo.Context, page pageData, err error) error {
	he, ok := usecase.AsHTTPError(err)
	if !ok || he.Status >= http.StatusInternalServerError {
		return writeError(c, err)
	}
	page.Error = he.Message
	return c.Render(he.Status, "cafe_form.html", page)
}

func parseIDParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
