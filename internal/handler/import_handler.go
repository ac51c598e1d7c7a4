package handler

import (
	"errors"
	"net/http"

	"cafeshop/internal/config"
	"cafeshop/internal/infra/importer"
	"cafeshop/internal/middleware"
	"cafeshop/internal/repository"
	"cafeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// xlsx / yaml でカフェを一括登録する（管理者）
type ImportHandler struct {
	uc *usecase.CafeUsecase
}

// DI
func NewImportHandler(uc *usecase.CafeUsecase) *ImportHandler {
	return &ImportHandler{uc: uc}
}

func (h *ImportHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.TokenVersionGuard(userRepo))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("/import", h.importCafes)
}

// POST /admin/import (multipart: file)
func (h *ImportHandler) importCafes(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unable to open file"})
	}
	defer f.Close()

	parsed, err := importer.Parse(fh.Filename, f)
	if errors.Is(err, importer.ErrUnsupportedFormat) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to parse file"})
	}

	res, err := h.uc.Import(c.Request().Context(), adminID, parsed.Rows)
	if err != nil {
		return writeError(c, err)
	}
	res.Skipped += len(parsed.Invalid)
	res.Errors = append(parsed.Invalid, res.Errors...)

	return c.JSON(http.StatusOK, res)
}
