package handler

import (
	"embed"
	"html/template"
	"io"

	"cafeshop/internal/domain/model"
	"cafeshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// echo.Renderer の実装
type TemplateRenderer struct {
	templates *template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"price": model.FormatPrice,
		"yesno": func(b bool) string {
			if b {
				return "Yes"
			}
			return "No"
		},
	}
	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &TemplateRenderer{templates: t}, nil
}

func (r *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// 全画面共通のテンプレートデータ
type pageData struct {
	Title    string
	LoggedIn bool
	IsAdmin  bool

	Error   string
	Errors  []string
	Message string

	Email  string
	Name   string
	Cafes  []model.Cafe
	Cafe   model.Cafe
	Form   cafeForm
	Action string
	Cart   usecase.CartView
	Orders []usecase.OrderView
}

func newPage(c echo.Context, title string) pageData {
	_, loggedIn := getUserIDFromContext(c)
	return pageData{
		Title:    title,
		LoggedIn: loggedIn,
		IsAdmin:  loggedIn && isAdminFromContext(c),
	}
}
