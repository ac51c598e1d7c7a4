package importer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cafeshop/internal/domain/model"
	"cafeshop/internal/usecase"
	"cafeshop/internal/validator"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported file format (use .xlsx or .yaml)")

// 取り込みファイル1行分。ヘッダ名/yamlキーは同じ
// ルールは追加フォームと揃える
type Row struct {
	Name         string `yaml:"name" validate:"required" label:"name"`
	MapURL       string `yaml:"map_url" validate:"required,url" label:"map_url"`
	ImgURL       string `yaml:"img_url" validate:"required,url" label:"img_url"`
	Location     string `yaml:"location" validate:"required" label:"location"`
	Seats        string `yaml:"seats" validate:"required" label:"seats"`
	HasToilet    string `yaml:"has_toilet" validate:"required" label:"has_toilet"`
	HasWifi      string `yaml:"has_wifi" validate:"required" label:"has_wifi"`
	HasSockets   string `yaml:"has_sockets" validate:"required" label:"has_sockets"`
	CanTakeCalls string `yaml:"can_take_calls" validate:"required" label:"can_take_calls"`
	CoffeePrice  string `yaml:"coffee_price" validate:"required,price" label:"coffee_price"`
}

type Result struct {
	Rows    []usecase.CafeInput
	Invalid []string
}

// Parse は拡張子で xlsx / yaml を切り替える
func Parse(filename string, r io.Reader) (Result, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return ParseXLSX(r)
	case ".yaml", ".yml":
		return ParseYAML(r)
	default:
		return Result{}, ErrUnsupportedFormat
	}
}

// ParseXLSX は最初のシートを読む。1行目はヘッダ
func ParseXLSX(r io.Reader) (Result, error) {
	xl, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer xl.Close()

	sheets := xl.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, errors.New("xlsx has no sheets")
	}
	rows, err := xl.GetRows(sheets[0])
	if err != nil {
		return Result{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return Result{}, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	get := func(row []string, key string) string {
		i, ok := col[key]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	parsed := make([]Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		parsed = append(parsed, Row{
			Name:         get(row, "name"),
			MapURL:       get(row, "map_url"),
			ImgURL:       get(row, "img_url"),
			Location:     get(row, "location"),
			Seats:        get(row, "seats"),
			HasToilet:    get(row, "has_toilet"),
			HasWifi:      get(row, "has_wifi"),
			HasSockets:   get(row, "has_sockets"),
			CanTakeCalls: get(row, "can_take_calls"),
			CoffeePrice:  get(row, "coffee_price"),
		})
	}
	return convert(parsed, 2), nil
}

// ParseYAML はカフェの配列を読む
func ParseYAML(r io.Reader) (Result, error) {
	var rows []Row
	if err := yaml.NewDecoder(r).Decode(&rows); err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("decode yaml: %w", err)
	}
	return convert(rows, 1), nil
}

// firstLineは表示用の行番号の開始
func convert(rows []Row, firstLine int) Result {
	var res Result
	v := validator.New()
	for i, row := range rows {
		line := firstLine + i
		row = row.trimmed()
		if err := v.Validate(row); err != nil {
			res.Invalid = append(res.Invalid, fmt.Sprintf("line %d: %s", line, strings.Join(validator.Messages(err), " ")))
			continue
		}
		price, err := model.ParsePrice(row.CoffeePrice)
		if err != nil {
			res.Invalid = append(res.Invalid, fmt.Sprintf("line %d: invalid price %q", line, row.CoffeePrice))
			continue
		}
		res.Rows = append(res.Rows, usecase.CafeInput{
			Name:         row.Name,
			MapURL:       row.MapURL,
			ImgURL:       row.ImgURL,
			Location:     row.Location,
			Seats:        row.Seats,
			HasToilet:    model.IsYes(row.HasToilet),
			HasWifi:      model.IsYes(row.HasWifi),
			HasSockets:   model.IsYes(row.HasSockets),
			CanTakeCalls: model.IsYes(row.CanTakeCalls),
			Price:        price,
		})
	}
	return res
}

// 空白だけのセルを未入力として扱う
func (r Row) trimmed() Row {
	return Row{
		Name:         strings.TrimSpace(r.Name),
		MapURL:       strings.TrimSpace(r.MapURL),
		ImgURL:       strings.TrimSpace(r.ImgURL),
		Location:     strings.TrimSpace(r.Location),
		Seats:        strings.TrimSpace(r.Seats),
		HasToilet:    strings.TrimSpace(r.HasToilet),
		HasWifi:      strings.TrimSpace(r.HasWifi),
		HasSockets:   strings.TrimSpace(r.HasSockets),
		CanTakeCalls: strings.TrimSpace(r.CanTakeCalls),
		CoffeePrice:  strings.TrimSpace(r.CoffeePrice),
	}
}
