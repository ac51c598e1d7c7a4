package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidPrice = errors.New("invalid price")

var currencySymbols = map[string]string{
	"gbp": "£",
	"usd": "$",
	"eur": "€",
	"cad": "CA$",
	"aud": "A$",
}

// ParsePriceは "£3.00" / "3.5" / "3" を最小通貨単位に変換する。
// 小数は2桁まで、負数は不可。
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.' && r != '-'
	})
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidPrice
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (frac == "" || len(frac) > 2) {
		return 0, ErrInvalidPrice
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w > (math.MaxInt64-99)/100 {
		return 0, ErrInvalidPrice
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, ErrInvalidPrice
	}
	return w*100 + f, nil
}

// DecimalPriceは 300 -> "3.00"
func DecimalPrice(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

// FormatPriceは 300, "gbp" -> "£3.00"
func FormatPrice(amount int64, currency string) string {
	if sym, ok := currencySymbols[strings.ToLower(currency)]; ok {
		return sym + DecimalPrice(amount)
	}
	return strings.ToUpper(currency) + " " + DecimalPrice(amount)
}
