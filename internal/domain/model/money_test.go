package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"£3.00", 300},
		{"3.00", 300},
		{"3", 300},
		{"3.5", 350},
		{" $12.34 ", 1234},
		{"CA$1,250.99", 125099},
		{".75", 75},
	}
	for _, tc := range cases {
		got, err := ParsePrice(tc.in)
		assert.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParsePrice_Invalid(t *testing.T) {
	for _, in := range []string{"", "£", "abc", "3.001", "-1", "3.", "1.2.3", "184467440737095517", "100000000000000000"} {
		_, err := ParsePrice(in)
		assert.ErrorIs(t, err, ErrInvalidPrice, in)
	}
}

func TestParsePrice_Bounds(t *testing.T) {
	got, err := ParsePrice("92233720368547757.07")
	assert.NoError(t, err)
	assert.Equal(t, int64(9223372036854775707), got)

	_, err = ParsePrice("92233720368547758")
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "£3.00", FormatPrice(300, "gbp"))
	assert.Equal(t, "CA$0.05", FormatPrice(5, "cad"))
	assert.Equal(t, "JPY 10.00", FormatPrice(1000, "jpy"))
	assert.Equal(t, "3.50", DecimalPrice(350))
}
