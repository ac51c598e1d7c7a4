package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsYes(t *testing.T) {
	for _, v := range []string{"Yes", "yes", " YES ", "yEs"} {
		assert.True(t, IsYes(v), v)
	}
	for _, v := range []string{"No", "", "y", "true", "1", "yes please"} {
		assert.False(t, IsYes(v), v)
	}
}
