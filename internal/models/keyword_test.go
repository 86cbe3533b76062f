package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolarityOf(t *testing.T) {
	assert.Equal(t, Negative, PolarityOf("9.Negative"))
	assert.Equal(t, Negative, PolarityOf("10.НЕГАТИВНЫЕ"))
	assert.Equal(t, Positive, PolarityOf("1.Качество"))
	assert.Equal(t, Positive, PolarityOf(""))
}

func TestCategoryDisplayName(t *testing.T) {
	assert.Equal(t, "Стиль", CategoryDisplayName("2.Стиль"))
	assert.Equal(t, "v1.5 Models", CategoryDisplayName("3.v1.5 Models"))
	assert.Equal(t, "Lighting", CategoryDisplayName("Lighting"))
}

func TestKeyword(t *testing.T) {
	k := Keyword{Category: "9.Negative", Word: "blurry", Translation: "размыто", Polarity: Negative}

	assert.False(t, k.IsPositive())
	assert.Equal(t, SelectionKey{Category: "9.Negative", Word: "blurry"}, k.Key())
	assert.Equal(t, "blurry размыто", k.FilterValue())
	assert.True(t, Keyword{Word: "x"}.IsPositive())
}
