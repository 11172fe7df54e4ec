package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, math.Sqrt(Dot(v, v)), 1e-6)
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, v)
	assert.True(t, IsZero(v))
}

func TestDotUsesCommonPrefix(t *testing.T) {
	assert.Equal(t, 2.0, Dot([]float32{1, 1, 5}, []float32{1, 1}))
}
