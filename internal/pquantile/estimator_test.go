package pquantile_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cameri/nostr-simulator/internal/pquantile"
)

func TestEstimatorConvergesOnUniformSamples(t *testing.T) {
	e := pquantile.New(0.5)
	for i := 1; i <= 1000; i++ {
		e.Update(float64(i))
	}
	assert.InDelta(t, 500, e.Quantile(), 25)
	assert.Equal(t, 1000, e.Count())
}

func TestEstimatorSmallSampleExact(t *testing.T) {
	e := pquantile.New(0.5)
	e.Update(3)
	e.Update(1)
	e.Update(2)
	assert.Equal(t, float64(2), e.Quantile())
}

func TestEstimatorEmpty(t *testing.T) {
	e := pquantile.New(0.99)
	assert.Equal(t, float64(0), e.Quantile())
	assert.False(t, math.IsNaN(e.Quantile()))
}
