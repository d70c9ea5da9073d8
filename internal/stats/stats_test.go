package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantile(t *testing.T) {
	values := []float64{40, 10, 30, 20}

	assert.Equal(t, 0.0, Quantile(nil, 0.5))
	assert.Equal(t, 10.0, Quantile(values, 0))
	assert.Equal(t, 40.0, Quantile(values, 1))
	assert.InDelta(t, 25.0, Quantile(values, 0.5), 1e-9)
	assert.InDelta(t, 38.5, Quantile(values, 0.95), 1e-9)
	assert.Equal(t, []float64{40, 10, 30, 20}, values, "input must not be reordered")
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, std, 1e-9)

	mean, std = MeanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

func TestDescribe(t *testing.T) {
	d := Describe([]float64{1, 2, 3, 4})
	assert.Equal(t, 4, d.Count)
	assert.InDelta(t, 2.5, d.Mean, 1e-9)
	assert.InDelta(t, 1.2909944, d.Std, 1e-6)
	assert.InDelta(t, 1.75, d.P25, 1e-9)
	assert.InDelta(t, 2.5, d.P50, 1e-9)
	assert.InDelta(t, 3.25, d.P75, 1e-9)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 4.0, d.Max)

	single := Describe([]float64{7})
	assert.Equal(t, 1, single.Count)
	assert.Zero(t, single.Std)

	assert.Equal(t, Description{}, Describe(nil))
}
