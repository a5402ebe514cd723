// Package stats provides streaming statistics over numeric series.
package stats

import (
	"errors"
	"math"

	"golang.org/x/exp/constraints"
)

// ErrEmptySeries is returned when a statistic is requested over zero samples.
var ErrEmptySeries = errors.New("empty series")

// Number is the set of element types an Accumulator can hold.
type Number interface {
	constraints.Integer | constraints.Float
}

// Accumulator collects an append-only series and computes its mean and
// sample standard deviation. It is not safe for concurrent use.
type Accumulator[T Number] struct {
	values []T
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator[T Number]() *Accumulator[T] {
	return &Accumulator[T]{}
}

// Add appends a value to the series.
func (a *Accumulator[T]) Add(value T) {
	a.values = append(a.values, value)
}

// Count returns the number of values added so far.
func (a *Accumulator[T]) Count() int {
	return len(a.values)
}

// Values returns a copy of the series.
func (a *Accumulator[T]) Values() []T {
	out := make([]T, len(a.values))
	copy(out, a.values)
	return out
}

// Mean returns the arithmetic average of the series.
func (a *Accumulator[T]) Mean() (float64, error) {
	if len(a.values) == 0 {
		return 0, ErrEmptySeries
	}
	var total float64
	for _, v := range a.values {
		total += float64(v)
	}
	return total / float64(len(a.values)), nil
}

// StandardDeviation returns the sample standard deviation of the series.
// The denominator is max(count-1, 1), so a single sample yields 0.
func (a *Accumulator[T]) StandardDeviation() (float64, error) {
	mean, err := a.Mean()
	if err != nil {
		return 0, err
	}
	var total float64
	for _, v := range a.values {
		d := float64(v) - mean
		total += d * d
	}
	denominator := max(len(a.values)-1, 1)
	return math.Sqrt(total / float64(denominator)), nil
}
