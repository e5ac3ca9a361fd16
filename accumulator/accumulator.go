// Package accumulator provides a named, ordered sequence of values with a running total
package accumulator

import (
	"gonum.org/v1/gonum/floats"
)

// Summer is implemented by anything that collects values and reports their sum
type Summer interface {
	// Append adds a value to the end of the sequence
	Append(value float64)

	// Total returns the sum of all values
	Total() float64

	// Len returns the number of values
	Len() int
}

// Accumulator owns a named, ordered sequence of values.
// Values only grow via Append. An Accumulator is not safe for concurrent mutation.
type Accumulator struct {
	name   string
	values []float64
}

// New creates an empty accumulator with the given name
func New(name string) *Accumulator {
	return &Accumulator{
		name:   name,
		values: make([]float64, 0),
	}
}

// Name returns the accumulator name
func (a *Accumulator) Name() string {
	return a.name
}

// Append adds value to the end of the sequence
func (a *Accumulator) Append(value float64) {
	a.values = append(a.values, value)
}

// Total returns the arithmetic sum of the values, 0 when empty
func (a *Accumulator) Total() float64 {
	if len(a.values) == 0 {
		return 0
	}
	return floats.Sum(a.values)
}

// Len returns the number of values appended so far
func (a *Accumulator) Len() int {
	return len(a.values)
}

// Values returns a copy of the values in insertion order
func (a *Accumulator) Values() []float64 {
	result := make([]float64, len(a.values))
	copy(result, a.values)
	return result
}
