// Package result turns a batch's raw output tensor back into per-query
// results.
package result

import (
	"fmt"
)

// Kind is the task a Result answers.
type Kind int

const (
	Classification Kind = iota + 1
	Detection
)

func (k Kind) String() string {
	switch k {
	case Classification:
		return "classification"
	case Detection:
		return "detection"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Result is the outcome for one query. It is not modified after it is
// produced.
type Result struct {
	Kind Kind
	// Index is the predicted class, or -1 when no prediction was made.
	Index int
	// Probabilities is the full score vector for models whose results
	// carry it.
	Probabilities []float32
	// Candidates is the raw detection output for this query.
	Candidates []float32
	// Err is set when the query produced no prediction.
	Err error
}

// Invalid returns the placeholder for a query that produced no output.
func Invalid(kind Kind, err error) Result {
	return Result{Kind: kind, Index: -1, Err: err}
}

// Valid reports whether the result carries a prediction.
func (r Result) Valid() bool {
	if r.Err != nil {
		return false
	}
	switch r.Kind {
	case Classification:
		return r.Index >= 0 || len(r.Probabilities) > 0
	case Detection:
		return r.Candidates != nil
	}
	return false
}

// Unpacker slices one batch output tensor into per-slot results.
type Unpacker interface {
	// Kind is the task the produced results answer.
	Kind() Kind
	// Width is the number of output values per slot.
	Width() int
	// Unpack returns the result held in slot of output.
	Unpack(output []float32, slot int) (Result, error)
}

func slotRange(output []float32, slot, width int) ([]float32, error) {
	start, end := slot*width, (slot+1)*width
	if slot < 0 || end > len(output) {
		return nil, fmt.Errorf("slot %d out of range for output of %d values", slot, len(output))
	}
	return output[start:end], nil
}
