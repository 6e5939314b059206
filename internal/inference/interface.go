// internal/inference/interface.go
package inference

// Engine runs one synchronous inference call over a contiguous batch tensor.
// This abstraction allows for easy mocking in tests and swapping implementations.
type Engine interface {
	// Run executes the model once.
	// input holds prod(inputShape) values laid out as inputShape, with the
	// batch dimension first. output must hold prod(outputShape) values and
	// is filled in place.
	Run(input []float32, inputShape []int64, output []float32, outputShape []int64) error

	// Close releases any resources held by the engine.
	Close() error
}

// Elements returns the number of values a tensor of the given shape holds.
func Elements(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}
