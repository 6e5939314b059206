// internal/inference/mock.go
package inference

import (
	"fmt"
)

// SlotFunc computes one batch slot's output from that slot's input.
type SlotFunc func(input []float32, output []float32)

// MockInference is a mock implementation of Engine for testing.
// It computes every slot independently and deterministically without
// requiring the ONNX shared library.
type MockInference struct {
	// Slot computes each slot's output. Defaults to EchoSlot.
	Slot SlotFunc
	// ShouldError if true, Run will return an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string
	// CallCount tracks the number of times Run was called
	CallCount int
	// BatchSizes records the leading dimension of every Run call
	BatchSizes []int64
	// Inputs records a copy of every input tensor
	Inputs [][]float32
}

// NewMock creates a new MockInference using EchoSlot
func NewMock() *MockInference {
	return &MockInference{Slot: EchoSlot}
}

// NewMockWithSlot creates a MockInference with a custom slot function
func NewMockWithSlot(fn SlotFunc) *MockInference {
	return &MockInference{Slot: fn}
}

// EchoSlot repeats the slot input across the output.
func EchoSlot(input []float32, output []float32) {
	if len(input) == 0 {
		return
	}
	for i := range output {
		output[i] = input[i%len(input)]
	}
}

// Run fills output slot by slot.
func (m *MockInference) Run(input []float32, inputShape []int64, output []float32, outputShape []int64) error {
	m.CallCount++

	if m.ShouldError {
		if m.ErrorMessage != "" {
			return fmt.Errorf("%s", m.ErrorMessage)
		}
		return fmt.Errorf("mock inference error")
	}

	if len(inputShape) == 0 || len(outputShape) == 0 {
		return fmt.Errorf("empty tensor shape")
	}
	batch := inputShape[0]
	if batch == 0 {
		return fmt.Errorf("empty observation batch")
	}
	if outputShape[0] != batch {
		return fmt.Errorf("batch dimension mismatch: input %d, output %d", batch, outputShape[0])
	}
	if want := Elements(inputShape); int64(len(input)) != want {
		return fmt.Errorf("input has wrong size: got %d, expected %d", len(input), want)
	}
	if want := Elements(outputShape); int64(len(output)) != want {
		return fmt.Errorf("output has wrong size: got %d, expected %d", len(output), want)
	}

	m.BatchSizes = append(m.BatchSizes, batch)
	m.Inputs = append(m.Inputs, append([]float32(nil), input...))

	slotIn := len(input) / int(batch)
	slotOut := len(output) / int(batch)
	fn := m.Slot
	if fn == nil {
		fn = EchoSlot
	}
	for i := 0; i < int(batch); i++ {
		fn(input[i*slotIn:(i+1)*slotIn], output[i*slotOut:(i+1)*slotOut])
	}
	return nil
}

// Close is a no-op for the mock implementation
func (m *MockInference) Close() error {
	return nil
}

// SetError configures the mock to return an error on the next Run call
func (m *MockInference) SetError(msg string) {
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error
func (m *MockInference) ClearError() {
	m.ShouldError = false
	m.ErrorMessage = ""
}

// Ensure MockInference implements Engine at compile time
var _ Engine = (*MockInference)(nil)
