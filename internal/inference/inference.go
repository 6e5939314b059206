// internal/inference/inference.go
package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Options configure an ONNX session.
type Options struct {
	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// platform default.
	LibraryPath string
	// IntraOpThreads is the number of threads used within a single Run.
	IntraOpThreads int
	// InputName and OutputName select the model tensors. Empty names are
	// read from the model's first input and output.
	InputName  string
	OutputName string
}

// ONNX wraps an ONNX runtime session.
// It implements the Engine interface.
type ONNX struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

// New creates a new ONNX engine by loading the model from modelPath
func New(modelPath string, opts Options) (*ONNX, error) {
	if !ort.IsInitialized() {
		if opts.LibraryPath != "" {
			ort.SetSharedLibraryPath(opts.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputName, outputName := opts.InputName, opts.OutputName
	if inputName == "" || outputName == "" {
		inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read model inputs/outputs: %w", err)
		}
		if len(inputs) == 0 || len(outputs) == 0 {
			return nil, fmt.Errorf("model %s declares no inputs or outputs", modelPath)
		}
		if inputName == "" {
			inputName = inputs[0].Name
		}
		if outputName == "" {
			outputName = outputs[0].Name
		}
	}

	sessionOptions, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer sessionOptions.Destroy()

	if opts.IntraOpThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}
	// Operators run one after another; parallelism comes from intra-op threads.
	if err := sessionOptions.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("failed to set inter-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		sessionOptions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNX{session: session}, nil
}

// Run executes one inference call. It blocks until every intra-op thread
// has finished.
func (e *ONNX) Run(input []float32, inputShape []int64, output []float32, outputShape []int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return fmt.Errorf("inference session is nil")
	}
	if want := Elements(inputShape); int64(len(input)) != want {
		return fmt.Errorf("input has wrong size: got %d, expected %d", len(input), want)
	}
	if want := Elements(outputShape); int64(len(output)) != want {
		return fmt.Errorf("output has wrong size: got %d, expected %d", len(output), want)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(inputShape...), input)
	if err != nil {
		return fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewTensor(ort.NewShape(outputShape...), output)
	if err != nil {
		return fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	err = e.session.Run(
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	copy(output, outputTensor.GetData())
	return nil
}

// Close releases the ONNX session resources
func (e *ONNX) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		err := e.session.Destroy()
		e.session = nil
		if err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	return ort.DestroyEnvironment()
}

// Ensure ONNX implements Engine at compile time
var _ Engine = (*ONNX)(nil)
