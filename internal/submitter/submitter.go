// Package submitter exposes the three-call benchmark lifecycle: configure a
// model, preprocess each query, then run inference over the whole query set.
package submitter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/SyedDaiam9101/bmt-submitter/internal/batch"
	"github.com/SyedDaiam9101/bmt-submitter/internal/buffer"
	"github.com/SyedDaiam9101/bmt-submitter/internal/config"
	"github.com/SyedDaiam9101/bmt-submitter/internal/inference"
	"github.com/SyedDaiam9101/bmt-submitter/internal/metrics"
	"github.com/SyedDaiam9101/bmt-submitter/internal/preprocess"
	"github.com/SyedDaiam9101/bmt-submitter/internal/result"
	"github.com/SyedDaiam9101/bmt-submitter/internal/runctx"
)

const tracerName = "github.com/SyedDaiam9101/bmt-submitter/internal/submitter"

// Submitter is the contract a benchmark host drives, in this order:
// Configure once, DescribeEnvironment, Preprocess per query, RunBatch.
type Submitter interface {
	Configure(ctx context.Context, model ModelIdentity) error
	DescribeEnvironment() config.Environment
	Preprocess(ctx context.Context, query string) (buffer.Variant, error)
	RunBatch(ctx context.Context, queries []buffer.Variant) ([]result.Result, error)
}

// ModelIdentity names the model file and the profile describing its tensors.
type ModelIdentity struct {
	Path    string
	Profile string
}

// State is the lifecycle position of a Harness.
type State int

const (
	Unconfigured State = iota
	Ready
	Serving
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Ready:
		return "ready"
	case Serving:
		return "serving"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// EngineFactory builds the inference engine for a model file. threads is
// the engine's intra-op thread count.
type EngineFactory func(modelPath string, threads int) (inference.Engine, error)

// BufferCache stores preprocessed buffers between runs.
type BufferCache interface {
	Get(ctx context.Context, profile, query string) (buffer.Variant, bool, error)
	Put(ctx context.Context, profile, query string, v buffer.Variant) error
}

// Options configure a Harness.
type Options struct {
	// Threads is the engine's intra-op thread count and also the batch
	// width, one engine thread per batch slot.
	Threads int
	// NewEngine builds the engine during Configure.
	NewEngine EngineFactory
	// Decoder overrides the default StdDecoder sized to the profile.
	Decoder preprocess.Decoder
	// Cache is optional.
	Cache       BufferCache
	Environment config.Environment
	Logger      *zap.Logger
}

// Harness implements Submitter.
type Harness struct {
	mu    sync.Mutex
	opts  Options
	state State

	profile    Profile
	engine     inference.Engine
	pre        *preprocess.Preprocessor
	dispatcher *batch.Dispatcher
	logger     *zap.Logger
}

// New creates an unconfigured Harness.
func New(opts Options) *Harness {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{opts: opts, logger: logger}
}

// State reports the lifecycle state.
func (h *Harness) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Configure binds the model. It must be called exactly once, before any
// other operation. Engine construction failures are returned as is.
func (h *Harness) Configure(ctx context.Context, model ModelIdentity) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Unconfigured {
		return ErrAlreadyConfigured
	}
	profile, err := LookupProfile(model.Profile)
	if err != nil {
		return err
	}
	if h.opts.NewEngine == nil {
		return fmt.Errorf("no engine factory configured")
	}

	h.logger.Info("configuring model",
		zap.String("model", model.Path),
		zap.String("profile", profile.Name),
		zap.Int("threads", h.opts.Threads))

	engine, err := h.opts.NewEngine(model.Path, h.opts.Threads)
	if err != nil {
		return fmt.Errorf("failed to load model %s: %w", model.Path, err)
	}

	decoder := h.opts.Decoder
	if decoder == nil {
		decoder = preprocess.StdDecoder{Width: profile.Width, Height: profile.Height}
	}

	h.profile = profile
	h.engine = engine
	h.pre = &preprocess.Preprocessor{Decoder: decoder, Transform: profile.Transform()}
	h.dispatcher = &batch.Dispatcher{
		Engine:     engine,
		Unpacker:   profile.Unpacker(),
		Width:      h.opts.Threads,
		InputDims:  profile.InputDims(),
		OutputDims: profile.OutputDims,
		Logger:     h.logger,
	}
	h.state = Ready
	metrics.SetConfigured()
	return nil
}

// DescribeEnvironment returns the static environment record.
func (h *Harness) DescribeEnvironment() config.Environment {
	return h.opts.Environment
}

// Preprocess resolves query to the buffer the bound model expects. A decode
// failure is returned and no buffer is produced.
func (h *Harness) Preprocess(ctx context.Context, query string) (buffer.Variant, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Unconfigured {
		return buffer.Variant{}, ErrNotConfigured
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "preprocess",
		trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	if h.opts.Cache != nil {
		v, ok, err := h.opts.Cache.Get(ctx, h.profile.Name, query)
		if err != nil {
			h.logger.Warn("buffer cache read failed", zap.String("query", query), zap.Error(err))
		} else if ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			h.state = Serving
			return v, nil
		}
	}

	start := time.Now()
	v, err := h.pre.Process(query)
	metrics.RecordPreprocessLatency(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "preprocess failed")
		return buffer.Variant{}, fmt.Errorf("preprocess %s: %w", query, err)
	}

	if h.opts.Cache != nil {
		if err := h.opts.Cache.Put(ctx, h.profile.Name, query, v); err != nil {
			h.logger.Warn("buffer cache write failed", zap.String("query", query), zap.Error(err))
		}
	}
	h.state = Serving
	return v, nil
}

// RunBatch runs inference over every query and returns one result per query
// in input order. Skipped queries get an invalid placeholder result; use
// batch.Compact on RunOutcomes to drop them instead.
func (h *Harness) RunBatch(ctx context.Context, queries []buffer.Variant) ([]result.Result, error) {
	outcomes, err := h.RunOutcomes(ctx, queries)
	if err != nil {
		return nil, err
	}
	return batch.Results(outcomes), nil
}

// RunOutcomes is RunBatch with the per-query skip reasons kept.
func (h *Harness) RunOutcomes(ctx context.Context, queries []buffer.Variant) ([]batch.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Unconfigured {
		return nil, ErrNotConfigured
	}

	ctx = runctx.WithRunID(ctx)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "runBatch",
		trace.WithAttributes(
			attribute.String("run_id", runctx.RunID(ctx)),
			attribute.Int("queries", len(queries)),
			attribute.Int("batch_width", h.dispatcher.Width)))
	defer span.End()

	start := time.Now()
	outcomes, err := h.dispatcher.Run(ctx, queries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inference failed")
		return nil, err
	}
	h.state = Serving

	skipped := 0
	for _, o := range outcomes {
		if o.Skipped() {
			skipped++
		}
	}
	span.SetAttributes(attribute.Int("skipped", skipped))

	h.logger.Info("runBatch complete",
		zap.String("run_id", runctx.RunID(ctx)),
		zap.Int("queries", len(queries)),
		zap.Int("skipped", skipped),
		zap.Float64("total_ms", float64(time.Since(start).Microseconds())/1000.0))

	return outcomes, nil
}

// Close releases the engine and returns the harness to Unconfigured.
func (h *Harness) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine == nil {
		return nil
	}
	err := h.engine.Close()
	h.engine = nil
	h.pre = nil
	h.dispatcher = nil
	h.state = Unconfigured
	metrics.SetUnconfigured()
	return err
}

// Ensure Harness implements Submitter at compile time
var _ Submitter = (*Harness)(nil)

// ONNXEngine returns an EngineFactory backed by ONNX Runtime. The thread
// count given to the factory overrides base.IntraOpThreads.
func ONNXEngine(base inference.Options) EngineFactory {
	return func(modelPath string, threads int) (inference.Engine, error) {
		opts := base
		opts.IntraOpThreads = threads
		engine, err := inference.New(modelPath, opts)
		if err != nil {
			return nil, err
		}
		return engine, nil
	}
}
