// Package batch packs preprocessed query buffers into fixed-width batches and
// drives one inference call per batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SyedDaiam9101/bmt-submitter/internal/buffer"
	"github.com/SyedDaiam9101/bmt-submitter/internal/inference"
	"github.com/SyedDaiam9101/bmt-submitter/internal/metrics"
	"github.com/SyedDaiam9101/bmt-submitter/internal/result"
	"github.com/SyedDaiam9101/bmt-submitter/internal/runctx"
)

// SkipReason explains why a query was left out of its batch.
type SkipReason string

const (
	NotSkipped       SkipReason = ""
	SkipTypeMismatch SkipReason = "type_mismatch"
	SkipShape        SkipReason = "shape"
)

// ErrShape is set on results of queries whose buffer length does not match
// the model input.
var ErrShape = errors.New("buffer has wrong element count")

// Outcome is the per-query result of a dispatch, aligned with the input
// position Query.
type Outcome struct {
	Query  int
	Result result.Result
	Skip   SkipReason
}

// Skipped reports whether the query was left out of inference.
func (o Outcome) Skipped() bool {
	return o.Skip != NotSkipped
}

// Dispatcher runs a query sequence through an engine in windows of Width.
type Dispatcher struct {
	Engine   inference.Engine
	Unpacker result.Unpacker
	// Width is the maximum number of queries per engine call.
	Width int
	// InputDims and OutputDims are the per-query tensor shapes, without the
	// batch dimension.
	InputDims  []int64
	OutputDims []int64
	Logger     *zap.Logger
}

func (d *Dispatcher) validate() error {
	if d.Engine == nil {
		return fmt.Errorf("inference engine not initialized")
	}
	if d.Unpacker == nil {
		return fmt.Errorf("result unpacker not initialized")
	}
	if d.Width < 1 {
		return fmt.Errorf("invalid batch width: %d", d.Width)
	}
	if inference.Elements(d.InputDims) <= 0 || inference.Elements(d.OutputDims) <= 0 {
		return fmt.Errorf("invalid tensor dimensions: input %v, output %v", d.InputDims, d.OutputDims)
	}
	if int64(d.Unpacker.Width()) != inference.Elements(d.OutputDims) {
		return fmt.Errorf("unpacker width %d does not match output dimensions %v", d.Unpacker.Width(), d.OutputDims)
	}
	return nil
}

// Run issues ceil(len(queries)/Width) engine calls and returns one Outcome
// per query in input order. A query whose buffer is not float32 or has the
// wrong length is skipped: its slot is sent as zeros and its Outcome holds an
// invalid result. An engine failure aborts the whole call.
func (d *Dispatcher) Run(ctx context.Context, queries []buffer.Variant) ([]Outcome, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", runctx.RunID(ctx)))

	perQuery := int(inference.Elements(d.InputDims))
	perResult := int(inference.Elements(d.OutputDims))
	outcomes := make([]Outcome, 0, len(queries))

	for start := 0; start < len(queries); start += d.Width {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size := min(d.Width, len(queries)-start)

		input := make([]float32, size*perQuery)
		output := make([]float32, size*perResult)
		window := make([]Outcome, size)

		for i := 0; i < size; i++ {
			q := start + i
			window[i].Query = q

			data, err := buffer.As[float32](queries[q])
			if err != nil {
				window[i].Skip = SkipTypeMismatch
				window[i].Result = result.Invalid(d.Unpacker.Kind(), fmt.Errorf("query %d: %w", q, err))
				logger.Warn("skipping query", zap.Int("query", q), zap.String("reason", string(SkipTypeMismatch)), zap.Error(err))
				metrics.RecordSkip(string(SkipTypeMismatch))
				continue
			}
			if len(data) != perQuery {
				window[i].Skip = SkipShape
				window[i].Result = result.Invalid(d.Unpacker.Kind(), fmt.Errorf("query %d: %w: got %d, expected %d", q, ErrShape, len(data), perQuery))
				logger.Warn("skipping query", zap.Int("query", q), zap.String("reason", string(SkipShape)),
					zap.Int("got", len(data)), zap.Int("expected", perQuery))
				metrics.RecordSkip(string(SkipShape))
				continue
			}
			copy(input[i*perQuery:], data)
		}

		inputShape := append([]int64{int64(size)}, d.InputDims...)
		outputShape := append([]int64{int64(size)}, d.OutputDims...)

		metrics.RecordInferenceBatch(size)
		inferStart := time.Now()
		err := d.Engine.Run(input, inputShape, output, outputShape)
		inferDuration := time.Since(inferStart)
		metrics.RecordInferenceLatency(inferDuration.Seconds())
		if err != nil {
			logger.Error("inference error", zap.Int("window_start", start), zap.Int("batch_size", size), zap.Error(err))
			return nil, fmt.Errorf("batch starting at query %d: %w", start, err)
		}

		for i := range window {
			if window[i].Skipped() {
				continue
			}
			r, err := d.Unpacker.Unpack(output, i)
			if err != nil {
				return nil, fmt.Errorf("query %d: %w", start+i, err)
			}
			window[i].Result = r
		}
		outcomes = append(outcomes, window...)

		logger.Debug("batch complete",
			zap.Int("window_start", start),
			zap.Int("batch_size", size),
			zap.Float64("inference_ms", float64(inferDuration.Microseconds())/1000.0))
	}

	return outcomes, nil
}

// Results returns every outcome's result in input order, placeholders
// included.
func Results(outcomes []Outcome) []result.Result {
	results := make([]result.Result, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.Result
	}
	return results
}

// Compact returns the results of successfully batched queries only, in input
// order. Skipped queries leave no entry, so positions no longer match query
// indices.
func Compact(outcomes []Outcome) []result.Result {
	results := make([]result.Result, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Skipped() {
			results = append(results, o.Result)
		}
	}
	return results
}
