package batch

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/SyedDaiam9101/bmt-submitter/internal/buffer"
	"github.com/SyedDaiam9101/bmt-submitter/internal/inference"
	"github.com/SyedDaiam9101/bmt-submitter/internal/metrics"
	"github.com/SyedDaiam9101/bmt-submitter/internal/result"
	"github.com/SyedDaiam9101/bmt-submitter/internal/runctx"
)

// Each query is C=1, H=2, W=2 and the model scores 4 classes.
var (
	inputDims  = []int64{1, 2, 2}
	outputDims = []int64{4}
)

// query builds a buffer whose strict maximum sits at index hot.
func query(hot int) buffer.Variant {
	data := []float32{0.1, 0.2, 0.3, 0.4}
	data[hot] = 1.0 + float32(hot)
	return buffer.New(data)
}

func newDispatcher(engine inference.Engine, width int) *Dispatcher {
	return &Dispatcher{
		Engine:     engine,
		Unpacker:   result.ArgmaxUnpacker{Classes: 4, KeepProbabilities: true},
		Width:      width,
		InputDims:  inputDims,
		OutputDims: outputDims,
	}
}

func TestDispatcher_TenQueriesWidthFour(t *testing.T) {
	mock := inference.NewMock()
	d := newDispatcher(mock, 4)

	queries := make([]buffer.Variant, 10)
	for i := range queries {
		queries[i] = query(i % 4)
	}

	outcomes, err := d.Run(context.Background(), queries)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if mock.CallCount != 3 {
		t.Errorf("Expected 3 inference calls, got %d", mock.CallCount)
	}
	expectedSizes := []int64{4, 4, 2}
	for i, size := range expectedSizes {
		if mock.BatchSizes[i] != size {
			t.Errorf("Batch %d size = %d, expected %d", i, mock.BatchSizes[i], size)
		}
	}

	if len(outcomes) != 10 {
		t.Fatalf("Expected 10 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Query != i {
			t.Errorf("Outcome %d carries query %d", i, o.Query)
		}
		if o.Skipped() {
			t.Errorf("Outcome %d unexpectedly skipped", i)
		}
		if o.Result.Index != i%4 {
			t.Errorf("Outcome %d index = %d, expected %d", i, o.Result.Index, i%4)
		}
	}
}

func TestDispatcher_CallCountProperty(t *testing.T) {
	for n := 0; n <= 13; n++ {
		for width := 1; width <= 5; width++ {
			mock := inference.NewMock()
			d := newDispatcher(mock, width)

			queries := make([]buffer.Variant, n)
			for i := range queries {
				queries[i] = query(i % 4)
			}

			outcomes, err := d.Run(context.Background(), queries)
			if err != nil {
				t.Fatalf("n=%d width=%d: Run failed: %v", n, width, err)
			}

			calls := (n + width - 1) / width
			if mock.CallCount != calls {
				t.Errorf("n=%d width=%d: expected %d calls, got %d", n, width, calls, mock.CallCount)
			}
			for i, size := range mock.BatchSizes {
				if i < len(mock.BatchSizes)-1 && size != int64(width) {
					t.Errorf("n=%d width=%d: batch %d has size %d", n, width, i, size)
				}
			}
			if len(outcomes) != n {
				t.Errorf("n=%d width=%d: expected %d outcomes, got %d", n, width, n, len(outcomes))
			}
		}
	}
}

func TestDispatcher_EmptySequence(t *testing.T) {
	mock := inference.NewMock()
	d := newDispatcher(mock, 4)

	outcomes, err := d.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("Expected no outcomes, got %d", len(outcomes))
	}
	if mock.CallCount != 0 {
		t.Errorf("Expected no inference calls, got %d", mock.CallCount)
	}
}

func TestDispatcher_WrongLengthSkipped(t *testing.T) {
	before := testutil.ToFloat64(metrics.SkippedQueries.WithLabelValues(string(SkipShape)))

	mock := inference.NewMock()
	d := newDispatcher(mock, 4)

	queries := []buffer.Variant{
		query(0),
		buffer.New([]float32{1, 2}), // too short
		query(2),
		query(3),
	}

	outcomes, err := d.Run(context.Background(), queries)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if mock.CallCount != 1 {
		t.Errorf("Expected 1 inference call, got %d", mock.CallCount)
	}

	skipped := outcomes[1]
	if skipped.Skip != SkipShape {
		t.Errorf("Expected SkipShape, got %q", skipped.Skip)
	}
	if skipped.Result.Valid() || skipped.Result.Index != -1 {
		t.Errorf("Expected invalid placeholder, got %+v", skipped.Result)
	}
	if !errors.Is(skipped.Result.Err, ErrShape) {
		t.Errorf("Expected ErrShape, got %v", skipped.Result.Err)
	}

	// the skipped slot is sent as zeros
	for i, v := range mock.Inputs[0][4:8] {
		if v != 0 {
			t.Errorf("Skipped slot value %d = %f, expected 0", i, v)
		}
	}

	compact := Compact(outcomes)
	if len(compact) != 3 {
		t.Fatalf("Expected 3 compact results, got %d", len(compact))
	}

	// batching must not perturb individual results
	for k, q := range []int{0, 2, 3} {
		alone, err := newDispatcher(inference.NewMock(), 1).Run(context.Background(), []buffer.Variant{queries[q]})
		if err != nil {
			t.Fatalf("Run alone failed: %v", err)
		}
		got, want := compact[k].Probabilities, alone[0].Result.Probabilities
		if len(got) != len(want) {
			t.Fatalf("Query %d: probability length %d vs %d", q, len(got), len(want))
		}
		for j := range want {
			if math.Float32bits(got[j]) != math.Float32bits(want[j]) {
				t.Errorf("Query %d value %d differs: %v vs %v", q, j, got[j], want[j])
			}
		}
		if compact[k].Index != alone[0].Result.Index {
			t.Errorf("Query %d index %d vs %d", q, compact[k].Index, alone[0].Result.Index)
		}
	}

	after := testutil.ToFloat64(metrics.SkippedQueries.WithLabelValues(string(SkipShape)))
	if after-before != 1 {
		t.Errorf("Expected skip counter to grow by 1, grew by %f", after-before)
	}
}

func TestDispatcher_TypeMismatchSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	mock := inference.NewMock()
	d := newDispatcher(mock, 2)
	d.Logger = zap.New(core)

	queries := []buffer.Variant{
		query(1),
		buffer.New([]int32{1, 2, 3, 4}),
		query(3),
	}

	ctx := runctx.WithGivenRunID(context.Background(), "run-1")
	outcomes, err := d.Run(ctx, queries)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if mock.CallCount != 2 {
		t.Errorf("Expected 2 inference calls, got %d", mock.CallCount)
	}

	if outcomes[1].Skip != SkipTypeMismatch {
		t.Errorf("Expected SkipTypeMismatch, got %q", outcomes[1].Skip)
	}
	if !errors.Is(outcomes[1].Result.Err, buffer.ErrTypeMismatch) {
		t.Errorf("Expected ErrTypeMismatch, got %v", outcomes[1].Result.Err)
	}
	if outcomes[0].Result.Index != 1 || outcomes[2].Result.Index != 3 {
		t.Errorf("Unexpected indices: %d, %d", outcomes[0].Result.Index, outcomes[2].Result.Index)
	}

	entries := logs.FilterMessage("skipping query").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 skip log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["run_id"] != "run-1" {
		t.Errorf("Expected run_id run-1, got %v", fields["run_id"])
	}
	if fields["query"] != int64(1) {
		t.Errorf("Expected query 1, got %v", fields["query"])
	}
}

func TestDispatcher_EngineErrorAborts(t *testing.T) {
	mock := inference.NewMock()
	mock.SetError("model execution failed")
	d := newDispatcher(mock, 4)

	_, err := d.Run(context.Background(), []buffer.Variant{query(0), query(1)})
	if err == nil {
		t.Fatal("Expected error from inference, got nil")
	}
	if mock.CallCount != 1 {
		t.Errorf("Expected 1 inference call before abort, got %d", mock.CallCount)
	}
}

func TestDispatcher_CanceledContext(t *testing.T) {
	mock := inference.NewMock()
	d := newDispatcher(mock, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Run(ctx, []buffer.Variant{query(0)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if mock.CallCount != 0 {
		t.Errorf("Expected no inference calls, got %d", mock.CallCount)
	}
}

func TestDispatcher_InvalidConfiguration(t *testing.T) {
	cases := map[string]*Dispatcher{
		"nil engine":     {Unpacker: result.ArgmaxUnpacker{Classes: 4}, Width: 1, InputDims: inputDims, OutputDims: outputDims},
		"zero width":     newDispatcher(inference.NewMock(), 0),
		"unpacker width": {Engine: inference.NewMock(), Unpacker: result.ArgmaxUnpacker{Classes: 3}, Width: 1, InputDims: inputDims, OutputDims: outputDims},
	}
	for name, d := range cases {
		if _, err := d.Run(context.Background(), []buffer.Variant{query(0)}); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

func TestResults_KeepsPlaceholders(t *testing.T) {
	outcomes := []Outcome{
		{Query: 0, Result: result.Result{Kind: result.Classification, Index: 2}},
		{Query: 1, Result: result.Invalid(result.Classification, ErrShape), Skip: SkipShape},
	}

	all := Results(outcomes)
	if len(all) != 2 || all[1].Valid() {
		t.Errorf("Expected placeholder at position 1, got %+v", all)
	}
	if compact := Compact(outcomes); len(compact) != 1 || compact[0].Index != 2 {
		t.Errorf("Expected single compact result, got %+v", compact)
	}
}
