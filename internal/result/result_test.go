package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgmax(t *testing.T) {
	if got := Argmax([]float32{0.1, 0.7, 0.2}); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
	if got := Argmax([]float32{0.5, 0.9, 0.1, 0.9}); got != 1 {
		t.Errorf("Expected first of tied maxima (1), got %d", got)
	}
	if got := Argmax([]float32{-3, -1, -2}); got != 1 {
		t.Errorf("Expected 1 for negative scores, got %d", got)
	}
	if got := Argmax(nil); got != -1 {
		t.Errorf("Expected -1 for empty input, got %d", got)
	}
}

func TestArgmaxUnpacker(t *testing.T) {
	output := []float32{
		0.1, 0.2, 0.7, // slot 0 -> 2
		0.4, 0.4, 0.2, // slot 1 -> 0 (tie)
	}
	u := ArgmaxUnpacker{Classes: 3}

	r0, err := u.Unpack(output, 0)
	require.NoError(t, err)
	require.Equal(t, 2, r0.Index)
	require.Nil(t, r0.Probabilities)
	require.True(t, r0.Valid())

	r1, err := u.Unpack(output, 1)
	require.NoError(t, err)
	require.Equal(t, 0, r1.Index)

	_, err = u.Unpack(output, 2)
	require.Error(t, err)
}

func TestArgmaxUnpacker_KeepProbabilities(t *testing.T) {
	output := []float32{0.3, 0.6, 0.1}
	u := ArgmaxUnpacker{Classes: 3, KeepProbabilities: true}

	r, err := u.Unpack(output, 0)
	require.NoError(t, err)
	require.Equal(t, 1, r.Index)
	require.Equal(t, []float32{0.3, 0.6, 0.1}, r.Probabilities)

	// the result owns its copy
	output[0] = 9
	require.Equal(t, float32(0.3), r.Probabilities[0])
}

func TestPassthroughUnpacker(t *testing.T) {
	output := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	u := PassthroughUnpacker{Values: 4}

	r, err := u.Unpack(output, 1)
	require.NoError(t, err)
	require.Equal(t, Detection, r.Kind)
	require.Equal(t, []float32{5, 6, 7, 8}, r.Candidates)
	require.True(t, r.Valid())
}

func TestInvalid(t *testing.T) {
	r := Invalid(Classification, errors.New("skipped"))
	require.False(t, r.Valid())
	require.Equal(t, -1, r.Index)
}

func TestDecodeEndToEnd(t *testing.T) {
	candidates := []float32{
		10, 20, 50, 80, 0.9, 3,
		0, 0, 1, 1, 0.1, 7,
	}

	boxes, err := DecodeEndToEnd(candidates, 0.25)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	require.Equal(t, Box{Class: 3, X: 10, Y: 20, Width: 40, Height: 60, Confidence: 0.9}, boxes[0])

	_, err = DecodeEndToEnd(candidates[:5], 0.25)
	require.Error(t, err)
}
