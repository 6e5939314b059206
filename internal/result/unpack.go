package result

// Argmax returns the index of the largest value, preferring the lowest index
// on ties. It returns -1 for an empty slice.
func Argmax(values []float32) int {
	if len(values) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// ArgmaxUnpacker selects the highest scoring class for each slot.
type ArgmaxUnpacker struct {
	Classes int
	// KeepProbabilities also copies the full score vector into the result.
	KeepProbabilities bool
}

func (u ArgmaxUnpacker) Kind() Kind { return Classification }
func (u ArgmaxUnpacker) Width() int { return u.Classes }

func (u ArgmaxUnpacker) Unpack(output []float32, slot int) (Result, error) {
	scores, err := slotRange(output, slot, u.Classes)
	if err != nil {
		return Result{}, err
	}
	r := Result{Kind: Classification, Index: Argmax(scores)}
	if u.KeepProbabilities {
		r.Probabilities = append([]float32(nil), scores...)
	}
	return r, nil
}

// PassthroughUnpacker copies each slot's detection candidates unchanged.
type PassthroughUnpacker struct {
	Values int
}

func (u PassthroughUnpacker) Kind() Kind { return Detection }
func (u PassthroughUnpacker) Width() int { return u.Values }

func (u PassthroughUnpacker) Unpack(output []float32, slot int) (Result, error) {
	candidates, err := slotRange(output, slot, u.Values)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Kind:       Detection,
		Index:      -1,
		Candidates: append([]float32(nil), candidates...),
	}, nil
}

var (
	_ Unpacker = ArgmaxUnpacker{}
	_ Unpacker = PassthroughUnpacker{}
)
