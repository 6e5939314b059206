package submitter

import (
	"fmt"
	"sort"

	"github.com/SyedDaiam9101/bmt-submitter/internal/preprocess"
	"github.com/SyedDaiam9101/bmt-submitter/internal/result"
)

// Profile describes a model family's tensor contract.
type Profile struct {
	Name   string
	Task   result.Kind
	Height int
	Width  int
	// Order is the channel order the model expects.
	Order preprocess.ChannelOrder
	// Normalization is nil for models that take plain [0,1] input.
	Normalization *preprocess.Normalization
	// OutputDims is the per-query output shape.
	OutputDims []int64
	// KeepProbabilities makes classification results carry the full score
	// vector in addition to the winning index.
	KeepProbabilities bool
}

// InputDims is the per-query input shape in CHW order.
func (p Profile) InputDims() []int64 {
	return []int64{3, int64(p.Height), int64(p.Width)}
}

// Transform returns the preprocessing transform for the profile.
func (p Profile) Transform() preprocess.Transform {
	return preprocess.Transform{
		Height:        p.Height,
		Width:         p.Width,
		Order:         p.Order,
		Normalization: p.Normalization,
	}
}

// Unpacker returns the result unpacker for the profile.
func (p Profile) Unpacker() result.Unpacker {
	n := 1
	for _, d := range p.OutputDims {
		n *= int(d)
	}
	if p.Task == result.Detection {
		return result.PassthroughUnpacker{Values: n}
	}
	return result.ArgmaxUnpacker{Classes: n, KeepProbabilities: p.KeepProbabilities}
}

var profiles = map[string]Profile{
	"resnet50": {
		Name:          "resnet50",
		Task:          result.Classification,
		Height:        224,
		Width:         224,
		Order:         preprocess.RGB,
		Normalization: &preprocess.ImageNet,
		OutputDims:    []int64{1000},
	},
	"resnet50-probs": {
		Name:              "resnet50-probs",
		Task:              result.Classification,
		Height:            224,
		Width:             224,
		Order:             preprocess.RGB,
		Normalization:     &preprocess.ImageNet,
		OutputDims:        []int64{1000},
		KeepProbabilities: true,
	},
	"yolov10": {
		Name:       "yolov10",
		Task:       result.Detection,
		Height:     640,
		Width:      640,
		Order:      preprocess.RGB,
		OutputDims: []int64{300, result.EndToEndStride},
	},
}

// RegisterProfile makes p available to Configure under p.Name.
func RegisterProfile(p Profile) {
	profiles[p.Name] = p
}

// LookupProfile returns the profile registered under name.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownProfile, name, ProfileNames())
	}
	return p, nil
}

// ProfileNames lists the registered profiles in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
