//go:build gocv

package main

import (
	"fmt"

	"github.com/SyedDaiam9101/bmt-submitter/internal/config"
	"github.com/SyedDaiam9101/bmt-submitter/internal/preprocess"
)

// newDecoder builds the configured image decoder.
func newDecoder(name string, width, height int) (preprocess.Decoder, error) {
	switch name {
	case config.DecoderStd:
		return preprocess.StdDecoder{Width: width, Height: height}, nil
	case config.DecoderOpenCV:
		return preprocess.CVDecoder{Width: width, Height: height}, nil
	default:
		return nil, fmt.Errorf("unknown decoder %q", name)
	}
}
