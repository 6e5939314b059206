//go:build !gocv

package main

import (
	"fmt"

	"github.com/SyedDaiam9101/bmt-submitter/internal/config"
	"github.com/SyedDaiam9101/bmt-submitter/internal/preprocess"
)

// newDecoder builds the configured image decoder. This build has no OpenCV.
func newDecoder(name string, width, height int) (preprocess.Decoder, error) {
	switch name {
	case config.DecoderStd:
		return preprocess.StdDecoder{Width: width, Height: height}, nil
	case config.DecoderOpenCV:
		return nil, fmt.Errorf("decoder %q requires a build with -tags gocv", name)
	default:
		return nil, fmt.Errorf("unknown decoder %q", name)
	}
}
