//go:build gocv

package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SyedDaiam9101/bmt-submitter/internal/config"
	"github.com/SyedDaiam9101/bmt-submitter/internal/preprocess"
)

func TestNewDecoder_OpenCV(t *testing.T) {
	dec, err := newDecoder(config.DecoderOpenCV, 640, 640)
	require.NoError(t, err)
	require.Equal(t, preprocess.CVDecoder{Width: 640, Height: 640}, dec)

	dec, err = newDecoder(config.DecoderStd, 640, 640)
	require.NoError(t, err)
	require.Equal(t, preprocess.StdDecoder{Width: 640, Height: 640}, dec)
}
