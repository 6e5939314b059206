//go:build !gocv

package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SyedDaiam9101/bmt-submitter/internal/config"
	"github.com/SyedDaiam9101/bmt-submitter/internal/preprocess"
)

func TestNewDecoder(t *testing.T) {
	dec, err := newDecoder(config.DecoderStd, 224, 224)
	require.NoError(t, err)
	require.Equal(t, preprocess.StdDecoder{Width: 224, Height: 224}, dec)

	_, err = newDecoder(config.DecoderOpenCV, 224, 224)
	require.ErrorContains(t, err, "gocv")

	_, err = newDecoder("pillow", 224, 224)
	require.Error(t, err)
}
