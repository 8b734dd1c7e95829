package output

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/pkg/v4l2/device"
)

func TestTranslateWriteErrPassesThroughNil(t *testing.T) {
	require.NoError(t, translateWriteErr(nil))
}

func TestTranslateWriteErrMapsShortWriteToDeviceLost(t *testing.T) {
	require.ErrorIs(t, translateWriteErr(device.ErrShortWrite), device.ErrDeviceLost)
}

func TestTranslateWriteErrPassesThroughOtherErrors(t *testing.T) {
	sentinel := errors.New("boom")
	require.ErrorIs(t, translateWriteErr(sentinel), sentinel)
}
