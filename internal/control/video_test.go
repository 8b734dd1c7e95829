package control

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidloop/keystoned/internal/app"
	"github.com/vidloop/keystoned/internal/capture"
)

type fakeVideoSource struct {
	pixFmt        uint32
	width, height int
	caps          []capture.SizeRates
	released      bool
}

func (f *fakeVideoSource) PixelFormat() uint32                        { return f.pixFmt }
func (f *fakeVideoSource) Size() (int, int)                           { return f.width, f.height }
func (f *fakeVideoSource) Capabilities() ([]capture.SizeRates, error) { return f.caps, nil }
func (f *fakeVideoSource) Release() error                             { f.released = true; return nil }
func (f *fakeVideoSource) Acquire() error                             { f.released = false; return nil }
func (f *fakeVideoSource) Released() bool                             { return f.released }

func TestCurrentFormatReadsLiveSource(t *testing.T) {
	v := &Video{Source: &fakeVideoSource{pixFmt: 1, width: 640, height: 480}}

	pixFmt, w, h := v.CurrentFormat()
	require.Equal(t, uint32(1), pixFmt)
	require.Equal(t, 640, w)
	require.Equal(t, 480, h)
}

func TestRequestSettingsReturnsRestartRequiredAndQueuesPending(t *testing.T) {
	app.ConfigPath = filepath.Join(t.TempDir(), "keystoned.yaml")
	v := &Video{Source: &fakeVideoSource{}}

	err := v.RequestSettings(1280, 720, 30)
	require.ErrorIs(t, err, ErrRestartRequired)

	pending := v.Pending()
	require.NotNil(t, pending.Width)
	require.Equal(t, 1280, *pending.Width)
}

func TestReleaseAndAcquireDelegateToSource(t *testing.T) {
	src := &fakeVideoSource{}
	v := &Video{Source: src}

	require.NoError(t, v.Release())
	require.True(t, v.Released())

	require.NoError(t, v.Acquire())
	require.False(t, v.Released())
}
