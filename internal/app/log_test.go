package app

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestGetLogger(t *testing.T) {
	prev := modules
	t.Cleanup(func() { modules = prev })

	modules = map[string]string{
		"capture": "debug",
		"api":     "warn",
	}
	Logger = zerolog.New(nil).Level(zerolog.InfoLevel)

	require.Equal(t, zerolog.DebugLevel, GetLogger("capture").GetLevel())
	require.Equal(t, zerolog.WarnLevel, GetLogger("api").GetLevel())
	require.Equal(t, zerolog.InfoLevel, GetLogger("nonexistent").GetLevel())
}

func TestCircularBuffer(t *testing.T) {
	buf := newBuffer(2)

	_, err := buf.Write([]byte("hello"))
	require.NoError(t, err)
	_, err = buf.Write([]byte("world"))
	require.NoError(t, err)

	var sb strings.Builder
	_, err = buf.WriteTo(&sb)
	require.NoError(t, err)
	require.Equal(t, "helloworld", sb.String())

	buf.Reset()

	sb.Reset()
	_, err = buf.WriteTo(&sb)
	require.NoError(t, err)
	require.Equal(t, "", sb.String())
}
