package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenMetadata(t *testing.T) {
	path := writeLog(t, "MX-10/run3/THL-400/clusters.txt", twoFrames)

	r, err := Open[int32](path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, path, r.Path())
	assert.Equal(t, "MX-10", r.Source())
	assert.Equal(t, "THL-400", r.Settings())
	assert.Equal(t, int64(len(twoFrames)), r.Size())
	assert.Equal(t, 6, r.Lines())
	assert.Equal(t, 0, r.Line(), "counting lines does not move the parse position")

	frames := 0
	for r.HasMore() {
		_, err := r.Next()
		require.NoError(t, err)
		frames++
	}
	assert.Equal(t, 2, frames)
	_, err = r.Next()
	assert.ErrorIs(t, err, ErrEndOfStream)
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	tests := []struct {
		name   string
		path   string
		reason string
	}{
		{"missing", filepath.Join(dir, "nope.txt"), "does not exist"},
		{"directory", dir, "is not a regular file"},
		{"empty", empty, "is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Open[int32](tt.path)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, ErrOpen)

			var openErr *OpenError
			require.True(t, errors.As(err, &openErr))
			assert.Equal(t, tt.path, openErr.Path)
			assert.Equal(t, tt.reason, openErr.Reason)
		})
	}
}

func TestReaderClose(t *testing.T) {
	r, err := Open[int32](writeLog(t, "clusters.txt", twoFrames))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "second close is a no-op")
	assert.False(t, r.HasMore())
	_, err = r.Next()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReaderStrictOption(t *testing.T) {
	r, err := Open[int32](writeLog(t, "clusters.txt", "Frame 1 (x s, 1 s)\n"), WithStrict(true))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestCountLines(t *testing.T) {
	tests := map[string]int{
		"":              0,
		"a":             1,
		"a\n":           1,
		"a\nb":          2,
		"a\nb\n":        2,
		"\n\n\n":        3,
		twoFrames:       6,
		twoFrames + "x": 7,
	}
	for in, want := range tests {
		got, err := CountLines(strings.NewReader(in))
		require.NoError(t, err)
		assert.Equal(t, want, got, "CountLines(%q)", in)
	}

	long := strings.Repeat("[1, 2, 3]\n", 10000)
	got, err := CountLines(strings.NewReader(long))
	require.NoError(t, err)
	assert.Equal(t, 10000, got)
}
