package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(rewriteLegacyArgs(args))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRewriteLegacyArgs(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{"-t", "data.txt"}, []string{"table", "data.txt"}},
		{[]string{"-c"}, []string{"calibrate"}},
		{[]string{"table", "-t"}, []string{"table", "-t"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rewriteLegacyArgs(tc.in))
	}
}

func TestCalibrationUnsupported(t *testing.T) {
	_, err := execute(t, "-c", "--log-file", "")
	assert.ErrorIs(t, err, errCalibrationUnsupported)
}

func TestSimulateTableDump(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "MX-10", "run1", "THL-400")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))
	logPath := filepath.Join(dataDir, "clusters.txt")
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "simulate", logPath, "--frames", "4", "--clusters", "3", "--log-file", "")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 4 frames")

	info, err := os.Stat(logPath)
	require.NoError(t, err)

	out, err = execute(t, "-t", logPath,
		"--log-file", filepath.Join(dir, "log.txt"),
		"--output-dir", outDir,
		"--progress=false",
		"--raw-log",
		"--strict",
	)
	require.NoError(t, err)
	// 4 frames of a header, 3 clusters and a blank line.
	assert.Equal(t, "|-\n| MX-10 || "+strconv.FormatInt(info.Size(), 10)+" || 20 || 4 || THL-400\n", out)

	logData, err := os.ReadFile(filepath.Join(dir, "log.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "Number of frames is: 4 frames")

	matches, err := filepath.Glob(filepath.Join(outDir, "*_MX-10_*.bin"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	dumpLimit = 0
	out, err = execute(t, "dump", matches[0], "--text", "--log-file", "")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "Frame no: "))
	assert.Contains(t, out, "No. 3 Pixel:")
	dumpText = false
}

func TestTableMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "table", filepath.Join(dir, "nope.txt"), "--log-file", filepath.Join(dir, "log.txt"), "--progress=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
