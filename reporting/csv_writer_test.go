package reporting

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/procbench/types"
)

const expectedHeader = "Average total processor time (s), Standard deviation of total processor time (s), " +
	"Average peak working set (kb), Standard deviation of peak working set (kb), " +
	"Average peak page file usage (kb), Standard deviation of peak page file usage (kb), Run ID"

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "\n"), "file must end with a newline")
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestAppendSummaryWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	first := &types.BatchSummary{MeanCPU: 1.5, StddevCPU: 0.25, MeanWSS: 1024, StddevWSS: 0, MeanPF: 2048.5, StddevPF: 3, RunID: "baseline"}
	require.NoError(t, AppendSummary(path, first))

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, expectedHeader, lines[0])
	assert.Equal(t, "1.5, 0.25, 1024, 0, 2048.5, 3, baseline", lines[1])

	second := &types.BatchSummary{MeanCPU: 2, RunID: "candidate"}
	require.NoError(t, AppendSummary(path, second))

	lines = readLines(t, path)
	require.Len(t, lines, 3)
	assert.Equal(t, expectedHeader, lines[0])
	assert.Equal(t, "1.5, 0.25, 1024, 0, 2048.5, 3, baseline", lines[1])
	assert.Equal(t, "2, 0, 0, 0, 0, 0, candidate", lines[2])
}

func TestAppendSummaryKeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("legacy line\n"), 0o644))

	require.NoError(t, AppendSummary(path, &types.BatchSummary{RunID: "next"}))

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "legacy line", lines[0])
	assert.Equal(t, "0, 0, 0, 0, 0, 0, next", lines[1])
}

func TestAppendSummaryErrors(t *testing.T) {
	dir := t.TempDir()

	err := AppendSummary(filepath.Join(dir, "missing-dir", "results.csv"), &types.BatchSummary{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = AppendSummary(filepath.Join(dir, "results.csv"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary cannot be nil")
}

func TestCSVWriterSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	w := NewCSVWriter(path)
	assert.Equal(t, "csv:"+path, w.Name())

	require.NoError(t, w.AppendSummary(context.Background(), &types.BatchSummary{RunID: "a"}))
	require.NoError(t, w.AppendSummary(context.Background(), &types.BatchSummary{RunID: "b"}))
	assert.Len(t, readLines(t, path), 3)
}

func TestHeaderMatchesRowWidth(t *testing.T) {
	row := FormatRow(&types.BatchSummary{RunID: "x"})
	assert.Len(t, strings.Split(row, Separator), len(Header))
}
