package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/procbench/types"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls   []execCall
	failOn  string
	failErr error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: arguments})
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return pgconn.CommandTag{}, f.failErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestPostgresSinkCreatesTableAndInserts(t *testing.T) {
	db := &fakeExecer{}
	sink, err := newPostgresSink(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE IF NOT EXISTS procbench_summaries")

	summary := &types.BatchSummary{MeanCPU: 1, StddevCPU: 2, MeanWSS: 3, StddevWSS: 4, MeanPF: 5, StddevPF: 6, RunID: "r"}
	require.NoError(t, sink.AppendSummary(context.Background(), summary))
	require.Len(t, db.calls, 2)
	assert.Contains(t, db.calls[1].sql, "INSERT INTO procbench_summaries")
	assert.Equal(t, []any{"r", 1.0, 2.0, 3.0, 4.0, 5.0, 6.0}, db.calls[1].args)
	assert.Equal(t, "postgres", sink.Name())

	sink.Close()
}

func TestPostgresSinkErrors(t *testing.T) {
	_, err := newPostgresSink(context.Background(), &fakeExecer{failOn: "CREATE", failErr: errors.New("permission denied")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create summaries table")

	sink, err := newPostgresSink(context.Background(), &fakeExecer{failOn: "INSERT", failErr: errors.New("connection reset")})
	require.NoError(t, err)
	err = sink.AppendSummary(context.Background(), &types.BatchSummary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
