package runner

import (
	"context"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/procbench/metrics"
	"github.com/ethereum-optimism/infra/procbench/types"
)

func TestResourceSamplerStartsAtZero(t *testing.T) {
	s := NewResourceSampler(newFakeProcess(10, "", ""), log.NewLogger(log.DiscardHandler()), nil)
	assert.Equal(t, Peaks{}, s.Peaks())
}

func TestResourceSamplerTracksPeaks(t *testing.T) {
	proc := newFakeProcess(100, "", "")
	proc.readings = []types.MemoryCounters{
		{WorkingSetBytes: 2048, PageFileBytes: 8192},
		{WorkingSetBytes: 4096, PageFileBytes: 4096},
		{WorkingSetBytes: 1024, PageFileBytes: 16384},
	}
	s := NewResourceSampler(proc, log.NewLogger(log.DiscardHandler()), nil)

	for range proc.readings {
		require.True(t, s.SampleOnce(context.Background()))
	}
	assert.Equal(t, Peaks{WorkingSetKB: 4, PageFileKB: 16}, s.Peaks())
	taken, skipped := s.Samples()
	assert.Equal(t, 3, taken)
	assert.Equal(t, 0, skipped)
}

func TestResourceSamplerPeaksNeverDecrease(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	proc := newFakeProcess(1000, "", "")
	proc.failQueries = map[int]bool{}
	for i := 0; i < 200; i++ {
		proc.readings = append(proc.readings, types.MemoryCounters{
			WorkingSetBytes: uint64(rng.Intn(1 << 30)),
			PageFileBytes:   uint64(rng.Intn(1 << 30)),
		})
		if rng.Intn(5) == 0 {
			proc.failQueries[i] = true
		}
	}
	s := NewResourceSampler(proc, log.NewLogger(log.DiscardHandler()), nil)

	prev := s.Peaks()
	for range proc.readings {
		s.SampleOnce(context.Background())
		cur := s.Peaks()
		require.GreaterOrEqual(t, cur.WorkingSetKB, prev.WorkingSetKB)
		require.GreaterOrEqual(t, cur.PageFileKB, prev.PageFileKB)
		prev = cur
	}
}

func TestResourceSamplerSkipsFailedQuery(t *testing.T) {
	proc := newFakeProcess(100, "", "")
	proc.readings = []types.MemoryCounters{
		{WorkingSetBytes: 1024, PageFileBytes: 1024},
		{WorkingSetBytes: 1 << 40, PageFileBytes: 1 << 40},
	}
	proc.failQueries = map[int]bool{1: true}
	m := metrics.New(prometheus.NewRegistry())
	s := NewResourceSampler(proc, log.NewLogger(log.DiscardHandler()), m)

	require.True(t, s.SampleOnce(context.Background()))
	require.False(t, s.SampleOnce(context.Background()))
	assert.Equal(t, Peaks{WorkingSetKB: 1, PageFileKB: 1}, s.Peaks())
	taken, skipped := s.Samples()
	assert.Equal(t, 1, taken)
	assert.Equal(t, 1, skipped)
}

func TestResourceSamplerIgnoresExitedProcess(t *testing.T) {
	proc := newFakeProcess(0, "", "")
	proc.readings = []types.MemoryCounters{{WorkingSetBytes: 1 << 20}}
	s := NewResourceSampler(proc, log.NewLogger(log.DiscardHandler()), nil)

	assert.False(t, s.SampleOnce(context.Background()))
	assert.Equal(t, 0, proc.queries)
	assert.Equal(t, Peaks{}, s.Peaks())
}
