package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/procbench"
	"github.com/ethereum-optimism/infra/procbench/exitcodes"
	"github.com/ethereum-optimism/infra/procbench/stats"
)

func TestExitCodeFor(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"no error", nil, exitcodes.Success},
		{"usage error", procbench.NewUsageError("expected at least 4 arguments"), exitcodes.Success},
		{"wrapped usage error", fmt.Errorf("failed to setup: %w", procbench.NewUsageError("bad")), exitcodes.Success},
		{"empty batch", &stats.EmptyBatchError{RunID: "r", Attempts: 3}, exitcodes.EmptyBatch},
		{"empty batch joined with stop error", errors.Join(&stats.EmptyBatchError{}, errors.New("stop")), exitcodes.EmptyBatch},
		{"runtime error", procbench.NewRuntimeError(errors.New("disk full")), exitcodes.RuntimeErr},
		{"unclassified", errors.New("boom"), exitcodes.RuntimeErr},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, exitCodeFor(tc.err))
		})
	}
}
