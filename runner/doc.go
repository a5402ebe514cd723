// Package runner measures repeated executions of an external program.
//
// The main components are:
//   - ProcessLauncher: starts the target with both output streams redirected to pipes
//   - OutputCapture: drains stdout and stderr concurrently so the child never blocks on a full pipe
//   - ResourceSampler: polls memory counters of the live process and keeps running peaks
//   - Supervisor: drives one monitored run from launch until exit and end of both streams
//   - Orchestrator: runs a batch sequentially, isolates launch failures and aggregates results
//
// Only one target process is alive at a time. A hung target keeps its run
// polling until it terminates on its own.
package runner
