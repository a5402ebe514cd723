// Package exitcodes defines the exit codes used by procbench.
package exitcodes

// Exit code constants used by procbench.
//
// Usage errors exit with Success after printing the usage message, so a
// caller cannot tell a malformed command line from a completed batch by the
// exit code alone.
const (
	Success    = 0 // Batch summarized, or usage printed
	EmptyBatch = 1 // No run of the batch succeeded
	RuntimeErr = 2 // Configuration, I/O or sink failures
)
