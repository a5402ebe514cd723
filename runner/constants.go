package runner

import "time"

const (
	// DefaultPollInterval is how long the monitoring loop waits for the
	// target to exit between two memory samples.
	DefaultPollInterval = time.Second

	// MinRunCount is the smallest accepted batch size.
	MinRunCount = 1
)
