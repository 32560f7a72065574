package driving

import "context"

// Scheduler re-runs ingestion in the background.
type Scheduler interface {
	// Start runs an initial pass, then re-scans on every tick or trigger.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Trigger requests a pass as soon as possible. Never blocks.
	Trigger()

	// Stop gracefully stops the scheduler.
	Stop() error
}
