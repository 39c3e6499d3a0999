// Package coordinator runs the synchronization cycle in the background.
//
// The coordinator is started exactly once per process. It runs a cycle,
// waits for the configured interval after a success and repeats until its
// context is cancelled or Stop is called:
//
//	coord := coordinator.New(manager, coordinator.PolicyFromConfig(cfg),
//	    coordinator.WithStatusTracker(tracker))
//	err := coord.Start(ctx) // blocks
//
// # Failure policy
//
// A failed cycle is retried with exponential backoff while its error is
// transient and fewer than Policy.MaxAttempts attempts were made. Fatal
// errors (a changed feed layout, an unseeded checkpoint) are never retried.
// Once a cycle gives up, Start returns its error and the process is expected
// to exit and be restarted by its supervisor. With the default MaxAttempts
// of 1 every failure ends the process.
package coordinator
