// Package refresh implements the retry and backoff state machine shared by
// the poll and push refresh strategies.
//
// A [Controller] owns the [State] of one running dashboard view: the number
// of consecutive failed attempts, whether further attempts may be scheduled,
// and the single pending timer. Strategies report outcomes through
// [Controller.OnSuccess], [Controller.Reset] and [Controller.OnFailure], then
// block in [Controller.Wait] until the next attempt is due.
//
// Delays grow exponentially with the failure count and are clamped by a
// ceiling. They never depend on elapsed wall-clock time, so the sequence is
// fully determined by the [Policy].
//
// Users of the statusboard library should not need to interact with this
// package directly. Configuration is done through the main statusboard package.
package refresh
