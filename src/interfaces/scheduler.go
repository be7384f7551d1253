package interfaces

// -----------------------------------------------------------------------------
// IScheduler is the slice of the update scheduler the admin surface needs.
// -----------------------------------------------------------------------------

type IScheduler interface {

	// Active reports whether the periodic refresh timer is running.
	Active() bool

	// -----------------------------------------------------------------------------

	// ForceUpdate runs an out-of-band fetch+broadcast cycle for the given
	// symbols (all subscribed symbols when empty) without waiting for the
	// next tick.
	ForceUpdate(symbols []string)
}
