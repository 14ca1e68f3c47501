// Package clock provides the time source used by the reconnection supervisor.
//
// Production code uses Real(), which delegates to the time package. Tests use
// Fake(), whose timers fire only when Advance is called, so retry delays can
// be exercised deterministically without sleeping.
//
// # Usage
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	sup := controller.NewSupervisor(controller.SupervisorOptions{Clock: fake, ...})
//	// ... trigger a disconnect ...
//	fake.WaitForTimers(1)        // retry timer registered
//	fake.Advance(5 * time.Second) // retry fires
package clock
