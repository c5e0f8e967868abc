// Package control runs the pump control loop.
//
// A [Controller] owns the tank state and, once per tick:
//
//   - updates the [Hysteresis] gate from the natural tank level
//   - asks the fuzzy engine for a pump power while the pump is active
//   - steps the tank model with that power and the tick's rain intensity
//   - returns a [Snapshot] of the new observable state
//
// # Usage
//
//	ctrl, err := control.New(opts)
//	for {
//		snap := ctrl.Tick(rain)
//		render(snap)
//	}
//
// Ticks are serialized by the controller; a renderer may call
// [Controller.CurrentState] from another goroutine.
package control
