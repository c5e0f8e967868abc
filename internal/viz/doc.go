// Package viz renders the tank controller in the terminal.
//
// [Model] is a Bubble Tea program that advances a control loop on a timer
// and draws both tanks, the pump gate and recent history:
//
//	Space - Pause/Resume
//	N     - Single tick while paused
//	R     - Reset to the initial state
//	0-4   - Rain intensity
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
//
// [Plot] draws a finished run as an ASCII chart for the plot command.
package viz
