// Package viz is the terminal live view of a running scene, built on
// Bubble Tea.
//
//   - [WatchModel]: steps a built scene on a ticker and shows per-body
//     status, metrics and a displacement chart
//   - [RunInteractive]: preset picker that opens a [WatchModel]
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to the rest state
//	Tab   - Select the next body
//	↑/↓   - Tune the Rayleigh mass damping of the selected body
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
