// Package analysis post-processes recorded trajectories.
//
//   - [DominantFrequency]: main oscillation frequency of a sampled signal
//   - [PowerSpectrum]: one-sided amplitude spectrum
//   - [NodeSeries], [DisplacementSeries]: signals extracted from trajectories
//   - [NodePath], [PathToASCII]: 2D path of a node rendered as text
//
// A stored run is typically analysed as:
//
//	states, times, _ := store.LoadStates(runID, "beam")
//	tip := analysis.NodeSeries(states, node, 3, 1)
//	f, _ := analysis.DominantFrequency(tip, times[1]-times[0])
package analysis
