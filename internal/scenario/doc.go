// Package scenario runs the sensitivity and counterfactual battery:
// each scenario recomputes the cost ranking, the sourcing assignments,
// and the capacity-constrained equilibrium under a named set of
// overrides, then compares the resulting ranking against the baseline.
//
// Scenarios are independent and run in parallel; results are returned
// in scenario order so reports are reproducible run to run.
package scenario
