// Package costmodel computes per-country unit production costs for
// compute services ($/GPU-hour) from structural parameters and joined
// reference data.
//
// The unit cost is the sum of exactly three additive terms:
//
//	c_j = PUE(theta_j) * gamma * p_E,j  +  (rho + eta)  +  gamma_W * p_L,j / (D * H)
//
// where the cooling multiplier PUE applies to the energy term only, the
// hardware term rho and networking constant eta are identical across
// countries, and the construction term amortizes the local price per
// watt over the facility lifetime. Scenario variation (price deltas,
// subsidy corrections, efficiency caps) goes through the Overrides
// struct; the formula itself never branches on scenario.
package costmodel
