// Package market solves the capacity-constrained competitive equilibrium
// for the bulk compute class.
//
// # Model
//
// Sellers form a step-function supply curve: offers sorted ascending by
// unit cost, each contributing its bulk capacity. Buyers import whenever
// their domestic unit cost exceeds (1 + markup) times the market price.
// The clearing price is the cost of the marginal seller — the point on
// the supply curve where cumulative capacity first meets export demand.
//
// Because export demand itself depends on the trial price, the price is
// found by discrete fixed-point iteration:
//
//  1. Start at the cheapest seller's cost.
//  2. Compute export demand at the trial price.
//  3. Walk the supply curve to the marginal seller; its cost is the new
//     trial price.
//  4. Repeat until consecutive prices agree within tolerance, or the
//     iteration budget runs out.
//
// The domain of possible prices is the finite set of seller costs, so a
// settled solve converges exactly in finitely many steps. Import status
// flipping between iterations can, however, produce a cycle; the loop is
// therefore bounded and a stalled solve is reported via ErrNotConverged
// together with the last trial state, never returned silently.
//
// # Outputs
//
// A cleared Result carries the price, the greedy cheapest-first
// allocation, a Herfindahl-style concentration index over allocation
// shares, and a shadow value (price minus own cost) for every
// infra-marginal seller whose capacity binds.
//
// Clear is pure and deterministic: identical inputs produce identical
// outputs, which the scenario batch relies on for reproducible
// sensitivity reporting.
package market
