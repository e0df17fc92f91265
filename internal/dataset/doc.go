// Package dataset loads the reference CSVs (electricity prices, peak
// temperatures, construction costs, bilateral latency, data-center and
// grid capacity, reliability) and joins them into the per-country
// calibration records the cost model and market clearer consume.
//
// The calibration set is the intersection of countries present in the
// electricity, temperature, and construction datasets. Missing optional
// attributes are defaulted (reliability 1, unbounded capacity, the
// demand-weight floor); invalid rows reject the whole load.
package dataset
