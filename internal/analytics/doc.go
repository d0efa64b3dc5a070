// Package analytics computes the read-only views of a cleaned frame: schema,
// missingness, descriptive statistics, pairwise correlation, grouped
// aggregates and principal component analysis.
//
// Conditions that make a view meaningless (too few numeric columns, no rows
// left after dropping gaps) are reported as notices on the result rather
// than as errors.
package analytics
